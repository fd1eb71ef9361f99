package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const configDebounce = 250 * time.Millisecond

// configWatcher reports changes to the loaded config files, their config.d
// directory and the main file once it is created.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	targets map[string]struct{}
	dropIns string
	dirs    map[string]struct{}
}

func newConfigWatcher(logger *slog.Logger) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &configWatcher{
		watcher:  w,
		logger:   logger,
		debounce: configDebounce,
		targets:  make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// Track replaces the watched set with mainPath, files and the config.d
// directory next to mainPath.
func (c *configWatcher) Track(mainPath string, files []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mainPath = cleanPath(mainPath)
	c.targets = map[string]struct{}{mainPath: {}}
	for _, f := range files {
		c.targets[cleanPath(f)] = struct{}{}
	}
	c.dropIns = filepath.Join(filepath.Dir(mainPath), "config.d")

	c.addDir(filepath.Dir(mainPath))
	c.addDir(c.dropIns)
	for path := range c.targets {
		c.addDir(filepath.Dir(path))
	}
}

func (c *configWatcher) addDir(dir string) {
	if _, ok := c.dirs[dir]; ok {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.logger.Debug("unable to watch config directory", "dir", dir, "error", err)
		return
	}
	c.dirs[dir] = struct{}{}
}

func (c *configWatcher) relevant(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = cleanPath(name)
	if _, ok := c.targets[name]; ok {
		return true
	}
	if filepath.Dir(name) == c.dropIns {
		ext := strings.ToLower(filepath.Ext(name))
		return ext == ".yaml" || ext == ".yml"
	}
	return false
}

// Run sends on requests after a burst of relevant changes settles. It returns
// when ctx is done or the watcher is closed.
func (c *configWatcher) Run(ctx context.Context, requests chan<- string) {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !c.relevant(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(c.debounce)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(c.debounce)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case requests <- "config file updated":
			default:
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (c *configWatcher) Close() error {
	return c.watcher.Close()
}

func cleanPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
