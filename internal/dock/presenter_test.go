package dock

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/intellihide/internal/desktop"
	"github.com/1broseidon/intellihide/internal/platform"
)

type fakeBackend struct {
	platform.Backend
	classes map[string]platform.WindowID
	mapped  map[platform.WindowID]bool
	failMap map[platform.WindowID]bool
}

func (b *fakeBackend) FindWindowByClass(class string) (platform.WindowID, error) {
	id, ok := b.classes[class]
	if !ok {
		return 0, errors.New("not found")
	}
	return id, nil
}

func (b *fakeBackend) Map(id platform.WindowID) error {
	if b.failMap[id] {
		return errors.New("bad window")
	}
	b.mapped[id] = true
	return nil
}

func (b *fakeBackend) Unmap(id platform.WindowID) error {
	if b.failMap[id] {
		return errors.New("bad window")
	}
	b.mapped[id] = false
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapPresenter(t *testing.T) {
	backend := &fakeBackend{
		classes: map[string]platform.WindowID{"Polybar": 4},
		mapped:  map[platform.WindowID]bool{},
		failMap: map[platform.WindowID]bool{},
	}
	locator := desktop.NewDockLocator(backend, "Polybar")
	p := NewMapPresenter(backend, locator, discardLogger())

	p.Hide()
	if mapped, ok := backend.mapped[4]; !ok || mapped {
		t.Fatalf("expected window 4 unmapped, got %v/%v", mapped, ok)
	}
	p.Show()
	if !backend.mapped[4] {
		t.Fatalf("expected window 4 mapped")
	}

	// The remembered window died; the presenter re-resolves by class.
	backend.failMap[4] = true
	backend.classes["Polybar"] = 5
	p.Hide()
	if mapped, ok := backend.mapped[5]; !ok || mapped {
		t.Fatalf("expected window 5 unmapped after re-resolving")
	}
}

func TestMapPresenter_LogsWhenDockMissing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	backend := &fakeBackend{classes: map[string]platform.WindowID{}, mapped: map[platform.WindowID]bool{}}
	p := NewMapPresenter(backend, desktop.NewDockLocator(backend, "Polybar"), logger)

	p.Show()
	if !strings.Contains(buf.String(), "failed to show dock") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("read output: %v", err)
	}
	return strings.Fields(string(data))
}

func waitForLines(t *testing.T, path string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(readLines(t, path)) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d commands in %s", n, path)
}

// gatedCommand appends word to out, then blocks until gate exists.
func gatedCommand(word, out, gate string) string {
	return "echo " + word + " >> " + out + "; while [ ! -e " + gate + " ]; do sleep 0.01; done"
}

func TestCommandPresenter_RunsEachSettledTransition(t *testing.T) {
	out := filepath.Join(t.TempDir(), "events")
	p := NewCommandPresenter(
		"echo show >> "+out,
		"echo hide >> "+out,
		discardLogger(),
	)
	t.Cleanup(p.Close)

	p.Show()
	p.Wait()
	p.Hide()
	p.Wait()
	p.Show()
	p.Wait()

	if diff := cmp.Diff([]string{"show", "hide", "show"}, readLines(t, out)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandPresenter_LatestStateWins(t *testing.T) {
	tests := []struct {
		name  string
		burst func(p *CommandPresenter)
		want  []string
	}{
		{
			name: "burst ends shown",
			burst: func(p *CommandPresenter) {
				for i := 0; i < 20; i++ {
					p.Show()
					p.Hide()
				}
				p.Show()
			},
			want: []string{"show"},
		},
		{
			name: "burst ends hidden",
			burst: func(p *CommandPresenter) {
				for i := 0; i < 20; i++ {
					p.Hide()
					p.Show()
				}
				p.Hide()
			},
			want: []string{"show", "hide"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "events")
			gate := filepath.Join(dir, "gate")
			p := NewCommandPresenter(gatedCommand("show", out, gate), "echo hide >> "+out, discardLogger())
			t.Cleanup(p.Close)

			// Keep the worker busy on the first show while the burst arrives.
			p.Show()
			waitForLines(t, out, 1)
			tt.burst(p)
			if err := os.WriteFile(gate, nil, 0o644); err != nil {
				t.Fatalf("open gate: %v", err)
			}
			p.Wait()

			if diff := cmp.Diff(tt.want, readLines(t, out)); diff != "" {
				t.Fatalf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandPresenter_CloseRunsPendingCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "events")
	gate := filepath.Join(dir, "gate")
	p := NewCommandPresenter("echo show >> "+out, gatedCommand("hide", out, gate), discardLogger())

	p.Hide()
	waitForLines(t, out, 1)
	p.Show()
	p.Close()
	p.Hide() // closed, ignored
	if err := os.WriteFile(gate, nil, 0o644); err != nil {
		t.Fatalf("open gate: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not exit after close")
	}
	if diff := cmp.Diff([]string{"hide", "show"}, readLines(t, out)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestHandoff_DoesNotBlockAndKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "events")
	gate := filepath.Join(dir, "gate")
	old := NewCommandPresenter(gatedCommand("old-show", out, gate), "", discardLogger())
	next := NewCommandPresenter("", "echo new-hide >> "+out, discardLogger())

	returned := make(chan struct{})
	go func() {
		Handoff(old, next)
		next.Hide()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatalf("handoff blocked on the running command")
	}

	waitForLines(t, out, 1)
	if err := os.WriteFile(gate, nil, 0o644); err != nil {
		t.Fatalf("open gate: %v", err)
	}
	Close(next)

	if diff := cmp.Diff([]string{"old-show", "new-hide"}, readLines(t, out)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandPresenter_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	p := NewCommandPresenter("exit 3", "", slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(p.Close)

	p.Hide() // empty command, skipped
	p.Show()
	p.Wait()

	if !strings.Contains(buf.String(), "dock show command failed") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
}

func TestCommandPresenter_CloseIsIdempotent(t *testing.T) {
	p := NewCommandPresenter("true", "true", discardLogger())
	p.Show()
	p.Close()
	p.Close()
	p.Hide()
	p.Wait()
}

func TestNew(t *testing.T) {
	backend := &fakeBackend{}
	locator := desktop.NewDockLocator(backend, "Polybar")

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{name: "default is map", opts: Options{Backend: backend, Locator: locator}, want: "*dock.MapPresenter"},
		{name: "map without locator", opts: Options{Mode: ModeMap, Backend: backend}, wantErr: true},
		{name: "command", opts: Options{Mode: ModeCommand, ShowCommand: "true"}, want: "*dock.CommandPresenter"},
		{name: "command without commands", opts: Options{Mode: ModeCommand}, wantErr: true},
		{name: "log", opts: Options{Mode: ModeLog}, want: "*dock.LogPresenter"},
		{name: "unknown", opts: Options{Mode: "fade"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer Close(p)
			if got := typeName(p); got != tt.want {
				t.Fatalf("presenter type = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(p Presenter) string {
	switch p.(type) {
	case *MapPresenter:
		return "*dock.MapPresenter"
	case *CommandPresenter:
		return "*dock.CommandPresenter"
	case *LogPresenter:
		return "*dock.LogPresenter"
	default:
		return "unknown"
	}
}
