package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/1broseidon/intellihide/internal/daemon"
	"github.com/1broseidon/intellihide/internal/ipc"
	"github.com/1broseidon/intellihide/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "suspend":
		os.Exit(runAction("suspend", "Show the dock and stop hiding it until resumed.", os.Args[2:], func(c *ipc.Client) error { return c.Suspend() }))
	case "resume":
		os.Exit(runAction("resume", "Resume automatic hiding.", os.Args[2:], func(c *ipc.Client) error { return c.Resume() }))
	case "reload":
		os.Exit(runAction("reload", "Reload the daemon configuration.", os.Args[2:], func(c *ipc.Client) error { return c.Reload() }))
	case "only-active":
		os.Exit(runOnlyActive(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: intellihide <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the intellihide daemon (foreground)")
	fmt.Fprintln(w, "  status              Show dock and daemon status")
	fmt.Fprintln(w, "  monitors            List monitors known to the daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  suspend             Show the dock and stop hiding it")
	fmt.Fprintln(w, "  resume              Resume automatic hiding")
	fmt.Fprintln(w, "  only-active on|off  Only hide for windows of the focused application")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  palette             Pick a dock action with rofi/fuzzel/wofi/dmenu")
	fmt.Fprintln(w, "  tui                 Open live status view")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'intellihide <command> --help' for command-specific options.")
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/intellihide/config.yaml)")
	socket := fs.String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/intellihide.sock)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellihide daemon [--config PATH] [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the dock visibility daemon in the foreground.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the configuration.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	if err := daemon.Run(context.Background(), daemon.Options{ConfigPath: *path, SocketPath: *socket}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellihide status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, status)
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:      %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "visibility:          %s\n", status.Visibility)
	fmt.Fprintf(w, "suspended:           %v\n", status.Suspended)
	fmt.Fprintf(w, "only_active_window:  %v (config %v)\n", status.RestrictedToActiveWindow, status.OnlyActiveWindow)
	fmt.Fprintf(w, "grab_polling:        %v\n", status.Polling)
	if status.FocusApp != "" {
		fmt.Fprintf(w, "focus_app:           %s\n", status.FocusApp)
	}
	if status.DockClass != "" {
		fmt.Fprintf(w, "dock_class:          %s\n", status.DockClass)
	}
	fmt.Fprintf(w, "presenter:           %s\n", status.PresenterMode)
	fmt.Fprintf(w, "decisions:           %d (shows %d, hides %d)\n", status.Recomputes, status.Shows, status.Hides)
	fmt.Fprintf(w, "uptime:              %s\n", time.Duration(status.UptimeSeconds)*time.Second)
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print monitors as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, data)
	}
	for _, m := range data.Monitors {
		fmt.Printf("%d  %-10s %dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	return 0
}

func runAction(name, description string, args []string, fn func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: intellihide %s\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := fn(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runOnlyActive(args []string) int {
	usage := func(w io.Writer) {
		fmt.Fprintln(w, "Usage: intellihide only-active on|off")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Restrict hiding to windows of the focused application, or lift the restriction.")
		fmt.Fprintln(w, "The setting lasts until the daemon restarts or only_active_window changes in the config.")
	}
	if len(args) == 1 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		usage(os.Stdout)
		return 0
	}
	if len(args) != 1 {
		usage(os.Stderr)
		return 2
	}
	active, err := parseOnOff(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return 2
	}

	if err := ipc.NewClient().SetOnlyActive(active); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	interval := fs.Duration("interval", tui.DefaultRefreshInterval, "Status refresh interval")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellihide tui [--interval DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Live view of the dock state.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  s         Suspend or resume hiding")
		fmt.Fprintln(os.Stderr, "  a         Toggle only-active-window")
		fmt.Fprintln(os.Stderr, "  r         Reload daemon config")
		fmt.Fprintln(os.Stderr, "  q, Esc    Quit")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if err := tui.Run(ipc.NewClient(), *interval); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
