// Command boldui-wm is the window-manager entry point with three roles:
//
//	boldui-wm server --sock <path> [--composite]   run the proxy
//	boldui-wm app --sock <path> -- <cmd ...>       spawn an app and hand its
//	                                               stdio to the server
//	boldui-wm attach --sock <path>                 hand this process's own
//	                                               stdio over as the renderer
//
// The app subcommand exits with the app's own exit code once it quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/boldui/core/base/config"
	"github.com/boldui/core/base/exec"
	"github.com/boldui/core/wm"
)

const defaultSock = "/tmp/boldui-wm.sock"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return 1
	}
	switch os.Args[1] {
	case "server":
		return runServer(os.Args[2:])
	case "app":
		return runApp(os.Args[2:])
	case "attach":
		return runAttach(os.Args[2:])
	default:
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  boldui-wm server --sock <path> [--composite]
  boldui-wm app --sock <path> -- <cmd ...>
  boldui-wm attach --sock <path>`)
}

func sockFlag(fs *flag.FlagSet) *string {
	return fs.String("sock", "", "control socket path (default "+defaultSock+")")
}

func resolveSock(sock, configPath string) string {
	if sock != "" {
		return sock
	}
	if configPath != "" {
		if cfg, err := config.Load(configPath); err == nil && cfg.Socket != "" {
			return cfg.Socket
		}
	}
	return defaultSock
}

func runServer(args []string) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	sock := sockFlag(fs)
	configPath := fs.String("config", "", "optional TOML config file")
	fs.Bool("composite", false, "composite all apps into one window")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	proxy := wm.NewProxy()
	srv, err := wm.Listen(resolveSock(*sock, *configPath), proxy)
	if err != nil {
		slog.Error("failed to bind control socket", "err", err)
		return 1
	}
	defer srv.Close()
	defer proxy.Close()

	slog.Info("wm serving", "sock", resolveSock(*sock, *configPath))
	if err := srv.Serve(); err != nil {
		slog.Error("server failed", "err", err)
		return 1
	}
	return 0
}

func runApp(args []string) int {
	fs := flag.NewFlagSet("app", flag.ContinueOnError)
	sock := sockFlag(fs)
	configPath := fs.String("config", "", "optional TOML config file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	cmdline := fs.Args()
	if len(cmdline) == 0 {
		usage()
		return 1
	}

	proc, err := exec.Spawn(&exec.Config{Stderr: os.Stderr}, cmdline[0], cmdline[1:]...)
	if err != nil {
		slog.Error("failed to spawn app", "cmd", cmdline[0], "err", err)
		return 1
	}
	defer proc.Close()

	stdin, okIn := proc.Stdin.(*os.File)
	stdout, okOut := proc.Stdout.(*os.File)
	if !okIn || !okOut {
		slog.Error("app stdio is not fd-backed, cannot pass to wm")
		return 1
	}
	_, ctrl, err := wm.DialApp(resolveSock(*sock, *configPath), stdin, stdout)
	if err != nil {
		slog.Error("failed to register app with wm", "err", err)
		return 1
	}
	ctrl.Close()

	// The WM holds kernel duplicates of the pipes now; wait for the app
	// and propagate its exit code.
	_ = proc.Wait()
	if state := proc.Cmd.ProcessState; state != nil {
		return state.ExitCode()
	}
	return 0
}

func runAttach(args []string) int {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	sock := sockFlag(fs)
	configPath := fs.String("config", "", "optional TOML config file")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	// The renderer that spawned us writes into our stdin and reads from
	// our stdout, so from the WM's side stdout is the toward-peer
	// direction and stdin is the from-peer direction.
	_, ctrl, err := wm.DialRenderer(resolveSock(*sock, *configPath), os.Stdout, os.Stdin)
	if err != nil {
		slog.Error("failed to attach renderer", "err", err)
		return 1
	}
	defer ctrl.Close()

	// Stay alive while the WM drives our stdio; the control connection
	// reads EOF when the server goes away or replaces this renderer.
	buf := make([]byte, 1)
	for {
		if _, err := ctrl.Read(buf); err != nil {
			if err != io.EOF {
				slog.Warn("control connection failed", "err", err)
			}
			return 0
		}
	}
}
