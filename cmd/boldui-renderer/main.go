// Command boldui-renderer is the renderer-side entry point: it spawns the
// app named on the command line (or in the config file), speaks the
// protocol over the app's stdio, and drives the scene state machine.
// Actual rasterization is delegated to a frontend; the "image" and
// "window" frontends plug in behind the redraw channel this binary drains.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/boldui/core/base/config"
	"github.com/boldui/core/base/exec"
	"github.com/boldui/core/endpoint"
)

// procConn adapts a spawned app's piped stdio into the single
// io.ReadWriteCloser the endpoint transport expects.
type procConn struct {
	proc *exec.Process
}

func (p *procConn) Read(b []byte) (int, error)  { return p.proc.Stdout.Read(b) }
func (p *procConn) Write(b []byte) (int, error) { return p.proc.Stdin.Write(b) }
func (p *procConn) Close() error                { return p.proc.Close() }

func main() {
	os.Exit(run())
}

func run() int {
	uri := flag.String("u", "", "initial uri to open")
	frontend := flag.String("frontend", "window", "rendering frontend: image|window")
	configPath := flag.String("config", "", "optional TOML config file")
	flag.Parse()

	if *frontend != "image" && *frontend != "window" {
		fmt.Fprintf(os.Stderr, "unknown frontend %q\n", *frontend)
		return 1
	}

	cfg := config.DefaultEndpoint()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			return 1
		}
	}

	cmd, args := flag.Args(), []string(nil)
	var name string
	switch {
	case len(cmd) > 0:
		name, args = cmd[0], cmd[1:]
	case cfg.Spawn != "":
		var err error
		if name, args, err = exec.SplitCommand(cfg.Spawn); err != nil {
			fmt.Fprintf(os.Stderr, "bad spawn command: %v\n", err)
			return 1
		}
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "usage: boldui-renderer [-u uri] [--frontend image|window] <app> [args...]")
		return 1
	}

	proc, err := exec.Spawn(&exec.Config{Stderr: os.Stderr}, name, args...)
	if err != nil {
		slog.Error("failed to spawn app", "cmd", name, "err", err)
		return 1
	}

	r, err := endpoint.NewRenderer(&procConn{proc: proc})
	if err != nil {
		slog.Error("handshake failed", "err", err)
		proc.Close()
		return 1
	}
	defer r.Close()

	if *uri != "" {
		if err := r.SendOpen(*uri); err != nil {
			slog.Error("failed to send initial open", "err", err)
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for batch := range r.Redraws() {
			// The frontend repaints here; without one attached the redraw
			// requests are only logged.
			slog.Debug("redraw requested", "roots", batch.Roots)
		}
	}()

	if err := r.Run(ctx); err != nil {
		slog.Error("renderer terminated", "err", err)
		return 1
	}
	_ = proc.Wait()
	return 0
}
