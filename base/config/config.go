// Package config loads optional endpoint configuration from a TOML file,
// the way cogentcore's peripheral cli/config layer loads app configuration,
// adapted here to the handful of settings the core runtime itself needs:
// socket paths and spawn commands. Command-line flags, which are explicitly
// out of core scope, only ever override fields on an already
// loaded Config; they are not parsed by this package.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Endpoint holds the settings shared by the renderer, app, and WM entry
// points that a deployment may want to override without recompiling.
type Endpoint struct {
	// Socket is the path of a UNIX seqpacket socket, used by the WM
	// for both "server" and "attach"/"app" roles.
	Socket string `toml:"socket"`

	// Spawn is the shell command line used to launch an app process,
	// split with base/exec.SplitCommand.
	Spawn string `toml:"spawn"`

	// FrameQueueSize is loaded from the file and defaults to 64; no
	// endpoint code reads it, and the endpoint has no message queue it
	// could size.
	FrameQueueSize int `toml:"frame_queue_size"`
}

// DefaultEndpoint returns the zero-config defaults used when no file is
// loaded.
func DefaultEndpoint() Endpoint {
	return Endpoint{FrameQueueSize: 64}
}

// Load reads and decodes a TOML endpoint configuration file, starting from
// [DefaultEndpoint] so unset fields keep their defaults.
func Load(path string) (Endpoint, error) {
	cfg := DefaultEndpoint()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
