// Package extwidget implements the external-widget control path: the
// renderer spawns a helper process with a seqpacket control socket on a
// high descriptor, tells it which resource id its texture will be imported
// as, and receives the dma-buf descriptor plus its storage metadata
// out-of-band via SCM_RIGHTS. The imported texture is then attached to a
// scene as its replacement, so draws targeting that scene sample the
// helper's texture instead of running the scene's own command list.
package extwidget

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/boldui/core/base/exec"
	"github.com/boldui/core/protocol"
	"github.com/boldui/core/scene"
)

// ControlFdEnv names the environment variable telling the helper which
// descriptor carries its control socket.
const ControlFdEnv = "BOLDUI_EXTWIDGET_FD"

// Texture is an imported external texture: the dma-buf descriptor and the
// fixed-layout metadata describing how to interpret it.
type Texture struct {
	Metadata protocol.TextureStorageMetadata
	Dmabuf   *os.File
}

// Close releases the dma-buf descriptor.
func (t *Texture) Close() error {
	if t.Dmabuf == nil {
		return nil
	}
	return t.Dmabuf.Close()
}

// Widget is a running helper process together with the renderer's end of
// its control socket.
type Widget struct {
	proc *exec.Process
	ctrl *os.File
}

// Spawn launches the helper with a fresh seqpacket socketpair: the child's
// end rides on descriptor 3 (named by ControlFdEnv), the parent keeps the
// other end for the control exchange. Every descriptor is released if any
// step fails.
func Spawn(cfg *exec.Config, cmd string, args ...string) (*Widget, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	parentEnd := os.NewFile(uintptr(fds[0]), "extwidget-ctrl")
	childEnd := os.NewFile(uintptr(fds[1]), "extwidget-ctrl-child")

	if cfg == nil {
		cfg = &exec.Config{}
	}
	spawnCfg := *cfg
	spawnCfg.ExtraFiles = append([]*os.File{childEnd}, cfg.ExtraFiles...)
	env := make(map[string]string, len(cfg.Env)+1)
	for k, v := range cfg.Env {
		env[k] = v
	}
	env[ControlFdEnv] = "3"
	spawnCfg.Env = env

	proc, err := exec.Spawn(&spawnCfg, cmd, args...)
	childEnd.Close()
	if err != nil {
		parentEnd.Close()
		return nil, err
	}
	return &Widget{proc: proc, ctrl: parentEnd}, nil
}

// Attach performs the control exchange: handshake, then an Attach message
// naming the resource id, then the helper's Ready reply whose ancillary
// data carries the dma-buf descriptor. The returned texture is owned by
// the caller.
func (w *Widget) Attach(resource protocol.Resource) (*Texture, error) {
	if err := hostHandshake(w.ctrl); err != nil {
		return nil, err
	}
	if err := sendMessage(w.ctrl, mustEncodeR2EA(protocol.R2EAAttachMsg{Resource: resource}), nil); err != nil {
		return nil, err
	}

	payload, fds, err := recvMessage(w.ctrl)
	if err != nil {
		return nil, err
	}
	msg, err := protocol.DecodeEA2RMessage(payload)
	if err != nil {
		closeFds(fds)
		return nil, err
	}
	switch m := msg.(type) {
	case protocol.EA2RReadyMsg:
		if len(fds) != 1 {
			closeFds(fds)
			return nil, protocol.NewError(protocol.ErrorMalformedFrame, "expected 1 dma-buf fd with Ready, got %d", len(fds))
		}
		return &Texture{Metadata: m.Metadata, Dmabuf: os.NewFile(uintptr(fds[0]), "dmabuf")}, nil
	case protocol.EA2RErrorMsg:
		closeFds(fds)
		return nil, &m.Err
	default:
		closeFds(fds)
		return nil, protocol.NewError(protocol.ErrorMalformedFrame, "unexpected helper message %T", msg)
	}
}

// Resize tells the helper its texture's new dimensions.
func (w *Widget) Resize(width, height uint32) error {
	return sendMessage(w.ctrl, mustEncodeR2EA(protocol.R2EAResizeMsg{Width: width, Height: height}), nil)
}

// NextFrame blocks until the helper announces a new frame in the shared
// texture.
func (w *Widget) NextFrame() error {
	payload, fds, err := recvMessage(w.ctrl)
	if err != nil {
		return err
	}
	closeFds(fds)
	msg, err := protocol.DecodeEA2RMessage(payload)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case protocol.EA2RFrameMsg:
		return nil
	case protocol.EA2RErrorMsg:
		return &m.Err
	default:
		return protocol.NewError(protocol.ErrorMalformedFrame, "unexpected helper message %T", msg)
	}
}

// Close tears down the control socket and the helper process.
func (w *Widget) Close() error {
	ctrlErr := w.ctrl.Close()
	procErr := w.proc.Close()
	if ctrlErr != nil {
		return ctrlErr
	}
	return procErr
}

// Wait waits for the helper process to exit.
func (w *Widget) Wait() error { return w.proc.Wait() }

// AttachToScene imports the widget's texture and installs it as the
// replacement for scene id target in m.
func AttachToScene(w *Widget, m *scene.Map, target protocol.SceneID, resource protocol.Resource) (*Texture, error) {
	tex, err := w.Attach(resource)
	if err != nil {
		return nil, err
	}
	if err := m.SetReplacement(target, &scene.SceneReplacement{Metadata: tex.Metadata}); err != nil {
		tex.Close()
		return nil, err
	}
	return tex, nil
}

func mustEncodeR2EA(msg protocol.R2EAMessage) []byte {
	payload, err := protocol.EncodeR2EAMessage(msg)
	if err != nil {
		// Only reachable for a message type the encoder doesn't know,
		// which the concrete types above rule out.
		panic(err)
	}
	return payload
}

func closeFds(fds []int) {
	for _, fd := range fds {
		unix.Close(fd)
	}
}
