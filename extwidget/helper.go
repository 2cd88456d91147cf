package extwidget

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/boldui/core/protocol"
)

// Helper is the widget-process side of the control channel. A helper
// renders into a dma-buf it allocated itself and serves the renderer's
// control messages over the inherited socket.
type Helper struct {
	ctrl *os.File

	// Resize is invoked for each resize request from the renderer. Nil
	// means resizes are acknowledged by ignoring them.
	Resize func(width, height uint32)
}

// ControlSocket opens the control descriptor named by ControlFdEnv in this
// process's environment.
func ControlSocket() (*os.File, error) {
	v := os.Getenv(ControlFdEnv)
	if v == "" {
		return nil, protocol.NewError(protocol.ErrorMalformedFrame, "%s not set", ControlFdEnv)
	}
	fd, err := strconv.Atoi(v)
	if err != nil {
		return nil, protocol.NewError(protocol.ErrorMalformedFrame, "bad %s value %q", ControlFdEnv, v)
	}
	return os.NewFile(uintptr(fd), "extwidget-ctrl"), nil
}

// NewHelper performs the responder half of the handshake over ctrl.
func NewHelper(ctrl *os.File) (*Helper, error) {
	if err := helperHandshake(ctrl); err != nil {
		ctrl.Close()
		return nil, err
	}
	return &Helper{ctrl: ctrl}, nil
}

// WaitAttach blocks until the renderer sends its Attach message and
// returns the resource id this helper's texture will be imported as.
func (h *Helper) WaitAttach() (protocol.Resource, error) {
	for {
		payload, fds, err := recvMessage(h.ctrl)
		if err != nil {
			return 0, err
		}
		closeFds(fds)
		msg, err := protocol.DecodeR2EAMessage(payload)
		if err != nil {
			return 0, err
		}
		switch m := msg.(type) {
		case protocol.R2EAAttachMsg:
			return m.Resource, nil
		case protocol.R2EAResizeMsg:
			if h.Resize != nil {
				h.Resize(m.Width, m.Height)
			}
		case protocol.R2EAErrorMsg:
			return 0, &m.Err
		default:
			return 0, protocol.NewError(protocol.ErrorMalformedFrame, "unexpected renderer message %T", msg)
		}
	}
}

// SendReady hands the dma-buf descriptor and its storage metadata to the
// renderer. The descriptor is duplicated into the renderer by the kernel;
// the helper keeps its own copy for rendering.
func (h *Helper) SendReady(metadata protocol.TextureStorageMetadata, dmabuf *os.File) error {
	payload, err := protocol.EncodeEA2RMessage(protocol.EA2RReadyMsg{Metadata: metadata})
	if err != nil {
		return err
	}
	return sendMessage(h.ctrl, payload, unix.UnixRights(int(dmabuf.Fd())))
}

// SendFrame announces that a new frame is ready in the shared texture.
func (h *Helper) SendFrame() error {
	payload, err := protocol.EncodeEA2RMessage(protocol.EA2RFrameMsg{})
	if err != nil {
		return err
	}
	return sendMessage(h.ctrl, payload, nil)
}

// SendError reports a helper-side failure to the renderer.
func (h *Helper) SendError(e protocol.Error) error {
	payload, err := protocol.EncodeEA2RMessage(protocol.EA2RErrorMsg{Err: e})
	if err != nil {
		return err
	}
	return sendMessage(h.ctrl, payload, nil)
}

// Close closes the control socket.
func (h *Helper) Close() error { return h.ctrl.Close() }
