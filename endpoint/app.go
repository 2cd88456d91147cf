package endpoint

import (
	"context"
	"io"
	"sync"

	bolderrors "github.com/boldui/core/base/errors"
	"github.com/boldui/core/protocol"
)

// App is the app-side endpoint: it performs the
// responder half of the handshake, lets the caller push A2RUpdate batches
// describing its scene graph, and surfaces the renderer's replies and
// navigation requests on channels. Building the scenes themselves — the
// application's actual UI logic — is outside the core protocol runtime;
// App only carries the bytes.
type App struct {
	tp *Transport

	// Replies delivers the batch of replies from each inbound R2AUpdate,
	// in the order the renderer sent them.
	Replies chan []protocol.Reply
	// Opens delivers each inbound R2AOpen path.
	Opens chan string

	closeOnce sync.Once
}

// NewApp performs the app handshake over rw and returns an App ready for
// Run. rw is closed if the handshake fails.
func NewApp(rw io.ReadWriteCloser) (*App, error) {
	if err := AppHandshake(rw); err != nil {
		rw.Close()
		return nil, err
	}
	return &App{
		tp:      NewTransport(rw),
		Replies: make(chan []protocol.Reply, 16),
		Opens:   make(chan string, 16),
	}, nil
}

// SendUpdate transmits one A2RUpdate batch.
func (a *App) SendUpdate(u protocol.A2RUpdate) error {
	payload, err := protocol.EncodeA2RMessage(protocol.A2RUpdateMsg{Update: u})
	if err != nil {
		return err
	}
	return a.tp.WriteFrame(payload)
}

// SendError reports a fatal local condition to the renderer as an
// A2RError frame and terminates this side of the session; an empty Error
// (code 0) signals a clean quit.
func (a *App) SendError(err *protocol.Error) error {
	if err == nil {
		err = &protocol.Error{}
	}
	payload, encErr := protocol.EncodeA2RMessage(protocol.A2RErrorMsg{Err: *err})
	if encErr != nil {
		return encErr
	}
	return a.tp.WriteFrame(payload)
}

// Run reads inbound R2AMessage frames until the renderer closes the
// transport or sends a terminal A2RError-class condition, delivering
// replies and opens on their respective channels.
func (a *App) Run(ctx context.Context) error {
	for {
		payload, err := a.tp.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return bolderrors.Log(err)
		}
		msg, err := protocol.DecodeR2AMessage(payload)
		if err != nil {
			return bolderrors.Log(err)
		}
		switch m := msg.(type) {
		case protocol.R2AUpdateMsg:
			select {
			case a.Replies <- m.Update.Replies:
			case <-ctx.Done():
				return ctx.Err()
			}
		case protocol.R2AOpenMsg:
			select {
			case a.Opens <- m.Path:
			case <-ctx.Done():
				return ctx.Err()
			}
		case protocol.R2AErrorMsg:
			if m.Err.IsClean() {
				return nil
			}
			return bolderrors.Log(&m.Err)
		default:
			return protocol.NewError(protocol.ErrorMalformedFrame, "unhandled R2A message type %T", msg)
		}
	}
}

// Close tears down the transport. Safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() { err = a.tp.Close() })
	return err
}
