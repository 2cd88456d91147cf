package endpoint

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	bolderrors "github.com/boldui/core/base/errors"
	"github.com/boldui/core/event"
	"github.com/boldui/core/protocol"
	"github.com/boldui/core/scene"
)

// RedrawBatch reports which root scenes need re-evaluation and repainting
// after one inbound batch.
type RedrawBatch struct {
	Roots []protocol.SceneID
}

// Renderer is the renderer-side endpoint: it owns the scene state
// machine, applies inbound A2RUpdate batches to it, runs pointer dispatch
// against it, and flushes replies and opens queued by handler execution
// as outbound frames. The logic thread is realized as ordinary
// synchronous method calls from whichever goroutine drives
// Run/DispatchPointer — nothing in Map is safe for concurrent use from
// two goroutines at once; all scene state belongs to that one goroutine.
type Renderer struct {
	tp  *Transport
	Map *scene.Map
	Tb  *protocol.Timebase

	redraws chan RedrawBatch

	closeOnce sync.Once
}

// NewRenderer performs the renderer handshake over rw and returns a
// Renderer ready for Run. rw is closed if the handshake fails.
func NewRenderer(rw io.ReadWriteCloser) (*Renderer, error) {
	if err := RendererHandshake(rw); err != nil {
		rw.Close()
		return nil, err
	}
	tb := protocol.NewTimebase()
	return &Renderer{
		tp:      NewTransport(rw),
		Map:     scene.NewMap(tb),
		Tb:      tb,
		redraws: make(chan RedrawBatch, 16),
	}, nil
}

// Redraws is the channel a renderer's paint loop selects on alongside its
// own timed wake-ups.
func (r *Renderer) Redraws() <-chan RedrawBatch { return r.redraws }

// Run drives the transport-thread side of the select loop: it
// reads frames until the peer closes cleanly or a fatal error occurs,
// applying each inbound A2RMessage to Map and reporting resulting redraws
// on the Redraws channel. It returns nil on a clean peer shutdown (EOF or
// an empty A2RError) and a non-nil error for any fatal condition from
// the protocol's fatal classes, after flushing whatever replies had
// already been queued.
func (r *Renderer) Run(ctx context.Context) error {
	for {
		done, err := r.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Step reads and applies exactly one inbound message, blocking until one
// arrives. done reports a clean peer shutdown (EOF or an empty A2RError).
// Exposed so a caller that interleaves inbound processing with its own
// evaluation or dispatch can do so deterministically from one goroutine.
func (r *Renderer) Step(ctx context.Context) (done bool, err error) {
	payload, err := r.tp.ReadFrame()
	if err != nil {
		if err == io.EOF {
			return true, nil
		}
		return false, bolderrors.Log(err)
	}
	msg, err := protocol.DecodeA2RMessage(payload)
	if err != nil {
		return false, r.sendFatal(bolderrors.Log(err))
	}
	return r.handle(ctx, msg)
}

// handle dispatches one decoded A2RMessage. done reports a clean peer quit.
func (r *Renderer) handle(ctx context.Context, msg protocol.A2RMessage) (done bool, err error) {
	switch m := msg.(type) {
	case protocol.A2RUpdateMsg:
		redraws, err := r.Map.ApplyUpdate(m.Update)
		if err != nil {
			return false, r.sendFatal(err)
		}
		if err := r.flush(); err != nil {
			return false, err
		}
		if len(redraws) > 0 {
			select {
			case r.redraws <- RedrawBatch{Roots: redraws}:
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
		return false, nil

	case protocol.A2RErrorMsg:
		if m.Err.IsClean() {
			return true, nil
		}
		// Peer errors are logged and propagated.
		return false, bolderrors.Log(&m.Err)

	default:
		return false, r.sendFatal(protocol.NewError(protocol.ErrorMalformedFrame, "unhandled A2R message type %T", msg))
	}
}

// DispatchPointer runs the event router against Map and
// flushes any replies it queued, reporting resulting redraws the same way
// an applied update does.
func (r *Renderer) DispatchPointer(ctx context.Context, root protocol.SceneID, width, height int64, x, y float64, button int64, kind protocol.EventKind) error {
	redraws, err := event.HandlePointer(r.Map, r.Tb, root, width, height, x, y, button, kind)
	if err != nil {
		return r.sendFatal(err)
	}
	if err := r.flush(); err != nil {
		return err
	}
	if len(redraws) > 0 {
		select {
		case r.redraws <- RedrawBatch{Roots: redraws}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// NextWakeup reports the earliest GetTimeAndClamp boundary pending across
// all root scenes, as an absolute time a paint loop can sleep until
// before re-evaluating. ok is false when no root has a boundary pending.
func (r *Renderer) NextWakeup() (at time.Time, root protocol.SceneID, ok bool) {
	earliest := math.Inf(1)
	for _, id := range r.Map.Roots() {
		state, found := r.Map.State(id)
		if !found {
			continue
		}
		if state.NextWakeup < earliest {
			earliest = state.NextWakeup
			root = id
		}
	}
	if math.IsInf(earliest, 1) {
		return time.Time{}, 0, false
	}
	return r.Tb.WakeupAt(earliest), root, true
}

// SendOpen transmits a renderer-initiated R2AOpen, e.g. the initial
// `-u <uri>` navigation given to the renderer CLI.
func (r *Renderer) SendOpen(path string) error {
	payload, err := protocol.EncodeR2AMessage(protocol.R2AOpenMsg{Path: path})
	if err != nil {
		return err
	}
	return r.tp.WriteFrame(payload)
}

// flush coalesces every reply and open queued since the last flush into
// frames.
func (r *Renderer) flush() error {
	if replies := r.Map.DrainReplies(); len(replies) > 0 {
		payload, err := protocol.EncodeR2AMessage(protocol.R2AUpdateMsg{Update: protocol.R2AUpdate{Replies: replies}})
		if err != nil {
			return err
		}
		if err := r.tp.WriteFrame(payload); err != nil {
			return err
		}
	}
	for _, path := range r.Map.DrainOpens() {
		if err := r.SendOpen(path); err != nil {
			return err
		}
	}
	return nil
}

// sendFatal flushes any replies queued before the error, reports the error
// to the peer as an A2RError-class frame, and returns err unchanged so the
// caller's Run loop terminates.
func (r *Renderer) sendFatal(err error) error {
	_ = r.flush()
	code := protocol.ErrorMalformedFrame
	if pe, ok := err.(*protocol.Error); ok {
		code = pe.Code
	}
	payload, encErr := protocol.EncodeR2AMessage(protocol.R2AErrorMsg{Err: protocol.Error{Code: code, Text: err.Error()}})
	if encErr == nil {
		_ = r.tp.WriteFrame(payload)
	}
	return err
}

// Close tears down the transport. Safe to call more than once.
func (r *Renderer) Close() error {
	var err error
	r.closeOnce.Do(func() { err = r.tp.Close() })
	return err
}
