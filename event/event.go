// Package event implements the pointer event router: a DFS
// walk that evaluates each visited scene, hit-tests its declared event
// handlers against the pointer position, and dispatches the resulting
// hits deepest-first with bubbling control via continue_handling.
package event

import (
	"github.com/boldui/core/deps"
	"github.com/boldui/core/handler"
	"github.com/boldui/core/protocol"
	"github.com/boldui/core/scene"
)

type hit struct {
	scene       protocol.SceneID
	commands    []protocol.HandlerCommand
	hasContinue bool
	continueOp  protocol.OpId
	resolve     func(protocol.OpId) (protocol.Value, error)
}

// HandlePointer implements handle_pointer(root_scene, width, height, x, y,
// button, kind). kind selects which EventHandler variant is
// eligible to fire; EventClick is hit-tested the same way as the physical
// MouseDown/Up/Move kinds (whether a down/up pair without movement counts
// as a click is a synthesis decision left to the caller driving this
// router, which only needs the hit-test and kind filter, not
// click synthesis timing). It returns the root scenes whose committed
// var_deps now intersect this dispatch's writes.
func HandlePointer(m *scene.Map, tb *protocol.Timebase, root protocol.SceneID, width, height int64, x, y float64, button int64, kind protocol.EventKind) ([]protocol.SceneID, error) {
	m.SetVar(root, protocol.VarWidth, protocol.Sint64(width))
	m.SetVar(root, protocol.VarHeight, protocol.Sint64(height))
	m.SetVar(root, protocol.VarClickX, protocol.Double(x))
	m.SetVar(root, protocol.VarClickY, protocol.Double(y))
	m.SetVar(root, protocol.VarClickBtn, protocol.Sint64(button))

	tracker := deps.New()
	var hits []hit
	if err := walk(m, tb, root, x, y, kind, tracker, &hits); err != nil {
		return nil, err
	}

	for i := len(hits) - 1; i >= 0; i-- {
		h := hits[i]
		if err := handler.RunCommands(h.commands, h.scene, h.resolve, m, tracker); err != nil {
			return nil, err
		}
		if !h.hasContinue {
			continue
		}
		contVal, err := h.resolve(h.continueOp)
		if err != nil {
			return nil, err
		}
		contInt, ok := contVal.(protocol.Sint64)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "continue_handling must be an integer, got %s", contVal.Kind())
		}
		if contInt == 0 {
			break
		}
	}

	// Scenes rooted by the handlers just executed redraw unconditionally;
	// the rest redraw only when this dispatch wrote something their last
	// evaluation read.
	redraws := m.DrainNewRoots()
	seen := make(map[protocol.SceneID]struct{}, len(redraws))
	for _, r := range redraws {
		seen[r] = struct{}{}
	}
	for _, r := range m.Roots() {
		if _, ok := seen[r]; ok {
			continue
		}
		state, _ := m.State(r)
		probe := &deps.Tracker{Reads: state.VarDeps}
		if probe.Intersects(tracker.Writes) {
			redraws = append(redraws, r)
		}
	}
	return redraws, nil
}

func walk(m *scene.Map, tb *protocol.Timebase, id protocol.SceneID, x, y float64, kind protocol.EventKind, tracker *deps.Tracker, hits *[]hit) error {
	results, err := m.EvaluateNode(id, tracker)
	if err != nil {
		return err
	}

	for _, eh := range m.EventHandlers(id) {
		if eh.Event.Kind != kind {
			continue
		}
		rectVal, err := m.ResolveOpId(results, eh.Event.Rect)
		if err != nil {
			return err
		}
		rect, ok := rectVal.(protocol.Rect)
		if !ok {
			return protocol.NewError(protocol.ErrorTypeMismatch, "event rect op must evaluate to a rect, got %s", rectVal.Kind())
		}
		// Half-open hit-test: left <= x < right && top <= y < bottom.
		if x < rect.Left || x >= rect.Right || y < rect.Top || y >= rect.Bottom {
			continue
		}
		resolve, err := handler.EvaluateBlock(eh.Handler, id, m, tracker, tb)
		if err != nil {
			return err
		}
		*hits = append(*hits, hit{
			scene:       id,
			commands:    eh.Handler.Commands,
			hasContinue: eh.HasContinueHandle,
			continueOp:  eh.ContinueHandling,
			resolve:     resolve,
		})
	}

	for _, child := range m.Children(id) {
		if err := walk(m, tb, child, x, y, kind, tracker, hits); err != nil {
			return err
		}
	}
	return nil
}
