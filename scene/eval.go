package scene

import (
	"github.com/boldui/core/deps"
	"github.com/boldui/core/handler"
	"github.com/boldui/core/interp"
	"github.com/boldui/core/protocol"
)

type queuedWatch struct {
	scene protocol.SceneID
	block protocol.HandlerBlock
}

// UpdateAndEvaluate runs the DFS evaluation walk for one root scene:
// injects :width/:height, evaluates every visited
// scene's op list, queues watches whose condition evaluates non-zero, runs
// those handler blocks in declaration order once the walk completes, and
// commits the accumulated reads and wake-up boundary as the root's
// var_deps.
func (m *Map) UpdateAndEvaluate(root protocol.SceneID, width, height int64) error {
	state, ok := m.scenes[root]
	if !ok {
		return protocol.NewError(protocol.ErrorUnknownScene, "unknown root scene %d", root)
	}
	state.Vars[protocol.VarWidth] = protocol.Sint64(width)
	state.Vars[protocol.VarHeight] = protocol.Sint64(height)

	tracker := deps.New()
	var watches []queuedWatch
	if err := m.evalNode(root, tracker, &watches); err != nil {
		return err
	}

	for _, qw := range watches {
		if err := handler.Execute(qw.block, qw.scene, m, m, tracker, m.tb); err != nil {
			return err
		}
	}

	state.VarDeps = tracker.Reads
	state.NextWakeup = tracker.NextWakeup
	return nil
}

// EvaluateNode evaluates one scene's own op list into its result vector,
// storing it so later cross-scene reads and redraws can see it. It's the
// shared primitive behind both the evaluation walk's per-node step and the
// event router's per-node hit-test evaluation.
func (m *Map) EvaluateNode(id protocol.SceneID, tracker *deps.Tracker) ([]protocol.Value, error) {
	state, ok := m.scenes[id]
	if !ok {
		return nil, protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", id)
	}
	results, err := interp.Evaluate(state.Def.Ops, id, m, tracker, m.tb)
	if err != nil {
		return nil, err
	}
	state.Results = results
	return results, nil
}

func (m *Map) evalNode(id protocol.SceneID, tracker *deps.Tracker, watches *[]queuedWatch) error {
	state, ok := m.scenes[id]
	if !ok {
		return protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", id)
	}

	results, err := m.EvaluateNode(id, tracker)
	if err != nil {
		return err
	}

	for _, watch := range state.Def.Watches {
		cond, err := m.ResolveOpId(results, watch.Condition)
		if err != nil {
			return err
		}
		condInt, ok := cond.(protocol.Sint64)
		if !ok {
			return protocol.NewError(protocol.ErrorTypeMismatch, "watch condition must be an integer, got %s", cond.Kind())
		}
		if condInt != 0 {
			*watches = append(*watches, queuedWatch{scene: id, block: watch.Handler})
		}
	}

	for _, child := range state.Children {
		if err := m.evalNode(child, tracker, watches); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOpId resolves an OpId against a node's own in-progress results
// (OpId.Scene == protocol.LocalScene) or another scene's stored result
// vector, the same addressing rule interp.Evaluate uses internally.
func (m *Map) ResolveOpId(results []protocol.Value, id protocol.OpId) (protocol.Value, error) {
	if id.Scene == protocol.LocalScene {
		if int(id.Idx) >= len(results) {
			return nil, protocol.NewError(protocol.ErrorInvalidRef, "op reference %d out of range", id.Idx)
		}
		return results[id.Idx], nil
	}
	vec, ok := m.Results(id.Scene)
	if !ok {
		return nil, protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", id.Scene)
	}
	if int(id.Idx) >= len(vec) {
		return nil, protocol.NewError(protocol.ErrorInvalidRef, "cross-scene op reference %d out of range in scene %d", id.Idx, id.Scene)
	}
	return vec[id.Idx], nil
}
