package scene

import (
	"github.com/boldui/core/deps"
	"github.com/boldui/core/handler"
	"github.com/boldui/core/protocol"
)

// ApplyUpdate applies one A2RUpdate end to end: upserts scene definitions,
// streams resource bytes, runs run-blocks, garbage-collects disconnected
// scenes, and reports which root scenes need a redraw — every scene newly
// rooted this batch, plus any root whose last evaluation read something
// this batch wrote. The caller (the endpoint/transport layer) is
// responsible for pushing the notification edge when HasPendingReplies is
// true and for actually invoking UpdateAndEvaluate on the reported roots
// once their current window dimensions are known.
func (m *Map) ApplyUpdate(update protocol.A2RUpdate) (redraws []protocol.SceneID, err error) {
	for _, def := range update.UpdatedScenes {
		if def.ID == protocol.LocalScene {
			return nil, protocol.NewError(protocol.ErrorMalformedFrame, "scene id 0 is reserved and cannot be a real scene")
		}
		m.upsertScene(def)
	}

	for _, chunk := range update.ResourceChunks {
		m.resources.ApplyChunk(chunk)
	}
	for _, dealloc := range update.ResourceDeallocs {
		m.resources.ApplyDealloc(dealloc)
	}

	tracker := deps.New()
	for _, block := range update.RunBlocks {
		if err := handler.Execute(block, protocol.LocalScene, m, m, tracker, m.tb); err != nil {
			return nil, err
		}
	}

	m.gc()

	// Scenes rooted this batch redraw unconditionally: they have never
	// been evaluated, so no var_deps exist to intersect against.
	redraws = m.DrainNewRoots()
	seen := make(map[protocol.SceneID]struct{}, len(redraws))
	for _, root := range redraws {
		seen[root] = struct{}{}
	}
	for _, root := range m.Roots() {
		if _, ok := seen[root]; ok {
			continue
		}
		state := m.scenes[root]
		probe := &deps.Tracker{Reads: state.VarDeps}
		if probe.Intersects(tracker.Writes) {
			redraws = append(redraws, root)
		}
	}
	return redraws, nil
}
