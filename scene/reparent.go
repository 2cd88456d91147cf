package scene

import "github.com/boldui/core/protocol"

// detach removes a scene from whatever it's currently attached to, without
// choosing a new attachment.
func (m *Map) detach(id protocol.SceneID, state *SceneState) {
	switch state.Parent.Kind {
	case ParentScene:
		if parent, ok := m.scenes[state.Parent.Scene]; ok {
			parent.Children = removeSceneID(parent.Children, id)
		}
	case ParentRoot:
		if wid, ok := m.windowOf[id]; ok {
			delete(m.windowOf, id)
			delete(m.sceneOfWindow, wid)
		}
	}
	state.Parent = ParentState{Kind: ParentNone}
}

// reparent implements ReparentScene{scene, to}.
func (m *Map) reparent(id protocol.SceneID, to protocol.ReparentTarget) error {
	state, ok := m.scenes[id]
	if !ok {
		return protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", id)
	}
	m.detach(id, state)

	switch to.Kind {
	case protocol.ReparentInside:
		target, ok := m.scenes[to.Target]
		if !ok {
			return protocol.NewError(protocol.ErrorUnknownScene, "unknown target scene %d", to.Target)
		}
		state.Parent = ParentState{Kind: ParentScene, Scene: to.Target}
		target.Children = append([]protocol.SceneID{id}, target.Children...)

	case protocol.ReparentAfter:
		target, ok := m.scenes[to.Target]
		if !ok {
			return protocol.NewError(protocol.ErrorUnknownScene, "unknown target scene %d", to.Target)
		}
		if target.Parent.Kind != ParentScene {
			return protocol.NewError(protocol.ErrorInvalidRef, "scene %d has no parent to insert after", to.Target)
		}
		parent := m.scenes[target.Parent.Scene]
		idx := indexOfSceneID(parent.Children, to.Target)
		if idx < 0 {
			return protocol.NewError(protocol.ErrorInvalidRef, "scene %d not found among its parent's children", to.Target)
		}
		state.Parent = ParentState{Kind: ParentScene, Scene: target.Parent.Scene}
		parent.Children = insertSceneIDAfter(parent.Children, idx, id)

	case protocol.ReparentRoot:
		state.Parent = ParentState{Kind: ParentRoot}
		m.nextWindowID++
		wid := m.nextWindowID
		m.windowOf[id] = wid
		m.sceneOfWindow[wid] = id
		m.newRoots = append(m.newRoots, id)
		// The window association is surfaced back to the scene's ops via
		// the read-only :window_id variable, injected directly rather
		// than through the typechecked SetVar path.
		state.Vars[protocol.VarWindowID] = protocol.Sint64(int64(wid))

	case protocol.ReparentDisconnect:
		state.Parent = ParentState{Kind: ParentNone}

	case protocol.ReparentHide:
		state.Parent = ParentState{Kind: ParentHidden}

	default:
		return protocol.NewError(protocol.ErrorMalformedFrame, "unknown reparent kind %d", to.Kind)
	}
	return nil
}

// gc deletes every scene whose parent is ParentNone.
func (m *Map) gc() {
	for id, state := range m.scenes {
		if state.Parent.Kind == ParentNone {
			delete(m.scenes, id)
		}
	}
}

func removeSceneID(s []protocol.SceneID, id protocol.SceneID) []protocol.SceneID {
	out := s[:0]
	for _, x := range s {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func indexOfSceneID(s []protocol.SceneID, id protocol.SceneID) int {
	for i, x := range s {
		if x == id {
			return i
		}
	}
	return -1
}

func insertSceneIDAfter(s []protocol.SceneID, idx int, id protocol.SceneID) []protocol.SceneID {
	out := make([]protocol.SceneID, 0, len(s)+1)
	out = append(out, s[:idx+1]...)
	out = append(out, id)
	out = append(out, s[idx+1:]...)
	return out
}
