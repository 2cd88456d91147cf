// Package scene implements the scene state machine: the
// SceneId -> (SceneDef, SceneState) map, update application, reparenting,
// garbage collection of disconnected scenes, the DFS evaluation walk that
// runs watches, and the root-scene <-> window bijection.
package scene

import (
	"math"

	"github.com/boldui/core/deps"
	"github.com/boldui/core/protocol"
	"github.com/boldui/core/resource"

	"github.com/jinzhu/copier"
)

// ParentKind tags a scene's current parent state.
type ParentKind int

const (
	ParentNone ParentKind = iota
	ParentHidden
	ParentRoot
	ParentScene
)

// ParentState is a scene's current attachment. Scene is only meaningful
// when Kind == ParentScene.
type ParentState struct {
	Kind  ParentKind
	Scene protocol.SceneID
}

// SceneReplacement records an external-widget attachment: once the helper
// process reports its shared texture's layout, draws targeting this scene
// are satisfied from that texture instead of the scene's own commands.
type SceneReplacement struct {
	Metadata protocol.TextureStorageMetadata
}

// SceneState is the retained half of a scene: its topology, its current
// variable values, its last-evaluated result vector, and (for root scenes
// only) the dependency set and wake-up boundary committed by the last
// evaluation walk.
type SceneState struct {
	Def         protocol.SceneDef
	Parent      ParentState
	Children    []protocol.SceneID
	Vars        map[string]protocol.Value
	Results     []protocol.Value
	Replacement *SceneReplacement

	// VarDeps and NextWakeup are committed by UpdateAndEvaluate only when
	// this scene is a root.
	VarDeps    map[deps.VarID]struct{}
	NextWakeup float64
}

// Map is the scene state machine. It implements interp.SceneReader (so
// the interpreter can resolve cross-scene reads) and handler.Context (so
// handler commands can mutate scene state), without either of those
// packages importing scene.
type Map struct {
	scenes        map[protocol.SceneID]*SceneState
	windowOf      map[protocol.SceneID]protocol.WindowID
	sceneOfWindow map[protocol.WindowID]protocol.SceneID
	nextWindowID  protocol.WindowID

	resources *resource.Store
	tb        *protocol.Timebase

	replies  []protocol.Reply
	opens    []string
	debugLog []string
	newRoots []protocol.SceneID
}

// NewMap returns an empty scene map backed by its own resource store and
// the given timebase (shared with the interpreter for GetTime/GetTimeAndClamp).
func NewMap(tb *protocol.Timebase) *Map {
	return &Map{
		scenes:        make(map[protocol.SceneID]*SceneState),
		windowOf:      make(map[protocol.SceneID]protocol.WindowID),
		sceneOfWindow: make(map[protocol.WindowID]protocol.SceneID),
		resources:     resource.NewStore(),
		tb:            tb,
	}
}

// Resources exposes the backing resource store, e.g. for the transport
// layer to apply ResourceChunk/ResourceDealloc arriving outside an update
// (not used by the current wire format, which carries them inside
// A2RUpdate, but kept as the natural seam for a future streaming path).
func (m *Map) Resources() *resource.Store { return m.resources }

// WindowOf returns the window bijected to a root scene.
func (m *Map) WindowOf(scene protocol.SceneID) (protocol.WindowID, bool) {
	w, ok := m.windowOf[scene]
	return w, ok
}

// SceneOfWindow returns the root scene bijected to a window.
func (m *Map) SceneOfWindow(window protocol.WindowID) (protocol.SceneID, bool) {
	s, ok := m.sceneOfWindow[window]
	return s, ok
}

// State returns a scene's retained state, for read-only inspection by
// callers outside the package (e.g. a renderer walking Results/Def to
// paint).
func (m *Map) State(scene protocol.SceneID) (*SceneState, bool) {
	s, ok := m.scenes[scene]
	return s, ok
}

// Children returns a scene's current child list, in display order.
func (m *Map) Children(scene protocol.SceneID) []protocol.SceneID {
	s, ok := m.scenes[scene]
	if !ok {
		return nil
	}
	return s.Children
}

// EventHandlers returns a scene's declared event handlers.
func (m *Map) EventHandlers(scene protocol.SceneID) []protocol.EventHandler {
	s, ok := m.scenes[scene]
	if !ok {
		return nil
	}
	return s.Def.EventHandlers
}

// Roots returns every scene currently in ParentRoot state.
func (m *Map) Roots() []protocol.SceneID {
	out := make([]protocol.SceneID, 0, len(m.windowOf))
	for id := range m.windowOf {
		out = append(out, id)
	}
	return out
}

// DrainNewRoots returns and clears the scenes that transitioned to root
// since the last drain and are still roots. A scene rooted for the first
// time has no var_deps yet, so the redraw gate's dependency-intersection
// test can never fire for it; these scenes need a redraw unconditionally
// so their window gets an initial evaluation and paint.
func (m *Map) DrainNewRoots() []protocol.SceneID {
	var out []protocol.SceneID
	for _, id := range m.newRoots {
		if _, ok := m.windowOf[id]; ok {
			out = append(out, id)
		}
	}
	m.newRoots = nil
	return out
}

// DrainReplies returns and clears the replies accumulated since the last
// drain.
func (m *Map) DrainReplies() []protocol.Reply {
	out := m.replies
	m.replies = nil
	return out
}

// DrainOpens returns and clears the R2AOpen paths accumulated since the
// last drain.
func (m *Map) DrainOpens() []string {
	out := m.opens
	m.opens = nil
	return out
}

// DebugLog returns the accumulated DebugMessage text.
func (m *Map) DebugLog() []string { return m.debugLog }

// HasPendingReplies reports whether a notification edge should be pushed
// to wake the transport loop.
func (m *Map) HasPendingReplies() bool { return len(m.replies) > 0 }

// interp.SceneReader implementation.

func (m *Map) Results(scene protocol.SceneID) ([]protocol.Value, bool) {
	s, ok := m.scenes[scene]
	if !ok {
		return nil, false
	}
	return s.Results, true
}

func (m *Map) VarValue(scene protocol.SceneID, key string) (protocol.Value, bool) {
	s, ok := m.scenes[scene]
	if !ok {
		return nil, false
	}
	v, ok := s.Vars[key]
	return v, ok
}

func (m *Map) ImageDimensions(res protocol.Resource) (int64, int64, bool) {
	return m.resources.ImageDimensions(res)
}

// handler.Context implementation.

func (m *Map) VarDefault(scene protocol.SceneID, key string) (protocol.Value, bool) {
	s, ok := m.scenes[scene]
	if !ok {
		return nil, false
	}
	decl, ok := s.Def.Vars.ValueByKeyTry(key)
	if !ok {
		return nil, false
	}
	return decl.Default, true
}

func (m *Map) SetVar(scene protocol.SceneID, key string, value protocol.Value) {
	s, ok := m.scenes[scene]
	if !ok {
		return
	}
	s.Vars[key] = value
}

func (m *Map) DeleteVar(scene protocol.SceneID, key string) {
	s, ok := m.scenes[scene]
	if !ok {
		return
	}
	delete(s.Vars, key)
}

func (m *Map) Reply(path string, params []protocol.Value) {
	m.replies = append(m.replies, protocol.Reply{Path: path, Params: params})
}

func (m *Map) Open(path string) { m.opens = append(m.opens, path) }

func (m *Map) DebugMessage(text string) { m.debugLog = append(m.debugLog, text) }

func (m *Map) AllocateWindowID() protocol.WindowID {
	m.nextWindowID++
	return m.nextWindowID
}

func (m *Map) Reparent(scene protocol.SceneID, to protocol.ReparentTarget) error {
	return m.reparent(scene, to)
}

// SetReplacement attaches an external-widget texture as a scene's
// replacement: draws targeting the scene are satisfied from the imported
// texture instead of the scene's own commands. A nil replacement detaches.
func (m *Map) SetReplacement(scene protocol.SceneID, r *SceneReplacement) error {
	s, ok := m.scenes[scene]
	if !ok {
		return protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", scene)
	}
	s.Replacement = r
	return nil
}

// upsertScene applies one updated SceneDef: it snapshots
// the def (via copier, so later mutation of the caller's A2RUpdate can't
// alias retained state), drops variable values whose keys the new
// declaration no longer carries, and populates newly declared keys with
// their default, leaving already-present keys' current values untouched.
func (m *Map) upsertScene(def protocol.SceneDef) *SceneState {
	state, existed := m.scenes[def.ID]
	if !existed {
		state = &SceneState{Parent: ParentState{Kind: ParentNone}, Vars: make(map[string]protocol.Value), NextWakeup: math.Inf(1)}
		m.scenes[def.ID] = state
	}

	var snapshot protocol.SceneDef
	if err := copier.CopyWithOption(&snapshot, &def, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched/unexported field shapes, which
		// protocol.SceneDef's plain exported fields never trigger; treat
		// failure as a fallback to a shallow copy rather than a fatal error.
		snapshot = def
	}
	state.Def = snapshot

	newVars := make(map[string]protocol.Value, snapshot.Vars.Len())
	if snapshot.Vars != nil {
		for _, kv := range snapshot.Vars.Order {
			if existing, ok := state.Vars[kv.Key]; ok {
				newVars[kv.Key] = existing
			} else {
				newVars[kv.Key] = kv.Value.Default
			}
		}
	}
	state.Vars = newVars
	return state
}
