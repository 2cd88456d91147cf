package scene

import (
	"testing"

	"github.com/boldui/core/base/ordmap"
	"github.com/boldui/core/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declVars(pairs ...any) *ordmap.Map[string, protocol.VariableDecl] {
	om := ordmap.New[string, protocol.VariableDecl]()
	for i := 0; i+1 < len(pairs); i += 2 {
		om.Add(pairs[i].(string), protocol.VariableDecl{Default: pairs[i+1].(protocol.Value)})
	}
	return om
}

func TestUpsertScenePopulatesDefaults(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	def := protocol.SceneDef{ID: 1, Vars: declVars("count", protocol.Sint64(0), "label", protocol.Str("hi"))}
	state := m.upsertScene(def)
	assert.Equal(t, protocol.Sint64(0), state.Vars["count"])
	assert.Equal(t, protocol.Str("hi"), state.Vars["label"])
}

func TestUpsertScenePreservesExistingValues(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	def := protocol.SceneDef{ID: 1, Vars: declVars("count", protocol.Sint64(0))}
	state := m.upsertScene(def)
	state.Vars["count"] = protocol.Sint64(99)

	state = m.upsertScene(def)
	assert.Equal(t, protocol.Sint64(99), state.Vars["count"])
}

func TestUpsertSceneDropsRemovedKeys(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	first := protocol.SceneDef{ID: 1, Vars: declVars("count", protocol.Sint64(0), "stale", protocol.Str("x"))}
	state := m.upsertScene(first)
	state.Vars["stale"] = protocol.Str("changed")

	second := protocol.SceneDef{ID: 1, Vars: declVars("count", protocol.Sint64(0))}
	state = m.upsertScene(second)
	_, present := state.Vars["stale"]
	assert.False(t, present)
}

func TestUpsertSceneRedeclarationDoesNotResetValue(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	def := protocol.SceneDef{ID: 1, Vars: declVars("x", protocol.Sint64(5))}
	state := m.upsertScene(def)
	state.Vars["x"] = protocol.Sint64(123)

	// Re-declaring with the same default must not reset the live value.
	state = m.upsertScene(def)
	assert.Equal(t, protocol.Sint64(123), state.Vars["x"])
}

func TestSceneReaderResultsAndVarValue(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	def := protocol.SceneDef{ID: 5, Vars: declVars("a", protocol.Sint64(1))}
	m.upsertScene(def)
	state, ok := m.State(5)
	require.True(t, ok)
	state.Results = []protocol.Value{protocol.Sint64(42)}

	results, ok := m.Results(5)
	require.True(t, ok)
	assert.Equal(t, []protocol.Value{protocol.Sint64(42)}, results)

	v, ok := m.VarValue(5, "a")
	require.True(t, ok)
	assert.Equal(t, protocol.Sint64(1), v)

	_, ok = m.VarValue(5, "missing")
	assert.False(t, ok)

	_, ok = m.Results(999)
	assert.False(t, ok)
}

func TestHandlerContextVarDefaultAndSetVar(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	def := protocol.SceneDef{ID: 2, Vars: declVars("n", protocol.Sint64(0))}
	m.upsertScene(def)

	v, ok := m.VarDefault(2, "n")
	require.True(t, ok)
	assert.Equal(t, protocol.Sint64(0), v)

	m.SetVar(2, "n", protocol.Sint64(7))
	v, _ = m.VarValue(2, "n")
	assert.Equal(t, protocol.Sint64(7), v)

	m.DeleteVar(2, "n")
	_, ok = m.VarValue(2, "n")
	assert.False(t, ok)
}

func TestReplyOpenDebugAccumulate(t *testing.T) {
	m := NewMap(protocol.NewTimebase())
	m.Reply("/a", []protocol.Value{protocol.Sint64(1)})
	m.Open("/b")
	m.DebugMessage("hello")

	assert.True(t, m.HasPendingReplies())
	reps := m.DrainReplies()
	require.Len(t, reps, 1)
	assert.Equal(t, "/a", reps[0].Path)
	assert.False(t, m.HasPendingReplies())

	assert.Equal(t, []string{"/b"}, m.DrainOpens())
	assert.Equal(t, []string{"hello"}, m.DebugLog())
}
