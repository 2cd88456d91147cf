package protocol

import (
	"testing"

	"github.com/boldui/core/base/ordmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneDefRoundTrip(t *testing.T) {
	vars := ordmap.New[string, VariableDecl]()
	vars.Add("count", VariableDecl{Default: Sint64(0)})
	vars.Add("label", VariableDecl{Default: Str("")})

	s := SceneDef{
		ID:       5,
		Ops:      []Op{LiteralOp{Value: Sint64(1)}},
		Commands: []Command{ClearCmd{Color: OpId{Idx: 0}}},
		Attrs: map[SceneAttr]OpId{
			AttrTransform: {Idx: 0},
			AttrSize:      {Idx: 1},
		},
		Vars: vars,
		Watches: []Watch{
			{Condition: OpId{Idx: 0}, Handler: HandlerBlock{Commands: []HandlerCommand{NopCmd{}}}},
		},
		EventHandlers: []EventHandler{
			{Event: EventType{Kind: EventClick, Rect: OpId{Idx: 0}}, Handler: HandlerBlock{Commands: []HandlerCommand{NopCmd{}}}},
		},
	}

	w := &Writer{}
	require.NoError(t, EncodeSceneDef(w, s))
	got, err := DecodeSceneDef(NewReader(w.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Ops, got.Ops)
	assert.Equal(t, s.Commands, got.Commands)
	assert.Equal(t, s.Attrs, got.Attrs)
	assert.Equal(t, s.Watches, got.Watches)
	assert.Equal(t, s.EventHandlers, got.EventHandlers)
	assert.Equal(t, ordmap.SortedByKey(s.Vars), ordmap.SortedByKey(got.Vars))
}

func TestSceneDefEncodesVarsInSortedOrder(t *testing.T) {
	vars := ordmap.New[string, VariableDecl]()
	vars.Add("zeta", VariableDecl{Default: Sint64(1)})
	vars.Add("alpha", VariableDecl{Default: Sint64(2)})

	s := SceneDef{ID: 1, Vars: vars}
	w := &Writer{}
	require.NoError(t, EncodeSceneDef(w, s))

	got, err := DecodeSceneDef(NewReader(w.Bytes()))
	require.NoError(t, err)
	keys := got.Vars.Keys()
	assert.Equal(t, []string{"alpha", "zeta"}, keys)
}
