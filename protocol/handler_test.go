package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerCommandRoundTrip(t *testing.T) {
	cmds := []HandlerCommand{
		NopCmd{},
		ReparentSceneCmd{Scene: 1, To: ReparentTarget{Kind: ReparentInside, Target: 2}},
		SetVarCmd{Var: VarKey{Scene: LocalScene, Key: "x"}, Value: OpId{Idx: 1}},
		SetVarByRefCmd{VarOp: OpId{Idx: 1}, Value: OpId{Idx: 2}},
		DeleteVarCmd{Var: VarKey{Scene: 3, Key: "y"}},
		DebugMessageCmd{Text: "tick"},
		ReplyCmd{Path: "/submit", Params: []OpId{{Idx: 2}, {Idx: 3}}},
		OpenCmd{Path: "/page"},
		AllocateWindowIDCmd{},
		IfCmd{
			Cond: OpId{Idx: 1},
			Then: []HandlerCommand{NopCmd{}},
			Else: []HandlerCommand{DebugMessageCmd{Text: "else"}},
		},
	}
	for _, c := range cmds {
		w := &Writer{}
		require.NoError(t, encodeHandlerCommand(w, c))
		got, err := decodeHandlerCommand(NewReader(w.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestHandlerBlockRoundTrip(t *testing.T) {
	hb := HandlerBlock{
		Ops: []Op{LiteralOp{Value: Sint64(1)}},
		Commands: []HandlerCommand{
			SetVarCmd{Var: VarKey{Scene: LocalScene, Key: "count"}, Value: OpId{Idx: 0}},
		},
	}
	w := &Writer{}
	require.NoError(t, EncodeHandlerBlock(w, hb))
	got, err := DecodeHandlerBlock(NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, hb, got)
}

func TestWatchRoundTrip(t *testing.T) {
	watch := Watch{
		Condition: OpId{Idx: 0},
		Handler: HandlerBlock{
			Commands: []HandlerCommand{NopCmd{}},
		},
	}
	w := &Writer{}
	require.NoError(t, EncodeWatch(w, watch))
	got, err := DecodeWatch(NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, watch, got)
}

func TestEventHandlerRoundTrip(t *testing.T) {
	withContinue := EventHandler{
		Event:             EventType{Kind: EventClick, Rect: OpId{Idx: 0}},
		Handler:           HandlerBlock{Commands: []HandlerCommand{NopCmd{}}},
		HasContinueHandle: true,
		ContinueHandling:  OpId{Idx: 1},
	}
	withoutContinue := EventHandler{
		Event:   EventType{Kind: EventMouseDown, Rect: OpId{Idx: 0}},
		Handler: HandlerBlock{Commands: []HandlerCommand{NopCmd{}}},
	}
	for _, eh := range []EventHandler{withContinue, withoutContinue} {
		w := &Writer{}
		require.NoError(t, EncodeEventHandler(w, eh))
		got, err := DecodeEventHandler(NewReader(w.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, eh, got)
	}
}
