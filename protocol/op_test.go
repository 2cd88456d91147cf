package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripOp(t *testing.T, op Op) Op {
	t.Helper()
	w := &Writer{}
	require.NoError(t, EncodeOp(w, op))
	got, err := DecodeOp(NewReader(w.Bytes()))
	require.NoError(t, err)
	return got
}

func TestOpRoundTrip(t *testing.T) {
	ops := []Op{
		LiteralOp{Value: Sint64(3)},
		ReadVarOp{Var: VarKey{Scene: LocalScene, Key: "x"}},
		BinOp{Kind: OpAdd, A: OpId{Scene: 0, Idx: 1}, B: OpId{Scene: 0, Idx: 2}},
		BinOp{Kind: OpFloorDiv, A: OpId{Idx: 1}, B: OpId{Idx: 2}},
		UnOp{Kind: OpNeg, A: OpId{Idx: 1}},
		GetTimeOp{},
		GetTimeAndClampOp{Low: OpId{Idx: 1}, High: OpId{Idx: 2}},
		IfOp{Cond: OpId{Idx: 1}, Then: OpId{Idx: 2}, Else: OpId{Idx: 3}},
		MakePointOp{X: OpId{Idx: 1}, Y: OpId{Idx: 2}},
		MakeRectLTRBOp{Left: OpId{Idx: 1}, Top: OpId{Idx: 2}, Right: OpId{Idx: 3}, Bottom: OpId{Idx: 4}},
		MakeRectXYWHOp{X: OpId{Idx: 1}, Y: OpId{Idx: 2}, W: OpId{Idx: 3}, H: OpId{Idx: 4}},
		MakeColorOp{R: OpId{Idx: 1}, G: OpId{Idx: 2}, B: OpId{Idx: 3}, A: OpId{Idx: 4}},
	}
	for _, op := range ops {
		got := roundTripOp(t, op)
		assert.Equal(t, op, got)
	}
}

func TestOpListRoundTrip(t *testing.T) {
	ops := []Op{
		LiteralOp{Value: Sint64(1)},
		LiteralOp{Value: Str("two")},
		BinOp{Kind: OpMul, A: OpId{Idx: 0}, B: OpId{Idx: 1}},
	}
	w := &Writer{}
	require.NoError(t, EncodeOpList(w, ops))
	got, err := DecodeOpList(NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, ops, got)
}

func TestDecodeOpUnknownTag(t *testing.T) {
	w := &Writer{}
	w.WriteU32(9999)
	_, err := DecodeOp(NewReader(w.Bytes()))
	require.Error(t, err)
}
