package interp

import (
	"math"
	"testing"

	"github.com/boldui/core/deps"
	"github.com/boldui/core/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	results map[protocol.SceneID][]protocol.Value
	vars    map[protocol.SceneID]map[string]protocol.Value
	images  map[protocol.Resource][2]int64
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		results: map[protocol.SceneID][]protocol.Value{},
		vars:    map[protocol.SceneID]map[string]protocol.Value{},
		images:  map[protocol.Resource][2]int64{},
	}
}

func (f *fakeReader) Results(scene protocol.SceneID) ([]protocol.Value, bool) {
	v, ok := f.results[scene]
	return v, ok
}

func (f *fakeReader) VarValue(scene protocol.SceneID, key string) (protocol.Value, bool) {
	m, ok := f.vars[scene]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func (f *fakeReader) ImageDimensions(res protocol.Resource) (int64, int64, bool) {
	wh, ok := f.images[res]
	if !ok {
		return 0, 0, false
	}
	return wh[0], wh[1], true
}

func evalOps(t *testing.T, ops []protocol.Op, currentScene protocol.SceneID, reader SceneReader, tracker *deps.Tracker, tb *protocol.Timebase) []protocol.Value {
	t.Helper()
	got, err := Evaluate(ops, currentScene, reader, tracker, tb)
	require.NoError(t, err)
	return got
}

func TestEvaluateLiteral(t *testing.T) {
	r := newFakeReader()
	got := evalOps(t, []protocol.Op{protocol.LiteralOp{Value: protocol.Sint64(7)}}, 0, r, deps.New(), nil)
	assert.Equal(t, []protocol.Value{protocol.Sint64(7)}, got)
}

func TestEvaluateAddIntAndFloatPromotion(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(2)},
		protocol.LiteralOp{Value: protocol.Sint64(3)},
		protocol.BinOp{Kind: protocol.OpAdd, A: protocol.OpId{Idx: 0}, B: protocol.OpId{Idx: 1}},
		protocol.LiteralOp{Value: protocol.Double(0.5)},
		protocol.BinOp{Kind: protocol.OpAdd, A: protocol.OpId{Idx: 2}, B: protocol.OpId{Idx: 3}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Sint64(5), got[2])
	assert.Equal(t, protocol.Double(5.5), got[4])
}

func TestEvaluateFloorDiv(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(-7)},
		protocol.LiteralOp{Value: protocol.Sint64(2)},
		protocol.BinOp{Kind: protocol.OpFloorDiv, A: protocol.OpId{Idx: 0}, B: protocol.OpId{Idx: 1}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Sint64(-4), got[2])
}

func TestEvaluateIntDivisionByZeroIsFatal(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(1)},
		protocol.LiteralOp{Value: protocol.Sint64(0)},
		protocol.BinOp{Kind: protocol.OpDiv, A: protocol.OpId{Idx: 0}, B: protocol.OpId{Idx: 1}},
	}
	_, err := Evaluate(ops, 0, r, deps.New(), nil)
	require.Error(t, err)
	var perr *protocol.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, protocol.ErrorTypeMismatch, perr.Code)
}

func TestEvaluateFloatDivisionByZeroIsInf(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Double(1)},
		protocol.LiteralOp{Value: protocol.Double(0)},
		protocol.BinOp{Kind: protocol.OpDiv, A: protocol.OpId{Idx: 0}, B: protocol.OpId{Idx: 1}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	d := got[2].(protocol.Double)
	assert.True(t, math.IsInf(float64(d), 1))
}

func TestEvaluateIfSelectsBranch(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(1)},
		protocol.LiteralOp{Value: protocol.Str("yes")},
		protocol.LiteralOp{Value: protocol.Str("no")},
		protocol.IfOp{Cond: protocol.OpId{Idx: 0}, Then: protocol.OpId{Idx: 1}, Else: protocol.OpId{Idx: 2}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Str("yes"), got[3])
}

func TestEvaluateIfRejectsNonInteger(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Double(1)},
		protocol.LiteralOp{Value: protocol.Str("a")},
		protocol.LiteralOp{Value: protocol.Str("b")},
		protocol.IfOp{Cond: protocol.OpId{Idx: 0}, Then: protocol.OpId{Idx: 1}, Else: protocol.OpId{Idx: 2}},
	}
	_, err := Evaluate(ops, 0, r, deps.New(), nil)
	require.Error(t, err)
}

func TestEvaluateForwardReferenceIsInvalidRef(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.UnOp{Kind: protocol.OpNeg, A: protocol.OpId{Idx: 1}},
		protocol.LiteralOp{Value: protocol.Sint64(1)},
	}
	_, err := Evaluate(ops, 0, r, deps.New(), nil)
	require.Error(t, err)
	var perr *protocol.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, protocol.ErrorInvalidRef, perr.Code)
}

func TestEvaluateVarReadRecordsDependency(t *testing.T) {
	r := newFakeReader()
	r.vars[5] = map[string]protocol.Value{"count": protocol.Sint64(3)}
	tr := deps.New()
	ops := []protocol.Op{
		protocol.ReadVarOp{Var: protocol.VarKey{Scene: protocol.LocalScene, Key: "count"}},
	}
	got := evalOps(t, ops, 5, r, tr, nil)
	assert.Equal(t, protocol.Sint64(3), got[0])
	_, ok := tr.Reads[deps.VarID{Scene: 5, Key: "count"}]
	assert.True(t, ok)
}

func TestEvaluateUnknownVarIsFatal(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.ReadVarOp{Var: protocol.VarKey{Scene: protocol.LocalScene, Key: "missing"}},
	}
	_, err := Evaluate(ops, 5, r, deps.New(), nil)
	require.Error(t, err)
	var perr *protocol.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, protocol.ErrorUnknownVar, perr.Code)
}

func TestEvaluateCrossSceneRead(t *testing.T) {
	r := newFakeReader()
	r.results[9] = []protocol.Value{protocol.Sint64(99)}
	ops := []protocol.Op{
		protocol.UnOp{Kind: protocol.OpNeg, A: protocol.OpId{Scene: 9, Idx: 0}},
	}
	got := evalOps(t, ops, 1, r, deps.New(), nil)
	assert.Equal(t, protocol.Sint64(-99), got[0])
}

func TestGetTimeAndClampHighLessThanLowClampsToLowNoWakeup(t *testing.T) {
	r := newFakeReader()
	tb := protocol.NewTimebase()
	tr := deps.New()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Double(5)},
		protocol.LiteralOp{Value: protocol.Double(2)},
		protocol.GetTimeAndClampOp{Low: protocol.OpId{Idx: 0}, High: protocol.OpId{Idx: 1}},
	}
	got := evalOps(t, ops, 0, r, tr, tb)
	assert.Equal(t, protocol.Double(5), got[2])
	assert.False(t, tr.HasWakeup())
}

func TestGetTimeAndClampSchedulesWakeupAtHigh(t *testing.T) {
	r := newFakeReader()
	tb := protocol.NewTimebase()
	tr := deps.New()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Double(0)},
		protocol.LiteralOp{Value: protocol.Double(1000)},
		protocol.GetTimeAndClampOp{Low: protocol.OpId{Idx: 0}, High: protocol.OpId{Idx: 1}},
	}
	evalOps(t, ops, 0, r, tr, tb)
	assert.True(t, tr.HasWakeup())
	assert.Equal(t, 1000.0, tr.NextWakeup)
}

func TestEvaluateMakeRectLTRB(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(1)},
		protocol.LiteralOp{Value: protocol.Sint64(2)},
		protocol.LiteralOp{Value: protocol.Sint64(3)},
		protocol.LiteralOp{Value: protocol.Sint64(4)},
		protocol.MakeRectLTRBOp{Left: protocol.OpId{Idx: 0}, Top: protocol.OpId{Idx: 1}, Right: protocol.OpId{Idx: 2}, Bottom: protocol.OpId{Idx: 3}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}, got[4])
}

func TestEvaluateMakeColorClampsChannels(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(-5)},
		protocol.LiteralOp{Value: protocol.Sint64(70000)},
		protocol.LiteralOp{Value: protocol.Sint64(10)},
		protocol.LiteralOp{Value: protocol.Sint64(65535)},
		protocol.MakeColorOp{R: protocol.OpId{Idx: 0}, G: protocol.OpId{Idx: 1}, B: protocol.OpId{Idx: 2}, A: protocol.OpId{Idx: 3}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Color{R: 0, G: 0xffff, B: 10, A: 0xffff}, got[4])
}

func TestEvaluateEqOnMismatchedTypesIsFatal(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Str("a")},
		protocol.LiteralOp{Value: protocol.Color{}},
		protocol.BinOp{Kind: protocol.OpEq, A: protocol.OpId{Idx: 0}, B: protocol.OpId{Idx: 1}},
	}
	_, err := Evaluate(ops, 0, r, deps.New(), nil)
	require.Error(t, err)
}

func TestEvaluateGetPointLeftTop(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Point{X: 3, Y: 4}},
		protocol.UnOp{Kind: protocol.OpGetPointLeft, A: protocol.OpId{Idx: 0}},
		protocol.UnOp{Kind: protocol.OpGetPointTop, A: protocol.OpId{Idx: 0}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Double(3), got[1])
	assert.Equal(t, protocol.Double(4), got[2])
}

func TestEvaluateGetImageDimensions(t *testing.T) {
	r := newFakeReader()
	r.images[protocol.Resource(1)] = [2]int64{640, 480}
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Resource(1)},
		protocol.UnOp{Kind: protocol.OpGetImageDimensions, A: protocol.OpId{Idx: 0}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Point{X: 640, Y: 480}, got[1])
}

func TestEvaluateToString(t *testing.T) {
	r := newFakeReader()
	ops := []protocol.Op{
		protocol.LiteralOp{Value: protocol.Sint64(42)},
		protocol.UnOp{Kind: protocol.OpToString, A: protocol.OpId{Idx: 0}},
	}
	got := evalOps(t, ops, 0, r, deps.New(), nil)
	assert.Equal(t, protocol.Str("42"), got[1])
}
