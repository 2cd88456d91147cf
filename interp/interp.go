// Package interp implements the expression interpreter: a single
// left-to-right evaluation pass over an op list into a value vector, with
// numeric promotion, cross-scene reads, and GetTime/GetTimeAndClamp
// wake-up scheduling.
package interp

import (
	"math"

	"github.com/boldui/core/deps"
	"github.com/boldui/core/protocol"
)

// SceneReader is the read-only view into other scenes' state that
// evaluation needs: another scene's last-evaluated result vector (for
// cross-scene OpId reads), its variable table (for cross-scene Var
// reads), and any known image dimensions (for GetImageDimensions). The
// scene package implements this; interp only depends on the interface so
// it never imports scene.
type SceneReader interface {
	Results(scene protocol.SceneID) ([]protocol.Value, bool)
	VarValue(scene protocol.SceneID, key string) (protocol.Value, bool)
	ImageDimensions(resource protocol.Resource) (width, height int64, ok bool)
}

// Evaluate runs one pass over ops, resolving reads against currentScene's
// in-progress result vector (OpId.Scene == protocol.LocalScene) or another
// scene's stored result vector (OpId.Scene != protocol.LocalScene,
// including currentScene's own id, which reads its *previous* evaluation),
// currentScene also disambiguates VarKey.Scene ==
// protocol.LocalScene var reads ("the scene owning this evaluation
// context"). tb may be nil when ops contains no GetTime/GetTimeAndClamp;
// evaluating either of those with a nil tb returns a MalformedFrame error.
func Evaluate(ops []protocol.Op, currentScene protocol.SceneID, reader SceneReader, tracker *deps.Tracker, tb *protocol.Timebase) ([]protocol.Value, error) {
	results := make([]protocol.Value, 0, len(ops))

	resolve := func(id protocol.OpId) (protocol.Value, error) {
		if id.Scene == protocol.LocalScene {
			if int(id.Idx) >= len(results) {
				return nil, protocol.NewError(protocol.ErrorInvalidRef, "forward or out-of-range local op reference %d", id.Idx)
			}
			return results[id.Idx], nil
		}
		vec, ok := reader.Results(id.Scene)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", id.Scene)
		}
		if int(id.Idx) >= len(vec) {
			return nil, protocol.NewError(protocol.ErrorInvalidRef, "out-of-range cross-scene op reference %d in scene %d", id.Idx, id.Scene)
		}
		return vec[id.Idx], nil
	}

	for _, op := range ops {
		v, err := evalOne(op, currentScene, resolve, reader, tracker, tb)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, nil
}

func evalOne(op protocol.Op, currentScene protocol.SceneID, resolve func(protocol.OpId) (protocol.Value, error), reader SceneReader, tracker *deps.Tracker, tb *protocol.Timebase) (protocol.Value, error) {
	switch o := op.(type) {
	case protocol.LiteralOp:
		return o.Value, nil

	case protocol.ReadVarOp:
		scene := o.Var.Scene
		if scene == protocol.LocalScene {
			scene = currentScene
		}
		val, ok := reader.VarValue(scene, o.Var.Key)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorUnknownVar, "unknown variable %s on scene %d", o.Var.Key, scene)
		}
		if tracker != nil {
			tracker.RecordRead(deps.VarID{Scene: scene, Key: o.Var.Key})
		}
		return val, nil

	case protocol.BinOp:
		a, err := resolve(o.A)
		if err != nil {
			return nil, err
		}
		b, err := resolve(o.B)
		if err != nil {
			return nil, err
		}
		return evalBinOp(o.Kind, a, b)

	case protocol.UnOp:
		a, err := resolve(o.A)
		if err != nil {
			return nil, err
		}
		return evalUnOp(o.Kind, a, reader)

	case protocol.GetTimeOp:
		if tb == nil {
			return nil, protocol.NewError(protocol.ErrorMalformedFrame, "GetTime evaluated without a timebase")
		}
		return tb.Elapsed(), nil

	case protocol.GetTimeAndClampOp:
		if tb == nil {
			return nil, protocol.NewError(protocol.ErrorMalformedFrame, "GetTimeAndClamp evaluated without a timebase")
		}
		low, err := resolve(o.Low)
		if err != nil {
			return nil, err
		}
		high, err := resolve(o.High)
		if err != nil {
			return nil, err
		}
		lowF, err := asFloat(low)
		if err != nil {
			return nil, err
		}
		highF, err := asFloat(high)
		if err != nil {
			return nil, err
		}
		now := float64(tb.Elapsed())
		clamped, wakeup := clampTime(now, lowF, highF)
		if tracker != nil {
			tracker.RecordWakeup(wakeup)
		}
		return protocol.Double(clamped), nil

	case protocol.IfOp:
		cond, err := resolve(o.Cond)
		if err != nil {
			return nil, err
		}
		condInt, ok := cond.(protocol.Sint64)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "If condition must be an integer, got %s", cond.Kind())
		}
		if condInt != 0 {
			return resolve(o.Then)
		}
		return resolve(o.Else)

	case protocol.MakePointOp:
		x, err := resolve(o.X)
		if err != nil {
			return nil, err
		}
		y, err := resolve(o.Y)
		if err != nil {
			return nil, err
		}
		xf, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		yf, err := asFloat(y)
		if err != nil {
			return nil, err
		}
		return protocol.Point{X: xf, Y: yf}, nil

	case protocol.MakeRectLTRBOp:
		return makeRect(resolve, o.Left, o.Top, o.Right, o.Bottom)

	case protocol.MakeRectXYWHOp:
		x, err := resolve(o.X)
		if err != nil {
			return nil, err
		}
		y, err := resolve(o.Y)
		if err != nil {
			return nil, err
		}
		w, err := resolve(o.W)
		if err != nil {
			return nil, err
		}
		h, err := resolve(o.H)
		if err != nil {
			return nil, err
		}
		xf, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		yf, err := asFloat(y)
		if err != nil {
			return nil, err
		}
		wf, err := asFloat(w)
		if err != nil {
			return nil, err
		}
		hf, err := asFloat(h)
		if err != nil {
			return nil, err
		}
		return protocol.Rect{Left: xf, Top: yf, Right: xf + wf, Bottom: yf + hf}, nil

	case protocol.MakeColorOp:
		r, err := resolveChannel(resolve, o.R)
		if err != nil {
			return nil, err
		}
		g, err := resolveChannel(resolve, o.G)
		if err != nil {
			return nil, err
		}
		b, err := resolveChannel(resolve, o.B)
		if err != nil {
			return nil, err
		}
		a, err := resolveChannel(resolve, o.A)
		if err != nil {
			return nil, err
		}
		return protocol.Color{R: r, G: g, B: b, A: a}, nil

	default:
		return nil, protocol.NewError(protocol.ErrorMalformedFrame, "unhandled op kind %T", op)
	}
}

func makeRect(resolve func(protocol.OpId) (protocol.Value, error), leftID, topID, rightID, bottomID protocol.OpId) (protocol.Value, error) {
	left, err := resolve(leftID)
	if err != nil {
		return nil, err
	}
	top, err := resolve(topID)
	if err != nil {
		return nil, err
	}
	right, err := resolve(rightID)
	if err != nil {
		return nil, err
	}
	bottom, err := resolve(bottomID)
	if err != nil {
		return nil, err
	}
	l, err := asFloat(left)
	if err != nil {
		return nil, err
	}
	t, err := asFloat(top)
	if err != nil {
		return nil, err
	}
	r, err := asFloat(right)
	if err != nil {
		return nil, err
	}
	b, err := asFloat(bottom)
	if err != nil {
		return nil, err
	}
	return protocol.Rect{Left: l, Top: t, Right: r, Bottom: b}, nil
}

func resolveChannel(resolve func(protocol.OpId) (protocol.Value, error), id protocol.OpId) (uint16, error) {
	v, err := resolve(id)
	if err != nil {
		return 0, err
	}
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		f = 0
	}
	if f > 0xffff {
		f = 0xffff
	}
	return uint16(f), nil
}

// clampTime implements GetTimeAndClamp's boundary rule:
// high < low clamps to low with no wake-up requested; otherwise the
// value clamps into [low, high] and the wake-up is high unless now has
// already reached or passed it.
func clampTime(now, low, high float64) (value float64, wakeup *float64) {
	if high < low {
		return low, nil
	}
	clamped := now
	if clamped < low {
		clamped = low
	}
	if clamped > high {
		clamped = high
	}
	if now >= high {
		return clamped, nil
	}
	h := high
	return clamped, &h
}

func asFloat(v protocol.Value) (float64, error) {
	switch t := v.(type) {
	case protocol.Sint64:
		return float64(t), nil
	case protocol.Double:
		return float64(t), nil
	default:
		return 0, protocol.NewError(protocol.ErrorTypeMismatch, "expected a numeric value, got %s", v.Kind())
	}
}

func isFloatValue(v protocol.Value) bool {
	_, ok := v.(protocol.Double)
	return ok
}

func evalBinOp(kind protocol.OpKind, a, b protocol.Value) (protocol.Value, error) {
	switch kind {
	case protocol.OpAdd, protocol.OpSub, protocol.OpMul, protocol.OpDiv, protocol.OpMin, protocol.OpMax:
		return evalArith(kind, a, b)
	case protocol.OpFloorDiv:
		return evalFloorDiv(a, b)
	case protocol.OpEq:
		return evalEq(a, b)
	case protocol.OpLt, protocol.OpLe, protocol.OpGt, protocol.OpGe:
		return evalCompare(kind, a, b)
	case protocol.OpAnd, protocol.OpOr:
		return evalBoolOp(kind, a, b)
	default:
		return nil, protocol.NewError(protocol.ErrorMalformedFrame, "unhandled binary op kind %d", kind)
	}
}

func evalArith(kind protocol.OpKind, a, b protocol.Value) (protocol.Value, error) {
	af, aErr := asFloat(a)
	if aErr != nil {
		return nil, aErr
	}
	bf, bErr := asFloat(b)
	if bErr != nil {
		return nil, bErr
	}
	if !isFloatValue(a) && !isFloatValue(b) {
		ai, bi := int64(af), int64(bf)
		switch kind {
		case protocol.OpAdd:
			return protocol.Sint64(ai + bi), nil
		case protocol.OpSub:
			return protocol.Sint64(ai - bi), nil
		case protocol.OpMul:
			return protocol.Sint64(ai * bi), nil
		case protocol.OpDiv:
			if bi == 0 {
				return nil, protocol.NewError(protocol.ErrorTypeMismatch, "integer division by zero")
			}
			return protocol.Sint64(ai / bi), nil
		case protocol.OpMin:
			if ai < bi {
				return protocol.Sint64(ai), nil
			}
			return protocol.Sint64(bi), nil
		case protocol.OpMax:
			if ai > bi {
				return protocol.Sint64(ai), nil
			}
			return protocol.Sint64(bi), nil
		}
	}
	switch kind {
	case protocol.OpAdd:
		return protocol.Double(af + bf), nil
	case protocol.OpSub:
		return protocol.Double(af - bf), nil
	case protocol.OpMul:
		return protocol.Double(af * bf), nil
	case protocol.OpDiv:
		return protocol.Double(af / bf), nil
	case protocol.OpMin:
		return protocol.Double(math.Min(af, bf)), nil
	case protocol.OpMax:
		return protocol.Double(math.Max(af, bf)), nil
	}
	panic("unreachable")
}

func evalFloorDiv(a, b protocol.Value) (protocol.Value, error) {
	if !isFloatValue(a) && !isFloatValue(b) {
		ai, _ := a.(protocol.Sint64)
		bi, _ := b.(protocol.Sint64)
		if bi == 0 {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "integer floor division by zero")
		}
		q := int64(ai) / int64(bi)
		r := int64(ai) % int64(bi)
		if r != 0 && (r < 0) != (int64(bi) < 0) {
			q--
		}
		return protocol.Sint64(q), nil
	}
	af, err := asFloat(a)
	if err != nil {
		return nil, err
	}
	bf, err := asFloat(b)
	if err != nil {
		return nil, err
	}
	return protocol.Double(math.Floor(af / bf)), nil
}

func evalEq(a, b protocol.Value) (protocol.Value, error) {
	if isNumeric(a) && isNumeric(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		if af == bf {
			return protocol.Sint64(1), nil
		}
		return protocol.Sint64(0), nil
	}
	if !protocol.SameType(a, b) {
		return nil, protocol.NewError(protocol.ErrorTypeMismatch, "Eq operands must share a type, got %s and %s", a.Kind(), b.Kind())
	}
	if valuesEqual(a, b) {
		return protocol.Sint64(1), nil
	}
	return protocol.Sint64(0), nil
}

func isNumeric(v protocol.Value) bool {
	switch v.(type) {
	case protocol.Sint64, protocol.Double:
		return true
	default:
		return false
	}
}

func valuesEqual(a, b protocol.Value) bool {
	switch av := a.(type) {
	case protocol.Str:
		bv := b.(protocol.Str)
		return av == bv
	case protocol.Resource:
		bv := b.(protocol.Resource)
		return av == bv
	case protocol.VarRef:
		bv := b.(protocol.VarRef)
		return av == bv
	case protocol.Point:
		bv := b.(protocol.Point)
		return av == bv
	case protocol.Rect:
		bv := b.(protocol.Rect)
		return av == bv
	case protocol.Color:
		bv := b.(protocol.Color)
		return av == bv
	default:
		return false
	}
}

func evalCompare(kind protocol.OpKind, a, b protocol.Value) (protocol.Value, error) {
	af, err := asFloat(a)
	if err != nil {
		return nil, err
	}
	bf, err := asFloat(b)
	if err != nil {
		return nil, err
	}
	var result bool
	switch kind {
	case protocol.OpLt:
		result = af < bf
	case protocol.OpLe:
		result = af <= bf
	case protocol.OpGt:
		result = af > bf
	case protocol.OpGe:
		result = af >= bf
	}
	if result {
		return protocol.Sint64(1), nil
	}
	return protocol.Sint64(0), nil
}

func evalBoolOp(kind protocol.OpKind, a, b protocol.Value) (protocol.Value, error) {
	ai, ok := a.(protocol.Sint64)
	if !ok {
		return nil, protocol.NewError(protocol.ErrorTypeMismatch, "And/Or operand must be an integer, got %s", a.Kind())
	}
	bi, ok := b.(protocol.Sint64)
	if !ok {
		return nil, protocol.NewError(protocol.ErrorTypeMismatch, "And/Or operand must be an integer, got %s", b.Kind())
	}
	var result bool
	switch kind {
	case protocol.OpAnd:
		result = ai != 0 && bi != 0
	case protocol.OpOr:
		result = ai != 0 || bi != 0
	}
	if result {
		return protocol.Sint64(1), nil
	}
	return protocol.Sint64(0), nil
}

func evalUnOp(kind protocol.OpKind, a protocol.Value, reader SceneReader) (protocol.Value, error) {
	switch kind {
	case protocol.OpNeg:
		if isFloatValue(a) {
			f, _ := asFloat(a)
			return protocol.Double(-f), nil
		}
		i, ok := a.(protocol.Sint64)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "Neg operand must be numeric, got %s", a.Kind())
		}
		return protocol.Sint64(-i), nil

	case protocol.OpNot:
		i, ok := a.(protocol.Sint64)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "Not operand must be an integer, got %s", a.Kind())
		}
		if i == 0 {
			return protocol.Sint64(1), nil
		}
		return protocol.Sint64(0), nil

	case protocol.OpAbs:
		if isFloatValue(a) {
			f, _ := asFloat(a)
			return protocol.Double(math.Abs(f)), nil
		}
		i, ok := a.(protocol.Sint64)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "Abs operand must be numeric, got %s", a.Kind())
		}
		if i < 0 {
			i = -i
		}
		return i, nil

	case protocol.OpSin, protocol.OpCos:
		f, err := asFloat(a)
		if err != nil {
			return nil, err
		}
		if kind == protocol.OpSin {
			return protocol.Double(math.Sin(f)), nil
		}
		return protocol.Double(math.Cos(f)), nil

	case protocol.OpToString:
		return protocol.Str(protocol.ToString(a)), nil

	case protocol.OpGetPointLeft:
		p, ok := a.(protocol.Point)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "GetPointLeft operand must be a point, got %s", a.Kind())
		}
		return protocol.Double(p.X), nil

	case protocol.OpGetPointTop:
		p, ok := a.(protocol.Point)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "GetPointTop operand must be a point, got %s", a.Kind())
		}
		return protocol.Double(p.Y), nil

	case protocol.OpGetImageDimensions:
		res, ok := a.(protocol.Resource)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorTypeMismatch, "GetImageDimensions operand must be a resource, got %s", a.Kind())
		}
		w, h, ok := reader.ImageDimensions(res)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorInvalidRef, "no known dimensions for resource %d", res)
		}
		return protocol.Point{X: float64(w), Y: float64(h)}, nil

	default:
		return nil, protocol.NewError(protocol.ErrorMalformedFrame, "unhandled unary op kind %d", kind)
	}
}
