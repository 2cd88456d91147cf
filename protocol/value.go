package protocol

import (
	"fmt"
	"strconv"
)

// ValueKind tags the Value sum type.
type ValueKind uint32

const (
	KindSint64 ValueKind = iota
	KindDouble
	KindString
	KindColor
	KindPoint
	KindRect
	KindResource
	KindVarRef
)

func (k ValueKind) String() string {
	switch k {
	case KindSint64:
		return "Sint64"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	case KindColor:
		return "Color"
	case KindPoint:
		return "Point"
	case KindRect:
		return "Rect"
	case KindResource:
		return "Resource"
	case KindVarRef:
		return "VarRef"
	default:
		return "Unknown"
	}
}

// Value is the sum type carried by ops, variables, and handler params. Each
// concrete type below implements it. The fixed-size variants encode in at
// most 36 bytes (a Rect's tag plus four f64s); Str and VarRef encode their
// full string bytes and no size check is made, so a long string encodes to
// more than 64 bytes.
type Value interface {
	Kind() ValueKind
}

type Sint64 int64

func (Sint64) Kind() ValueKind { return KindSint64 }

type Double float64

func (Double) Kind() ValueKind { return KindDouble }

// Str is the string Value variant (named Str, not String, to avoid
// colliding with the fmt.Stringer method name and the ValueKind it tags).
type Str string

func (Str) Kind() ValueKind { return KindString }

type Color struct {
	R, G, B, A uint16
}

func (Color) Kind() ValueKind { return KindColor }

type Point struct {
	X, Y float64
}

func (Point) Kind() ValueKind { return KindPoint }

type Rect struct {
	Left, Top, Right, Bottom float64
}

func (Rect) Kind() ValueKind { return KindRect }

type Resource uint32

func (Resource) Kind() ValueKind { return KindResource }

// VarRef is a weak reference to a variable by name; it only resolves while
// the declaring scene exists.
type VarRef struct {
	Scene SceneID
	Key   string
}

func (VarRef) Kind() ValueKind { return KindVarRef }

// SameType reports whether a and b are the same Value variant, the pairwise
// typecheck used by SetVar.
func SameType(a, b Value) bool {
	return a.Kind() == b.Kind()
}

// EncodeValue writes a tagged Value.
func EncodeValue(w *Writer, v Value) {
	w.WriteU32(uint32(v.Kind()))
	switch t := v.(type) {
	case Sint64:
		w.WriteI64(int64(t))
	case Double:
		w.WriteF64(float64(t))
	case Str:
		w.WriteString(string(t))
	case Color:
		w.WriteU32(uint32(t.R)<<16 | uint32(t.G))
		w.WriteU32(uint32(t.B)<<16 | uint32(t.A))
	case Point:
		w.WriteF64(t.X)
		w.WriteF64(t.Y)
	case Rect:
		w.WriteF64(t.Left)
		w.WriteF64(t.Top)
		w.WriteF64(t.Right)
		w.WriteF64(t.Bottom)
	case Resource:
		w.WriteU32(uint32(t))
	case VarRef:
		w.WriteU32(uint32(t.Scene))
		w.WriteString(t.Key)
	default:
		panic(fmt.Sprintf("protocol: unhandled Value type %T", v))
	}
}

// DecodeValue reads a tagged Value.
func DecodeValue(r *Reader) (Value, error) {
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch ValueKind(tag) {
	case KindSint64:
		n, err := r.ReadI64()
		return Sint64(n), err
	case KindDouble:
		f, err := r.ReadF64()
		return Double(f), err
	case KindString:
		s, err := r.ReadString()
		return Str(s), err
	case KindColor:
		a, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return Color{R: uint16(a >> 16), G: uint16(a), B: uint16(b >> 16), A: uint16(b)}, nil
	case KindPoint:
		x, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadF64()
		return Point{X: x, Y: y}, err
	case KindRect:
		l, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		t, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		rr, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadF64()
		return Rect{Left: l, Top: t, Right: rr, Bottom: b}, err
	case KindResource:
		n, err := r.ReadU32()
		return Resource(n), err
	case KindVarRef:
		sc, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		key, err := r.ReadString()
		return VarRef{Scene: SceneID(sc), Key: key}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown value tag %d", tag)
	}
}

// ToString formats a Value the way the ToString op does:
// ints as decimal, floats with Go's shortest round-tripping decimal form,
// colors as "#RRGGBB" (or "#RRGGBBAA" if alpha isn't fully opaque),
// points/rects as tuple text.
func ToString(v Value) string {
	switch t := v.(type) {
	case Sint64:
		return strconv.FormatInt(int64(t), 10)
	case Double:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case Str:
		return string(t)
	case Color:
		r8, g8, b8, a8 := t.R>>8, t.G>>8, t.B>>8, t.A>>8
		if t.A == 0xffff {
			return fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		}
		return fmt.Sprintf("#%02X%02X%02X%02X", r8, g8, b8, a8)
	case Point:
		return fmt.Sprintf("(%s, %s)", ToString(Double(t.X)), ToString(Double(t.Y)))
	case Rect:
		return fmt.Sprintf("(%s, %s, %s, %s)",
			ToString(Double(t.Left)), ToString(Double(t.Top)),
			ToString(Double(t.Right)), ToString(Double(t.Bottom)))
	case Resource:
		return strconv.FormatUint(uint64(t), 10)
	case VarRef:
		return fmt.Sprintf("$%d.%s", t.Scene, t.Key)
	default:
		return fmt.Sprintf("%v", v)
	}
}
