package protocol

// OpKind tags the Operation sum type: a node in a directed
// acyclic op graph, every operand referencing an earlier OpId.
type OpKind uint32

const (
	OpLiteral OpKind = iota
	OpReadVar
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpNeg
	OpEq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpMin
	OpMax
	OpAbs
	OpSin
	OpCos
	OpGetTime
	OpGetTimeAndClamp
	OpIf
	OpToString
	OpMakePoint
	OpMakeRectLTRB
	OpMakeRectXYWH
	OpMakeColor
	OpGetImageDimensions
	OpGetPointLeft
	OpGetPointTop
)

// VarKey names a variable. Scene == LocalScene means "the scene owning the
// current evaluation context" (the scene whose op list, watch, or event
// handler is executing); a non-zero Scene names another scene explicitly,
// mirroring the scene_id == 0 convention already used by OpId.
type VarKey struct {
	Scene SceneID
	Key   string
}

// Op is one node of a scene's (or handler block's) op list.
type Op interface {
	OpKind() OpKind
}

type LiteralOp struct{ Value Value }

func (LiteralOp) OpKind() OpKind { return OpLiteral }

type ReadVarOp struct{ Var VarKey }

func (ReadVarOp) OpKind() OpKind { return OpReadVar }

// BinOp covers Add/Sub/Mul/Div/FloorDiv/Eq/Lt/Le/Gt/Ge/And/Or/Min/Max,
// all of which take exactly two operand OpIds.
type BinOp struct {
	Kind OpKind
	A, B OpId
}

func (o BinOp) OpKind() OpKind { return o.Kind }

// UnOp covers Neg/Not/Abs/Sin/Cos/ToString/GetPointLeft/GetPointTop/
// GetImageDimensions, all of which take exactly one operand OpId.
type UnOp struct {
	Kind OpKind
	A    OpId
}

func (o UnOp) OpKind() OpKind { return o.Kind }

type GetTimeOp struct{}

func (GetTimeOp) OpKind() OpKind { return OpGetTime }

type GetTimeAndClampOp struct{ Low, High OpId }

func (GetTimeAndClampOp) OpKind() OpKind { return OpGetTimeAndClamp }

type IfOp struct{ Cond, Then, Else OpId }

func (IfOp) OpKind() OpKind { return OpIf }

type MakePointOp struct{ X, Y OpId }

func (MakePointOp) OpKind() OpKind { return OpMakePoint }

type MakeRectLTRBOp struct{ Left, Top, Right, Bottom OpId }

func (MakeRectLTRBOp) OpKind() OpKind { return OpMakeRectLTRB }

type MakeRectXYWHOp struct{ X, Y, W, H OpId }

func (MakeRectXYWHOp) OpKind() OpKind { return OpMakeRectXYWH }

type MakeColorOp struct{ R, G, B, A OpId }

func (MakeColorOp) OpKind() OpKind { return OpMakeColor }

// EncodeOp writes a tagged Op.
func EncodeOp(w *Writer, op Op) error {
	w.WriteU32(uint32(op.OpKind()))
	switch o := op.(type) {
	case LiteralOp:
		EncodeValue(w, o.Value)
	case ReadVarOp:
		w.WriteU32(uint32(o.Var.Scene))
		w.WriteString(o.Var.Key)
	case BinOp:
		EncodeOpId(w, o.A)
		EncodeOpId(w, o.B)
	case UnOp:
		EncodeOpId(w, o.A)
	case GetTimeOp:
	case GetTimeAndClampOp:
		EncodeOpId(w, o.Low)
		EncodeOpId(w, o.High)
	case IfOp:
		EncodeOpId(w, o.Cond)
		EncodeOpId(w, o.Then)
		EncodeOpId(w, o.Else)
	case MakePointOp:
		EncodeOpId(w, o.X)
		EncodeOpId(w, o.Y)
	case MakeRectLTRBOp:
		EncodeOpId(w, o.Left)
		EncodeOpId(w, o.Top)
		EncodeOpId(w, o.Right)
		EncodeOpId(w, o.Bottom)
	case MakeRectXYWHOp:
		EncodeOpId(w, o.X)
		EncodeOpId(w, o.Y)
		EncodeOpId(w, o.W)
		EncodeOpId(w, o.H)
	case MakeColorOp:
		EncodeOpId(w, o.R)
		EncodeOpId(w, o.G)
		EncodeOpId(w, o.B)
		EncodeOpId(w, o.A)
	default:
		return NewError(ErrorMalformedFrame, "unhandled op type %T", op)
	}
	return nil
}

// DecodeOp reads a tagged Op.
func DecodeOp(r *Reader) (Op, error) {
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	kind := OpKind(tag)
	switch kind {
	case OpLiteral:
		v, err := DecodeValue(r)
		return LiteralOp{Value: v}, err
	case OpReadVar:
		scene, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		key, err := r.ReadString()
		return ReadVarOp{Var: VarKey{Scene: SceneID(scene), Key: key}}, err
	case OpAdd, OpSub, OpMul, OpDiv, OpFloorDiv, OpEq, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr, OpMin, OpMax:
		a, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		b, err := DecodeOpId(r)
		return BinOp{Kind: kind, A: a, B: b}, err
	case OpNeg, OpNot, OpAbs, OpSin, OpCos, OpToString, OpGetPointLeft, OpGetPointTop, OpGetImageDimensions:
		a, err := DecodeOpId(r)
		return UnOp{Kind: kind, A: a}, err
	case OpGetTime:
		return GetTimeOp{}, nil
	case OpGetTimeAndClamp:
		low, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		high, err := DecodeOpId(r)
		return GetTimeAndClampOp{Low: low, High: high}, err
	case OpIf:
		cond, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		then, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		els, err := DecodeOpId(r)
		return IfOp{Cond: cond, Then: then, Else: els}, err
	case OpMakePoint:
		x, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		y, err := DecodeOpId(r)
		return MakePointOp{X: x, Y: y}, err
	case OpMakeRectLTRB:
		l, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		t, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		rr, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		b, err := DecodeOpId(r)
		return MakeRectLTRBOp{Left: l, Top: t, Right: rr, Bottom: b}, err
	case OpMakeRectXYWH:
		x, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		y, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		w2, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		h, err := DecodeOpId(r)
		return MakeRectXYWHOp{X: x, Y: y, W: w2, H: h}, err
	case OpMakeColor:
		rC, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		g, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		b, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		a, err := DecodeOpId(r)
		return MakeColorOp{R: rC, G: g, B: b, A: a}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown op tag %d", tag)
	}
}

// EncodeOpList writes a u64-length-prefixed sequence of ops.
func EncodeOpList(w *Writer, ops []Op) error {
	w.WriteLen(len(ops))
	for _, op := range ops {
		if err := EncodeOp(w, op); err != nil {
			return err
		}
	}
	return nil
}

// DecodeOpList reads a u64-length-prefixed sequence of ops.
func DecodeOpList(r *Reader) ([]Op, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	ops := make([]Op, n)
	for i := range ops {
		op, err := DecodeOp(r)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
