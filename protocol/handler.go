package protocol

// ReparentKind tags where a ReparentScene command attaches a scene.
type ReparentKind uint32

const (
	ReparentInside ReparentKind = iota
	ReparentAfter
	ReparentRoot
	ReparentDisconnect
	ReparentHide
)

// ReparentTarget is the destination of a ReparentScene command. Target is
// only meaningful for Inside/After.
type ReparentTarget struct {
	Kind   ReparentKind
	Target SceneID
}

// HandlerCmdKind tags the HandlerCommand sum type.
type HandlerCmdKind uint32

const (
	HCNop HandlerCmdKind = iota
	HCReparentScene
	HCSetVar
	HCSetVarByRef
	HCDeleteVar
	HCDebugMessage
	HCReply
	HCOpen
	HCIf
	HCAllocateWindowID
)

// HandlerCommand is one statement of a handler block's command sequence.
type HandlerCommand interface {
	HandlerCmdKind() HandlerCmdKind
}

type NopCmd struct{}

func (NopCmd) HandlerCmdKind() HandlerCmdKind { return HCNop }

type ReparentSceneCmd struct {
	Scene SceneID
	To    ReparentTarget
}

func (ReparentSceneCmd) HandlerCmdKind() HandlerCmdKind { return HCReparentScene }

// SetVarCmd assigns Var the value of Value, once Value's runtime type is
// checked against Var's declared default.
type SetVarCmd struct {
	Var   VarKey
	Value OpId
}

func (SetVarCmd) HandlerCmdKind() HandlerCmdKind { return HCSetVar }

// SetVarByRefCmd resolves which variable to set dynamically: VarOp must
// evaluate to a VarRef Value.
type SetVarByRefCmd struct {
	VarOp OpId
	Value OpId
}

func (SetVarByRefCmd) HandlerCmdKind() HandlerCmdKind { return HCSetVarByRef }

type DeleteVarCmd struct{ Var VarKey }

func (DeleteVarCmd) HandlerCmdKind() HandlerCmdKind { return HCDeleteVar }

// DebugMessageCmd carries its message as a literal string, not an op:
// debug text is fixed at emit time.
type DebugMessageCmd struct{ Text string }

func (DebugMessageCmd) HandlerCmdKind() HandlerCmdKind { return HCDebugMessage }

// ReplyCmd's path is a literal string fixed at emit time; only the params
// are evaluated from the block's op list.
type ReplyCmd struct {
	Path   string
	Params []OpId
}

func (ReplyCmd) HandlerCmdKind() HandlerCmdKind { return HCReply }

type OpenCmd struct{ Path string }

func (OpenCmd) HandlerCmdKind() HandlerCmdKind { return HCOpen }

type IfCmd struct {
	Cond       OpId
	Then, Else []HandlerCommand
}

func (IfCmd) HandlerCmdKind() HandlerCmdKind { return HCIf }

type AllocateWindowIDCmd struct{}

func (AllocateWindowIDCmd) HandlerCmdKind() HandlerCmdKind { return HCAllocateWindowID }

// HandlerBlock is a local op list plus a sequence of handler commands.
type HandlerBlock struct {
	Ops      []Op
	Commands []HandlerCommand
}

// Watch is (condition_op, handler_block); after scene evaluation the
// condition is read as an integer, non-zero triggers the handler.
type Watch struct {
	Condition OpId
	Handler   HandlerBlock
}

// EventKind tags the EventType sum type.
type EventKind uint32

const (
	EventClick EventKind = iota
	EventMouseDown
	EventMouseUp
	EventMouseMove
)

// EventType is (kind, hit-test rect op). All four variants carry the same
// shape, so they share one struct tagged by Kind.
type EventType struct {
	Kind EventKind
	Rect OpId
}

// EventHandler is (event_type, handler_block, continue_handling_op). A
// present, zero-evaluating ContinueHandling stops bubbling.
type EventHandler struct {
	Event             EventType
	Handler           HandlerBlock
	ContinueHandling  OpId
	HasContinueHandle bool
}

func encodeHandlerCommand(w *Writer, c HandlerCommand) error {
	w.WriteU32(uint32(c.HandlerCmdKind()))
	switch cc := c.(type) {
	case NopCmd:
	case ReparentSceneCmd:
		w.WriteU32(uint32(cc.Scene))
		w.WriteU32(uint32(cc.To.Kind))
		w.WriteU32(uint32(cc.To.Target))
	case SetVarCmd:
		w.WriteU32(uint32(cc.Var.Scene))
		w.WriteString(cc.Var.Key)
		EncodeOpId(w, cc.Value)
	case SetVarByRefCmd:
		EncodeOpId(w, cc.VarOp)
		EncodeOpId(w, cc.Value)
	case DeleteVarCmd:
		w.WriteU32(uint32(cc.Var.Scene))
		w.WriteString(cc.Var.Key)
	case DebugMessageCmd:
		w.WriteString(cc.Text)
	case ReplyCmd:
		w.WriteString(cc.Path)
		w.WriteLen(len(cc.Params))
		for _, p := range cc.Params {
			EncodeOpId(w, p)
		}
	case OpenCmd:
		w.WriteString(cc.Path)
	case IfCmd:
		EncodeOpId(w, cc.Cond)
		if err := encodeHandlerCommandList(w, cc.Then); err != nil {
			return err
		}
		if err := encodeHandlerCommandList(w, cc.Else); err != nil {
			return err
		}
	case AllocateWindowIDCmd:
	default:
		return NewError(ErrorMalformedFrame, "unhandled handler command type %T", c)
	}
	return nil
}

func decodeHandlerCommand(r *Reader) (HandlerCommand, error) {
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch HandlerCmdKind(tag) {
	case HCNop:
		return NopCmd{}, nil
	case HCReparentScene:
		scene, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		target, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return ReparentSceneCmd{Scene: SceneID(scene), To: ReparentTarget{Kind: ReparentKind(kind), Target: SceneID(target)}}, nil
	case HCSetVar:
		scene, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		val, err := DecodeOpId(r)
		return SetVarCmd{Var: VarKey{Scene: SceneID(scene), Key: key}, Value: val}, err
	case HCSetVarByRef:
		varOp, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		val, err := DecodeOpId(r)
		return SetVarByRefCmd{VarOp: varOp, Value: val}, err
	case HCDeleteVar:
		scene, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		key, err := r.ReadString()
		return DeleteVarCmd{Var: VarKey{Scene: SceneID(scene), Key: key}}, err
	case HCDebugMessage:
		t, err := r.ReadString()
		return DebugMessageCmd{Text: t}, err
	case HCReply:
		path, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadLen()
		if err != nil {
			return nil, err
		}
		params := make([]OpId, n)
		for i := range params {
			params[i], err = DecodeOpId(r)
			if err != nil {
				return nil, err
			}
		}
		return ReplyCmd{Path: path, Params: params}, nil
	case HCOpen:
		path, err := r.ReadString()
		return OpenCmd{Path: path}, err
	case HCIf:
		cond, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		then, err := decodeHandlerCommandList(r)
		if err != nil {
			return nil, err
		}
		els, err := decodeHandlerCommandList(r)
		return IfCmd{Cond: cond, Then: then, Else: els}, err
	case HCAllocateWindowID:
		return AllocateWindowIDCmd{}, nil
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown handler command tag %d", tag)
	}
}

func encodeHandlerCommandList(w *Writer, cmds []HandlerCommand) error {
	w.WriteLen(len(cmds))
	for _, c := range cmds {
		if err := encodeHandlerCommand(w, c); err != nil {
			return err
		}
	}
	return nil
}

func decodeHandlerCommandList(r *Reader) ([]HandlerCommand, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	cmds := make([]HandlerCommand, n)
	for i := range cmds {
		c, err := decodeHandlerCommand(r)
		if err != nil {
			return nil, err
		}
		cmds[i] = c
	}
	return cmds, nil
}

func EncodeHandlerBlock(w *Writer, hb HandlerBlock) error {
	if err := EncodeOpList(w, hb.Ops); err != nil {
		return err
	}
	return encodeHandlerCommandList(w, hb.Commands)
}

func DecodeHandlerBlock(r *Reader) (HandlerBlock, error) {
	ops, err := DecodeOpList(r)
	if err != nil {
		return HandlerBlock{}, err
	}
	cmds, err := decodeHandlerCommandList(r)
	return HandlerBlock{Ops: ops, Commands: cmds}, err
}

func EncodeWatch(w *Writer, watch Watch) error {
	EncodeOpId(w, watch.Condition)
	return EncodeHandlerBlock(w, watch.Handler)
}

func DecodeWatch(r *Reader) (Watch, error) {
	cond, err := DecodeOpId(r)
	if err != nil {
		return Watch{}, err
	}
	hb, err := DecodeHandlerBlock(r)
	return Watch{Condition: cond, Handler: hb}, err
}

func EncodeEventHandler(w *Writer, eh EventHandler) error {
	w.WriteU32(uint32(eh.Event.Kind))
	EncodeOpId(w, eh.Event.Rect)
	if err := EncodeHandlerBlock(w, eh.Handler); err != nil {
		return err
	}
	if eh.HasContinueHandle {
		w.WriteU8(1)
		EncodeOpId(w, eh.ContinueHandling)
	} else {
		w.WriteU8(0)
	}
	return nil
}

func DecodeEventHandler(r *Reader) (EventHandler, error) {
	kind, err := r.ReadU32()
	if err != nil {
		return EventHandler{}, err
	}
	rect, err := DecodeOpId(r)
	if err != nil {
		return EventHandler{}, err
	}
	hb, err := DecodeHandlerBlock(r)
	if err != nil {
		return EventHandler{}, err
	}
	has, err := r.ReadU8()
	if err != nil {
		return EventHandler{}, err
	}
	eh := EventHandler{Event: EventType{Kind: EventKind(kind), Rect: rect}, Handler: hb}
	if has != 0 {
		eh.HasContinueHandle = true
		eh.ContinueHandling, err = DecodeOpId(r)
	}
	return eh, err
}
