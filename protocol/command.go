package protocol

// CommandKind tags the Command sum type: a tagged drawing
// operation referencing ops by OpId.
type CommandKind uint32

const (
	CmdClear CommandKind = iota
	CmdDrawRect
	CmdDrawRoundRect
	CmdDrawCenteredText
	CmdDrawImage
)

type Command interface {
	CommandKind() CommandKind
}

type ClearCmd struct{ Color OpId }

func (ClearCmd) CommandKind() CommandKind { return CmdClear }

type DrawRectCmd struct{ Paint, Rect OpId }

func (DrawRectCmd) CommandKind() CommandKind { return CmdDrawRect }

type DrawRoundRectCmd struct{ Paint, Rect, Radius OpId }

func (DrawRoundRectCmd) CommandKind() CommandKind { return CmdDrawRoundRect }

type DrawCenteredTextCmd struct{ Text, Paint, Center OpId }

func (DrawCenteredTextCmd) CommandKind() CommandKind { return CmdDrawCenteredText }

type DrawImageCmd struct{ Resource, TopLeft OpId }

func (DrawImageCmd) CommandKind() CommandKind { return CmdDrawImage }

func EncodeCommand(w *Writer, c Command) error {
	w.WriteU32(uint32(c.CommandKind()))
	switch cc := c.(type) {
	case ClearCmd:
		EncodeOpId(w, cc.Color)
	case DrawRectCmd:
		EncodeOpId(w, cc.Paint)
		EncodeOpId(w, cc.Rect)
	case DrawRoundRectCmd:
		EncodeOpId(w, cc.Paint)
		EncodeOpId(w, cc.Rect)
		EncodeOpId(w, cc.Radius)
	case DrawCenteredTextCmd:
		EncodeOpId(w, cc.Text)
		EncodeOpId(w, cc.Paint)
		EncodeOpId(w, cc.Center)
	case DrawImageCmd:
		EncodeOpId(w, cc.Resource)
		EncodeOpId(w, cc.TopLeft)
	default:
		return NewError(ErrorMalformedFrame, "unhandled command type %T", c)
	}
	return nil
}

func DecodeCommand(r *Reader) (Command, error) {
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch CommandKind(tag) {
	case CmdClear:
		c, err := DecodeOpId(r)
		return ClearCmd{Color: c}, err
	case CmdDrawRect:
		p, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		rect, err := DecodeOpId(r)
		return DrawRectCmd{Paint: p, Rect: rect}, err
	case CmdDrawRoundRect:
		p, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		rect, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		rad, err := DecodeOpId(r)
		return DrawRoundRectCmd{Paint: p, Rect: rect, Radius: rad}, err
	case CmdDrawCenteredText:
		t, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		p, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		c, err := DecodeOpId(r)
		return DrawCenteredTextCmd{Text: t, Paint: p, Center: c}, err
	case CmdDrawImage:
		res, err := DecodeOpId(r)
		if err != nil {
			return nil, err
		}
		tl, err := DecodeOpId(r)
		return DrawImageCmd{Resource: res, TopLeft: tl}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown command tag %d", tag)
	}
}

func EncodeCommandList(w *Writer, cmds []Command) error {
	w.WriteLen(len(cmds))
	for _, c := range cmds {
		if err := EncodeCommand(w, c); err != nil {
			return err
		}
	}
	return nil
}

func DecodeCommandList(r *Reader) ([]Command, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	cmds := make([]Command, n)
	for i := range cmds {
		c, err := DecodeCommand(r)
		if err != nil {
			return nil, err
		}
		cmds[i] = c
	}
	return cmds, nil
}
