package protocol

// ResourceChunk streams bytes into a resource's backing storage at offset.
type ResourceChunk struct {
	ID     Resource
	Offset uint64
	Bytes  []byte
}

// ResourceDealloc punches a hole in a resource's backing storage.
type ResourceDealloc struct {
	ID     Resource
	Offset uint64
	Length uint64
}

// Reply is one evaluated R2A reply: a path and evaluated parameter values.
type Reply struct {
	Path   string
	Params []Value
}

// A2RUpdate is the app's scene-update envelope: updated
// scene definitions, resource writes/holes, and run-blocks executed with an
// empty context and scene id 0.
type A2RUpdate struct {
	UpdatedScenes    []SceneDef
	ResourceChunks   []ResourceChunk
	ResourceDeallocs []ResourceDealloc
	RunBlocks        []HandlerBlock
}

// R2AUpdate carries the replies accumulated from one update or input event
// batch.
type R2AUpdate struct {
	Replies []Reply
}

// A2RMessageKind tags the top-level app-to-renderer message.
type A2RMessageKind uint32

const (
	A2RKindUpdate A2RMessageKind = iota
	A2RKindError
	A2RKindCompressedUpdate
)

type A2RMessage interface {
	A2RMessageKind() A2RMessageKind
}

type A2RUpdateMsg struct{ Update A2RUpdate }

func (A2RUpdateMsg) A2RMessageKind() A2RMessageKind { return A2RKindUpdate }

type A2RErrorMsg struct{ Err Error }

func (A2RErrorMsg) A2RMessageKind() A2RMessageKind { return A2RKindError }

// A2RCompressedUpdateMsg carries the reserved, undefined compressed-update
// envelope: its body is opaque and decoding it is
// always a MalformedFrame-class error for now.
type A2RCompressedUpdateMsg struct{ Payload []byte }

func (A2RCompressedUpdateMsg) A2RMessageKind() A2RMessageKind { return A2RKindCompressedUpdate }

// R2AMessageKind tags the top-level renderer-to-app message.
type R2AMessageKind uint32

const (
	R2AKindUpdate R2AMessageKind = iota
	R2AKindOpen
	R2AKindError
)

type R2AMessage interface {
	R2AMessageKind() R2AMessageKind
}

type R2AUpdateMsg struct{ Update R2AUpdate }

func (R2AUpdateMsg) R2AMessageKind() R2AMessageKind { return R2AKindUpdate }

type R2AOpenMsg struct{ Path string }

func (R2AOpenMsg) R2AMessageKind() R2AMessageKind { return R2AKindOpen }

type R2AErrorMsg struct{ Err Error }

func (R2AErrorMsg) R2AMessageKind() R2AMessageKind { return R2AKindError }

func encodeError(w *Writer, e Error) {
	w.WriteU32(uint32(e.Code))
	w.WriteString(e.Text)
}

func decodeError(r *Reader) (Error, error) {
	code, err := r.ReadU32()
	if err != nil {
		return Error{}, err
	}
	text, err := r.ReadString()
	return Error{Code: ErrorCode(code), Text: text}, err
}

func encodeReply(w *Writer, rep Reply) {
	w.WriteString(rep.Path)
	w.WriteLen(len(rep.Params))
	for _, v := range rep.Params {
		EncodeValue(w, v)
	}
}

func decodeReply(r *Reader) (Reply, error) {
	path, err := r.ReadString()
	if err != nil {
		return Reply{}, err
	}
	n, err := r.ReadLen()
	if err != nil {
		return Reply{}, err
	}
	params := make([]Value, n)
	for i := range params {
		params[i], err = DecodeValue(r)
		if err != nil {
			return Reply{}, err
		}
	}
	return Reply{Path: path, Params: params}, nil
}

func encodeR2AUpdate(w *Writer, u R2AUpdate) {
	w.WriteLen(len(u.Replies))
	for _, rep := range u.Replies {
		encodeReply(w, rep)
	}
}

func decodeR2AUpdate(r *Reader) (R2AUpdate, error) {
	n, err := r.ReadLen()
	if err != nil {
		return R2AUpdate{}, err
	}
	reps := make([]Reply, n)
	for i := range reps {
		reps[i], err = decodeReply(r)
		if err != nil {
			return R2AUpdate{}, err
		}
	}
	return R2AUpdate{Replies: reps}, nil
}

func encodeA2RUpdate(w *Writer, u A2RUpdate) error {
	w.WriteLen(len(u.UpdatedScenes))
	for _, s := range u.UpdatedScenes {
		if err := EncodeSceneDef(w, s); err != nil {
			return err
		}
	}
	w.WriteLen(len(u.ResourceChunks))
	for _, c := range u.ResourceChunks {
		w.WriteU32(uint32(c.ID))
		w.WriteU64(c.Offset)
		w.WriteBytes(c.Bytes)
	}
	w.WriteLen(len(u.ResourceDeallocs))
	for _, d := range u.ResourceDeallocs {
		w.WriteU32(uint32(d.ID))
		w.WriteU64(d.Offset)
		w.WriteU64(d.Length)
	}
	w.WriteLen(len(u.RunBlocks))
	for _, rb := range u.RunBlocks {
		if err := EncodeHandlerBlock(w, rb); err != nil {
			return err
		}
	}
	return nil
}

func decodeA2RUpdate(r *Reader) (A2RUpdate, error) {
	nScenes, err := r.ReadLen()
	if err != nil {
		return A2RUpdate{}, err
	}
	scenes := make([]SceneDef, nScenes)
	for i := range scenes {
		scenes[i], err = DecodeSceneDef(r)
		if err != nil {
			return A2RUpdate{}, err
		}
	}

	nChunks, err := r.ReadLen()
	if err != nil {
		return A2RUpdate{}, err
	}
	chunks := make([]ResourceChunk, nChunks)
	for i := range chunks {
		id, err := r.ReadU32()
		if err != nil {
			return A2RUpdate{}, err
		}
		offset, err := r.ReadU64()
		if err != nil {
			return A2RUpdate{}, err
		}
		bytes, err := r.ReadBytes()
		if err != nil {
			return A2RUpdate{}, err
		}
		chunks[i] = ResourceChunk{ID: Resource(id), Offset: offset, Bytes: bytes}
	}

	nDeallocs, err := r.ReadLen()
	if err != nil {
		return A2RUpdate{}, err
	}
	deallocs := make([]ResourceDealloc, nDeallocs)
	for i := range deallocs {
		id, err := r.ReadU32()
		if err != nil {
			return A2RUpdate{}, err
		}
		offset, err := r.ReadU64()
		if err != nil {
			return A2RUpdate{}, err
		}
		length, err := r.ReadU64()
		if err != nil {
			return A2RUpdate{}, err
		}
		deallocs[i] = ResourceDealloc{ID: Resource(id), Offset: offset, Length: length}
	}

	nRunBlocks, err := r.ReadLen()
	if err != nil {
		return A2RUpdate{}, err
	}
	runBlocks := make([]HandlerBlock, nRunBlocks)
	for i := range runBlocks {
		runBlocks[i], err = DecodeHandlerBlock(r)
		if err != nil {
			return A2RUpdate{}, err
		}
	}

	return A2RUpdate{UpdatedScenes: scenes, ResourceChunks: chunks, ResourceDeallocs: deallocs, RunBlocks: runBlocks}, nil
}

// EncodeR2AMessage serializes a top-level renderer-to-app message.
func EncodeR2AMessage(msg R2AMessage) ([]byte, error) {
	w := &Writer{}
	w.WriteU32(uint32(msg.R2AMessageKind()))
	switch m := msg.(type) {
	case R2AUpdateMsg:
		encodeR2AUpdate(w, m.Update)
	case R2AOpenMsg:
		w.WriteString(m.Path)
	case R2AErrorMsg:
		encodeError(w, m.Err)
	default:
		return nil, NewError(ErrorMalformedFrame, "unhandled R2A message type %T", msg)
	}
	return w.Bytes(), nil
}

// DecodeR2AMessage deserializes a top-level renderer-to-app message.
func DecodeR2AMessage(payload []byte) (R2AMessage, error) {
	r := NewReader(payload)
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch R2AMessageKind(tag) {
	case R2AKindUpdate:
		u, err := decodeR2AUpdate(r)
		return R2AUpdateMsg{Update: u}, err
	case R2AKindOpen:
		path, err := r.ReadString()
		return R2AOpenMsg{Path: path}, err
	case R2AKindError:
		e, err := decodeError(r)
		return R2AErrorMsg{Err: e}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown R2A message tag %d", tag)
	}
}

// EncodeA2RMessage serializes a top-level app-to-renderer message.
func EncodeA2RMessage(msg A2RMessage) ([]byte, error) {
	w := &Writer{}
	w.WriteU32(uint32(msg.A2RMessageKind()))
	switch m := msg.(type) {
	case A2RUpdateMsg:
		if err := encodeA2RUpdate(w, m.Update); err != nil {
			return nil, err
		}
	case A2RErrorMsg:
		encodeError(w, m.Err)
	case A2RCompressedUpdateMsg:
		w.WriteBytes(m.Payload)
	default:
		return nil, NewError(ErrorMalformedFrame, "unhandled A2R message type %T", msg)
	}
	return w.Bytes(), nil
}

// DecodeA2RMessage deserializes a top-level app-to-renderer message.
func DecodeA2RMessage(payload []byte) (A2RMessage, error) {
	r := NewReader(payload)
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch A2RMessageKind(tag) {
	case A2RKindUpdate:
		u, err := decodeA2RUpdate(r)
		return A2RUpdateMsg{Update: u}, err
	case A2RKindError:
		e, err := decodeError(r)
		return A2RErrorMsg{Err: e}, err
	case A2RKindCompressedUpdate:
		payload, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		// Decoding the payload itself is unimplemented:
		// the envelope tag is recognized, the body is opaque.
		return A2RCompressedUpdateMsg{Payload: payload}, NewError(ErrorMalformedFrame, "CompressedUpdate payload decoding is unimplemented")
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown A2R message tag %d", tag)
	}
}
