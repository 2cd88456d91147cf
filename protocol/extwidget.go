package protocol

// TextureStorageMetadata describes a dma-buf backed texture handed to the
// renderer out-of-band alongside an SCM_RIGHTS fd. Every field is a
// fixed-width little-endian integer
// in the exact declared order; no length prefixes or padding are added
// between fields, since the helper and renderer must agree
// byte-for-byte on this layout without going through the tagged-enum codec.
type TextureStorageMetadata struct {
	Fourcc    int32
	Modifiers uint64
	Stride    int32
	Offset    int32
	Width     uint32
	Height    uint32
}

// EncodeTextureStorageMetadata writes the fixed 28-byte layout.
func EncodeTextureStorageMetadata(w *Writer, m TextureStorageMetadata) {
	w.WriteI32(m.Fourcc)
	w.WriteU64(m.Modifiers)
	w.WriteI32(m.Stride)
	w.WriteI32(m.Offset)
	w.WriteU32(m.Width)
	w.WriteU32(m.Height)
}

// DecodeTextureStorageMetadata reads the fixed 28-byte layout.
func DecodeTextureStorageMetadata(r *Reader) (TextureStorageMetadata, error) {
	var m TextureStorageMetadata
	var err error
	if m.Fourcc, err = r.ReadI32(); err != nil {
		return m, err
	}
	if m.Modifiers, err = r.ReadU64(); err != nil {
		return m, err
	}
	if m.Stride, err = r.ReadI32(); err != nil {
		return m, err
	}
	if m.Offset, err = r.ReadI32(); err != nil {
		return m, err
	}
	if m.Width, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Height, err = r.ReadU32(); err != nil {
		return m, err
	}
	return m, nil
}

// R2EAMessageKind tags the renderer-to-external-app control channel.
type R2EAMessageKind uint32

const (
	R2EAKindAttach R2EAMessageKind = iota
	R2EAKindResize
	R2EAKindError
)

type R2EAMessage interface {
	R2EAMessageKind() R2EAMessageKind
}

// R2EAAttachMsg tells the helper which resource id the renderer will treat
// its dma-buf texture as once imported.
type R2EAAttachMsg struct{ Resource Resource }

func (R2EAAttachMsg) R2EAMessageKind() R2EAMessageKind { return R2EAKindAttach }

type R2EAResizeMsg struct{ Width, Height uint32 }

func (R2EAResizeMsg) R2EAMessageKind() R2EAMessageKind { return R2EAKindResize }

type R2EAErrorMsg struct{ Err Error }

func (R2EAErrorMsg) R2EAMessageKind() R2EAMessageKind { return R2EAKindError }

// EA2RMessageKind tags the external-app-to-renderer control channel.
type EA2RMessageKind uint32

const (
	EA2RKindReady EA2RMessageKind = iota
	EA2RKindFrame
	EA2RKindError
)

type EA2RMessage interface {
	EA2RMessageKind() EA2RMessageKind
}

// EA2RReadyMsg announces that the helper has handed off its texture's
// storage metadata via SCM_RIGHTS and is ready to be attached as a scene
// replacement.
type EA2RReadyMsg struct{ Metadata TextureStorageMetadata }

func (EA2RReadyMsg) EA2RMessageKind() EA2RMessageKind { return EA2RKindReady }

// EA2RFrameMsg announces a new frame is available in the shared texture.
type EA2RFrameMsg struct{}

func (EA2RFrameMsg) EA2RMessageKind() EA2RMessageKind { return EA2RKindFrame }

type EA2RErrorMsg struct{ Err Error }

func (EA2RErrorMsg) EA2RMessageKind() EA2RMessageKind { return EA2RKindError }

func EncodeR2EAMessage(msg R2EAMessage) ([]byte, error) {
	w := &Writer{}
	w.WriteU32(uint32(msg.R2EAMessageKind()))
	switch m := msg.(type) {
	case R2EAAttachMsg:
		w.WriteU32(uint32(m.Resource))
	case R2EAResizeMsg:
		w.WriteU32(m.Width)
		w.WriteU32(m.Height)
	case R2EAErrorMsg:
		encodeError(w, m.Err)
	default:
		return nil, NewError(ErrorMalformedFrame, "unhandled R2EA message type %T", msg)
	}
	return w.Bytes(), nil
}

func DecodeR2EAMessage(payload []byte) (R2EAMessage, error) {
	r := NewReader(payload)
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch R2EAMessageKind(tag) {
	case R2EAKindAttach:
		res, err := r.ReadU32()
		return R2EAAttachMsg{Resource: Resource(res)}, err
	case R2EAKindResize:
		w, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		h, err := r.ReadU32()
		return R2EAResizeMsg{Width: w, Height: h}, err
	case R2EAKindError:
		e, err := decodeError(r)
		return R2EAErrorMsg{Err: e}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown R2EA message tag %d", tag)
	}
}

func EncodeEA2RMessage(msg EA2RMessage) ([]byte, error) {
	w := &Writer{}
	w.WriteU32(uint32(msg.EA2RMessageKind()))
	switch m := msg.(type) {
	case EA2RReadyMsg:
		EncodeTextureStorageMetadata(w, m.Metadata)
	case EA2RFrameMsg:
	case EA2RErrorMsg:
		encodeError(w, m.Err)
	default:
		return nil, NewError(ErrorMalformedFrame, "unhandled EA2R message type %T", msg)
	}
	return w.Bytes(), nil
}

func DecodeEA2RMessage(payload []byte) (EA2RMessage, error) {
	r := NewReader(payload)
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch EA2RMessageKind(tag) {
	case EA2RKindReady:
		m, err := DecodeTextureStorageMetadata(r)
		return EA2RReadyMsg{Metadata: m}, err
	case EA2RKindFrame:
		return EA2RFrameMsg{}, nil
	case EA2RKindError:
		e, err := decodeError(r)
		return EA2RErrorMsg{Err: e}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown EA2R message tag %d", tag)
	}
}
