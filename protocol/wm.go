package protocol

// WmHelloAction tags what an app connecting to the window manager wants to
// do on its control socket.
type WmHelloAction uint32

const (
	// WmConnectApp registers a new app with the WM, which will subsequently
	// own a namespaced slice of the 24-bit scene-id space.
	WmConnectApp WmHelloAction = iota
	// WmAttachRenderer registers the single renderer process that the WM
	// multiplexes all connected apps' scenes into.
	WmAttachRenderer
)

// WmRequestKind tags the WM request-channel message sum type.
type WmRequestKind uint32

const (
	WmReqHello WmRequestKind = iota
	WmReqUpdate
	WmReqOpen
)

type WmRequest interface {
	WmRequestKind() WmRequestKind
}

type WmHelloRequest struct{ Action WmHelloAction }

func (WmHelloRequest) WmRequestKind() WmRequestKind { return WmReqHello }

// WmUpdateRequest forwards one app's A2RUpdate to the WM, which rewrites
// scene ids into the app's namespace slice before forwarding to the
// renderer.
type WmUpdateRequest struct{ Update A2RUpdate }

func (WmUpdateRequest) WmRequestKind() WmRequestKind { return WmReqUpdate }

// WmOpenRequest is a renderer-originated Open request forwarded down to
// whichever app owns the reply path's leading segment.
type WmOpenRequest struct{ Path string }

func (WmOpenRequest) WmRequestKind() WmRequestKind { return WmReqOpen }

// WmResponseKind tags the WM response-channel message sum type.
type WmResponseKind uint32

const (
	WmRespHello WmResponseKind = iota
	WmRespUpdate
	WmRespError
)

type WmResponse interface {
	WmResponseKind() WmResponseKind
}

type WmHelloResponse struct {
	AssignedSceneBase SceneID // first id of this app's namespaced scene-id slice
	Error             *Error
}

func (WmHelloResponse) WmResponseKind() WmResponseKind { return WmRespHello }

type WmUpdateResponse struct{ Update R2AUpdate }

func (WmUpdateResponse) WmResponseKind() WmResponseKind { return WmRespUpdate }

type WmErrorResponse struct{ Err Error }

func (WmErrorResponse) WmResponseKind() WmResponseKind { return WmRespError }

func encodeWmRequestBody(w *Writer, req WmRequest) error {
	w.WriteU32(uint32(req.WmRequestKind()))
	switch r := req.(type) {
	case WmHelloRequest:
		w.WriteU32(uint32(r.Action))
	case WmUpdateRequest:
		return encodeA2RUpdate(w, r.Update)
	case WmOpenRequest:
		w.WriteString(r.Path)
	default:
		return NewError(ErrorMalformedFrame, "unhandled WM request type %T", req)
	}
	return nil
}

func decodeWmRequestBody(r *Reader) (WmRequest, error) {
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch WmRequestKind(tag) {
	case WmReqHello:
		action, err := r.ReadU32()
		return WmHelloRequest{Action: WmHelloAction(action)}, err
	case WmReqUpdate:
		u, err := decodeA2RUpdate(r)
		return WmUpdateRequest{Update: u}, err
	case WmReqOpen:
		path, err := r.ReadString()
		return WmOpenRequest{Path: path}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown WM request tag %d", tag)
	}
}

func encodeWmResponseBody(w *Writer, resp WmResponse) error {
	w.WriteU32(uint32(resp.WmResponseKind()))
	switch r := resp.(type) {
	case WmHelloResponse:
		w.WriteU32(uint32(r.AssignedSceneBase))
		if r.Error != nil {
			w.WriteU8(1)
			encodeError(w, *r.Error)
		} else {
			w.WriteU8(0)
		}
	case WmUpdateResponse:
		encodeR2AUpdate(w, r.Update)
	case WmErrorResponse:
		encodeError(w, r.Err)
	default:
		return NewError(ErrorMalformedFrame, "unhandled WM response type %T", resp)
	}
	return nil
}

func decodeWmResponseBody(r *Reader) (WmResponse, error) {
	tag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	switch WmResponseKind(tag) {
	case WmRespHello:
		base, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		has, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		resp := WmHelloResponse{AssignedSceneBase: SceneID(base)}
		if has != 0 {
			e, err := decodeError(r)
			if err != nil {
				return nil, err
			}
			resp.Error = &e
		}
		return resp, nil
	case WmRespUpdate:
		u, err := decodeR2AUpdate(r)
		return WmUpdateResponse{Update: u}, err
	case WmRespError:
		e, err := decodeError(r)
		return WmErrorResponse{Err: e}, err
	default:
		return nil, NewError(ErrorMalformedFrame, "unknown WM response tag %d", tag)
	}
}

// EncodeWmRequest serializes a WM request frame: a u32 request id (used to
// correlate the eventual response) followed by the tagged request body.
func EncodeWmRequest(reqID uint32, req WmRequest) ([]byte, error) {
	w := &Writer{}
	w.WriteU32(reqID)
	if err := encodeWmRequestBody(w, req); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeWmRequest deserializes a WM request frame, returning its request id
// alongside the decoded body.
func DecodeWmRequest(payload []byte) (reqID uint32, req WmRequest, err error) {
	r := NewReader(payload)
	if reqID, err = r.ReadU32(); err != nil {
		return 0, nil, err
	}
	req, err = decodeWmRequestBody(r)
	return reqID, req, err
}

// EncodeWmResponse serializes a WM response frame, echoing the request id it
// answers.
func EncodeWmResponse(reqID uint32, resp WmResponse) ([]byte, error) {
	w := &Writer{}
	w.WriteU32(reqID)
	if err := encodeWmResponseBody(w, resp); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeWmResponse deserializes a WM response frame, returning the request id
// it answers alongside the decoded body.
func DecodeWmResponse(payload []byte) (reqID uint32, resp WmResponse, err error) {
	r := NewReader(payload)
	if reqID, err = r.ReadU32(); err != nil {
		return 0, nil, err
	}
	resp, err = decodeWmResponseBody(r)
	return reqID, resp, err
}
