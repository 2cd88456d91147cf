package protocol

import (
	"encoding/binary"
	"io"
)

// MaxFrameLen bounds the u32 length prefix to guard against a corrupt or
// hostile peer driving an unbounded allocation.
const MaxFrameLen = 64 << 20

// WriteFrame writes a little-endian u32 length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(payload)))
	if _, err := w.Write(lb[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lb [4]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, NewError(ErrorMalformedFrame, "truncated length prefix: %v", err)
	}
	n := binary.LittleEndian.Uint32(lb[:])
	if n > MaxFrameLen {
		return nil, NewError(ErrorMalformedFrame, "frame length %d exceeds max %d", n, MaxFrameLen)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, NewError(ErrorMalformedFrame, "truncated payload: %v", err)
	}
	return payload, nil
}
