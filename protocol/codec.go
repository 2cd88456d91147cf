// Package protocol implements the BoldUI wire codec and data model: magic
// preambles, the Hello/HelloResponse handshake, length-prefixed tagged-enum
// framing, and the scene/operation/value/command/handler types.
package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// Writer accumulates a message payload using the deterministic binary
// layout: little-endian fixed-width integers, length-prefixed
// strings/bytes/sequences, and sorted length-prefixed maps.
type Writer struct {
	buf bytes.Buffer
}

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteU8(v uint8) { w.buf.WriteByte(v) }

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteBytes writes a u64 length prefix followed by raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteU64(uint64(len(b)))
	w.buf.Write(b)
}

// WriteString writes a u64 length prefix followed by UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteLen writes the u64 length prefix for a sequence or map of n elements;
// the caller then writes each element in turn.
func (w *Writer) WriteLen(n int) { w.WriteU64(uint64(n)) }

// Reader consumes a message payload written by Writer, returning
// MalformedFrame errors on truncation.
type Reader struct {
	buf *bytes.Reader
}

// NewReader wraps a decoded frame payload for sequential reads.
func NewReader(payload []byte) *Reader {
	return &Reader{buf: bytes.NewReader(payload)}
}

func (r *Reader) malformed(what string) error {
	return NewError(ErrorMalformedFrame, "truncated frame reading %s", what)
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.buf.ReadByte()
	if err != nil {
		return 0, r.malformed("u8")
	}
	return b, nil
}

func (r *Reader) ReadU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.buf, b[:]); err != nil {
		return 0, r.malformed("u32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.buf, b[:]); err != nil {
		return 0, r.malformed("u64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadLen reads a u64 length prefix for a sequence or map, rejecting
// implausibly large values that could not possibly fit in the remaining
// payload (a corrupt/malicious length would otherwise drive an enormous
// allocation).
func (r *Reader) ReadLen() (int, error) {
	n, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	if int64(n) > int64(r.buf.Len()) {
		return 0, r.malformed("length prefix exceeds remaining payload")
	}
	return int(n), nil
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.buf, b); err != nil {
		return nil, r.malformed("bytes")
	}
	return b, nil
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remaining reports whether any bytes remain in the payload.
func (r *Reader) Remaining() int { return r.buf.Len() }
