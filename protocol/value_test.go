package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripValue(t *testing.T, v Value) Value {
	t.Helper()
	w := &Writer{}
	EncodeValue(w, v)
	got, err := DecodeValue(NewReader(w.Bytes()))
	require.NoError(t, err)
	return got
}

func TestValueRoundTrip(t *testing.T) {
	values := []Value{
		Sint64(-9001),
		Double(3.25),
		Str("hello, world"),
		Color{R: 0x1234, G: 0x5678, B: 0x9abc, A: 0xffff},
		Point{X: 1.5, Y: -2.5},
		Rect{Left: 0, Top: 0, Right: 10, Bottom: 20},
		Resource(42),
		VarRef{Scene: 7, Key: "counter"},
	}
	for _, v := range values {
		got := roundTripValue(t, v)
		assert.Equal(t, v, got)
		assert.True(t, SameType(v, got))
	}
}

func TestSameType(t *testing.T) {
	assert.True(t, SameType(Sint64(1), Sint64(2)))
	assert.False(t, SameType(Sint64(1), Double(1)))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "42", ToString(Sint64(42)))
	assert.Equal(t, "3.5", ToString(Double(3.5)))
	assert.Equal(t, "hi", ToString(Str("hi")))
	assert.Equal(t, "#112233", ToString(Color{R: 0x1100, G: 0x2200, B: 0x3300, A: 0xffff}))
	assert.Equal(t, "#11223344", ToString(Color{R: 0x1100, G: 0x2200, B: 0x3300, A: 0x4400}))
	assert.Equal(t, "(1, 2)", ToString(Point{X: 1, Y: 2}))
	assert.Equal(t, "$3.x", ToString(VarRef{Scene: 3, Key: "x"}))
}

func TestDecodeValueUnknownTag(t *testing.T) {
	w := &Writer{}
	w.WriteU32(999)
	_, err := DecodeValue(NewReader(w.Bytes()))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorMalformedFrame, perr.Code)
}
