package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicRoundTripRendererToApp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMagic(&buf, MagicRendererToApp))
	require.NoError(t, ReadMagic(&buf, MagicRendererToApp))
}

func TestMagicMismatchInHelloFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMagic(&buf, MagicAppToRenderer))
	err := ReadMagic(&buf, MagicRendererToApp)
	require.Error(t, err)
	assert.Equal(t, ErrorMagicMismatch, err.(*Error).Code)
}

func TestHelloRoundTripInHelloFile(t *testing.T) {
	var buf bytes.Buffer
	h := Hello{MinMajor: 0, MinMinor: 1, MaxMajor: 0, ExtraLen: 0}
	require.NoError(t, WriteHello(&buf, h))
	got, err := ReadHello(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHelloResponseRoundTripNoError(t *testing.T) {
	var buf bytes.Buffer
	h := HelloResponse{MinMajor: 0, MinMinor: 1, MaxMajor: 0, ExtraLen: 0}
	require.NoError(t, WriteHelloResponse(&buf, h))
	got, err := ReadHelloResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHelloResponseRoundTripWithError(t *testing.T) {
	var buf bytes.Buffer
	h := HelloResponse{MinMajor: 0, MinMinor: 1, MaxMajor: 0, Error: NewError(ErrorVersionMismatch, "nope")}
	require.NoError(t, WriteHelloResponse(&buf, h))
	got, err := ReadHelloResponse(&buf)
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, *h.Error, *got.Error)
}

func TestCheckVersionCompatible(t *testing.T) {
	require.NoError(t, CheckVersion(0, 1, 0))
}

func TestCheckVersionBelowMin(t *testing.T) {
	err := CheckVersion(0, 2, 0)
	require.Error(t, err)
	assert.Equal(t, ErrorVersionMismatch, err.(*Error).Code)
}

func TestCheckVersionMaxBelowCurrentMajor(t *testing.T) {
	// A max major of 0 is below CurrentMajor only when CurrentMajor > 0, and
	// is then rejected; with CurrentMajor == 0 the same bounds are
	// compatible.
	err := CheckVersion(0, 0, 0)
	wantErr := CurrentMajor > 0
	if wantErr {
		require.Error(t, err)
		assert.Equal(t, ErrorVersionMismatch, err.(*Error).Code)
	} else {
		require.NoError(t, err)
	}
}
