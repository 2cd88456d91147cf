package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureStorageMetadataRoundTrip(t *testing.T) {
	m := TextureStorageMetadata{
		Fourcc:    0x34325258, // "XR24"
		Modifiers: 0x00ffffffffffffff,
		Stride:    4096,
		Offset:    0,
		Width:     1920,
		Height:    1080,
	}
	w := &Writer{}
	EncodeTextureStorageMetadata(w, m)
	got, err := DecodeTextureStorageMetadata(NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestR2EAMessageRoundTrip(t *testing.T) {
	msgs := []R2EAMessage{
		R2EAAttachMsg{Resource: 9},
		R2EAResizeMsg{Width: 640, Height: 480},
		R2EAErrorMsg{Err: Error{Code: ErrorPeerError, Text: "closing"}},
	}
	for _, m := range msgs {
		payload, err := EncodeR2EAMessage(m)
		require.NoError(t, err)
		got, err := DecodeR2EAMessage(payload)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestEA2RMessageRoundTrip(t *testing.T) {
	msgs := []EA2RMessage{
		EA2RReadyMsg{Metadata: TextureStorageMetadata{Fourcc: 1, Width: 2, Height: 3}},
		EA2RFrameMsg{},
		EA2RErrorMsg{Err: Error{Code: ErrorMalformedFrame, Text: "bad"}},
	}
	for _, m := range msgs {
		payload, err := EncodeEA2RMessage(m)
		require.NoError(t, err)
		got, err := DecodeEA2RMessage(payload)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}
