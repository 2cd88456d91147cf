package protocol

import (
	"testing"

	"github.com/boldui/core/base/ordmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestR2AMessageRoundTrip(t *testing.T) {
	msgs := []R2AMessage{
		R2AUpdateMsg{Update: R2AUpdate{Replies: []Reply{
			{Path: "button.click", Params: []Value{Sint64(1), Str("ok")}},
		}}},
		R2AOpenMsg{Path: "settings"},
		R2AErrorMsg{Err: Error{Code: ErrorUnknownVar, Text: "no such var"}},
	}
	for _, m := range msgs {
		payload, err := EncodeR2AMessage(m)
		require.NoError(t, err)
		got, err := DecodeR2AMessage(payload)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestA2RMessageRoundTrip(t *testing.T) {
	scene := SceneDef{ID: 1, Vars: ordmap.New[string, VariableDecl]()}
	msgs := []A2RMessage{
		A2RUpdateMsg{Update: A2RUpdate{
			UpdatedScenes:    []SceneDef{scene},
			ResourceChunks:   []ResourceChunk{{ID: 1, Offset: 0, Bytes: []byte{1, 2, 3}}},
			ResourceDeallocs: []ResourceDealloc{{ID: 1, Offset: 3, Length: 1}},
			RunBlocks:        []HandlerBlock{{Commands: []HandlerCommand{NopCmd{}}}},
		}},
		A2RErrorMsg{Err: Error{Code: ErrorPeerError, Text: "bye"}},
	}
	for _, m := range msgs {
		payload, err := EncodeA2RMessage(m)
		require.NoError(t, err)
		got, err := DecodeA2RMessage(payload)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestA2RCompressedUpdateAlwaysMalformed(t *testing.T) {
	payload, err := EncodeA2RMessage(A2RCompressedUpdateMsg{Payload: []byte{1, 2, 3}})
	require.NoError(t, err)

	_, err = DecodeA2RMessage(payload)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorMalformedFrame, perr.Code)
}

func TestErrorIsClean(t *testing.T) {
	clean := Error{}
	assert.True(t, clean.IsClean())

	notClean := Error{Code: ErrorPeerError}
	assert.False(t, notClean.IsClean())
}
