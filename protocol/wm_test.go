package protocol

import (
	"testing"

	"github.com/boldui/core/base/ordmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWmRequestRoundTrip(t *testing.T) {
	reqs := []WmRequest{
		WmHelloRequest{Action: WmConnectApp},
		WmHelloRequest{Action: WmAttachRenderer},
		WmUpdateRequest{Update: A2RUpdate{
			UpdatedScenes: []SceneDef{{ID: 1, Vars: ordmap.New[string, VariableDecl]()}},
		}},
		WmOpenRequest{Path: "app1/settings"},
	}
	for _, req := range reqs {
		payload, err := EncodeWmRequest(42, req)
		require.NoError(t, err)
		id, got, err := DecodeWmRequest(payload)
		require.NoError(t, err)
		assert.Equal(t, uint32(42), id)
		assert.Equal(t, req, got)
	}
}

func TestWmResponseRoundTrip(t *testing.T) {
	errResp := NewError(ErrorVersionMismatch, "nope")
	resps := []WmResponse{
		WmHelloResponse{AssignedSceneBase: 0x010000},
		WmHelloResponse{AssignedSceneBase: 0, Error: errResp},
		WmUpdateResponse{Update: R2AUpdate{Replies: []Reply{{Path: "p", Params: nil}}}},
		WmErrorResponse{Err: *errResp},
	}
	for _, resp := range resps {
		payload, err := EncodeWmResponse(7, resp)
		require.NoError(t, err)
		id, got, err := DecodeWmResponse(payload)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), id)
		assert.Equal(t, resp, got)
	}
}
