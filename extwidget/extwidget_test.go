package extwidget

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"

	"github.com/boldui/core/protocol"
	"github.com/boldui/core/scene"
)

func controlPair(t *testing.T) (host, helper *os.File) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	host = os.NewFile(uintptr(fds[0]), "host-ctrl")
	helper = os.NewFile(uintptr(fds[1]), "helper-ctrl")
	t.Cleanup(func() { host.Close(); helper.Close() })
	return host, helper
}

func TestAttachExchangesMetadataAndFd(t *testing.T) {
	hostEnd, helperEnd := controlPair(t)

	meta := protocol.TextureStorageMetadata{
		Fourcc:    0x34325258, // XR24
		Modifiers: 0,
		Stride:    256 * 4,
		Offset:    0,
		Width:     256,
		Height:    128,
	}

	// A pipe read end stands in for the dma-buf descriptor; only the fd
	// passing itself is under test here.
	fakeBufR, fakeBufW, err := os.Pipe()
	require.NoError(t, err)
	defer fakeBufR.Close()
	defer fakeBufW.Close()

	helperErr := make(chan error, 1)
	go func() {
		h, err := NewHelper(helperEnd)
		if err != nil {
			helperErr <- err
			return
		}
		res, err := h.WaitAttach()
		if err != nil {
			helperErr <- err
			return
		}
		if res != 7 {
			helperErr <- protocol.NewError(protocol.ErrorMalformedFrame, "wrong resource %d", res)
			return
		}
		if err := h.SendReady(meta, fakeBufR); err != nil {
			helperErr <- err
			return
		}
		helperErr <- h.SendFrame()
	}()

	w := &Widget{ctrl: hostEnd}
	tex, err := w.Attach(7)
	require.NoError(t, err)
	defer tex.Close()

	assert.Equal(t, meta, tex.Metadata)
	require.NotNil(t, tex.Dmabuf)

	require.NoError(t, w.NextFrame())
	require.NoError(t, <-helperErr)

	// The passed descriptor is a live duplicate: writing into the fake
	// buffer's write end is readable through it.
	_, err = fakeBufW.Write([]byte("px"))
	require.NoError(t, err)
	got := make([]byte, 2)
	_, err = tex.Dmabuf.Read(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("px"), got)
}

func TestAttachToSceneInstallsReplacement(t *testing.T) {
	hostEnd, helperEnd := controlPair(t)

	meta := protocol.TextureStorageMetadata{Fourcc: 1, Width: 64, Height: 64}
	fakeBuf, fakeBufW, err := os.Pipe()
	require.NoError(t, err)
	defer fakeBuf.Close()
	defer fakeBufW.Close()

	go func() {
		h, err := NewHelper(helperEnd)
		if err != nil {
			return
		}
		if _, err := h.WaitAttach(); err != nil {
			return
		}
		_ = h.SendReady(meta, fakeBuf)
	}()

	m := scene.NewMap(protocol.NewTimebase())
	_, err = m.ApplyUpdate(protocol.A2RUpdate{
		UpdatedScenes: []protocol.SceneDef{{ID: 4}},
		RunBlocks: []protocol.HandlerBlock{{
			Commands: []protocol.HandlerCommand{
				protocol.ReparentSceneCmd{Scene: 4, To: protocol.ReparentTarget{Kind: protocol.ReparentHide}},
			},
		}},
	})
	require.NoError(t, err)

	w := &Widget{ctrl: hostEnd}
	tex, err := AttachToScene(w, m, 4, 9)
	require.NoError(t, err)
	defer tex.Close()

	state, ok := m.State(4)
	require.True(t, ok)
	require.NotNil(t, state.Replacement)
	assert.Equal(t, meta, state.Replacement.Metadata)
}

func TestHelperRejectsVersionMismatch(t *testing.T) {
	hostEnd, helperEnd := controlPair(t)

	go func() {
		// A host demanding a future major version is refused.
		var out bytes.Buffer
		_ = protocol.WriteMagic(&out, protocol.MagicRendererToExternalApp)
		_ = protocol.WriteHello(&out, protocol.Hello{MinMajor: 99, MinMinor: 0, MaxMajor: 99})
		_ = sendMessage(hostEnd, out.Bytes(), nil)
	}()

	_, err := NewHelper(helperEnd)
	require.Error(t, err)
	pe, ok := err.(*protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrorVersionMismatch, pe.Code)
}
