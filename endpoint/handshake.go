package endpoint

import (
	"io"

	"github.com/boldui/core/protocol"
)

// RendererHandshake performs the renderer-initiated handshake: write the
// R2A magic and Hello, then read and validate the peer's A2R magic and
// HelloResponse.
func RendererHandshake(rw io.ReadWriter) error {
	if err := protocol.WriteMagic(rw, protocol.MagicRendererToApp); err != nil {
		return err
	}
	if err := protocol.WriteHello(rw, protocol.Hello{
		MinMajor: 0, MinMinor: 1, MaxMajor: protocol.CurrentMajor,
	}); err != nil {
		return err
	}
	if err := protocol.ReadMagic(rw, protocol.MagicAppToRenderer); err != nil {
		return err
	}
	resp, err := protocol.ReadHelloResponse(rw)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return protocol.CheckVersion(resp.MinMajor, resp.MinMinor, resp.MaxMajor)
}

// AppHandshake performs the app-side responder half:
// read the renderer's magic and Hello, then reply with the app's magic and
// HelloResponse, reporting a VersionMismatch in the response itself rather
// than silently closing, so the renderer sees why the handshake failed.
func AppHandshake(rw io.ReadWriter) error {
	if err := protocol.ReadMagic(rw, protocol.MagicRendererToApp); err != nil {
		return err
	}
	hello, err := protocol.ReadHello(rw)
	if err != nil {
		return err
	}

	var respErr *protocol.Error
	if verErr := protocol.CheckVersion(hello.MinMajor, hello.MinMinor, hello.MaxMajor); verErr != nil {
		if pe, ok := verErr.(*protocol.Error); ok {
			respErr = pe
		} else {
			respErr = protocol.NewError(protocol.ErrorVersionMismatch, "%v", verErr)
		}
	}

	if err := protocol.WriteMagic(rw, protocol.MagicAppToRenderer); err != nil {
		return err
	}
	if err := protocol.WriteHelloResponse(rw, protocol.HelloResponse{
		MinMajor: 0, MinMinor: 1, MaxMajor: protocol.CurrentMajor, Error: respErr,
	}); err != nil {
		return err
	}
	if respErr != nil {
		return respErr
	}
	return nil
}
