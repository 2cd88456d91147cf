package extwidget

import (
	"bytes"
	"os"

	"golang.org/x/sys/unix"

	"github.com/boldui/core/protocol"
)

// The control channel is a SOCK_SEQPACKET pair, so each control message is
// one datagram: no length prefix is needed, and the dma-buf descriptor
// rides as SCM_RIGHTS ancillary data on the datagram that announces it.
// The handshake is likewise one datagram per direction: magic preamble
// followed by the Hello / HelloResponse fields.

func sendMessage(f *os.File, payload []byte, rights []byte) error {
	return unix.Sendmsg(int(f.Fd()), payload, rights, nil, 0)
}

func recvMessage(f *os.File) (payload []byte, fds []int, err error) {
	buf := make([]byte, 1<<16)
	oob := make([]byte, unix.CmsgSpace(4*4))
	n, oobn, _, _, err := unix.Recvmsg(int(f.Fd()), buf, oob, 0)
	if err != nil {
		return nil, nil, err
	}
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return nil, nil, protocol.NewError(protocol.ErrorMalformedFrame, "bad ancillary data: %v", err)
		}
		for _, cm := range cmsgs {
			got, err := unix.ParseUnixRights(&cm)
			if err != nil {
				continue
			}
			fds = append(fds, got...)
		}
	}
	return buf[:n], fds, nil
}

func hostHandshake(ctrl *os.File) error {
	var out bytes.Buffer
	if err := protocol.WriteMagic(&out, protocol.MagicRendererToExternalApp); err != nil {
		return err
	}
	if err := protocol.WriteHello(&out, protocol.Hello{
		MinMajor: 0, MinMinor: protocol.CurrentMinor, MaxMajor: protocol.CurrentMajor,
	}); err != nil {
		return err
	}
	if err := sendMessage(ctrl, out.Bytes(), nil); err != nil {
		return err
	}

	payload, fds, err := recvMessage(ctrl)
	if err != nil {
		return err
	}
	closeFds(fds)
	in := bytes.NewReader(payload)
	if err := protocol.ReadMagic(in, protocol.MagicExternalAppToRenderer); err != nil {
		return err
	}
	resp, err := protocol.ReadHelloResponse(in)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return protocol.CheckVersion(resp.MinMajor, resp.MinMinor, resp.MaxMajor)
}

func helperHandshake(ctrl *os.File) error {
	payload, fds, err := recvMessage(ctrl)
	if err != nil {
		return err
	}
	closeFds(fds)
	in := bytes.NewReader(payload)
	if err := protocol.ReadMagic(in, protocol.MagicRendererToExternalApp); err != nil {
		return err
	}
	hello, err := protocol.ReadHello(in)
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

	var out bytes.Buffer
	if err := protocol.WriteMagic(&out, protocol.MagicExternalAppToRenderer); err != nil {
		return err
	}
	if err := protocol.WriteHelloResponse(&out, protocol.HelloResponse{
		MinMajor: 0, MinMinor: protocol.CurrentMinor, MaxMajor: protocol.CurrentMajor, Error: respErr,
	}); err != nil {
		return err
	}
	if err := sendMessage(ctrl, out.Bytes(), nil); err != nil {
		return err
	}
	if respErr != nil {
		return respErr
	}
	return nil
}
