package wm

import (
	"encoding/binary"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/boldui/core/protocol"
)

// helloSize is the WM hello datagram: the 7-byte WM request magic followed
// by the u32 action.
const helloSize = 7 + 4

// fdPair adapts the two passed descriptors into the io.ReadWriteCloser the
// proxy speaks over: the first fd is the direction toward the peer (the
// app's stdin / the renderer's input), the second is the direction from
// the peer.
type fdPair struct {
	w *os.File
	r *os.File
}

func (p *fdPair) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *fdPair) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *fdPair) Close() error {
	wErr := p.w.Close()
	rErr := p.r.Close()
	if wErr != nil {
		return wErr
	}
	return rErr
}

// Server owns the WM control socket: a UNIX seqpacket listener whose
// clients each send one hello datagram carrying the WM request magic and a
// u32 action and, as
// ancillary SCM_RIGHTS data, the two descriptors the proxy should speak
// the protocol over.
type Server struct {
	fd    int
	path  string
	proxy *Proxy
}

// Listen binds the control socket at path, replacing any stale socket
// file, and returns a Server ready for Serve.
func Listen(path string, proxy *Proxy) (*Server, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, 4); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Server{fd: fd, path: path, proxy: proxy}, nil
}

// Serve accepts control clients until the listening socket is closed.
// Each accepted client is handled on its own goroutine; a client that
// sends a malformed hello is dropped without affecting the rest.
func (s *Server) Serve() error {
	for {
		nfd, _, err := unix.Accept(s.fd)
		if err != nil {
			if err == unix.EBADF || err == unix.EINVAL {
				return nil
			}
			return err
		}
		go s.handleClient(nfd)
	}
}

// Close stops accepting and removes the socket file. Connections already
// handed to the proxy stay up.
func (s *Server) Close() error {
	err := unix.Close(s.fd)
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleClient(fd int) {
	defer unix.Close(fd)

	buf := make([]byte, helloSize)
	oob := make([]byte, unix.CmsgSpace(2*4))
	n, oobn, _, _, err := unix.Recvmsg(fd, buf, oob, 0)
	if err != nil {
		slog.Warn("wm hello recvmsg failed", "err", err)
		return
	}
	action, pair, err := parseHello(buf[:n], oob[:oobn])
	if err != nil {
		slog.Warn("bad wm hello", "err", err)
		s.respond(fd, &protocol.Error{Code: protocol.ErrorMalformedFrame, Text: err.Error()})
		return
	}

	switch action {
	case protocol.WmConnectApp:
		name, base, err := s.proxy.ConnectApp(pair)
		if err != nil {
			slog.Warn("app connect failed", "err", err)
			s.respondErr(fd, err)
			return
		}
		slog.Info("app connected", "app", name, "sceneBase", uint32(base))
		s.respondBase(fd, base)
	case protocol.WmAttachRenderer:
		if err := s.proxy.AttachRenderer(pair); err != nil {
			slog.Warn("renderer attach failed", "err", err)
			s.respondErr(fd, err)
			return
		}
		slog.Info("renderer attached")
		s.respondBase(fd, 0)
	default:
		pair.Close()
		s.respond(fd, protocol.NewError(protocol.ErrorMalformedFrame, "unknown wm action %d", action))
	}
}

func parseHello(buf, oob []byte) (protocol.WmHelloAction, *fdPair, error) {
	if len(buf) < helloSize {
		return 0, nil, protocol.NewError(protocol.ErrorMalformedFrame, "short wm hello: %d bytes", len(buf))
	}
	var magic protocol.Magic
	copy(magic[:], buf[:7])
	if magic != protocol.MagicWmRequest {
		return 0, nil, protocol.NewError(protocol.ErrorMagicMismatch, "bad wm magic")
	}
	action := protocol.WmHelloAction(binary.LittleEndian.Uint32(buf[7:11]))

	cmsgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return 0, nil, protocol.NewError(protocol.ErrorMalformedFrame, "bad ancillary data: %v", err)
	}
	var fds []int
	for _, cm := range cmsgs {
		got, err := unix.ParseUnixRights(&cm)
		if err != nil {
			continue
		}
		fds = append(fds, got...)
	}
	if len(fds) != 2 {
		for _, f := range fds {
			unix.Close(f)
		}
		return 0, nil, protocol.NewError(protocol.ErrorMalformedFrame, "expected 2 passed fds, got %d", len(fds))
	}
	pair := &fdPair{
		w: os.NewFile(uintptr(fds[0]), "wm-peer-in"),
		r: os.NewFile(uintptr(fds[1]), "wm-peer-out"),
	}
	return action, pair, nil
}

func (s *Server) respondBase(fd int, base protocol.SceneID) {
	payload, err := protocol.EncodeWmResponse(0, protocol.WmHelloResponse{AssignedSceneBase: base})
	if err == nil {
		_ = sendDatagram(fd, payload)
	}
}

func (s *Server) respondErr(fd int, err error) {
	if pe, ok := err.(*protocol.Error); ok {
		s.respond(fd, pe)
		return
	}
	s.respond(fd, protocol.NewError(protocol.ErrorMalformedFrame, "%v", err))
}

func (s *Server) respond(fd int, e *protocol.Error) {
	payload, err := protocol.EncodeWmResponse(0, protocol.WmHelloResponse{Error: e})
	if err == nil {
		_ = sendDatagram(fd, payload)
	}
}

func sendDatagram(fd int, payload []byte) error {
	return unix.Sendmsg(fd, payload, nil, nil, 0)
}

// DialApp connects to the WM control socket at path and registers toPeer/
// fromPeer (the spawned app's stdin write end and stdout read end) as a
// new app. The fds are duplicated into the WM by the kernel; the caller
// keeps its copies and should close them when the app exits. The WM closes
// its end of the returned control connection once it has sent the
// response, so nothing further arrives on it.
func DialApp(path string, toPeer, fromPeer *os.File) (protocol.WmHelloResponse, *os.File, error) {
	return dialHello(path, protocol.WmConnectApp, toPeer, fromPeer)
}

// DialRenderer connects to the WM control socket at path and registers
// toPeer/fromPeer as the attached renderer's transport.
func DialRenderer(path string, toPeer, fromPeer *os.File) (protocol.WmHelloResponse, *os.File, error) {
	return dialHello(path, protocol.WmAttachRenderer, toPeer, fromPeer)
}

func dialHello(path string, action protocol.WmHelloAction, toPeer, fromPeer *os.File) (protocol.WmHelloResponse, *os.File, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return protocol.WmHelloResponse{}, nil, err
	}
	ctrl := os.NewFile(uintptr(fd), "wm-ctrl")
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		ctrl.Close()
		return protocol.WmHelloResponse{}, nil, err
	}

	buf := make([]byte, 0, helloSize)
	buf = append(buf, protocol.MagicWmRequest[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(action))
	rights := unix.UnixRights(int(toPeer.Fd()), int(fromPeer.Fd()))
	if err := unix.Sendmsg(fd, buf, rights, nil, 0); err != nil {
		ctrl.Close()
		return protocol.WmHelloResponse{}, nil, err
	}

	respBuf := make([]byte, 4096)
	n, err := ctrl.Read(respBuf)
	if err != nil {
		ctrl.Close()
		return protocol.WmHelloResponse{}, nil, err
	}
	_, resp, err := protocol.DecodeWmResponse(respBuf[:n])
	if err != nil {
		ctrl.Close()
		return protocol.WmHelloResponse{}, nil, err
	}
	hello, ok := resp.(protocol.WmHelloResponse)
	if !ok {
		ctrl.Close()
		return protocol.WmHelloResponse{}, nil, protocol.NewError(protocol.ErrorMalformedFrame, "unexpected wm response %T", resp)
	}
	if hello.Error != nil {
		ctrl.Close()
		return hello, nil, hello.Error
	}
	return hello, ctrl, nil
}
