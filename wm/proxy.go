package wm

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/boldui/core/endpoint"
	"github.com/boldui/core/protocol"
)

// Proxy is the multiplexing core of the window manager: at most one
// attached renderer, any number of connected apps, each app owning a
// namespaced block of the scene-id space and a leading path segment.
// Proxy is transport-agnostic — it speaks framed messages over any
// io.ReadWriteCloser, so the seqpacket/fd-passing server and the tests
// both drive the same code.
type Proxy struct {
	mu       sync.Mutex
	apps     map[string]*appConn
	nextIdx  uint32
	renderer *rendererConn
}

type appConn struct {
	name   string
	idx    uint32
	tp     *endpoint.Transport
	cancel context.CancelFunc
}

type rendererConn struct {
	tp     *endpoint.Transport
	cancel context.CancelFunc
}

// NewProxy returns a Proxy with no renderer and no apps.
func NewProxy() *Proxy {
	return &Proxy{apps: make(map[string]*appConn)}
}

// ConnectApp performs the renderer-side handshake with a newly connected
// app over rw (the proxy poses as the app's renderer), assigns it the next
// free scene-id block, and starts forwarding its updates to whichever
// renderer is attached. The initial Open("") is sent so the app publishes
// its root scene. Returns the app's assigned name and scene-id base.
func (p *Proxy) ConnectApp(rw io.ReadWriteCloser) (name string, base protocol.SceneID, err error) {
	if err := endpoint.RendererHandshake(rw); err != nil {
		rw.Close()
		return "", 0, err
	}

	p.mu.Lock()
	p.nextIdx++
	idx := p.nextIdx
	conn := &appConn{
		name: strconv.FormatUint(uint64(idx), 10),
		idx:  idx,
		tp:   endpoint.NewTransport(rw),
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn.cancel = cancel
	p.apps[conn.name] = conn
	p.mu.Unlock()

	if err := conn.send(protocol.R2AOpenMsg{Path: ""}); err != nil {
		p.dropApp(conn)
		return "", 0, err
	}

	go p.appReadLoop(ctx, conn)
	return conn.name, SceneBase(idx), nil
}

// AttachRenderer performs the app-side handshake with a newly attached
// renderer over rw (the proxy poses as the renderer's app) and makes it
// the active renderer, cancelling any previous one. Every connected app is
// re-sent Open("") so the new renderer receives each app's scenes afresh.
func (p *Proxy) AttachRenderer(rw io.ReadWriteCloser) error {
	if err := endpoint.AppHandshake(rw); err != nil {
		rw.Close()
		return err
	}

	conn := &rendererConn{tp: endpoint.NewTransport(rw)}
	ctx, cancel := context.WithCancel(context.Background())
	conn.cancel = cancel

	p.mu.Lock()
	prev := p.renderer
	p.renderer = conn
	apps := p.appList()
	p.mu.Unlock()

	if prev != nil {
		slog.Debug("new renderer attached, cancelling previous")
		prev.cancel()
		prev.tp.Close()
	}
	go func() {
		for _, app := range apps {
			if err := app.send(protocol.R2AOpenMsg{Path: ""}); err != nil {
				slog.Warn("failed to re-open app for new renderer", "app", app.name, "err", err)
			}
		}
	}()

	go p.rendererReadLoop(ctx, conn)
	return nil
}

// Close tears down the renderer and every app connection.
func (p *Proxy) Close() {
	p.mu.Lock()
	renderer := p.renderer
	p.renderer = nil
	apps := p.appList()
	p.apps = make(map[string]*appConn)
	p.mu.Unlock()

	if renderer != nil {
		renderer.cancel()
		renderer.tp.Close()
	}
	for _, app := range apps {
		app.cancel()
		app.tp.Close()
	}
}

func (p *Proxy) appList() []*appConn {
	out := make([]*appConn, 0, len(p.apps))
	for _, a := range p.apps {
		out = append(out, a)
	}
	return out
}

func (c *appConn) send(msg protocol.R2AMessage) error {
	payload, err := protocol.EncodeR2AMessage(msg)
	if err != nil {
		return err
	}
	return c.tp.WriteFrame(payload)
}

func (p *Proxy) dropApp(conn *appConn) {
	p.mu.Lock()
	delete(p.apps, conn.name)
	p.mu.Unlock()
	conn.cancel()
	conn.tp.Close()
}

// appReadLoop forwards one app's A2R stream to the attached renderer,
// rewriting scene ids into the app's namespace block and prefixing its
// reply paths with the app's name segment.
func (p *Proxy) appReadLoop(ctx context.Context, conn *appConn) {
	defer p.dropApp(conn)
	for {
		payload, err := conn.tp.ReadFrame()
		if err != nil {
			if err != io.EOF {
				slog.Warn("app transport error", "app", conn.name, "err", err)
			}
			return
		}
		msg, err := protocol.DecodeA2RMessage(payload)
		if err != nil {
			slog.Warn("malformed app frame", "app", conn.name, "err", err)
			return
		}
		switch m := msg.(type) {
		case protocol.A2RUpdateMsg:
			rewritten := RewriteForApp(m.Update, conn.idx, conn.name)
			if err := p.sendToRenderer(protocol.A2RUpdateMsg{Update: rewritten}); err != nil {
				slog.Warn("dropping app update, no renderer", "app", conn.name, "err", err)
			}
		case protocol.A2RErrorMsg:
			if m.Err.IsClean() {
				slog.Debug("app quit cleanly", "app", conn.name)
			} else {
				slog.Error("app error", "app", conn.name, "code", m.Err.Code, "text", m.Err.Text)
			}
			return
		default:
			slog.Warn("unhandled app message", "app", conn.name)
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// sendToRenderer forwards one already-rewritten A2R message to the active
// renderer, if any.
func (p *Proxy) sendToRenderer(msg protocol.A2RMessage) error {
	p.mu.Lock()
	renderer := p.renderer
	p.mu.Unlock()
	if renderer == nil {
		return protocol.NewError(protocol.ErrorUnknownScene, "no renderer attached")
	}
	payload, err := protocol.EncodeA2RMessage(msg)
	if err != nil {
		return err
	}
	return renderer.tp.WriteFrame(payload)
}

// rendererReadLoop demultiplexes the renderer's R2A stream back to the
// owning apps: replies are split on their leading path segment, Open("")
// is broadcast, and other opens route by their first segment.
func (p *Proxy) rendererReadLoop(ctx context.Context, conn *rendererConn) {
	defer func() {
		p.mu.Lock()
		if p.renderer == conn {
			p.renderer = nil
		}
		p.mu.Unlock()
		conn.cancel()
		conn.tp.Close()
	}()

	for {
		payload, err := conn.tp.ReadFrame()
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				slog.Warn("renderer transport error", "err", err)
			}
			return
		}
		msg, err := protocol.DecodeR2AMessage(payload)
		if err != nil {
			slog.Warn("malformed renderer frame", "err", err)
			return
		}
		switch m := msg.(type) {
		case protocol.R2AUpdateMsg:
			p.routeReplies(m.Update.Replies)
		case protocol.R2AOpenMsg:
			p.routeOpen(m.Path)
		case protocol.R2AErrorMsg:
			slog.Error("renderer error", "code", m.Err.Code, "text", m.Err.Text)
			return
		default:
			slog.Warn("unhandled renderer message")
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// routeReplies groups one renderer update's replies by owning app and
// delivers each group as a single R2AUpdate with the app prefix stripped,
// keeping the one-batch-one-update coalescing the endpoints rely on.
func (p *Proxy) routeReplies(replies []protocol.Reply) {
	byApp := make(map[string][]protocol.Reply)
	order := make([]string, 0, 1)
	for _, rep := range replies {
		name, rest, ok := SplitRoute(rep.Path)
		if !ok {
			slog.Warn("reply path has no app segment", "path", rep.Path)
			continue
		}
		if _, seen := byApp[name]; !seen {
			order = append(order, name)
		}
		byApp[name] = append(byApp[name], protocol.Reply{Path: rest, Params: rep.Params})
	}

	for _, name := range order {
		p.mu.Lock()
		app := p.apps[name]
		p.mu.Unlock()
		if app == nil {
			slog.Warn("reply for unknown app", "app", name)
			continue
		}
		msg := protocol.R2AUpdateMsg{Update: protocol.R2AUpdate{Replies: byApp[name]}}
		if err := app.send(msg); err != nil {
			slog.Warn("failed to deliver replies", "app", name, "err", err)
			p.dropApp(app)
		}
	}
}

// routeOpen fans Open("") out to every app, and routes any other path to
// the app named by its first segment, stripped of that segment.
func (p *Proxy) routeOpen(path string) {
	if IsBroadcastOpen(path) {
		p.mu.Lock()
		apps := p.appList()
		p.mu.Unlock()
		for _, app := range apps {
			if err := app.send(protocol.R2AOpenMsg{Path: ""}); err != nil {
				slog.Warn("failed to broadcast open", "app", app.name, "err", err)
			}
		}
		return
	}

	name, rest, ok := SplitRoute(path)
	if !ok {
		slog.Warn("open path has no app segment", "path", path)
		return
	}
	p.mu.Lock()
	app := p.apps[name]
	p.mu.Unlock()
	if app == nil {
		slog.Warn("open for unknown app", "app", name, "path", path)
		return
	}
	if err := app.send(protocol.R2AOpenMsg{Path: rest}); err != nil {
		slog.Warn("failed to deliver open", "app", name, "err", err)
		p.dropApp(app)
	}
}
