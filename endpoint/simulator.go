package endpoint

import "io"

// pipeConn adapts a pair of unidirectional io.Pipe ends into the single
// io.ReadWriteCloser Transport expects.
type pipeConn struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeConn) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeConn) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipeConn) Close() error {
	rErr := p.r.Close()
	wErr := p.w.Close()
	if rErr != nil {
		return rErr
	}
	return wErr
}

// Simulator wires a Renderer directly to an App over in-memory pipes, with
// no subprocess or socket involved. It's the fixture
// this package's own tests use, and is equally usable by an application
// author who wants to exercise their A2RUpdate-producing logic without
// spawning a child process.
type Simulator struct {
	Renderer *Renderer
	App      *App
}

// NewSimulator performs both halves of the handshake concurrently: the
// renderer side blocks writing its Hello until the app side is reading,
// and vice versa, so they must run on separate goroutines or the pipes
// deadlock.
func NewSimulator() (*Simulator, error) {
	r1, w1 := io.Pipe() // renderer -> app
	r2, w2 := io.Pipe() // app -> renderer

	rendererSide := &pipeConn{r: r2, w: w1}
	appSide := &pipeConn{r: r1, w: w2}

	type rendererResult struct {
		renderer *Renderer
		err      error
	}
	type appResult struct {
		app *App
		err error
	}
	rendererCh := make(chan rendererResult, 1)
	appCh := make(chan appResult, 1)

	go func() {
		renderer, err := NewRenderer(rendererSide)
		rendererCh <- rendererResult{renderer, err}
	}()
	go func() {
		app, err := NewApp(appSide)
		appCh <- appResult{app, err}
	}()

	rr := <-rendererCh
	ar := <-appCh
	if rr.err != nil {
		return nil, rr.err
	}
	if ar.err != nil {
		return nil, ar.err
	}
	return &Simulator{Renderer: rr.renderer, App: ar.app}, nil
}

// Close tears down both endpoints.
func (s *Simulator) Close() error {
	err1 := s.Renderer.Close()
	err2 := s.App.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
