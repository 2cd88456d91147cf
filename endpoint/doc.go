// Package endpoint implements the app/renderer connection lifecycle. Reading
// frames, applying them to scene state and writing replies all run
// synchronously on the goroutine that drives Run or Step; there is no
// separate transport goroutine and no queue between the wire and the scene
// state, and redraws are reported on a buffered channel. Renderer
// and App are the two concrete endpoints; Simulator drives an App against
// a Renderer over in-memory pipes without a real subprocess or socket.
package endpoint
