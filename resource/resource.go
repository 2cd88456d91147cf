// Package resource implements the opaque resource byte store: streamed
// ResourceChunk writes and ResourceDealloc holes.
package resource

import (
	"sync"

	"github.com/boldui/core/protocol"
)

// Store holds the backing bytes for every known resource id. Contents are
// opaque — decoding image formats is delegated to the renderer's
// rasterizer, so Store never interprets bytes beyond
// growing/zeroing byte ranges.
type Store struct {
	mu   sync.Mutex
	data map[protocol.Resource][]byte
}

// NewStore returns an empty resource store.
func NewStore() *Store {
	return &Store{data: make(map[protocol.Resource][]byte)}
}

// ApplyChunk writes bytes at offset into a resource's backing storage,
// growing it if the chunk extends past the current length.
func (s *Store) ApplyChunk(c protocol.ResourceChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.data[c.ID]
	need := int(c.Offset) + len(c.Bytes)
	if need > len(buf) {
		grown := make([]byte, need)
		copy(grown, buf)
		buf = grown
	}
	copy(buf[c.Offset:], c.Bytes)
	s.data[c.ID] = buf
}

// ApplyDealloc zeroes a byte range, punching a hole without shrinking the
// backing slice.
func (s *Store) ApplyDealloc(d protocol.ResourceDealloc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.data[d.ID]
	if !ok {
		return
	}
	end := int(d.Offset) + int(d.Length)
	if end > len(buf) {
		end = len(buf)
	}
	for i := int(d.Offset); i < end; i++ {
		buf[i] = 0
	}
}

// Bytes returns a copy of a resource's current backing bytes.
func (s *Store) Bytes(id protocol.Resource) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.data[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, true
}

// ImageDimensions always reports unknown: decoding an image's encoded
// format to find its pixel dimensions is the rasterizer's job, which this
// runtime never performs. GetImageDimensions therefore can only succeed once
// a future out-of-band metadata channel populates per-resource dimensions;
// until then every lookup reports not-found so callers see a well-defined
// InvalidRef rather than silently wrong data.
func (s *Store) ImageDimensions(protocol.Resource) (width, height int64, ok bool) {
	return 0, 0, false
}

// Replace swaps a resource's entire backing storage, unlike ApplyChunk
// which never shrinks it. Used by the directory watcher when a backing
// file is rewritten.
func (s *Store) Replace(id protocol.Resource, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.data[id] = buf
}

// Len returns a resource's current backing length.
func (s *Store) Len(id protocol.Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[id])
}

// Delete removes a resource's backing storage entirely.
func (s *Store) Delete(id protocol.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}
