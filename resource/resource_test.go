package resource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boldui/core/protocol"
)

func TestApplyChunkGrowsStorage(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 1, Offset: 0, Bytes: []byte{1, 2, 3}})
	s.ApplyChunk(protocol.ResourceChunk{ID: 1, Offset: 5, Bytes: []byte{9}})

	got, ok := s.Bytes(1)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 9}, got)
}

func TestApplyChunkOverwrites(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 2, Offset: 0, Bytes: []byte{1, 1, 1, 1}})
	s.ApplyChunk(protocol.ResourceChunk{ID: 2, Offset: 1, Bytes: []byte{7, 7}})

	got, _ := s.Bytes(2)
	assert.Equal(t, []byte{1, 7, 7, 1}, got)
}

func TestApplyDeallocPunchesHole(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 3, Offset: 0, Bytes: []byte{1, 2, 3, 4, 5}})
	s.ApplyDealloc(protocol.ResourceDealloc{ID: 3, Offset: 1, Length: 2})

	got, _ := s.Bytes(3)
	assert.Equal(t, []byte{1, 0, 0, 4, 5}, got)
	assert.Equal(t, 5, s.Len(3), "dealloc never shrinks the backing storage")
}

func TestApplyDeallocPastEndClamps(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 4, Offset: 0, Bytes: []byte{1, 2}})
	s.ApplyDealloc(protocol.ResourceDealloc{ID: 4, Offset: 1, Length: 100})

	got, _ := s.Bytes(4)
	assert.Equal(t, []byte{1, 0}, got)
}

func TestApplyDeallocUnknownResourceIsNoop(t *testing.T) {
	s := NewStore()
	s.ApplyDealloc(protocol.ResourceDealloc{ID: 9, Offset: 0, Length: 4})
	_, ok := s.Bytes(9)
	assert.False(t, ok)
}

func TestBytesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 5, Offset: 0, Bytes: []byte{1}})
	got, _ := s.Bytes(5)
	got[0] = 42
	again, _ := s.Bytes(5)
	assert.Equal(t, []byte{1}, again)
}

func TestReplaceShrinks(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 6, Offset: 0, Bytes: []byte{1, 2, 3, 4}})
	s.Replace(6, []byte{9})
	got, _ := s.Bytes(6)
	assert.Equal(t, []byte{9}, got)
}

func TestDelete(t *testing.T) {
	s := NewStore()
	s.ApplyChunk(protocol.ResourceChunk{ID: 7, Offset: 0, Bytes: []byte{1}})
	s.Delete(7)
	_, ok := s.Bytes(7)
	assert.False(t, ok)
}

func TestResourceIDFromName(t *testing.T) {
	tests := []struct {
		name string
		id   protocol.Resource
		ok   bool
	}{
		{"12.png", 12, true},
		{"0", 0, true},
		{"7.img.bak", 7, true},
		{"icon.png", 0, false},
		{".hidden", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		id, ok := resourceIDFromName(tc.name)
		assert.Equal(t, tc.ok, ok, "name %q", tc.name)
		if tc.ok {
			assert.Equal(t, tc.id, id, "name %q", tc.name)
		}
	}
}

func waitForBytes(t *testing.T, s *Store, id protocol.Resource, want []byte) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := s.Bytes(id); ok && string(got) == string(want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("resource %d never reached expected contents", id)
}

func TestWatchDirLoadsAndReloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.bin"), []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	s := NewStore()
	w, err := WatchDir(s, dir)
	require.NoError(t, err)
	defer w.Close()

	// Pre-existing files load eagerly; non-resource names are ignored.
	got, ok := s.Bytes(3)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)

	// A rewrite replaces, even when shorter.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.bin"), []byte("z"), 0o644))
	waitForBytes(t, s, 3, []byte("z"))

	// A newly created file appears as a new resource.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "8.bin"), []byte("new"), 0o644))
	waitForBytes(t, s, 8, []byte("new"))
}
