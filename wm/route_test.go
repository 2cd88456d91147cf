package wm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boldui/core/protocol"
)

func TestPrefixPath(t *testing.T) {
	tests := []struct {
		app, path, want string
	}{
		{"calc", "", "/calc"},
		{"calc", "/", "/calc"},
		{"calc", "/sub", "/calc/sub"},
		{"calc", "sub", "/calc/sub"},
		{"1", "/pressed", "/1/pressed"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PrefixPath(tc.app, tc.path), "PrefixPath(%q, %q)", tc.app, tc.path)
	}
}

func TestSplitRoute(t *testing.T) {
	app, rest, ok := SplitRoute("/calc/sub")
	assert.True(t, ok)
	assert.Equal(t, "calc", app)
	assert.Equal(t, "/sub", rest)

	app, rest, ok = SplitRoute("/calc")
	assert.True(t, ok)
	assert.Equal(t, "calc", app)
	assert.Equal(t, "/", rest)

	_, _, ok = SplitRoute("")
	assert.False(t, ok)
	_, _, ok = SplitRoute("/")
	assert.False(t, ok)
}

func TestSplitRouteRoundTripsPrefixPath(t *testing.T) {
	for _, path := range []string{"/", "/reply", "/a/b/c"} {
		app, rest, ok := SplitRoute(PrefixPath("shapes", path))
		assert.True(t, ok)
		assert.Equal(t, "shapes", app)
		assert.Equal(t, path, rest)
	}
}

func TestIsBroadcastOpen(t *testing.T) {
	assert.True(t, IsBroadcastOpen(""))
	assert.False(t, IsBroadcastOpen("/"))
	assert.False(t, IsBroadcastOpen("/calc"))
}

func TestPrefixCommandPathsDescendsIntoIf(t *testing.T) {
	cmds := []protocol.HandlerCommand{
		protocol.IfCmd{
			Cond: protocol.OpId{Idx: 0},
			Then: []protocol.HandlerCommand{protocol.OpenCmd{Path: "/then"}},
			Else: []protocol.HandlerCommand{protocol.ReplyCmd{Path: "/else"}},
		},
	}
	out := prefixCommandPaths(cmds, "app")
	ifCmd := out[0].(protocol.IfCmd)
	assert.Equal(t, protocol.OpenCmd{Path: "/app/then"}, ifCmd.Then[0])
	assert.Equal(t, protocol.ReplyCmd{Path: "/app/else"}, ifCmd.Else[0])
	// The original command list is left unmodified.
	orig := cmds[0].(protocol.IfCmd)
	assert.Equal(t, protocol.OpenCmd{Path: "/then"}, orig.Then[0])
}
