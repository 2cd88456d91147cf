package wm

import (
	"strings"

	"github.com/boldui/core/protocol"
)

// AppPrefix is the leading path segment identifying app appName's replies
// and opens, e.g. app "calc" yields "/calc" as the prefix for its own
// paths.
func AppPrefix(appName string) string {
	return "/" + appName
}

// PrefixPath joins an app's namespace prefix onto a path it produced, so
// the renderer sees one disambiguated path space across every connected
// app. A path's own leading slash is preserved as the separator between
// the prefix and the rest.
func PrefixPath(appName, path string) string {
	if path == "" || path == "/" {
		return AppPrefix(appName)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return AppPrefix(appName) + path
}

// SplitRoute splits a renderer-originated reply/open path into the owning
// app's leading segment and the remaining path, demultiplexing a
// previously-prefixed path back to its app. ok is false for the broadcast path
// ("") or a path with no segments to route on.
func SplitRoute(path string) (appName, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "", false
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i], trimmed[i:], true
	}
	return trimmed, "/", true
}

// IsBroadcastOpen reports whether an R2AOpen path is the broadcast path
// fanned out to every connected app.
func IsBroadcastOpen(path string) bool {
	return path == ""
}

// prefixUpdatePaths prepends the app's name segment to every Reply/Open
// path in an update's handler blocks, so the renderer emits
// already-prefixed paths and its replies demultiplex by SplitRoute.
func prefixUpdatePaths(u protocol.A2RUpdate, appName string) protocol.A2RUpdate {
	out := u
	if u.RunBlocks != nil {
		out.RunBlocks = make([]protocol.HandlerBlock, len(u.RunBlocks))
		for i, b := range u.RunBlocks {
			out.RunBlocks[i] = protocol.HandlerBlock{Ops: b.Ops, Commands: prefixCommandPaths(b.Commands, appName)}
		}
	}
	if u.UpdatedScenes != nil {
		out.UpdatedScenes = make([]protocol.SceneDef, len(u.UpdatedScenes))
		for i, def := range u.UpdatedScenes {
			if def.Watches != nil {
				watches := make([]protocol.Watch, len(def.Watches))
				for j, w := range def.Watches {
					watches[j] = protocol.Watch{
						Condition: w.Condition,
						Handler:   protocol.HandlerBlock{Ops: w.Handler.Ops, Commands: prefixCommandPaths(w.Handler.Commands, appName)},
					}
				}
				def.Watches = watches
			}
			if def.EventHandlers != nil {
				ehs := make([]protocol.EventHandler, len(def.EventHandlers))
				for j, eh := range def.EventHandlers {
					eh.Handler = protocol.HandlerBlock{Ops: eh.Handler.Ops, Commands: prefixCommandPaths(eh.Handler.Commands, appName)}
					ehs[j] = eh
				}
				def.EventHandlers = ehs
			}
			out.UpdatedScenes[i] = def
		}
	}
	return out
}

// prefixCommandPaths rewrites the literal Reply/Open path strings in a
// command sequence, descending into If branches.
func prefixCommandPaths(cmds []protocol.HandlerCommand, appName string) []protocol.HandlerCommand {
	if cmds == nil {
		return nil
	}
	out := make([]protocol.HandlerCommand, len(cmds))
	for i, c := range cmds {
		switch cc := c.(type) {
		case protocol.ReplyCmd:
			out[i] = protocol.ReplyCmd{Path: PrefixPath(appName, cc.Path), Params: cc.Params}
		case protocol.OpenCmd:
			out[i] = protocol.OpenCmd{Path: PrefixPath(appName, cc.Path)}
		case protocol.IfCmd:
			out[i] = protocol.IfCmd{
				Cond: cc.Cond,
				Then: prefixCommandPaths(cc.Then, appName),
				Else: prefixCommandPaths(cc.Else, appName),
			}
		default:
			out[i] = c
		}
	}
	return out
}
