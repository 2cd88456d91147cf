// Package wm implements the compositing window-manager proxy:
// it multiplexes many app connections and one renderer connection,
// namespacing each app's scene ids into a disjoint 24-bit block so a
// multi-app composite scene graph never collides, and routes replies and
// opens by the first path segment.
package wm

import (
	"github.com/boldui/core/base/ordmap"
	"github.com/boldui/core/protocol"
)

// SceneBlockBits is the width of the per-app scene-id namespace block.
const SceneBlockBits = 24

// SceneBase returns the first scene id in app index idx's namespaced
// block. idx 0 reserves scene ids [0, 2^24); idx 1 reserves
// [2^24, 2*2^24); and so on.
func SceneBase(idx uint32) protocol.SceneID {
	return protocol.SceneID(idx) << SceneBlockBits
}

// offsetScene rewrites a scene id into app idx's namespace block,
// leaving the reserved local scope (scene id 0) untouched.
func offsetScene(id protocol.SceneID, idx uint32) protocol.SceneID {
	if id == protocol.LocalScene {
		return protocol.LocalScene
	}
	return id + SceneBase(idx)
}

func offsetOpId(id protocol.OpId, idx uint32) protocol.OpId {
	return protocol.OpId{Scene: offsetScene(id.Scene, idx), Idx: id.Idx}
}

func offsetVarKey(k protocol.VarKey, idx uint32) protocol.VarKey {
	return protocol.VarKey{Scene: offsetScene(k.Scene, idx), Key: k.Key}
}

// offsetValue rewrites the one value variant that names a scene.
func offsetValue(v protocol.Value, idx uint32) protocol.Value {
	if ref, ok := v.(protocol.VarRef); ok {
		return protocol.VarRef{Scene: offsetScene(ref.Scene, idx), Key: ref.Key}
	}
	return v
}

// RewriteForApp prepares one app's A2RUpdate for forwarding to the
// renderer: every Reply/Open path gains the app's name segment, then
// every scene id is offset into the app's namespace block.
func RewriteForApp(u protocol.A2RUpdate, idx uint32, appName string) protocol.A2RUpdate {
	return RewriteUpdate(prefixUpdatePaths(u, appName), idx)
}

// RewriteUpdate rewrites every scene id and cross-scene OpId in an
// A2RUpdate into app idx's namespace block before it's forwarded to the
// renderer.
func RewriteUpdate(u protocol.A2RUpdate, idx uint32) protocol.A2RUpdate {
	out := protocol.A2RUpdate{
		ResourceChunks:   u.ResourceChunks,
		ResourceDeallocs: u.ResourceDeallocs,
	}
	out.UpdatedScenes = make([]protocol.SceneDef, len(u.UpdatedScenes))
	for i, def := range u.UpdatedScenes {
		out.UpdatedScenes[i] = RewriteSceneDef(def, idx)
	}
	out.RunBlocks = make([]protocol.HandlerBlock, len(u.RunBlocks))
	for i, rb := range u.RunBlocks {
		out.RunBlocks[i] = rewriteHandlerBlock(rb, idx)
	}
	return out
}

// RewriteSceneDef rewrites one scene definition's own id and every
// OpId/VarKey it contains.
func RewriteSceneDef(def protocol.SceneDef, idx uint32) protocol.SceneDef {
	def.ID = offsetScene(def.ID, idx)
	if def.Vars.Len() > 0 {
		vars := ordmap.New[string, protocol.VariableDecl]()
		for _, kv := range def.Vars.Order {
			vars.Add(kv.Key, protocol.VariableDecl{Default: offsetValue(kv.Value.Default, idx)})
		}
		def.Vars = vars
	}
	def.Ops = rewriteOps(def.Ops, idx)
	def.Commands = rewriteCommands(def.Commands, idx)
	if len(def.Attrs) > 0 {
		attrs := make(map[protocol.SceneAttr]protocol.OpId, len(def.Attrs))
		for k, v := range def.Attrs {
			attrs[k] = offsetOpId(v, idx)
		}
		def.Attrs = attrs
	}
	watches := make([]protocol.Watch, len(def.Watches))
	for i, w := range def.Watches {
		watches[i] = protocol.Watch{Condition: offsetOpId(w.Condition, idx), Handler: rewriteHandlerBlock(w.Handler, idx)}
	}
	def.Watches = watches

	ehs := make([]protocol.EventHandler, len(def.EventHandlers))
	for i, eh := range def.EventHandlers {
		ehs[i] = protocol.EventHandler{
			Event:             protocol.EventType{Kind: eh.Event.Kind, Rect: offsetOpId(eh.Event.Rect, idx)},
			Handler:           rewriteHandlerBlock(eh.Handler, idx),
			ContinueHandling:  offsetOpId(eh.ContinueHandling, idx),
			HasContinueHandle: eh.HasContinueHandle,
		}
	}
	def.EventHandlers = ehs
	return def
}

func rewriteOps(ops []protocol.Op, idx uint32) []protocol.Op {
	if ops == nil {
		return nil
	}
	out := make([]protocol.Op, len(ops))
	for i, op := range ops {
		out[i] = rewriteOp(op, idx)
	}
	return out
}

func rewriteOp(op protocol.Op, idx uint32) protocol.Op {
	switch o := op.(type) {
	case protocol.LiteralOp:
		return protocol.LiteralOp{Value: offsetValue(o.Value, idx)}
	case protocol.ReadVarOp:
		return protocol.ReadVarOp{Var: offsetVarKey(o.Var, idx)}
	case protocol.BinOp:
		return protocol.BinOp{Kind: o.Kind, A: offsetOpId(o.A, idx), B: offsetOpId(o.B, idx)}
	case protocol.UnOp:
		return protocol.UnOp{Kind: o.Kind, A: offsetOpId(o.A, idx)}
	case protocol.GetTimeOp:
		return o
	case protocol.GetTimeAndClampOp:
		return protocol.GetTimeAndClampOp{Low: offsetOpId(o.Low, idx), High: offsetOpId(o.High, idx)}
	case protocol.IfOp:
		return protocol.IfOp{Cond: offsetOpId(o.Cond, idx), Then: offsetOpId(o.Then, idx), Else: offsetOpId(o.Else, idx)}
	case protocol.MakePointOp:
		return protocol.MakePointOp{X: offsetOpId(o.X, idx), Y: offsetOpId(o.Y, idx)}
	case protocol.MakeRectLTRBOp:
		return protocol.MakeRectLTRBOp{
			Left: offsetOpId(o.Left, idx), Top: offsetOpId(o.Top, idx),
			Right: offsetOpId(o.Right, idx), Bottom: offsetOpId(o.Bottom, idx),
		}
	case protocol.MakeRectXYWHOp:
		return protocol.MakeRectXYWHOp{
			X: offsetOpId(o.X, idx), Y: offsetOpId(o.Y, idx),
			W: offsetOpId(o.W, idx), H: offsetOpId(o.H, idx),
		}
	case protocol.MakeColorOp:
		return protocol.MakeColorOp{
			R: offsetOpId(o.R, idx), G: offsetOpId(o.G, idx),
			B: offsetOpId(o.B, idx), A: offsetOpId(o.A, idx),
		}
	default:
		return op
	}
}

func rewriteCommands(cmds []protocol.Command, idx uint32) []protocol.Command {
	if cmds == nil {
		return nil
	}
	out := make([]protocol.Command, len(cmds))
	for i, c := range cmds {
		out[i] = rewriteCommand(c, idx)
	}
	return out
}

func rewriteCommand(c protocol.Command, idx uint32) protocol.Command {
	switch cc := c.(type) {
	case protocol.ClearCmd:
		return protocol.ClearCmd{Color: offsetOpId(cc.Color, idx)}
	case protocol.DrawRectCmd:
		return protocol.DrawRectCmd{Paint: offsetOpId(cc.Paint, idx), Rect: offsetOpId(cc.Rect, idx)}
	case protocol.DrawRoundRectCmd:
		return protocol.DrawRoundRectCmd{
			Paint: offsetOpId(cc.Paint, idx), Rect: offsetOpId(cc.Rect, idx), Radius: offsetOpId(cc.Radius, idx),
		}
	case protocol.DrawCenteredTextCmd:
		return protocol.DrawCenteredTextCmd{
			Text: offsetOpId(cc.Text, idx), Paint: offsetOpId(cc.Paint, idx), Center: offsetOpId(cc.Center, idx),
		}
	case protocol.DrawImageCmd:
		return protocol.DrawImageCmd{Resource: offsetOpId(cc.Resource, idx), TopLeft: offsetOpId(cc.TopLeft, idx)}
	default:
		return c
	}
}

func rewriteHandlerBlock(b protocol.HandlerBlock, idx uint32) protocol.HandlerBlock {
	return protocol.HandlerBlock{
		Ops:      rewriteOps(b.Ops, idx),
		Commands: rewriteHandlerCommands(b.Commands, idx),
	}
}

func rewriteHandlerCommands(cmds []protocol.HandlerCommand, idx uint32) []protocol.HandlerCommand {
	if cmds == nil {
		return nil
	}
	out := make([]protocol.HandlerCommand, len(cmds))
	for i, c := range cmds {
		out[i] = rewriteHandlerCommand(c, idx)
	}
	return out
}

func rewriteHandlerCommand(c protocol.HandlerCommand, idx uint32) protocol.HandlerCommand {
	switch cc := c.(type) {
	case protocol.NopCmd:
		return cc
	case protocol.ReparentSceneCmd:
		return protocol.ReparentSceneCmd{
			Scene: offsetScene(cc.Scene, idx),
			To:    protocol.ReparentTarget{Kind: cc.To.Kind, Target: offsetScene(cc.To.Target, idx)},
		}
	case protocol.SetVarCmd:
		return protocol.SetVarCmd{Var: offsetVarKey(cc.Var, idx), Value: offsetOpId(cc.Value, idx)}
	case protocol.SetVarByRefCmd:
		return protocol.SetVarByRefCmd{VarOp: offsetOpId(cc.VarOp, idx), Value: offsetOpId(cc.Value, idx)}
	case protocol.DeleteVarCmd:
		return protocol.DeleteVarCmd{Var: offsetVarKey(cc.Var, idx)}
	case protocol.DebugMessageCmd:
		return cc
	case protocol.ReplyCmd:
		params := make([]protocol.OpId, len(cc.Params))
		for i, p := range cc.Params {
			params[i] = offsetOpId(p, idx)
		}
		return protocol.ReplyCmd{Path: cc.Path, Params: params}
	case protocol.OpenCmd:
		return cc
	case protocol.IfCmd:
		return protocol.IfCmd{
			Cond: offsetOpId(cc.Cond, idx),
			Then: rewriteHandlerCommands(cc.Then, idx),
			Else: rewriteHandlerCommands(cc.Else, idx),
		}
	case protocol.AllocateWindowIDCmd:
		return cc
	default:
		return c
	}
}
