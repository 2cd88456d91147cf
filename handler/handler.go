// Package handler implements the handler-block execution engine: the
// typechecked SetVar/SetVarByRef/DeleteVar/Reply/Open/If/AllocateWindowId
// side effects a watch, event handler, or run-block's command sequence
// performs once its local op list has been evaluated.
package handler

import (
	"github.com/boldui/core/deps"
	"github.com/boldui/core/interp"
	"github.com/boldui/core/protocol"
)

// Context is the set of scene-state mutations a handler command can
// perform. The scene package implements this; handler only depends on the
// interface so it never imports scene.
type Context interface {
	// VarDefault returns the declared default for scene/key, which fixes
	// the variable's runtime type for SetVar's typecheck. ok is false if
	// the variable isn't declared on that scene.
	VarDefault(scene protocol.SceneID, key string) (protocol.Value, bool)
	// SetVar assigns a variable's current value. The caller has already
	// typechecked value against VarDefault.
	SetVar(scene protocol.SceneID, key string, value protocol.Value)
	DeleteVar(scene protocol.SceneID, key string)
	// Reparent performs a ReparentScene command.
	Reparent(scene protocol.SceneID, to protocol.ReparentTarget) error
	Reply(path string, params []protocol.Value)
	Open(path string)
	// AllocateWindowID reserves a fresh WindowID from the windowing
	// collaborator, independent of any particular scene until a
	// subsequent ReparentScene{Root} associates one with it.
	AllocateWindowID() protocol.WindowID
	DebugMessage(text string)
}

// Execute evaluates a handler block's local op list, then runs its command
// sequence against ctx, resolving each command's OpId operands against
// either the block's own local results (OpId.Scene == protocol.LocalScene)
// or another scene's stored result vector, per the same addressing rule
// interp.Evaluate uses for op lists.
func Execute(block protocol.HandlerBlock, currentScene protocol.SceneID, reader interp.SceneReader, ctx Context, tracker *deps.Tracker, tb *protocol.Timebase) error {
	resolve, err := EvaluateBlock(block, currentScene, reader, tracker, tb)
	if err != nil {
		return err
	}
	return RunCommands(block.Commands, currentScene, resolve, ctx, tracker)
}

// EvaluateBlock runs just a handler block's local op list and returns an
// OpId resolver over it, without running its commands. The event router
// uses this directly so it can also resolve an event handler's
// continue_handling op from the same local result vector the commands see.
func EvaluateBlock(block protocol.HandlerBlock, currentScene protocol.SceneID, reader interp.SceneReader, tracker *deps.Tracker, tb *protocol.Timebase) (func(protocol.OpId) (protocol.Value, error), error) {
	results, err := interp.Evaluate(block.Ops, currentScene, reader, tracker, tb)
	if err != nil {
		return nil, err
	}

	resolve := func(id protocol.OpId) (protocol.Value, error) {
		if id.Scene == protocol.LocalScene {
			if int(id.Idx) >= len(results) {
				return nil, protocol.NewError(protocol.ErrorInvalidRef, "handler block op reference %d out of range", id.Idx)
			}
			return results[id.Idx], nil
		}
		vec, ok := reader.Results(id.Scene)
		if !ok {
			return nil, protocol.NewError(protocol.ErrorUnknownScene, "unknown scene %d", id.Scene)
		}
		if int(id.Idx) >= len(vec) {
			return nil, protocol.NewError(protocol.ErrorInvalidRef, "cross-scene op reference %d out of range in scene %d", id.Idx, id.Scene)
		}
		return vec[id.Idx], nil
	}
	return resolve, nil
}

// RunCommands executes a handler command sequence against ctx, given a
// resolver already built by EvaluateBlock.
func RunCommands(cmds []protocol.HandlerCommand, currentScene protocol.SceneID, resolve func(protocol.OpId) (protocol.Value, error), ctx Context, tracker *deps.Tracker) error {
	return execCommands(cmds, currentScene, resolve, ctx, tracker)
}

func execCommands(cmds []protocol.HandlerCommand, currentScene protocol.SceneID, resolve func(protocol.OpId) (protocol.Value, error), ctx Context, tracker *deps.Tracker) error {
	for _, c := range cmds {
		if err := execOne(c, currentScene, resolve, ctx, tracker); err != nil {
			return err
		}
	}
	return nil
}

// resolveScene substitutes currentScene for the LocalScene placeholder,
// the same convention protocol.VarKey documents.
func resolveScene(s, current protocol.SceneID) protocol.SceneID {
	if s == protocol.LocalScene {
		return current
	}
	return s
}

func setVar(scene protocol.SceneID, key string, value protocol.Value, ctx Context, tracker *deps.Tracker) error {
	def, ok := ctx.VarDefault(scene, key)
	if !ok {
		return protocol.NewError(protocol.ErrorUnknownVar, "unknown variable %s on scene %d", key, scene)
	}
	if !protocol.SameType(def, value) {
		return protocol.NewError(protocol.ErrorTypeMismatch, "SetVar %s: expected %s, got %s", key, def.Kind(), value.Kind())
	}
	ctx.SetVar(scene, key, value)
	if tracker != nil {
		tracker.RecordWrite(deps.VarID{Scene: scene, Key: key})
	}
	return nil
}

func execOne(c protocol.HandlerCommand, currentScene protocol.SceneID, resolve func(protocol.OpId) (protocol.Value, error), ctx Context, tracker *deps.Tracker) error {
	switch cc := c.(type) {
	case protocol.NopCmd:
		return nil

	case protocol.ReparentSceneCmd:
		return ctx.Reparent(cc.Scene, cc.To)

	case protocol.SetVarCmd:
		val, err := resolve(cc.Value)
		if err != nil {
			return err
		}
		return setVar(resolveScene(cc.Var.Scene, currentScene), cc.Var.Key, val, ctx, tracker)

	case protocol.SetVarByRefCmd:
		refVal, err := resolve(cc.VarOp)
		if err != nil {
			return err
		}
		ref, ok := refVal.(protocol.VarRef)
		if !ok {
			return protocol.NewError(protocol.ErrorTypeMismatch, "SetVarByRef operand must be a variable reference, got %s", refVal.Kind())
		}
		val, err := resolve(cc.Value)
		if err != nil {
			return err
		}
		return setVar(resolveScene(ref.Scene, currentScene), ref.Key, val, ctx, tracker)

	case protocol.DeleteVarCmd:
		scene := resolveScene(cc.Var.Scene, currentScene)
		ctx.DeleteVar(scene, cc.Var.Key)
		if tracker != nil {
			tracker.RecordWrite(deps.VarID{Scene: scene, Key: cc.Var.Key})
		}
		return nil

	case protocol.DebugMessageCmd:
		ctx.DebugMessage(cc.Text)
		return nil

	case protocol.ReplyCmd:
		params := make([]protocol.Value, len(cc.Params))
		for i, p := range cc.Params {
			v, err := resolve(p)
			if err != nil {
				return err
			}
			params[i] = v
		}
		ctx.Reply(cc.Path, params)
		return nil

	case protocol.OpenCmd:
		ctx.Open(cc.Path)
		return nil

	case protocol.IfCmd:
		condVal, err := resolve(cc.Cond)
		if err != nil {
			return err
		}
		condInt, ok := condVal.(protocol.Sint64)
		if !ok {
			return protocol.NewError(protocol.ErrorTypeMismatch, "If condition must be an integer, got %s", condVal.Kind())
		}
		if condInt != 0 {
			return execCommands(cc.Then, currentScene, resolve, ctx, tracker)
		}
		return execCommands(cc.Else, currentScene, resolve, ctx, tracker)

	case protocol.AllocateWindowIDCmd:
		ctx.AllocateWindowID()
		return nil

	default:
		return protocol.NewError(protocol.ErrorMalformedFrame, "unhandled handler command type %T", c)
	}
}
