package protocol

import "github.com/boldui/core/base/ordmap"

// SceneAttr tags the small fixed set of attribute slots a scene carries.
// Inner enums use narrower tag widths than top-level messages: SceneAttr
// is a u8 on the wire.
type SceneAttr uint8

const (
	AttrTransform SceneAttr = iota
	AttrPaint
	AttrBackdrop
	AttrClip
	AttrUri
	AttrSize
	AttrWindowTitle
)

// VariableDecl declares a scene-local variable: a default value, which
// fixes the variable's runtime type.
type VariableDecl struct {
	Default Value
}

// SceneDef is the last-received description of a scene: its op list, drawing
// commands, attribute slots, variable declarations, watches, and event
// handlers. It carries no topology (parent/children) — that is retained
// state owned by the scene state machine, not part of the wire message.
type SceneDef struct {
	ID            SceneID
	Ops           []Op
	Commands      []Command
	Attrs         map[SceneAttr]OpId
	Vars          *ordmap.Map[string, VariableDecl]
	Watches       []Watch
	EventHandlers []EventHandler
}

func EncodeSceneDef(w *Writer, s SceneDef) error {
	w.WriteU32(uint32(s.ID))
	if err := EncodeOpList(w, s.Ops); err != nil {
		return err
	}
	if err := EncodeCommandList(w, s.Commands); err != nil {
		return err
	}

	attrKeys := make([]SceneAttr, 0, len(s.Attrs))
	for k := range s.Attrs {
		attrKeys = append(attrKeys, k)
	}
	sortAttrKeys(attrKeys)
	w.WriteLen(len(attrKeys))
	for _, k := range attrKeys {
		w.WriteU8(uint8(k))
		EncodeOpId(w, s.Attrs[k])
	}

	vars := ordmap.SortedByKey(s.Vars)
	w.WriteLen(len(vars))
	for _, kv := range vars {
		w.WriteString(kv.Key)
		EncodeValue(w, kv.Value.Default)
	}

	w.WriteLen(len(s.Watches))
	for _, watch := range s.Watches {
		if err := EncodeWatch(w, watch); err != nil {
			return err
		}
	}

	w.WriteLen(len(s.EventHandlers))
	for _, eh := range s.EventHandlers {
		if err := EncodeEventHandler(w, eh); err != nil {
			return err
		}
	}
	return nil
}

func DecodeSceneDef(r *Reader) (SceneDef, error) {
	id, err := r.ReadU32()
	if err != nil {
		return SceneDef{}, err
	}
	ops, err := DecodeOpList(r)
	if err != nil {
		return SceneDef{}, err
	}
	cmds, err := DecodeCommandList(r)
	if err != nil {
		return SceneDef{}, err
	}

	nAttrs, err := r.ReadLen()
	if err != nil {
		return SceneDef{}, err
	}
	attrs := make(map[SceneAttr]OpId, nAttrs)
	for i := 0; i < nAttrs; i++ {
		tag, err := r.ReadU8()
		if err != nil {
			return SceneDef{}, err
		}
		op, err := DecodeOpId(r)
		if err != nil {
			return SceneDef{}, err
		}
		attrs[SceneAttr(tag)] = op
	}

	nVars, err := r.ReadLen()
	if err != nil {
		return SceneDef{}, err
	}
	vars := ordmap.New[string, VariableDecl]()
	for i := 0; i < nVars; i++ {
		key, err := r.ReadString()
		if err != nil {
			return SceneDef{}, err
		}
		val, err := DecodeValue(r)
		if err != nil {
			return SceneDef{}, err
		}
		vars.Add(key, VariableDecl{Default: val})
	}

	nWatches, err := r.ReadLen()
	if err != nil {
		return SceneDef{}, err
	}
	watches := make([]Watch, nWatches)
	for i := range watches {
		watches[i], err = DecodeWatch(r)
		if err != nil {
			return SceneDef{}, err
		}
	}

	nHandlers, err := r.ReadLen()
	if err != nil {
		return SceneDef{}, err
	}
	handlers := make([]EventHandler, nHandlers)
	for i := range handlers {
		handlers[i], err = DecodeEventHandler(r)
		if err != nil {
			return SceneDef{}, err
		}
	}

	return SceneDef{
		ID: SceneID(id), Ops: ops, Commands: cmds, Attrs: attrs,
		Vars: vars, Watches: watches, EventHandlers: handlers,
	}, nil
}

func sortAttrKeys(keys []SceneAttr) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}
