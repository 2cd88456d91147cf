package protocol

// SceneID identifies a scene. Zero is the reserved "local" scope for op
// lists not attached to a scene: handler-block ops and run-block ops.
type SceneID uint32

// LocalScene is the reserved scene id 0.
const LocalScene SceneID = 0

// WindowID identifies a renderer-side window. Zero is reserved.
type WindowID uint32

// Read-only variables injected by the runtime per evaluation. The leading
// colon keeps them out of the app-declarable key space, so a SetVar on one
// of these always fails the UnknownVar check.
const (
	VarWidth              = ":width"
	VarHeight             = ":height"
	VarClickX             = ":click_x"
	VarClickY             = ":click_y"
	VarClickBtn           = ":click_btn"
	VarWindowID           = ":window_id"
	VarWindowTitle        = ":window_title"
	VarWindowInitialSizeX = ":window_initial_size_x"
	VarWindowInitialSizeY = ":window_initial_size_y"
)

// OpId is (scene_id, idx): when scene_id == 0 idx indexes into the current
// op list being evaluated (context-local); otherwise it indexes into that
// scene's last-evaluated result vector (cross-scene, read-only).
type OpId struct {
	Scene SceneID
	Idx   uint32
}

func EncodeOpId(w *Writer, id OpId) {
	w.WriteU32(uint32(id.Scene))
	w.WriteU32(id.Idx)
}

func DecodeOpId(r *Reader) (OpId, error) {
	scene, err := r.ReadU32()
	if err != nil {
		return OpId{}, err
	}
	idx, err := r.ReadU32()
	if err != nil {
		return OpId{}, err
	}
	return OpId{Scene: SceneID(scene), Idx: idx}, nil
}
