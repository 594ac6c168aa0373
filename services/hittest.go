package services

import (
	"assetmap/algorithms"
	"assetmap/models"
	"iter"
)

// DefaultHitThreshold - 논리 좌표 기준 선택 반경 (경계 포함)
const DefaultHitThreshold = 3.0

// HitTester maps a click to the nearest object and updates the selection.
// Main lane only.
type HitTester struct {
	store     *PositionStore
	selection *SelectionState
	threshold float64
}

func NewHitTester(store *PositionStore, selection *SelectionState) *HitTester {
	return &HitTester{store: store, selection: selection, threshold: DefaultHitThreshold}
}

// Click converts a CSS-pixel click on a canvas of the given viewport into
// logical coordinates, selects the nearest object within the threshold and
// clears the selection on a miss.
func (h *HitTester) Click(cssX, cssY float64, vp models.Viewport) (models.TrackedObjectID, bool) {
	backing := algorithms.CSSToBacking(algorithms.Point{X: cssX, Y: cssY},
		vp.CSSWidth, vp.CSSHeight, float64(vp.BackingWidth), float64(vp.BackingHeight))
	t := algorithms.NewPlaneTransform(models.PlaneSide, float64(vp.BackingWidth), float64(vp.BackingHeight))
	return h.SelectAt(t.ToLogical(backing))
}

// SelectAt applies the hit test at a logical point.
func (h *HitTester) SelectAt(p algorithms.Point) (models.TrackedObjectID, bool) {
	id, ok := h.HitLogical(p)
	if !ok {
		h.selection.Clear()
		return 0, false
	}
	h.selection.Select(id)
	return id, true
}

// HitLogical finds the nearest object to p within the threshold without
// touching the selection.
func (h *HitTester) HitLogical(p algorithms.Point) (models.TrackedObjectID, bool) {
	id, dist, ok := algorithms.Nearest(p, h.candidates())
	if !ok || dist > h.threshold {
		return 0, false
	}
	return id, true
}

func (h *HitTester) candidates() iter.Seq2[models.TrackedObjectID, algorithms.Point] {
	return func(yield func(models.TrackedObjectID, algorithms.Point) bool) {
		for rec := range h.store.All() {
			if !yield(rec.ObjectID, algorithms.Point{X: rec.X, Y: rec.Y}) {
				return
			}
		}
	}
}
