package services

import "assetmap/models"

// SelectionState - 현재 선택된 객체 (없을 수 있음). 메인 레인 전용
type SelectionState struct {
	id        models.TrackedObjectID
	ok        bool
	listeners []func(id models.TrackedObjectID, ok bool)
}

func NewSelectionState() *SelectionState {
	return &SelectionState{}
}

// Selected returns the selected id; ok is false when nothing is selected.
func (s *SelectionState) Selected() (models.TrackedObjectID, bool) {
	return s.id, s.ok
}

func (s *SelectionState) Select(id models.TrackedObjectID) {
	if s.ok && s.id == id {
		return
	}
	s.id, s.ok = id, true
	s.notify()
}

// Clear - 선택 해제
func (s *SelectionState) Clear() {
	if !s.ok {
		return
	}
	s.id, s.ok = 0, false
	s.notify()
}

// OnChange registers a listener for selection changes. Listeners must not
// trigger a repaint.
func (s *SelectionState) OnChange(fn func(id models.TrackedObjectID, ok bool)) {
	s.listeners = append(s.listeners, fn)
}

func (s *SelectionState) notify() {
	for _, fn := range s.listeners {
		fn(s.id, s.ok)
	}
}
