package sink

import (
	"github.com/fosdem/vrsink/lib/gpu"
	"github.com/fosdem/vrsink/lib/video"
)

type slotEntry struct {
	primary   *video.Frame
	secondary *video.Frame
	fence     gpu.Fence
}

func (e slotEntry) empty() bool {
	return e.primary == nil
}

func (e slotEntry) release() {
	video.Release(e.primary, e.secondary)
	if e.fence != nil {
		e.fence.Delete()
	}
}

// slot is the depth-one handoff between the producer and the draw thread.
// next holds the newest ready output; displayed is what the draw thread
// shows and keeps a reference to until the next promotion.
//
// The slot does no locking and never releases anything itself: entries
// pushed out are returned so the caller can release them after dropping
// the sink lock.
type slot struct {
	next      slotEntry
	displayed slotEntry
}

// Publish stores the payload as next, taking over the caller's references.
func (s *slot) Publish(primary, secondary *video.Frame, fence gpu.Fence) (retired slotEntry) {
	retired = s.next
	s.next = slotEntry{primary: primary, secondary: secondary, fence: fence}
	return retired
}

// Promote moves next to displayed. It reports false and changes nothing
// when there is no new frame.
func (s *slot) Promote() (bool, slotEntry) {
	if s.next.empty() {
		return false, slotEntry{}
	}
	retired := s.displayed
	s.displayed = s.next
	s.next = slotEntry{}
	return true, retired
}

func (s *slot) PeekNext() (primary, secondary *video.Frame) {
	return s.next.primary, s.next.secondary
}

func (s *slot) PeekDisplayed() slotEntry {
	return s.displayed
}

func (s *slot) Drain() []slotEntry {
	retired := []slotEntry{s.next, s.displayed}
	s.next = slotEntry{}
	s.displayed = slotEntry{}
	return retired
}

func releaseEntries(entries ...slotEntry) {
	for _, e := range entries {
		e.release()
	}
}
