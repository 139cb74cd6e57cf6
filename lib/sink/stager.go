package sink

import (
	"github.com/fosdem/vrsink/lib/video"
)

// stager keeps the latest input: one frame, or the two halves of a
// frame-by-frame stereo bundle. Callers hold the sink lock.
type stager struct {
	primary   *video.Frame
	secondary *video.Frame
}

// Submit takes ownership of f and returns the frames it replaced or
// dropped, which the caller releases outside the lock.
//
// In frame-by-frame mode a frame flagged first-in-bundle starts a new
// bundle and drops whatever was staged. The next unflagged frame completes
// it; further unflagged frames, or one with no bundle started, are dropped
// so a pair never mixes two bundles.
func (st *stager) Submit(f *video.Frame, frameByFrame bool) []*video.Frame {
	if frameByFrame && !f.Flags.Has(video.FlagFirstInBundle) {
		if st.primary == nil || st.secondary != nil {
			return []*video.Frame{f}
		}
		st.secondary = f
		return nil
	}

	old := []*video.Frame{st.primary, st.secondary}
	st.primary = f
	st.secondary = nil
	return old
}

// CurrentPair returns the staged frames without taking references. ok is
// false while a frame-by-frame pair is incomplete.
func (st *stager) CurrentPair(frameByFrame bool) (primary, secondary *video.Frame, ok bool) {
	if st.primary == nil {
		return nil, nil, false
	}
	if frameByFrame {
		if st.secondary == nil {
			return nil, nil, false
		}
		return st.primary, st.secondary, true
	}
	return st.primary, nil, true
}

func (st *stager) HasInput() bool {
	return st.primary != nil
}

func (st *stager) Drain() []*video.Frame {
	old := []*video.Frame{st.primary, st.secondary}
	st.primary = nil
	st.secondary = nil
	return old
}
