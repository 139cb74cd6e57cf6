package sink

import (
	"math/rand"
	"testing"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slotInfo = video.Info{Format: video.FormatRGBA, Width: 2, Height: 2}

func TestSlotLatestWins(t *testing.T) {
	var s slot
	frames := make([]countedFrame, 5)
	for i := range frames {
		frames[i] = newCountedFrame(slotInfo, uint64(i))
		fence := &fakeFence{}
		releaseEntries(s.Publish(frames[i].Frame, nil, fence))

		next, _ := s.PeekNext()
		assert.Same(t, frames[i].Frame, next)
	}

	for i, f := range frames[:4] {
		assert.Equal(t, 1, *f.released, "frame %d", i)
	}
	assert.Equal(t, 0, *frames[4].released)

	releaseEntries(s.Drain()...)
	assert.Equal(t, 1, *frames[4].released)
}

func TestSlotPromote(t *testing.T) {
	var s slot

	ok, retired := s.Promote()
	assert.False(t, ok)
	assert.True(t, retired.empty())
	assert.True(t, s.PeekDisplayed().empty())

	a := newCountedFrame(slotInfo, 1)
	fa := &fakeFence{}
	releaseEntries(s.Publish(a.Frame, nil, fa))
	ok, retired = s.Promote()
	require.True(t, ok)
	retired.release()
	assert.Same(t, a.Frame, s.PeekDisplayed().primary)

	// nothing new: displayed stays
	ok, _ = s.Promote()
	assert.False(t, ok)
	assert.Same(t, a.Frame, s.PeekDisplayed().primary)
	assert.Equal(t, 0, *a.released)

	b := newCountedFrame(slotInfo, 2)
	releaseEntries(s.Publish(b.Frame, nil, nil))
	ok, retired = s.Promote()
	require.True(t, ok)
	assert.Equal(t, 0, *a.released, "previous displayed frame is only released by the caller")
	retired.release()
	assert.Equal(t, 1, *a.released)
	assert.Equal(t, 1, fa.deletes)
}

func TestSlotDrainClears(t *testing.T) {
	var s slot
	a := newCountedFrame(slotInfo, 1)
	b := newCountedFrame(slotInfo, 2)
	releaseEntries(s.Publish(a.Frame, nil, nil))
	s.Promote()
	releaseEntries(s.Publish(b.Frame, nil, nil))

	releaseEntries(s.Drain()...)
	next, _ := s.PeekNext()
	assert.Nil(t, next)
	assert.True(t, s.PeekDisplayed().empty())
	ok, _ := s.Promote()
	assert.False(t, ok)
	assert.Equal(t, 1, *a.released)
	assert.Equal(t, 1, *b.released)
}

// Random interleavings of publish, promote and drain must release every
// frame and fence exactly once.
func TestSlotReleasesEverythingOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := range 200 {
		var s slot
		var frames []countedFrame
		var fences []*fakeFence

		for range 30 {
			switch rng.Intn(4) {
			case 0, 1:
				p := newCountedFrame(slotInfo, uint64(len(frames)))
				frames = append(frames, p)
				var sec *video.Frame
				if rng.Intn(2) == 0 {
					q := newCountedFrame(slotInfo, uint64(len(frames)))
					frames = append(frames, q)
					sec = q.Frame
				}
				f := &fakeFence{}
				fences = append(fences, f)
				releaseEntries(s.Publish(p.Frame, sec, f))
			case 2:
				_, retired := s.Promote()
				retired.release()
			case 3:
				releaseEntries(s.Drain()...)
			}
		}
		releaseEntries(s.Drain()...)

		for i, f := range frames {
			require.Equal(t, 1, *f.released, "round %d frame %d", round, i)
		}
		for i, f := range fences {
			require.Equal(t, 1, f.deletes, "round %d fence %d", round, i)
		}
	}
}
