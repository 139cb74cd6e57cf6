package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	caps   []video.Info
	shown  []*video.Frame
	err    error
	allocs int
}

func (s *recordingSink) SetCaps(info video.Info) error {
	s.caps = append(s.caps, info)
	return s.err
}

func (s *recordingSink) ShowFrame(f *video.Frame) error {
	s.shown = append(s.shown, f)
	return s.err
}

type allocSink struct {
	recordingSink
}

func (s *allocSink) ProposeAllocation(info video.Info, needPool bool) (*bufferpool.Proposal, error) {
	s.allocs++
	return bufferpool.NewProposal("test", info, needPool, true)
}

// invert copies the frame and inverts it
type invert struct {
	failOn uint64
}

func (invert) Name() string { return "invert" }

func (invert) SetCaps(info video.Info) (video.Info, error) {
	if info.Format != video.FormatRGBA {
		return video.Info{}, errors.New("rgba only")
	}
	return info, nil
}

func (i invert) Process(f *video.Frame) (*video.Frame, error) {
	if f.ID == i.failOn {
		return nil, errors.New("refusing")
	}
	out := video.Alloc(f.Info)
	out.ID = f.ID
	for j, b := range f.Data {
		out.Data[j] = 255 - b
	}
	return out, nil
}

var rgba = video.Info{Format: video.FormatRGBA, Width: 2, Height: 2}

func TestPipelineFilters(t *testing.T) {
	sink := &recordingSink{}
	p := NewPipeline(sink, invert{failOn: 99}, invert{failOn: 99})
	assert.NotEmpty(t, p.ID)

	require.NoError(t, p.SetCaps(rgba))
	assert.Equal(t, []video.Info{rgba}, sink.caps)
	assert.Error(t, p.SetCaps(video.Info{Format: video.FormatRGB, Width: 2, Height: 2}))

	f := video.Alloc(rgba)
	f.ID = 1
	f.Data[0] = 10
	require.NoError(t, p.ShowFrame(f))
	require.Len(t, sink.shown, 1)
	shown := sink.shown[0]
	assert.NotSame(t, f, shown)
	assert.EqualValues(t, 10, shown.Data[0], "inverted twice")
	assert.EqualValues(t, 0, shown.RefCount(), "pipeline drops the frames it made")
	assert.EqualValues(t, 1, f.RefCount())

	bad := video.Alloc(rgba)
	bad.ID = 99
	assert.Error(t, p.ShowFrame(bad))
	assert.Len(t, sink.shown, 1)
}

func TestPipelineWithoutFilters(t *testing.T) {
	sink := &recordingSink{}
	p := NewPipeline(sink)
	require.NoError(t, p.SetCaps(rgba))

	f := video.Alloc(rgba)
	require.NoError(t, p.ShowFrame(f))
	assert.Same(t, f, sink.shown[0])
	assert.EqualValues(t, 1, f.RefCount())

	sink.err = errors.New("closed")
	assert.ErrorIs(t, p.ShowFrame(f), sink.err)
}

func TestNewPoolAsksSink(t *testing.T) {
	sink := &allocSink{}
	pool, err := NewPool("t", sink, rgba)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.allocs)
	assert.Equal(t, rgba, pool.Info())

	// through a pipeline with a filter the sink is not asked
	p := NewPipeline(sink, invert{})
	pool, err = NewPool("t", p, rgba)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.allocs)
	assert.NotNil(t, pool)

	pool, err = NewPool("t", NewPipeline(sink), rgba)
	require.NoError(t, err)
	assert.Equal(t, 2, sink.allocs)
	assert.NotNil(t, pool)

	pool, err = NewPool("t", &recordingSink{}, rgba)
	require.NoError(t, err)
	assert.NotNil(t, pool)
}

func TestRunner(t *testing.T) {
	var r Runner
	assert.Nil(t, r.Done())
	r.Stop()

	started := make(chan struct{})
	require.NoError(t, r.Go(context.Background(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started
	assert.ErrorIs(t, r.Go(context.Background(), func(context.Context) error { return nil }), ErrAlreadyRunning)

	r.Stop()
	select {
	case <-r.Done():
	default:
		t.Fatal("runner still running after Stop")
	}
	assert.NoError(t, r.Err())

	boom := errors.New("boom")
	require.NoError(t, r.Go(context.Background(), func(context.Context) error { return boom }))
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("runner did not finish")
	}
	assert.ErrorIs(t, r.Err(), boom)
}
