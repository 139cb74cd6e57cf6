package source

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type copyingSink struct {
	data  [][]byte
	flags []video.FrameFlags
}

func (s *copyingSink) SetCaps(video.Info) error { return nil }

func (s *copyingSink) ShowFrame(f *video.Frame) error {
	s.data = append(s.data, append([]byte(nil), f.Data...))
	s.flags = append(s.flags, f.Flags)
	return nil
}

func TestRawReaderSplitsFrames(t *testing.T) {
	info := video.Info{Format: video.FormatRGB, Width: 2, Height: 1, FPSN: 10, FPSD: 1, MultiviewMode: video.ModeFrameByFrame}
	pool, err := bufferpool.New("raw-test", bufferpool.Config{Info: info, MinBuffers: 2})
	require.NoError(t, err)
	defer pool.Close()

	sink := &copyingSink{}
	r := &RawReader{Sink: sink, Pool: pool, Logger: log.New("raw-test")}

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	err = r.Read(context.Background(), bytes.NewReader(data))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, uint64(2), r.Frames())

	require.Len(t, sink.data, 2)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, sink.data[0])
	assert.Equal(t, []byte{7, 8, 9, 10, 11, 12}, sink.data[1])
	assert.True(t, sink.flags[0].Has(video.FlagFirstInBundle))
	assert.False(t, sink.flags[1].Has(video.FlagFirstInBundle))
}

func TestRawReaderShortFrame(t *testing.T) {
	info := video.Info{Format: video.FormatRGBA, Width: 1, Height: 1}
	pool, err := bufferpool.New("raw-short", bufferpool.Config{Info: info, MinBuffers: 1})
	require.NoError(t, err)
	defer pool.Close()

	r := &RawReader{Sink: &copyingSink{}, Pool: pool, Logger: log.New("raw-test")}
	err = r.Read(context.Background(), bytes.NewReader([]byte{1, 2}))
	assert.ErrorContains(t, err, "mid-frame")
	assert.Equal(t, 1, pool.Available(), "frame went back to the pool")
}

// holdingSink keeps every frame it is shown, like a sink whose GL thread
// lags behind.
type holdingSink struct {
	held []*video.Frame
}

func (s *holdingSink) SetCaps(video.Info) error { return nil }

func (s *holdingSink) ShowFrame(f *video.Frame) error {
	s.held = append(s.held, f.Ref())
	return nil
}

func TestRawReaderSkipsWhenPoolIsExhausted(t *testing.T) {
	info := video.Info{Format: video.FormatRGB, Width: 1, Height: 1}
	pool, err := bufferpool.New("raw-skip", bufferpool.Config{Info: info, MinBuffers: 1, MaxBuffers: 1})
	require.NoError(t, err)
	defer pool.Close()

	sink := &holdingSink{}
	r := &RawReader{Sink: sink, Pool: pool, Logger: log.New("raw-test")}
	err = r.Read(context.Background(), bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, uint64(3), r.Frames(), "skipped frames are counted")

	require.Len(t, sink.held, 1)
	assert.Equal(t, []byte{1, 2, 3}, sink.held[0].Data)
	video.Release(sink.held...)
}
