package stdinsource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	info   video.Info
	frames [][]byte
	err    error
}

func (r *recordingSink) SetCaps(info video.Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = info
	return nil
}

func (r *recordingSink) ShowFrame(f *video.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, append([]byte(nil), f.Data...))
	return nil
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Width: 4, Height: 2}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, video.FormatRGB, cfg.Format)
	assert.Equal(t, 24, cfg.Info().Size())

	cfg = Config{}
	assert.Error(t, cfg.Validate())
	cfg = Config{Width: 1, Height: 1, FPS: -1}
	assert.Error(t, cfg.Validate())
}

func TestReadsUntilEndOfInput(t *testing.T) {
	sink := &recordingSink{}
	input := bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
	src, err := NewFromReader("test", Config{Width: 1, Height: 1, FPS: 200}, sink, input)
	require.NoError(t, err)

	require.NoError(t, src.Start(context.Background()))
	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop at end of input")
	}
	require.NoError(t, src.Err())

	assert.Equal(t, video.FormatRGB, sink.info.Format)
	assert.Equal(t, [][]byte{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, sink.frames)
	assert.Equal(t, uint64(3), src.Produced())
}

func TestStopsWhenSinkRefuses(t *testing.T) {
	sink := &recordingSink{err: errors.New("window closed")}
	input := bytes.NewReader(make([]byte, 64))
	src, err := NewFromReader("test", Config{Width: 1, Height: 1, FPS: 200, Format: video.FormatRGBA}, sink, input)
	require.NoError(t, err)

	require.NoError(t, src.Start(context.Background()))
	<-src.Done()
	assert.ErrorContains(t, src.Err(), "window closed")
}

func TestStopInterruptsBlockedRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	sink := &recordingSink{}
	src, err := NewFromReader("test", Config{Width: 1, Height: 1, FPS: 200}, sink, pr)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	_, err = pw.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return src.Produced() == 1 }, 5*time.Second, 5*time.Millisecond)

	src.Stop()
	assert.NoError(t, src.Err())
	assert.Len(t, sink.frames, 1)
}
