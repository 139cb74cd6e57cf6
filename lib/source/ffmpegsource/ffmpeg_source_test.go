package ffmpegsource

import (
	"context"
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
	pts    []time.Duration
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
	r.frames = append(r.frames, append([]byte(nil), f.Data...))
	r.pts = append(r.pts, f.PTS)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Width: 2, Height: 2}
	assert.Error(t, cfg.Validate(), "missing command")

	cfg = Config{Cmd: "true"}
	assert.Error(t, cfg.Validate(), "missing size")

	cfg = Config{Cmd: "true", Width: 2, Height: 2, FPS: 25}
	assert.NoError(t, cfg.Validate())
}

func TestReadsFramesFromStdout(t *testing.T) {
	sink := &recordingSink{}
	// two 2x1 RGBA frames
	src, err := New("ff", Config{
		Cmd:    `printf '\x01\x02\x03\x04\x05\x06\x07\x08\x11\x12\x13\x14\x15\x16\x17\x18'; sleep 10`,
		Width:  2,
		Height: 1,
		FPS:    10,
	}, sink)
	require.NoError(t, err)

	require.NoError(t, src.Start(context.Background()))
	require.Eventually(t, func() bool { return sink.count() == 2 }, 5*time.Second, 10*time.Millisecond)
	src.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 2, sink.info.Width)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, sink.frames[0])
	assert.Equal(t, []byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}, sink.frames[1])
	assert.Equal(t, 100*time.Millisecond, sink.pts[1])
}

func TestRestartsCommand(t *testing.T) {
	sink := &recordingSink{}
	src, err := New("ff", Config{Cmd: `printf 'abcd'`, Width: 1, Height: 1}, sink)
	require.NoError(t, err)
	src.restartDelay = 10 * time.Millisecond

	require.NoError(t, src.Start(context.Background()))
	require.Eventually(t, func() bool { return sink.count() >= 3 }, 5*time.Second, 10*time.Millisecond)
	src.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []byte("abcd"), sink.frames[0])
}
