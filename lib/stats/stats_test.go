package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFPSAveragesOverASecond(t *testing.T) {
	var presented uint64
	s := New(func() uint64 { return presented }, func() uint64 { return 7 })
	s.uploaded = func() uint64 { return 1024 * 1024 * 1024 }
	start := s.start

	presented = 10
	s.update(start.Add(500 * time.Millisecond))
	assert.Equal(t, uint64(0), s.Snapshot().FPS, "not a full second yet")
	assert.Equal(t, uint64(10), s.Snapshot().Presented)

	presented = 60
	s.update(start.Add(2 * time.Second))
	snap := s.Snapshot()
	assert.Equal(t, uint64(30), snap.FPS)
	assert.Equal(t, uint64(7), snap.SourceFrames)
	assert.InDelta(t, 2.0, snap.Uptime, 1e-9)
	assert.InDelta(t, 0.5, snap.TextureUploadAvgGb, 1e-9)
}

func TestWsClients(t *testing.T) {
	s := New(func() uint64 { return 0 }, nil)
	s.SetWsClients(3)
	s.Update()
	assert.Equal(t, 3, s.Snapshot().WsClients)
	assert.Equal(t, uint64(0), s.Snapshot().SourceFrames)
}
