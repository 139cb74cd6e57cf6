package stats

import (
	"sync"
	"time"

	"github.com/fosdem/vrsink/lib/rendering"
)

// Snapshot is what the API serves and pushes to websocket clients.
type Snapshot struct {
	TextureUpload      uint64  `json:"texture_upload"`
	TextureUploadAvgGb float64 `json:"texture_upload_avg_gb"`
	Uptime             float64 `json:"uptime"`
	FPS                uint64  `json:"fps"`
	Presented          uint64  `json:"presented"`
	SourceFrames       uint64  `json:"source_frames"`
	WsClients          int     `json:"ws_clients"`
}

type Stats struct {
	presented func() uint64
	produced  func() uint64
	uploaded  func() uint64

	mu        sync.Mutex
	snap      Snapshot
	lastCount uint64
	lastTick  time.Time
	start     time.Time
}

// New tracks a sink through its presented frame counter. produced may be
// nil when the source does not count its frames.
func New(presented, produced func() uint64) *Stats {
	now := time.Now()
	return &Stats{
		presented: presented,
		produced:  produced,
		uploaded:  rendering.TextureUploadCounter.Load,
		start:     now,
		lastTick:  now,
	}
}

// Update refreshes the snapshot; FPS is averaged over at least a second.
func (s *Stats) Update() {
	s.update(time.Now())
}

func (s *Stats) update(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.presented()
	if elapsed := now.Sub(s.lastTick); elapsed >= time.Second {
		s.snap.FPS = uint64(float64(count-s.lastCount) / elapsed.Seconds())
		s.lastCount = count
		s.lastTick = now
	}
	s.snap.Presented = count
	if s.produced != nil {
		s.snap.SourceFrames = s.produced()
	}

	s.snap.Uptime = now.Sub(s.start).Seconds()
	s.snap.TextureUpload = s.uploaded()
	if s.snap.Uptime > 0 {
		s.snap.TextureUploadAvgGb = float64(s.snap.TextureUpload) / (s.snap.Uptime * 1024 * 1024 * 1024)
	}
}

func (s *Stats) SetWsClients(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.WsClients = n
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
