// Package testsrc paints test patterns on the CPU and feeds them to a sink
// at a fixed frame rate.
package testsrc

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/source"
	"github.com/fosdem/vrsink/lib/video"
)

type Config struct {
	Pattern Pattern             `yaml:"pattern" json:"pattern"`
	Width   int                 `yaml:"width" json:"width"`
	Height  int                 `yaml:"height" json:"height"`
	FPS     int                 `yaml:"fps" json:"fps"`
	Format  video.Format        `yaml:"format" json:"format"`
	Mode    video.MultiviewMode `yaml:"multiview_mode" json:"multiview_mode"`
	// Frames stops the source after this many frames; 0 runs forever.
	Frames uint64 `yaml:"frames" json:"frames"`
}

func (c *Config) Validate() error {
	if c.Width == 0 {
		c.Width = 320
	}
	if c.Height == 0 {
		c.Height = 240
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
	if c.Format == video.FormatUnknown {
		c.Format = video.FormatRGBA
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be positive")
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("test source size must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	if c.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("unsupported test source format %s", c.Format)
	}
	return nil
}

func (c *Config) Info() video.Info {
	return video.Info{
		Format:        c.Format,
		Width:         c.Width,
		Height:        c.Height,
		FPSN:          c.FPS,
		FPSD:          1,
		MultiviewMode: c.Mode,
	}
}

type Source struct {
	name   string
	cfg    Config
	sink   source.FrameSink
	logger *slog.Logger
	runner source.Runner
	rng    *rand.Rand

	produced atomic.Uint64
	dropped  atomic.Uint64
}

func New(name string, cfg Config, sink source.FrameSink) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		name:   name,
		cfg:    cfg,
		sink:   sink,
		logger: log.New("testsrc").With(slog.String("source", name)),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}, nil
}

func (s *Source) Start(ctx context.Context) error {
	return s.runner.Go(ctx, s.run)
}

func (s *Source) Stop() {
	s.runner.Stop()
}

// Done is closed once the source stops on its own or was stopped.
func (s *Source) Done() <-chan struct{} {
	return s.runner.Done()
}

func (s *Source) Err() error {
	return s.runner.Err()
}

func (s *Source) Produced() uint64 {
	return s.produced.Load()
}

func (s *Source) run(ctx context.Context) error {
	info := s.cfg.Info()
	if err := s.sink.SetCaps(info); err != nil {
		return fmt.Errorf("could not negotiate %s: %w", info, err)
	}

	pool, err := source.NewPool(s.name, s.sink, info)
	if err != nil {
		return fmt.Errorf("could not create frame pool: %w", err)
	}
	defer pool.Close()

	duration := info.FrameDuration()
	ticker := time.NewTicker(duration)
	defer ticker.Stop()

	s.logger.Info(fmt.Sprintf("painting %s at %s", s.cfg.Pattern, info))

	var n uint64
	for {
		if s.cfg.Frames > 0 && n >= s.cfg.Frames {
			s.logger.Info("reached frame limit", slog.Uint64("frames", n))
			return nil
		}

		f := pool.Acquire()
		if f == nil {
			s.dropped.Add(1)
			s.logger.Debug("no free frame, dropping", slog.Uint64("frame", n))
		} else {
			s.paint(f, n, duration)
			err := s.sink.ShowFrame(f)
			f.Unref()
			if err != nil {
				return fmt.Errorf("sink refused frame %d: %w", n, err)
			}
			s.produced.Add(1)
		}
		n++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Source) paint(f *video.Frame, n uint64, duration time.Duration) {
	Paint(s.cfg.Pattern, f, n, s.rng)
	f.ID = n
	f.PTS = time.Duration(n) * duration
	f.Duration = duration
	f.Flags = 0
	f.View = video.ViewMono

	if s.cfg.Mode == video.ModeFrameByFrame {
		if n%2 == 0 {
			f.Flags |= video.FlagFirstInBundle
			f.View = video.ViewFirst
		} else {
			f.View = video.ViewSecond
		}
	}
}
