// Package imgsource shows a still image, optionally reloading it whenever
// the file is rewritten.
package imgsource

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/source"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/jhenstridge/go-inotify"
)

type Config struct {
	Path    string              `yaml:"path" json:"path"`
	FPS     int                 `yaml:"fps" json:"fps"`
	Inotify bool                `yaml:"inotify" json:"inotify"`
	Mode    video.MultiviewMode `yaml:"multiview_mode" json:"multiview_mode"`
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("image source needs a path")
	}
	if c.FPS == 0 {
		c.FPS = 25
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}

type ImgSource struct {
	name   string
	cfg    Config
	sink   source.FrameSink
	logger *slog.Logger
	runner source.Runner

	mu       sync.Mutex
	img      image.Image
	changed  bool
	produced atomic.Uint64
}

func New(name string, cfg Config, sink source.FrameSink) (*ImgSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &ImgSource{
		name:   name,
		cfg:    cfg,
		sink:   sink,
		logger: log.New("imgsource").With(slog.String("source", name)),
	}
	if err := s.LoadImage(cfg.Path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ImgSource) LoadImage(path string) error {
	s.logger.Info(fmt.Sprintf("Loading %s", path))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}
	s.SetImage(img)
	return nil
}

// SetImage replaces the image shown from the next frame on.
func (s *ImgSource) SetImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.changed = true
}

func (s *ImgSource) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img
}

func (s *ImgSource) Start(ctx context.Context) error {
	return s.runner.Go(ctx, s.run)
}

func (s *ImgSource) Stop() {
	s.runner.Stop()
}

func (s *ImgSource) Done() <-chan struct{} {
	return s.runner.Done()
}

func (s *ImgSource) Err() error {
	return s.runner.Err()
}

func (s *ImgSource) Produced() uint64 {
	return s.produced.Load()
}

func (s *ImgSource) watch(ctx context.Context) {
	watcher, err := inotify.NewWatcher()
	if err != nil {
		s.logger.Error("Could not create inotify watcher", slog.Any("err", err))
		return
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			s.logger.Debug("Could not close inotify watcher", slog.Any("err", err))
		}
	}()

	_, err = watcher.Watch(s.cfg.Path)
	if err != nil {
		s.logger.Error("Could not start inotify watcher", slog.Any("err", err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Event:
			if !ok {
				return
			}
			if ev.Mask&inotify.IN_CLOSE_WRITE == 0 {
				continue
			}
			s.logger.Debug("Reloading image due to inotify event")
			time.Sleep(100 * time.Millisecond)
			if err := s.LoadImage(s.cfg.Path); err != nil {
				s.logger.Error("Error loading image", slog.Any("err", err))
			}
		}
	}
}

func (s *ImgSource) infoFor(img image.Image) video.Info {
	return video.Info{
		Format:        video.FormatRGBA,
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		FPSN:          s.cfg.FPS,
		FPSD:          1,
		MultiviewMode: s.cfg.Mode,
	}
}

// current returns the image and whether it changed since the last call.
func (s *ImgSource) current() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.changed
	s.changed = false
	return s.img, changed
}

func (s *ImgSource) run(ctx context.Context) error {
	if s.cfg.Inotify {
		go s.watch(ctx)
	}

	var (
		pool *bufferpool.Pool
		info video.Info
		n    uint64
	)
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.FPS))
	defer ticker.Stop()

	for {
		img, changed := s.current()
		if changed {
			next := s.infoFor(img)
			if pool == nil || next != info {
				if err := s.sink.SetCaps(next); err != nil {
					return fmt.Errorf("could not negotiate %s: %w", next, err)
				}
				if pool != nil {
					pool.Close()
				}
				var err error
				pool, err = source.NewPool(s.name, s.sink, next)
				if err != nil {
					return fmt.Errorf("could not create frame pool: %w", err)
				}
				info = next
			}
		}

		if f := pool.Acquire(); f != nil {
			if err := s.show(f, img, n, info.FrameDuration()); err != nil {
				return err
			}
		}
		n++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *ImgSource) show(f *video.Frame, img image.Image, n uint64, duration time.Duration) error {
	defer f.Unref()
	if err := video.FrameFromImage(img, f); err != nil {
		s.logger.Error("Decode error", slog.Any("err", err))
		return nil
	}
	f.ID = n
	f.PTS = time.Duration(n) * duration
	f.Duration = duration
	if err := s.sink.ShowFrame(f); err != nil {
		return fmt.Errorf("%w: %w", source.ErrSinkRefused, err)
	}
	s.produced.Add(1)
	return nil
}
