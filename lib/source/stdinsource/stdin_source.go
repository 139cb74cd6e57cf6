// Package stdinsource shows raw frames piped into the process.
package stdinsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/source"
	"github.com/fosdem/vrsink/lib/video"
)

type Config struct {
	Width  int                 `yaml:"width" json:"width"`
	Height int                 `yaml:"height" json:"height"`
	FPS    int                 `yaml:"fps" json:"fps"`
	Format video.Format        `yaml:"format" json:"format"`
	Mode   video.MultiviewMode `yaml:"multiview_mode" json:"multiview_mode"`
}

func (c *Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("stdin source size must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	if c.FPS == 0 {
		c.FPS = 60
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be positive")
	}
	if c.Format == video.FormatUnknown {
		c.Format = video.FormatRGB
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

type StdinSource struct {
	name   string
	cfg    Config
	sink   source.FrameSink
	input  io.Reader
	logger *slog.Logger
	runner source.Runner
	reader source.RawReader
}

func New(name string, cfg Config, sink source.FrameSink) (*StdinSource, error) {
	return NewFromReader(name, cfg, sink, os.Stdin)
}

// NewFromReader reads frames from input instead of stdin.
func NewFromReader(name string, cfg Config, sink source.FrameSink, input io.Reader) (*StdinSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &StdinSource{
		name:   name,
		cfg:    cfg,
		sink:   sink,
		input:  input,
		logger: log.New("stdinsource").With(slog.String("source", name)),
	}
	f.reader.Sink = sink
	f.reader.Logger = f.logger
	f.reader.Pace = true
	return f, nil
}

func (f *StdinSource) Start(ctx context.Context) error {
	return f.runner.Go(ctx, f.run)
}

func (f *StdinSource) Stop() {
	f.runner.Stop()
}

func (f *StdinSource) Done() <-chan struct{} {
	return f.runner.Done()
}

func (f *StdinSource) Err() error {
	return f.runner.Err()
}

func (f *StdinSource) Produced() uint64 {
	return f.reader.Frames()
}

func (f *StdinSource) run(ctx context.Context) error {
	info := f.cfg.Info()
	f.logger.Info(fmt.Sprintf("accepting %s", info))
	if err := f.sink.SetCaps(info); err != nil {
		return fmt.Errorf("could not negotiate %s: %w", info, err)
	}
	pool, err := source.NewPool(f.name, f.sink, info)
	if err != nil {
		return fmt.Errorf("could not create frame pool: %w", err)
	}
	defer pool.Close()

	f.reader.Pool = pool
	if c, ok := f.input.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}
	err = f.reader.Read(ctx, bufio.NewReaderSize(f.input, info.Size()))
	if err == io.EOF {
		f.logger.Info("end of input")
		return nil
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("could not read from stdin: %w", err)
	}
	return nil
}
