// Package ffmpegsource reads raw RGBA frames from the stdout of a shell
// command, usually ffmpeg, and restarts the command when it exits.
package ffmpegsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/source"
	"github.com/fosdem/vrsink/lib/video"
	"golang.org/x/sys/unix"
)

type Config struct {
	Cmd    string              `yaml:"cmd" json:"cmd"`
	Width  int                 `yaml:"width" json:"width"`
	Height int                 `yaml:"height" json:"height"`
	FPS    int                 `yaml:"fps" json:"fps"`
	Mode   video.MultiviewMode `yaml:"multiview_mode" json:"multiview_mode"`
}

func (c *Config) Validate() error {
	if c.Cmd == "" {
		return fmt.Errorf("ffmpeg source needs a command")
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("ffmpeg source size must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}

func (c *Config) Info() video.Info {
	return video.Info{
		Format:        video.FormatRGBA,
		Width:         c.Width,
		Height:        c.Height,
		FPSN:          c.FPS,
		FPSD:          1,
		MultiviewMode: c.Mode,
	}
}

type FFmpegSource struct {
	name   string
	cfg    Config
	sink   source.FrameSink
	logger *slog.Logger
	runner source.Runner

	restartDelay time.Duration
	reader       source.RawReader
}

func New(name string, cfg Config, sink source.FrameSink) (*FFmpegSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &FFmpegSource{
		name:         name,
		cfg:          cfg,
		sink:         sink,
		logger:       log.New("ffmpegsource").With(slog.String("source", name)),
		restartDelay: time.Second,
	}
	f.reader.Sink = sink
	f.reader.Logger = f.logger
	return f, nil
}

func (f *FFmpegSource) Start(ctx context.Context) error {
	return f.runner.Go(ctx, f.run)
}

func (f *FFmpegSource) Stop() {
	f.runner.Stop()
}

func (f *FFmpegSource) Done() <-chan struct{} {
	return f.runner.Done()
}

func (f *FFmpegSource) Err() error {
	return f.runner.Err()
}

func (f *FFmpegSource) Produced() uint64 {
	return f.reader.Frames()
}

func (f *FFmpegSource) run(ctx context.Context) error {
	info := f.cfg.Info()
	if err := f.sink.SetCaps(info); err != nil {
		return fmt.Errorf("could not negotiate %s: %w", info, err)
	}
	pool, err := source.NewPool(f.name, f.sink, info)
	if err != nil {
		return fmt.Errorf("could not create frame pool: %w", err)
	}
	defer pool.Close()
	f.reader.Pool = pool

	for {
		f.logger.Info("starting ffmpeg")
		err := f.runOnce(ctx)
		if errors.Is(err, source.ErrSinkRefused) {
			return err
		}
		if err != nil {
			f.logger.Error("ffmpeg error", slog.Any("err", err))
		}
		f.logger.Info("ffmpeg died")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.restartDelay):
		}
	}
}

func (f *FFmpegSource) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "bash", "-c", f.cfg.Cmd)
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: unix.SIGTERM}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("could not get ffmpeg stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("could not get ffmpeg stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start ffmpeg: %w", err)
	}

	// children of the shell may keep the pipe open after it was killed
	stop := context.AfterFunc(ctx, func() { stdout.Close() })
	defer stop()

	go f.processStderr(stderr)
	readErr := f.reader.Read(ctx, stdout)
	waitErr := cmd.Wait()
	if readErr != nil && readErr != io.EOF {
		return readErr
	}
	return waitErr
}

func (f *FFmpegSource) processStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		f.logger.Debug(fmt.Sprintf("[ffmpeg] %s", scanner.Text()))
	}
}
