// Package gstsource pulls decoded frames out of a GStreamer pipeline
// through an appsink.
package gstsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/source"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const appsinkName = "vrsink_appsink"

var ErrEndOfStream = errors.New("end of stream")

type Config struct {
	// Pipeline is a gst-launch description producing raw video, for
	// example "videotestsrc pattern=ball".
	Pipeline string              `yaml:"pipeline" json:"pipeline"`
	FPS      int                 `yaml:"fps" json:"fps"`
	Mode     video.MultiviewMode `yaml:"multiview_mode" json:"multiview_mode"`
	// Loop restarts the pipeline after end of stream.
	Loop bool `yaml:"loop" json:"loop"`
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Pipeline) == "" {
		return fmt.Errorf("gst source needs a pipeline description")
	}
	if strings.Contains(c.Pipeline, appsinkName) {
		return fmt.Errorf("pipeline must not contain an element named %s", appsinkName)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}

// LaunchLine appends the RGBA conversion and our appsink to the pipeline.
func (c *Config) LaunchLine() string {
	return fmt.Sprintf("%s ! videoconvert ! video/x-raw,format=RGBA ! appsink name=%s sync=true max-buffers=2 drop=true",
		strings.TrimSpace(c.Pipeline), appsinkName)
}

type GstSource struct {
	name   string
	cfg    Config
	sink   source.FrameSink
	logger *slog.Logger
	runner source.Runner

	mu     sync.Mutex
	info   video.Info
	pool   *bufferpool.Pool
	frames uint64
}

var initOnce sync.Once

func New(name string, cfg Config, sink source.FrameSink) (*GstSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	initOnce.Do(func() { gst.Init(nil) })
	return &GstSource{
		name:   name,
		cfg:    cfg,
		sink:   sink,
		logger: log.New("gstsource").With(slog.String("source", name)),
	}, nil
}

func (g *GstSource) Start(ctx context.Context) error {
	return g.runner.Go(ctx, g.run)
}

func (g *GstSource) Stop() {
	g.runner.Stop()
}

func (g *GstSource) Done() <-chan struct{} {
	return g.runner.Done()
}

func (g *GstSource) Err() error {
	return g.runner.Err()
}

func (g *GstSource) Produced() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frames
}

func (g *GstSource) run(ctx context.Context) error {
	defer g.closePool()
	for {
		err := g.runPipeline(ctx)
		if err == nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrEndOfStream) || !g.cfg.Loop {
			return err
		}
		g.logger.Info("restarting pipeline after end of stream")
	}
}

func (g *GstSource) runPipeline(ctx context.Context) error {
	pipeline, err := gst.NewPipelineFromString(g.cfg.LaunchLine())
	if err != nil {
		return fmt.Errorf("could not create pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.SetState(gst.StateNull); err != nil {
			g.logger.Error("could not stop pipeline", slog.Any("err", err))
		}
	}()

	elem, err := pipeline.GetElementByName(appsinkName)
	if err != nil {
		return fmt.Errorf("could not find appsink: %w", err)
	}
	appsink := app.SinkFromElement(elem)
	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: g.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("could not start pipeline: %w", err)
	}
	g.logger.Info("pipeline playing", slog.String("pipeline", g.cfg.Pipeline))

	return g.watchBus(ctx, pipeline)
}

func (g *GstSource) watchBus(ctx context.Context, pipeline *gst.Pipeline) error {
	bus := pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			g.logger.Info("end of stream received")
			return ErrEndOfStream
		case gst.MessageError:
			gerr := msg.ParseError()
			g.logger.Error("pipeline error", slog.String("error", gerr.Error()), slog.String("debug", gerr.DebugString()))
			return fmt.Errorf("pipeline error: %s", gerr.Error())
		case gst.MessageWarning:
			gerr := msg.ParseWarning()
			g.logger.Warn("pipeline warning", slog.String("warning", gerr.Error()))
		}
	}
}

func (g *GstSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowEOS
	}

	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		g.logger.Warn("sample without caps, skipping")
		return gst.FlowOK
	}
	st := caps.GetStructureAt(0)
	w, _ := st.GetValue("width")
	h, _ := st.GetValue("height")
	info, err := g.infoFor(w, h)
	if err != nil {
		g.logger.Error("unusable caps", slog.Any("err", err))
		return gst.FlowError
	}

	pool, err := g.negotiate(info)
	if err != nil {
		g.logger.Error("could not negotiate", slog.Any("err", err))
		return gst.FlowNotNegotiated
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	frame := pool.Acquire()
	if frame == nil {
		g.logger.Debug("no free frame, dropping sample")
		return gst.FlowOK
	}
	defer frame.Unref()

	mapInfo := buffer.Map(gst.MapRead)
	n := copy(frame.Data, mapInfo.Bytes())
	buffer.Unmap()
	if n != len(frame.Data) {
		g.logger.Warn("short buffer", slog.Int("got", n), slog.Int("want", len(frame.Data)))
		return gst.FlowOK
	}

	g.stamp(frame, info)
	if err := g.sink.ShowFrame(frame); err != nil {
		g.logger.Error("sink refused frame", slog.Any("err", err))
		return gst.FlowError
	}
	return gst.FlowOK
}

func (g *GstSource) infoFor(width, height interface{}) (video.Info, error) {
	w, ok := width.(int)
	if !ok {
		return video.Info{}, fmt.Errorf("caps carry no width")
	}
	h, ok := height.(int)
	if !ok {
		return video.Info{}, fmt.Errorf("caps carry no height")
	}
	info := video.Info{
		Format:        video.FormatRGBA,
		Width:         w,
		Height:        h,
		MultiviewMode: g.cfg.Mode,
	}
	if g.cfg.FPS > 0 {
		info.FPSN, info.FPSD = g.cfg.FPS, 1
	}
	return info, info.Validate()
}

// negotiate sets caps on the sink whenever the stream geometry changes.
func (g *GstSource) negotiate(info video.Info) (*bufferpool.Pool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pool != nil && g.info == info {
		return g.pool, nil
	}
	if err := g.sink.SetCaps(info); err != nil {
		return nil, err
	}
	pool, err := source.NewPool(g.name, g.sink, info)
	if err != nil {
		return nil, err
	}
	if g.pool != nil {
		g.pool.Close()
	}
	g.pool = pool
	g.info = info
	return pool, nil
}

func (g *GstSource) stamp(f *video.Frame, info video.Info) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := info.FrameDuration()
	f.ID = g.frames
	f.PTS = time.Duration(g.frames) * d
	f.Duration = d
	g.frames++
}

func (g *GstSource) closePool() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pool != nil {
		g.pool.Close()
		g.pool = nil
	}
}
