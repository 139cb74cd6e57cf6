// Package player wires a configured source, the filters and the sink into
// one running window.
package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fosdem/vrsink/lib/api"
	"github.com/fosdem/vrsink/lib/config"
	"github.com/fosdem/vrsink/lib/filters/channelextract"
	"github.com/fosdem/vrsink/lib/filters/transformation"
	"github.com/fosdem/vrsink/lib/glthread"
	"github.com/fosdem/vrsink/lib/gpu"
	"github.com/fosdem/vrsink/lib/kbdctl"
	"github.com/fosdem/vrsink/lib/rendering"
	"github.com/fosdem/vrsink/lib/sink"
	"github.com/fosdem/vrsink/lib/source"
	"github.com/fosdem/vrsink/lib/source/ffmpegsource"
	"github.com/fosdem/vrsink/lib/source/gstsource"
	"github.com/fosdem/vrsink/lib/source/imgsource"
	"github.com/fosdem/vrsink/lib/source/stdinsource"
	"github.com/fosdem/vrsink/lib/stats"
	"github.com/fosdem/vrsink/lib/testsrc"
	"github.com/fosdem/vrsink/lib/window"
)

// Source is what every configured source type provides.
type Source interface {
	source.Source
	Done() <-chan struct{}
	Err() error
	Produced() uint64
}

// NewSource builds the source described by cfg, delivering into sink.
func NewSource(cfg *config.SourceCfg, sink source.FrameSink) (Source, error) {
	name := cfg.Type
	switch c := cfg.Cfg.(type) {
	case *testsrc.Config:
		return testsrc.New(name, *c, sink)
	case *gstsource.Config:
		return gstsource.New(name, *c, sink)
	case *imgsource.Config:
		return imgsource.New(name, *c, sink)
	case *ffmpegsource.Config:
		return ffmpegsource.New(name, *c, sink)
	case *stdinsource.Config:
		return stdinsource.New(name, *c, sink)
	}
	return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
}

// BuildFilters splits the configured filters into the CPU filters that go
// into the pipeline and the transformation, which draws through the sink's
// client hooks. drawer is nil without a transformation.
func BuildFilters(cfgs []*config.FilterCfg) (drawer *transformation.Drawer, cpu []source.Filter, err error) {
	for _, f := range cfgs {
		switch c := f.Cfg.(type) {
		case *config.TransformationCfg:
			drawer, err = transformation.New("transformation", c.Params)
			if err != nil {
				return nil, nil, err
			}
		case *config.ChannelExtractCfg:
			flt, err := channelextract.New(c.Channel)
			if err != nil {
				return nil, nil, err
			}
			cpu = append(cpu, flt)
		default:
			return nil, nil, fmt.Errorf("unknown filter type: %s", f.Type)
		}
	}
	return drawer, cpu, nil
}

// Reload applies the runtime adjustable parts of cfg.
func Reload(cfg *config.Config, snk kbdctl.Target, drawer *transformation.Drawer) error {
	var errs []error
	if err := snk.SetProperties(cfg.Sink.Properties()); err != nil {
		errs = append(errs, fmt.Errorf("sink: %w", err))
	}
	if drawer != nil {
		for _, f := range cfg.Filters {
			if t, ok := f.Cfg.(*config.TransformationCfg); ok {
				if err := drawer.SetParams(t.Params); err != nil {
					errs = append(errs, fmt.Errorf("transformation: %w", err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

var pollInterval = 250 * time.Millisecond

// Run plays cfg until ctx is done, the window is closed or the source
// gives up. The GL thread must be running queue.
func Run(ctx context.Context, cfg *config.Config, cfgPath string, queue *glthread.Queue) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	win, err := window.NewGLFWWindow(queue, window.GLFWConfig{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Resizable:  true,
		Fullscreen: cfg.Window.Fullscreen,
	})
	if err != nil {
		return fmt.Errorf("could not open window: %w", err)
	}
	defer win.Close()

	drawer, filters, err := BuildFilters(cfg.Filters)
	if err != nil {
		return err
	}

	props := cfg.Sink.Properties()
	var onKey func(window.KeyEvent)
	snk, err := sink.New(sink.Options{
		Name:       cfg.Sink.Name,
		Window:     win,
		Context:    gpu.NewGLContext(queue, win),
		Renderer:   rendering.NewBlitter(cfg.Sink.Name),
		Properties: &props,
		OnKey: func(ev window.KeyEvent) {
			onKey(ev)
		},
	})
	if err != nil {
		return fmt.Errorf("could not build sink: %w", err)
	}
	// keys only arrive once the first frame has set up the sink
	onKey = kbdctl.KeyHandler(snk, cancel)

	if drawer != nil {
		snk.SetClientDraw(drawer.Draw)
		snk.SetClientReshape(drawer.Reshape)
		defer func() {
			if err := win.Send(drawer.Cleanup); err != nil {
				log.Printf("could not clean up transformation: %s", err)
			}
		}()
	}
	defer snk.Teardown()

	src, err := NewSource(cfg.Source, source.NewPipeline(snk, filters...))
	if err != nil {
		return fmt.Errorf("could not build source: %w", err)
	}

	st := stats.New(snk.Presented, src.Produced)
	a := api.ServeInBackground(cfg.Api, snk, st, func(a *api.Api) {
		a.OnKill = cancel
		if img, ok := src.(*imgsource.ImgSource); ok {
			a.ImageSource = img
		}
	})
	if a != nil {
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			_ = a.Shutdown(shutdownCtx)
		}()
	}

	if cfgPath != "" {
		err := config.Watch(ctx, cfgPath, func(next *config.Config) {
			if err := Reload(next, snk, drawer); err != nil {
				log.Printf("could not apply new config: %s", err)
				return
			}
			log.Printf("applied new config from %s", cfgPath)
		})
		if err != nil {
			log.Printf("not watching config: %s", err)
		}
	}

	if err := src.Start(ctx); err != nil {
		return err
	}
	defer src.Stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-src.Done():
			err := src.Err()
			if errors.Is(err, sink.ErrWindowClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			st.Update()
			if !win.IsRunning() {
				return nil
			}
		}
	}
}
