package sink

import (
	"fmt"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/fosdem/vrsink/lib/viewconvert"
	"github.com/fosdem/vrsink/lib/window"
)

type State int

const (
	Unconfigured State = iota
	Configured
	Presenting
	Draining
	TornDown
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Presenting:
		return "presenting"
	case Draining:
		return "draining"
	case TornDown:
		return "torn-down"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s *Sink) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ensureContext activates the GPU context and hooks the sink up to the
// window, once per setup cycle.
func (s *Sink) ensureContext() error {
	s.mu.Lock()
	if s.ctxActive {
		s.mu.Unlock()
		return nil
	}
	ctx := s.ctx
	props := s.props
	s.mu.Unlock()

	if ctx == nil {
		return ErrNoContext
	}
	if err := ctx.Activate(); err != nil {
		return fmt.Errorf("%w: %w", ErrNoContext, err)
	}

	if props.WindowHandle != 0 {
		s.win.SetSurfaceHandle(props.WindowHandle)
	}
	s.win.HandleEvents(props.HandleEvents)
	s.win.SetCallbacks(s.callbacks())
	s.drawQueued.Store(false)
	if props.RenderRect != nil {
		if err := s.applyRenderRect(props.RenderRect); err != nil {
			s.logger.Warn(fmt.Sprintf("ignoring render rectangle: %s", err))
		}
	}

	major, minor := ctx.APIVersion()
	s.logger.Debug(fmt.Sprintf("using GL %d.%d context, fence sync %t", major, minor, ctx.HasFenceSync()))

	s.mu.Lock()
	s.ctxActive = true
	s.mu.Unlock()
	s.quit.Store(false)
	return nil
}

// SetCaps accepts or rejects an input format.
func (s *Sink) SetCaps(info video.Info) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if err := s.ensureContext(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inInfo = info
	s.haveCaps = true
	if err := s.updateOutputFormat(); err != nil {
		return err
	}
	if s.state == Unconfigured || s.state == TornDown {
		s.state = Configured
	}
	s.logger.Info(fmt.Sprintf("input %s, output %s, display %dx%d", info, s.outInfo, s.sinkW, s.sinkH))
	return nil
}

// updateOutputFormat derives the output format from the input format and
// the multiview properties, and creates, reconfigures or drops the
// converter to match. Called with mu held; drops it around converter
// calls.
func (s *Sink) updateOutputFormat() error {
	in := s.inInfo
	out := in
	s.convGen.Add(1)

	if !in.MultiviewMode.IsMono() && s.props.OutputMode != video.ModeNone {
		out = in.ChangeMode(s.props.OutputMode, s.props.OutputFlags)
		out.Format = video.FormatRGBA
		if s.converter == nil {
			s.converter = s.newConverter()
		}
	} else if s.converter != nil {
		old := s.converter
		s.converter = nil
		s.closeConverter(old)
	}

	err := s.configureDisplay(out)

	if s.converter != nil {
		// match the window for pixel aligned output
		out.Width = max(1, s.displayRect.W)
		out.Height = max(1, s.displayRect.H)

		conv := s.converter
		downmix := s.props.Downmix
		s.mu.Unlock()
		s.convMu.Lock()
		ferr := conv.SetFormat(in, out, downmix)
		s.convMu.Unlock()
		s.mu.Lock()
		if ferr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrConversion, ferr)
		}
	}

	s.outInfo = out
	s.outputModeChanged = false
	s.capsChange = true
	caps := out
	s.outCaps = &caps
	return err
}

func (s *Sink) closeConverter(conv viewconvert.Converter) {
	s.mu.Unlock()
	s.convMu.Lock()
	conv.Close()
	s.convMu.Unlock()
	s.mu.Lock()
}

// configureDisplay picks the display size of info. Called with mu held.
func (s *Sink) configureDisplay(info video.Info) error {
	w, h, err := video.DisplaySize(info, s.props.ParN, s.props.ParD)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotNegotiated, err)
	}
	s.sinkW, s.sinkH = w, h
	return nil
}

// Drain drops every staged, pending and displayed frame and forgets the
// derived output format. The context, window and GL resources stay, so
// streaming can continue with the next frame.
func (s *Sink) Drain() {
	s.mu.Lock()
	s.epoch++
	s.convGen.Add(1)
	staged := s.stager.Drain()
	if s.pending != nil {
		staged = append(staged, s.pending.outs...)
		s.pending = nil
	}
	retired := s.slot.Drain()
	conv := s.converter
	s.converter = nil
	s.outCaps = nil
	s.outputModeChanged = true
	if s.state != Unconfigured && s.state != TornDown {
		s.state = Draining
	}
	s.mu.Unlock()

	video.Release(staged...)
	releaseEntries(retired...)
	if conv != nil {
		s.convMu.Lock()
		conv.Close()
		s.convMu.Unlock()
	}
}

// Teardown drains the sink, frees its GL objects on the GL thread,
// disconnects from the window and releases the context. A later SetCaps
// starts a fresh setup cycle.
func (s *Sink) Teardown() {
	s.Drain()

	s.mu.Lock()
	setup := s.setupDone
	active := s.ctxActive
	s.setupDone = false
	s.ctxActive = false
	s.haveCaps = false
	s.sinkW, s.sinkH = 0, 0
	s.displayRect = video.Rectangle{}
	s.fatal = nil
	s.state = TornDown
	s.uploadQueued = false
	s.mu.Unlock()
	s.drawQueued.Store(false)

	if setup {
		if err := s.win.Send(s.renderer.Cleanup); err != nil {
			s.logger.Warn(fmt.Sprintf("could not clean up gl resources: %s", err))
		}
	}
	s.win.SetCallbacks(window.Callbacks{})
	if active && s.ctx != nil {
		s.ctx.Release()
	}
	s.logger.Debug("torn down")
}
