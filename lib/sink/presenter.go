package sink

import (
	"fmt"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/fosdem/vrsink/lib/window"
)

// OnRedrawRequested schedules a draw pass on the GL thread without waiting
// for it. Requests made while one is still queued are folded into it.
func (s *Sink) OnRedrawRequested() {
	if s.drawQueued.CompareAndSwap(false, true) {
		s.win.Draw()
	}
}

// drawPass runs on the GL thread as the window's draw callback.
func (s *Sink) drawPass() {
	s.drawQueued.Store(false)
	s.mu.Lock()
	if s.state == TornDown || !s.setupDone {
		s.mu.Unlock()
		return
	}

	if s.capsChange && s.windowW > 0 && s.windowH > 0 {
		s.doResize(s.windowW, s.windowH)
		s.capsChange = false
	}
	if s.updateViewport {
		s.renderer.Viewport(s.displayRect)
		s.logger.Debug(fmt.Sprintf("GL output area now %s", s.displayRect))
		s.updateViewport = false
	}

	_, retired := s.slot.Promote()
	shown := s.slot.PeekDisplayed()
	if shown.empty() {
		s.mu.Unlock()
		retired.release()
		return
	}

	frames := []*video.Frame{shown.primary.Ref()}
	if shown.secondary != nil {
		frames = append(frames, shown.secondary.Ref())
	}
	fence := shown.fence
	info := s.outInfo
	rect := s.displayRect
	ignoreAlpha := s.props.IgnoreAlpha
	clientDraw := s.clientDraw
	ctx := s.ctx
	s.mu.Unlock()

	retired.release()
	defer video.Release(frames...)

	if fence != nil {
		fence.Wait()
	}

	handled := false
	if clientDraw != nil {
		for _, f := range frames {
			if clientDraw(ctx, Sample{Frame: f, Info: info}) == Handled {
				handled = true
			}
		}
	}
	if !handled {
		textures := make([]uint32, 0, len(frames))
		for _, f := range frames {
			textures = append(textures, f.Texture)
		}
		s.renderer.Blit(rect, textures, ignoreAlpha)
	}
	s.presented.Add(1)
	s.metrics.FramesPresented.Inc()
}

// OnResize is the window's resize callback.
func (s *Sink) OnResize(width, height int) {
	s.logger.Debug(fmt.Sprintf("window resized to %dx%d", width, height))
	s.mu.Lock()
	s.outputModeChanged = true
	s.doResize(width, height)
	s.mu.Unlock()
}

// doResize recomputes the display rectangle. Called with mu held; the
// client reshape hook runs with it dropped.
func (s *Sink) doResize(width, height int) {
	reshape := s.clientReshape
	ctx := s.ctx

	result := Unhandled
	if reshape != nil {
		s.mu.Unlock()
		result = reshape(ctx, width, height)
		s.mu.Lock()
	}

	width = max(1, width)
	height = max(1, height)
	s.windowW = width
	s.windowH = height

	if result == Handled {
		return
	}

	region := video.Rectangle{W: width, H: height}
	if s.props.RenderRect != nil {
		region = s.win.RenderRectangle()
	}

	var r video.Rectangle
	if s.props.ForceAspectRatio {
		src := video.Rectangle{W: s.sinkW, H: s.sinkH}
		r = video.CenterRect(src, region, true)
	} else {
		r = region
	}
	if r.W != s.displayRect.W || r.H != s.displayRect.H {
		s.outputModeChanged = true
	}
	s.displayRect = r
	s.updateViewport = true
}

// OnClose is the window's close callback. The next Render reports
// ErrWindowClosed.
func (s *Sink) OnClose() {
	s.logger.Info("output window was closed")
	s.quit.Store(true)
	s.win.SetCallbacks(window.Callbacks{
		OnResize: s.OnResize,
		OnDraw:   s.drawPass,
	})
}

func (s *Sink) handleKey(ev window.KeyEvent) {
	s.logger.Debug(fmt.Sprintf("key %s pressed=%t", ev.Key, ev.Pressed))
	if s.onKey != nil {
		s.onKey(ev)
	}
}

func (s *Sink) handleMouse(ev window.MouseEvent) {
	if s.onMouse != nil {
		s.onMouse(ev)
	}
}

func (s *Sink) callbacks() window.Callbacks {
	return window.Callbacks{
		OnResize: s.OnResize,
		OnDraw:   s.drawPass,
		OnClose:  s.OnClose,
		OnKey:    s.handleKey,
		OnMouse:  s.handleMouse,
	}
}
