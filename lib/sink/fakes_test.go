package sink

import (
	"errors"
	"sync"

	"github.com/fosdem/vrsink/lib/gpu"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/fosdem/vrsink/lib/window"
)

// fakeWindow queues everything meant for the GL thread until pump is
// called, so tests decide when the draw thread runs.
type fakeWindow struct {
	mu       sync.Mutex
	cb       window.Callbacks
	tasks    []func()
	width    int
	height   int
	running  bool
	shown    bool
	events   bool
	handle   uintptr
	prefW    int
	prefH    int
	rect     *video.Rectangle
	setCalls int
}

func newFakeWindow(w, h int) *fakeWindow {
	return &fakeWindow{width: w, height: h, running: true}
}

func (w *fakeWindow) SetSurfaceHandle(handle uintptr) { w.handle = handle }

func (w *fakeWindow) SetPreferredSize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prefW, w.prefH = width, height
}

func (w *fakeWindow) SetRenderRectangle(x, y, width, height int) error {
	reset, err := window.ValidateRenderRectangle(x, y, width, height)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if reset {
		w.rect = nil
	} else {
		w.rect = &video.Rectangle{X: x, Y: y, W: width, H: height}
	}
	return nil
}

func (w *fakeWindow) RenderRectangle() video.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rect != nil {
		return *w.rect
	}
	return video.Rectangle{W: w.width, H: w.height}
}

func (w *fakeWindow) SetCallbacks(cb window.Callbacks) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cb = cb
	w.setCalls++
}

func (w *fakeWindow) callbacks() window.Callbacks {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cb
}

func (w *fakeWindow) HandleEvents(handle bool) { w.events = handle }

func (w *fakeWindow) Marshal(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks = append(w.tasks, fn)
}

func (w *fakeWindow) Send(fn func()) error {
	fn()
	return nil
}

func (w *fakeWindow) Draw() {
	w.Marshal(func() {
		if cb := w.callbacks(); cb.OnDraw != nil {
			cb.OnDraw()
		}
	})
}

func (w *fakeWindow) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shown = true
}

func (w *fakeWindow) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *fakeWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *fakeWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
}

// pump runs queued GL thread tasks, including ones they queue.
func (w *fakeWindow) pump() {
	for {
		w.mu.Lock()
		tasks := w.tasks
		w.tasks = nil
		w.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, t := range tasks {
			t()
		}
	}
}

// resize behaves like the window system reporting a new size.
func (w *fakeWindow) resize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	if cb := w.callbacks(); cb.OnResize != nil {
		cb.OnResize(width, height)
	}
}

func (w *fakeWindow) close() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	if cb := w.callbacks(); cb.OnClose != nil {
		cb.OnClose()
	}
}

type fakeFence struct {
	waits   int
	deletes int
}

func (f *fakeFence) Wait()   { f.waits++ }
func (f *fakeFence) Delete() { f.deletes++ }

type fakeContext struct {
	fenceSync   bool
	activateErr error
	activations int
	releases    int
	fences      []*fakeFence
}

func (c *fakeContext) APIVersion() (int, int) { return 4, 1 }
func (c *fakeContext) HasFenceSync() bool     { return c.fenceSync }
func (c *fakeContext) Handle() uintptr        { return 0x1234 }

func (c *fakeContext) NewFence() gpu.Fence {
	f := &fakeFence{}
	c.fences = append(c.fences, f)
	return f
}

func (c *fakeContext) Activate() error {
	if c.activateErr != nil {
		return c.activateErr
	}
	c.activations++
	return nil
}

func (c *fakeContext) Release() { c.releases++ }

type blitCall struct {
	rect        video.Rectangle
	textures    []uint32
	ignoreAlpha bool
}

type fakeRenderer struct {
	setupErr  error
	uploadErr error
	setups    int
	cleanups  int
	nextTex   uint32
	uploaded  []*video.Frame
	viewports []video.Rectangle
	blits     []blitCall
}

func (r *fakeRenderer) Setup() error {
	r.setups++
	return r.setupErr
}

func (r *fakeRenderer) Upload(frames ...*video.Frame) error {
	if r.uploadErr != nil {
		return r.uploadErr
	}
	for _, f := range frames {
		r.nextTex++
		f.Texture = r.nextTex
		r.uploaded = append(r.uploaded, f)
	}
	return nil
}

func (r *fakeRenderer) Viewport(rect video.Rectangle) {
	r.viewports = append(r.viewports, rect)
}

func (r *fakeRenderer) Blit(rect video.Rectangle, textures []uint32, ignoreAlpha bool) {
	r.blits = append(r.blits, blitCall{rect: rect, textures: append([]uint32(nil), textures...), ignoreAlpha: ignoreAlpha})
}

func (r *fakeRenderer) Cleanup() { r.cleanups++ }

func (r *fakeRenderer) lastBlit() blitCall {
	if len(r.blits) == 0 {
		return blitCall{}
	}
	return r.blits[len(r.blits)-1]
}

var errBoom = errors.New("boom")

// countedFrame counts how often its release function ran.
type countedFrame struct {
	*video.Frame
	released *int
}

func newCountedFrame(info video.Info, id uint64) countedFrame {
	n := new(int)
	f := video.NewFrame(info, make([]byte, info.Size()), func(*video.Frame) { *n++ })
	f.ID = id
	return countedFrame{Frame: f, released: n}
}
