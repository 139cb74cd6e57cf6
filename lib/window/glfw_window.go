package window

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/fosdem/vrsink/lib/glthread"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/go-gl/glfw/v3.3/glfw"
	pointer "github.com/mattn/go-pointer"
)

type GLFWConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	// Fullscreen puts the window on the primary monitor.
	Fullscreen bool
}

// GLFWWindow is a glfw window with a GL 4.1 core context. All glfw calls go
// through the GL thread queue.
type GLFWWindow struct {
	queue  *glthread.Queue
	logger *slog.Logger

	win *glfw.Window
	ptr unsafe.Pointer

	mu         sync.Mutex
	cb         Callbacks
	width      int
	height     int
	renderRect *video.Rectangle
	shown      bool
	handle     uintptr

	handleEvents atomic.Bool
	running      atomic.Bool
	closed       atomic.Bool
}

var glfwUsers atomic.Int32

func NewGLFWWindow(queue *glthread.Queue, cfg GLFWConfig) (*GLFWWindow, error) {
	w := &GLFWWindow{
		queue:  queue,
		logger: log.New("window"),
		width:  max(1, cfg.Width),
		height: max(1, cfg.Height),
	}
	w.handleEvents.Store(true)

	var createErr error
	err := queue.Send(func() {
		createErr = w.create(cfg)
	})
	if err != nil {
		return nil, err
	}
	if createErr != nil {
		return nil, createErr
	}
	w.running.Store(true)
	return w, nil
}

func (w *GLFWWindow) create(cfg GLFWConfig) error {
	w.logger.Debug("Initializing window")
	if glfwUsers.Add(1) == 1 {
		if err := glfw.Init(); err != nil {
			glfwUsers.Add(-1)
			return fmt.Errorf("failed to initialize glfw: %w", err)
		}
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	if cfg.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor
	if cfg.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}
	title := cfg.Title
	if title == "" {
		title = "vrsink"
	}

	win, err := glfw.CreateWindow(w.width, w.height, title, monitor, nil)
	if err != nil {
		if glfwUsers.Add(-1) == 0 {
			glfw.Terminate()
		}
		return fmt.Errorf("could not create window: %w", err)
	}
	w.win = win

	w.ptr = pointer.Save(w)
	win.SetUserPointer(w.ptr)
	win.SetFramebufferSizeCallback(framebufferSizeCallback)
	win.SetRefreshCallback(refreshCallback)
	win.SetCloseCallback(closeCallback)
	win.SetKeyCallback(keyCallback)
	win.SetMouseButtonCallback(mouseButtonCallback)
	win.SetCursorPosCallback(cursorPosCallback)

	fbw, fbh := win.GetFramebufferSize()
	w.width, w.height = fbw, fbh
	return nil
}

func fromGLFW(gw *glfw.Window) *GLFWWindow {
	w, _ := pointer.Restore(gw.GetUserPointer()).(*GLFWWindow)
	return w
}

func framebufferSizeCallback(gw *glfw.Window, width, height int) {
	w := fromGLFW(gw)
	if w == nil {
		return
	}
	w.mu.Lock()
	w.width, w.height = width, height
	hasRect := w.renderRect != nil
	onResize := w.cb.OnResize
	w.mu.Unlock()

	// a render rectangle pins the drawable size
	if onResize != nil && !hasRect {
		onResize(width, height)
	}
	w.drawNow()
}

func refreshCallback(gw *glfw.Window) {
	if w := fromGLFW(gw); w != nil {
		w.drawNow()
	}
}

func closeCallback(gw *glfw.Window) {
	w := fromGLFW(gw)
	if w == nil {
		return
	}
	w.logger.Info("window closed by user")
	w.running.Store(false)
	w.mu.Lock()
	onClose := w.cb.OnClose
	w.mu.Unlock()
	if onClose != nil {
		onClose()
	}
}

func keyCallback(gw *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	w := fromGLFW(gw)
	if w == nil || !w.handleEvents.Load() || action == glfw.Repeat {
		return
	}
	w.mu.Lock()
	onKey := w.cb.OnKey
	w.mu.Unlock()
	if onKey == nil {
		return
	}
	onKey(KeyEvent{
		Key:     keyName(key),
		Code:    int(key),
		Pressed: action == glfw.Press,
		Ctrl:    mods&glfw.ModControl != 0,
		Shift:   mods&glfw.ModShift != 0,
		Alt:     mods&glfw.ModAlt != 0,
	})
}

func mouseButtonCallback(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	w := fromGLFW(gw)
	if w == nil || !w.handleEvents.Load() {
		return
	}
	kind := MouseButtonRelease
	if action == glfw.Press {
		kind = MouseButtonPress
	}
	x, y := gw.GetCursorPos()
	w.mouse(MouseEvent{Kind: kind, Button: int(button), X: x, Y: y})
}

func cursorPosCallback(gw *glfw.Window, x, y float64) {
	w := fromGLFW(gw)
	if w == nil || !w.handleEvents.Load() {
		return
	}
	w.mouse(MouseEvent{Kind: MouseMove, X: x, Y: y})
}

func (w *GLFWWindow) mouse(ev MouseEvent) {
	w.mu.Lock()
	onMouse := w.cb.OnMouse
	w.mu.Unlock()
	if onMouse != nil {
		onMouse(ev)
	}
}

func keyName(key glfw.Key) string {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return string(rune('a' + int(key-glfw.KeyA)))
	case key >= glfw.Key0 && key <= glfw.Key9:
		return string(rune('0' + int(key-glfw.Key0)))
	}
	switch key {
	case glfw.KeyEscape:
		return "escape"
	case glfw.KeySpace:
		return "space"
	case glfw.KeyEnter:
		return "enter"
	case glfw.KeyLeft:
		return "left"
	case glfw.KeyRight:
		return "right"
	case glfw.KeyUp:
		return "up"
	case glfw.KeyDown:
		return "down"
	}
	return fmt.Sprintf("key%d", int(key))
}

// SetSurfaceHandle records a foreign surface. glfw always draws into its own
// window, so the handle is only reported back through Handle.
func (w *GLFWWindow) SetSurfaceHandle(handle uintptr) {
	w.mu.Lock()
	w.handle = handle
	w.mu.Unlock()
	if handle != 0 {
		w.logger.Warn(fmt.Sprintf("cannot embed into foreign surface 0x%x, using own window", handle))
	}
}

func (w *GLFWWindow) SetPreferredSize(width, height int) {
	w.mu.Lock()
	shown := w.shown
	w.mu.Unlock()
	if shown || width < 1 || height < 1 {
		return
	}
	w.queue.Post(func() {
		if w.closed.Load() {
			return
		}
		w.win.SetSize(width, height)
	})
}

func (w *GLFWWindow) SetRenderRectangle(x, y, width, height int) error {
	reset, err := ValidateRenderRectangle(x, y, width, height)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if reset {
		w.renderRect = nil
		width, height = w.width, w.height
	} else {
		w.renderRect = &video.Rectangle{X: x, Y: y, W: width, H: height}
	}
	onResize := w.cb.OnResize
	w.mu.Unlock()

	if onResize != nil {
		w.queue.Post(func() { onResize(width, height) })
	}
	return nil
}

func (w *GLFWWindow) RenderRectangle() video.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.renderRect == nil {
		return video.Rectangle{W: w.width, H: w.height}
	}
	r := *w.renderRect
	// window coordinates have y going down, GL has it going up
	r.Y = w.height - (r.Y + r.H)
	return r
}

func (w *GLFWWindow) SetCallbacks(cb Callbacks) {
	w.mu.Lock()
	w.cb = cb
	w.mu.Unlock()
}

func (w *GLFWWindow) HandleEvents(handle bool) {
	w.handleEvents.Store(handle)
}

func (w *GLFWWindow) Marshal(fn func()) {
	w.queue.Post(fn)
}

func (w *GLFWWindow) Send(fn func()) error {
	return w.queue.Send(fn)
}

func (w *GLFWWindow) Draw() {
	w.queue.Post(w.drawNow)
}

func (w *GLFWWindow) drawNow() {
	if w.closed.Load() {
		return
	}
	w.mu.Lock()
	onDraw := w.cb.OnDraw
	w.mu.Unlock()
	if onDraw != nil {
		onDraw()
	}
	w.win.SwapBuffers()
}

func (w *GLFWWindow) Show() {
	w.mu.Lock()
	if w.shown {
		w.mu.Unlock()
		return
	}
	w.shown = true
	w.mu.Unlock()

	w.queue.Post(func() {
		if !w.closed.Load() {
			w.win.Show()
		}
	})
}

func (w *GLFWWindow) IsRunning() bool {
	return w.running.Load()
}

func (w *GLFWWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// MakeContextCurrent and DetachCurrentContext must run on the GL thread.
func (w *GLFWWindow) MakeContextCurrent() {
	w.win.MakeContextCurrent()
}

func (w *GLFWWindow) DetachCurrentContext() {
	glfw.DetachCurrentContext()
}

func (w *GLFWWindow) Handle() uintptr {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handle != 0 {
		return w.handle
	}
	return uintptr(w.win.Handle())
}

func (w *GLFWWindow) Close() {
	if w.closed.Swap(true) {
		return
	}
	w.running.Store(false)
	_ = w.queue.Send(func() {
		w.win.SetUserPointer(nil)
		w.win.Destroy()
		pointer.Unref(w.ptr)
		if glfwUsers.Add(-1) == 0 {
			glfw.Terminate()
		}
	})
}

// PollEvents processes pending window system events. It is meant as the
// poll function of the GL thread queue.
func PollEvents() {
	glfw.PollEvents()
}
