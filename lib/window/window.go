// Package window provides the on-screen surface the sink draws into and
// routes window system events back to it.
package window

import (
	"github.com/fosdem/vrsink/lib/video"
)

type KeyEvent struct {
	// Key is the lowercase key name ("a", "q", "escape", "1", ...).
	Key     string
	Code    int
	Pressed bool
	Ctrl    bool
	Shift   bool
	Alt     bool
}

type MouseEventKind int

const (
	MouseMove MouseEventKind = iota
	MouseButtonPress
	MouseButtonRelease
)

type MouseEvent struct {
	Kind   MouseEventKind
	Button int
	X, Y   float64
}

// Callbacks are invoked on the GL thread.
type Callbacks struct {
	OnResize func(w, h int)
	OnDraw   func()
	OnClose  func()
	OnKey    func(KeyEvent)
	OnMouse  func(MouseEvent)
}

type Window interface {
	SetSurfaceHandle(handle uintptr)
	SetPreferredSize(w, h int)
	// SetRenderRectangle restricts drawing to part of the surface. Passing
	// -1 for all four values resets it to the whole surface.
	SetRenderRectangle(x, y, w, h int) error
	// RenderRectangle is the region to draw in, in GL window coordinates.
	RenderRectangle() video.Rectangle
	SetCallbacks(cb Callbacks)
	HandleEvents(handle bool)

	// Marshal runs fn on the GL thread without waiting for it.
	Marshal(fn func())
	// Send runs fn on the GL thread and waits for it.
	Send(fn func()) error
	// Draw asks for a redraw: OnDraw followed by a buffer swap, on the GL
	// thread.
	Draw()

	Show()
	IsRunning() bool
	Size() (int, int)
	Close()
}

// ValidateRenderRectangle checks arguments to SetRenderRectangle and
// reports whether they reset the rectangle.
func ValidateRenderRectangle(x, y, w, h int) (reset bool, err error) {
	if x == -1 && y == -1 && w == -1 && h == -1 {
		return true, nil
	}
	if w <= 0 || h <= 0 {
		return false, &RectError{X: x, Y: y, W: w, H: h}
	}
	return false, nil
}

type RectError struct {
	X, Y, W, H int
}

func (e *RectError) Error() string {
	return "invalid render rectangle " + video.Rectangle{X: e.X, Y: e.Y, W: e.W, H: e.H}.String()
}
