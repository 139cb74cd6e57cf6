package video

import (
	"sync"
	"sync/atomic"
	"time"
)

type FrameFlags uint32

const (
	FlagDiscont FrameFlags = 1 << iota
	// FlagFirstInBundle marks the first view of a frame-by-frame stereo pair.
	FlagFirstInBundle
)

func (f FrameFlags) Has(flag FrameFlags) bool {
	return f&flag == flag
}

// View says which eye a frame carries.
type View int

const (
	ViewMono View = iota
	ViewLeft
	ViewRight
	ViewFirst
	ViewSecond
)

func (v View) String() string {
	switch v {
	case ViewLeft:
		return "left"
	case ViewRight:
		return "right"
	case ViewFirst:
		return "first"
	case ViewSecond:
		return "second"
	default:
		return "mono"
	}
}

// Frame is a reference-counted image. The producer owns the first
// reference; everyone that stores the frame takes their own with Ref and
// gives it back with Unref. When the last reference goes away the release
// function runs exactly once, which is how pooled frames find their way back
// to their pool.
type Frame struct {
	Info Info
	Data []byte

	// Texture is the GL texture holding Data once it was uploaded, 0 otherwise.
	Texture uint32

	PTS      time.Duration
	Duration time.Duration
	Flags    FrameFlags
	View     View
	ID       uint64

	refs     atomic.Int32
	release  func(*Frame)
	hooksMu  sync.Mutex
	onUnused []func()
}

func NewFrame(info Info, data []byte, release func(*Frame)) *Frame {
	f := &Frame{Info: info, Data: data, release: release}
	f.refs.Store(1)
	return f
}

// NewIdleFrame makes a frame with no references, for pools that hand it
// out later with Revive.
func NewIdleFrame(info Info, data []byte, release func(*Frame)) *Frame {
	return &Frame{Info: info, Data: data, release: release}
}

// Alloc makes an unpooled frame with a zeroed buffer of the right size.
func Alloc(info Info) *Frame {
	return NewFrame(info, make([]byte, info.Size()), nil)
}

func (f *Frame) Ref() *Frame {
	if f.refs.Add(1) <= 1 {
		panic("Ref called on a released frame")
	}
	return f
}

func (f *Frame) Unref() {
	n := f.refs.Add(-1)
	if n < 0 {
		panic("Unref called on frame with no references")
	}
	if n > 0 {
		return
	}

	f.hooksMu.Lock()
	hooks := f.onUnused
	f.onUnused = nil
	f.hooksMu.Unlock()
	for _, h := range hooks {
		h()
	}
	if f.release != nil {
		f.release(f)
	}
}

func (f *Frame) RefCount() int32 {
	return f.refs.Load()
}

// Revive gives a released frame its first reference back. Only pools should
// call this, when handing the frame out again.
func (f *Frame) Revive() {
	if !f.refs.CompareAndSwap(0, 1) {
		panic("reviving a frame that is still referenced")
	}
}

// OnUnused registers fn to run once, the next time the last reference is
// dropped. Used to hand GPU resources bound to the frame back to their owner.
func (f *Frame) OnUnused(fn func()) {
	f.hooksMu.Lock()
	defer f.hooksMu.Unlock()
	f.onUnused = append(f.onUnused, fn)
}

// Pixel returns the bytes of one pixel.
func (f *Frame) Pixel(x, y int) []byte {
	bpp := f.Info.Format.BytesPerPixel()
	off := y*f.Info.Stride() + x*bpp
	return f.Data[off : off+bpp]
}

// Release unreferences every non-nil frame.
func Release(frames ...*Frame) {
	for _, f := range frames {
		if f != nil {
			f.Unref()
		}
	}
}
