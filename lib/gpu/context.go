// Package gpu wraps the OpenGL context the sink renders with: version
// discovery, fence sync objects and activation on the GL thread.
package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fosdem/vrsink/lib/glthread"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Fence is a GPU sync point placed after the commands that produced a
// frame. Wait makes the GL command stream wait for it; it does not block
// the CPU.
type Fence interface {
	Wait()
	Delete()
}

// Context is what the sink needs from a GL context.
type Context interface {
	// APIVersion is the (major, minor) version of the context.
	APIVersion() (int, int)
	HasFenceSync() bool
	// NewFence must be called on the GL thread. It returns nil when fences
	// are not supported.
	NewFence() Fence
	Activate() error
	Release()
	// Handle identifies the context for downstream interop queries.
	Handle() uintptr
}

// Surface is the window system object that owns the context.
type Surface interface {
	MakeContextCurrent()
	DetachCurrentContext()
	Handle() uintptr
}

type GLContext struct {
	queue   *glthread.Queue
	surface Surface
	logger  *slog.Logger

	mu        sync.Mutex
	active    bool
	major     int
	minor     int
	fenceSync bool
	info      string
}

func NewGLContext(queue *glthread.Queue, surface Surface) *GLContext {
	return &GLContext{
		queue:   queue,
		surface: surface,
		logger:  log.New("gpu"),
	}
}

// Activate makes the context current on the GL thread and loads the
// function table. It is a no-op on an already active context.
func (c *GLContext) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return nil
	}

	var initErr error
	err := c.queue.Send(func() {
		c.surface.MakeContextCurrent()
		if err := gl.Init(); err != nil {
			initErr = fmt.Errorf("could not initialise OpenGL context: %w", err)
			return
		}
		var major, minor int32
		gl.GetIntegerv(gl.MAJOR_VERSION, &major)
		gl.GetIntegerv(gl.MINOR_VERSION, &minor)
		c.major, c.minor = int(major), int(minor)

		vendor := gl.GoStr(gl.GetString(gl.VENDOR))
		renderer := gl.GoStr(gl.GetString(gl.RENDERER))
		version := gl.GoStr(gl.GetString(gl.VERSION))
		c.info = fmt.Sprintf("%s / %s / %s", vendor, renderer, version)
	})
	if err != nil {
		return fmt.Errorf("could not activate gl context: %w", err)
	}
	if initErr != nil {
		return initErr
	}

	c.fenceSync = supportsFenceSync(c.major, c.minor)
	c.active = true
	c.logger.Info(fmt.Sprintf("OpenGL version %s", c.info), slog.Bool("fence_sync", c.fenceSync))
	return nil
}

func (c *GLContext) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	_ = c.queue.Send(c.surface.DetachCurrentContext)
	c.active = false
}

func (c *GLContext) APIVersion() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.major, c.minor
}

func (c *GLContext) HasFenceSync() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fenceSync
}

func (c *GLContext) Handle() uintptr {
	return c.surface.Handle()
}

func (c *GLContext) NewFence() Fence {
	if !c.HasFenceSync() {
		return nil
	}
	s := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	gl.Flush()
	return &glFence{sync: s, queue: c.queue}
}

type glFence struct {
	sync    uintptr
	queue   *glthread.Queue
	deleted sync.Once
}

func (f *glFence) Wait() {
	gl.WaitSync(f.sync, 0, gl.TIMEOUT_IGNORED)
}

// Delete can be called from any goroutine; the sync object is freed on the
// GL thread.
func (f *glFence) Delete() {
	f.deleted.Do(func() {
		f.queue.Post(func() { gl.DeleteSync(f.sync) })
	})
}

// glFenceSync and glWaitSync are core since 3.2
func supportsFenceSync(major, minor int) bool {
	return major > 3 || (major == 3 && minor >= 2)
}
