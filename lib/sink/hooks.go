package sink

import (
	"github.com/fosdem/vrsink/lib/gpu"
	"github.com/fosdem/vrsink/lib/video"
)

// HookResult tells the sink whether a client hook replaced the default
// behaviour.
type HookResult int

const (
	Unhandled HookResult = iota
	Handled
)

func (r HookResult) String() string {
	if r == Handled {
		return "handled"
	}
	return "unhandled"
}

// Sample is a displayed frame together with the format it was converted to.
type Sample struct {
	Frame *video.Frame
	Info  video.Info
}

// DrawHook runs on the GL thread for every displayed frame of a draw pass,
// with the viewport already set. The last result decides whether the
// default blit runs.
type DrawHook func(ctx gpu.Context, s Sample) HookResult

// ReshapeHook runs when the surface size changes. Returning Handled skips
// the default display rectangle computation.
type ReshapeHook func(ctx gpu.Context, width, height int) HookResult
