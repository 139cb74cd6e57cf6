package viewconvert

import (
	"github.com/fosdem/vrsink/lib/video"
)

// downmixMatrix holds the row-major 3x3 colour matrices applied to the left
// and right view before they are summed.
type downmixMatrix struct {
	left  [9]float32
	right [9]float32
}

// Dubois least-squares anaglyph matrices.
var downmixMatrices = map[video.DownmixMode]downmixMatrix{
	video.DownmixGreenMagentaDubois: {
		left: [9]float32{
			-0.062, -0.158, -0.039,
			0.284, 0.668, 0.143,
			-0.015, -0.027, 0.021,
		},
		right: [9]float32{
			0.529, 0.705, 0.024,
			-0.016, -0.015, -0.065,
			0.009, 0.075, 0.937,
		},
	},
	video.DownmixRedCyanDubois: {
		left: [9]float32{
			0.437, 0.449, 0.164,
			-0.062, -0.062, -0.024,
			-0.048, -0.050, -0.017,
		},
		right: [9]float32{
			-0.011, -0.032, -0.007,
			0.377, 0.761, 0.009,
			-0.026, -0.093, 1.234,
		},
	},
	video.DownmixAmberBlueDubois: {
		left: [9]float32{
			1.062, -0.205, 0.299,
			-0.026, 0.908, 0.068,
			-0.038, -0.173, 0.022,
		},
		right: [9]float32{
			-0.016, -0.123, -0.017,
			0.006, 0.062, -0.017,
			0.094, 0.185, 0.911,
		},
	},
}

func (m downmixMatrix) apply(l, r [3]float32) (uint8, uint8, uint8) {
	var out [3]uint8
	for row := range 3 {
		v := m.left[row*3]*l[0] + m.left[row*3+1]*l[1] + m.left[row*3+2]*l[2] +
			m.right[row*3]*r[0] + m.right[row*3+1]*r[1] + m.right[row*3+2]*r[2]
		out[row] = clamp(v)
	}
	return out[0], out[1], out[2]
}

func clamp(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
