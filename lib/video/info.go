package video

import (
	"fmt"
	"time"
)

// Info describes a negotiated stream: geometry, pixel layout and
// multiview arrangement.
type Info struct {
	Format Format `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// Pixel aspect ratio. A zero ParN is treated as 1/1.
	ParN int `json:"par_n"`
	ParD int `json:"par_d"`

	FPSN int `json:"fps_n"`
	FPSD int `json:"fps_d"`

	MultiviewMode  MultiviewMode  `json:"multiview_mode"`
	MultiviewFlags MultiviewFlags `json:"multiview_flags"`
}

func (i Info) Validate() error {
	if i.Format == FormatUnknown {
		return fmt.Errorf("pixel format must be specified")
	}
	if i.Width < 1 {
		return fmt.Errorf("width must be at least 1")
	}
	if i.Height < 1 {
		return fmt.Errorf("height must be at least 1")
	}
	if i.ParN < 0 || i.ParD < 0 {
		return fmt.Errorf("pixel aspect ratio must be nonnegative")
	}
	if i.FPSN < 0 || i.FPSD < 0 {
		return fmt.Errorf("framerate must be nonnegative")
	}
	if _, ok := modeNames[i.MultiviewMode]; !ok {
		return fmt.Errorf("invalid multiview mode %d", int(i.MultiviewMode))
	}
	return nil
}

func (i Info) Stride() int {
	return i.Width * i.Format.BytesPerPixel()
}

func (i Info) Size() int {
	return i.Stride() * i.Height
}

// FrameDuration is zero when the framerate is unknown.
func (i Info) FrameDuration() time.Duration {
	if i.FPSN <= 0 || i.FPSD <= 0 {
		return 0
	}
	return time.Duration(int64(time.Second) * int64(i.FPSD) / int64(i.FPSN))
}

func (i Info) PAR() (int, int) {
	n, d := i.ParN, i.ParD
	if n == 0 {
		n = 1
	}
	if d == 0 {
		d = 1
	}
	return n, d
}

// ViewSize is the size of a single view inside a frame of this layout.
func (i Info) ViewSize() (int, int) {
	switch i.MultiviewMode {
	case ModeSideBySide:
		return max(1, i.Width/2), i.Height
	case ModeTopBottom:
		return i.Width, max(1, i.Height/2)
	default:
		return i.Width, i.Height
	}
}

// ChangeMode re-derives the frame geometry for a different multiview
// arrangement of the same views.
func (i Info) ChangeMode(mode MultiviewMode, flags MultiviewFlags) Info {
	vw, vh := i.ViewSize()
	out := i
	out.MultiviewMode = mode
	out.MultiviewFlags = flags

	switch mode {
	case ModeSideBySide:
		out.Width, out.Height = vw*2, vh
	case ModeTopBottom:
		out.Width, out.Height = vw, vh*2
	default:
		out.Width, out.Height = vw, vh
	}
	if flags&FlagsHalfAspect != 0 {
		switch mode {
		case ModeSideBySide:
			out.Width = vw
		case ModeTopBottom:
			out.Height = vh
		}
	}
	return out
}

func (i Info) String() string {
	s := fmt.Sprintf("%s %dx%d", i.Format, i.Width, i.Height)
	if i.FPSN > 0 && i.FPSD > 0 {
		s += fmt.Sprintf("@%d/%d", i.FPSN, i.FPSD)
	}
	return s + fmt.Sprintf(" %s/%s", i.MultiviewMode, i.MultiviewFlags)
}
