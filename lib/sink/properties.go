package sink

import (
	"fmt"

	"github.com/fosdem/vrsink/lib/video"
)

// Properties are the user facing knobs of the sink.
type Properties struct {
	ForceAspectRatio bool `json:"force_aspect_ratio"`
	// Pixel aspect ratio of the display; 0/1 means square pixels.
	ParN         int  `json:"par_n"`
	ParD         int  `json:"par_d"`
	HandleEvents bool `json:"handle_events"`
	IgnoreAlpha  bool `json:"ignore_alpha"`

	OutputMode  video.MultiviewMode  `json:"output_multiview_mode"`
	OutputFlags video.MultiviewFlags `json:"output_multiview_flags"`
	Downmix     video.DownmixMode    `json:"output_multiview_downmix_mode"`

	RenderRect   *video.Rectangle `json:"render_rectangle,omitempty"`
	WindowHandle uintptr          `json:"window_handle,omitempty"`
}

func DefaultProperties() Properties {
	return Properties{
		ForceAspectRatio: true,
		ParN:             0,
		ParD:             1,
		HandleEvents:     true,
		IgnoreAlpha:      true,
		OutputMode:       video.ModeMono,
		OutputFlags:      video.FlagsNone,
		Downmix:          video.DownmixGreenMagentaDubois,
	}
}

func (p *Properties) Validate() error {
	if p.ParN < 0 || p.ParD < 0 {
		return fmt.Errorf("pixel aspect ratio must be nonnegative")
	}
	if p.ParN > 0 && p.ParD == 0 {
		return fmt.Errorf("pixel aspect ratio denominator must not be 0")
	}
	if _, err := video.ParseMultiviewMode(p.OutputMode.String()); err != nil {
		return err
	}
	if _, err := video.ParseDownmixMode(p.Downmix.String()); err != nil {
		return err
	}
	if r := p.RenderRect; r != nil && (r.W <= 0 || r.H <= 0) {
		return fmt.Errorf("render rectangle %s must have a positive size", r)
	}
	return nil
}

func (p *Properties) multiviewChanged(o *Properties) bool {
	return p.OutputMode != o.OutputMode || p.OutputFlags != o.OutputFlags || p.Downmix != o.Downmix
}
