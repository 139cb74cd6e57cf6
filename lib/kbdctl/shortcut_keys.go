package kbdctl

import (
	"log"

	"github.com/fosdem/vrsink/lib/sink"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/fosdem/vrsink/lib/window"
)

// Target is what the shortcuts act on, normally a *sink.Sink.
type Target interface {
	Properties() sink.Properties
	SetProperties(p sink.Properties) error
}

// ModeCycle is the order M steps through output multiview modes.
var ModeCycle = []video.MultiviewMode{
	video.ModeMono,
	video.ModeSideBySide,
	video.ModeTopBottom,
	video.ModeFrameByFrame,
	video.ModeLeft,
	video.ModeRight,
}

// KeyHandler returns the sink key callback: Ctrl+Shift+Q calls quit, A
// toggles aspect ratio, I toggles alpha and M cycles the output mode.
func KeyHandler(target Target, quit func()) func(window.KeyEvent) {
	return func(ev window.KeyEvent) {
		if !ev.Pressed {
			if ev.Key == "q" && ev.Ctrl && ev.Shift {
				log.Println("told to quit, exiting")
				if quit != nil {
					quit()
				}
			}
			return
		}
		if ev.Ctrl || ev.Alt {
			return
		}

		p := target.Properties()
		switch ev.Key {
		case "a":
			p.ForceAspectRatio = !p.ForceAspectRatio
			log.Printf("force aspect ratio: %t", p.ForceAspectRatio)
		case "i":
			p.IgnoreAlpha = !p.IgnoreAlpha
			log.Printf("ignore alpha: %t", p.IgnoreAlpha)
		case "m":
			p.OutputMode = NextMode(p.OutputMode)
			log.Printf("output multiview mode: %s", p.OutputMode)
		default:
			return
		}
		if err := target.SetProperties(p); err != nil {
			log.Println(err)
		}
	}
}

func NextMode(m video.MultiviewMode) video.MultiviewMode {
	for i, mode := range ModeCycle {
		if mode == m {
			return ModeCycle[(i+1)%len(ModeCycle)]
		}
	}
	return ModeCycle[0]
}
