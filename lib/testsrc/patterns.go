package testsrc

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/fosdem/vrsink/lib/video"
)

type Pattern int

const (
	PatternSMPTE Pattern = iota
	PatternSnow
	PatternBlack
	PatternWhite
	PatternRed
	PatternGreen
	PatternBlue
	PatternCheckers1
	PatternCheckers2
	PatternCheckers4
	PatternCheckers8
	PatternCircular
	PatternBlink
)

var patternNames = []string{
	PatternSMPTE:     "smpte",
	PatternSnow:      "snow",
	PatternBlack:     "black",
	PatternWhite:     "white",
	PatternRed:       "red",
	PatternGreen:     "green",
	PatternBlue:      "blue",
	PatternCheckers1: "checkers-1",
	PatternCheckers2: "checkers-2",
	PatternCheckers4: "checkers-4",
	PatternCheckers8: "checkers-8",
	PatternCircular:  "circular",
	PatternBlink:     "blink",
}

func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return PatternSMPTE, nil
	}
	for i, name := range patternNames {
		if strings.EqualFold(name, s) {
			return Pattern(i), nil
		}
	}
	return PatternSMPTE, fmt.Errorf("unknown test pattern: %s", s)
}

func (p Pattern) String() string {
	if int(p) >= 0 && int(p) < len(patternNames) {
		return patternNames[p]
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pattern) UnmarshalText(b []byte) error {
	parsed, err := ParsePattern(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type rgb struct{ r, g, b uint8 }

func grey(y uint8) rgb { return rgb{y, y, y} }

var (
	colWhite     = rgb{255, 255, 255}
	colYellow    = rgb{255, 255, 0}
	colCyan      = rgb{0, 255, 255}
	colGreen     = rgb{0, 255, 0}
	colMagenta   = rgb{255, 0, 255}
	colRed       = rgb{255, 0, 0}
	colBlue      = rgb{0, 0, 255}
	colBlack     = rgb{0, 0, 0}
	colNegI      = rgb{0, 0, 128}
	colPosQ      = rgb{0, 128, 255}
	colDarkGrey  = grey(19)
	smpteBars    = []rgb{colWhite, colYellow, colCyan, colGreen, colMagenta, colRed, colBlue}
	smpteReverse = []rgb{colBlue, colBlack, colMagenta, colBlack, colCyan, colBlack, colWhite}
	smptePluge   = []rgb{colNegI, colWhite, colPosQ}
	smpteBlacks  = []rgb{colBlack, colBlack, colDarkGrey}
)

// painter writes RGB values into a frame of any packing.
type painter struct {
	f   *video.Frame
	off [4]int
	bpp int
}

func newPainter(f *video.Frame) painter {
	return painter{f: f, off: f.Info.Format.ComponentOffsets(), bpp: f.Info.Format.BytesPerPixel()}
}

func (p painter) set(x, y int, c rgb) {
	px := p.f.Data[y*p.f.Info.Stride()+x*p.bpp:]
	px[p.off[video.CompR]] = c.r
	px[p.off[video.CompG]] = c.g
	px[p.off[video.CompB]] = c.b
	if p.bpp == 4 {
		px[p.off[video.CompA]] = 255
	}
}

func (p painter) fill(x0, y0, x1, y1 int, c rgb) {
	for y := max(0, y0); y < min(y1, p.f.Info.Height); y++ {
		for x := max(0, x0); x < min(x1, p.f.Info.Width); x++ {
			p.set(x, y, c)
		}
	}
}

// Paint draws pattern into f. frameNo drives the animated patterns.
func Paint(pattern Pattern, f *video.Frame, frameNo uint64, rng *rand.Rand) {
	p := newPainter(f)
	w, h := f.Info.Width, f.Info.Height

	switch pattern {
	case PatternSMPTE:
		smpte(p, w, h, rng)
	case PatternSnow:
		snow(p, 0, 0, w, h, rng)
	case PatternBlack:
		p.fill(0, 0, w, h, colBlack)
	case PatternWhite:
		p.fill(0, 0, w, h, colWhite)
	case PatternRed:
		p.fill(0, 0, w, h, colRed)
	case PatternGreen:
		p.fill(0, 0, w, h, colGreen)
	case PatternBlue:
		p.fill(0, 0, w, h, colBlue)
	case PatternCheckers1:
		checkers(p, w, h, 1)
	case PatternCheckers2:
		checkers(p, w, h, 2)
	case PatternCheckers4:
		checkers(p, w, h, 4)
	case PatternCheckers8:
		checkers(p, w, h, 8)
	case PatternCircular:
		circular(p, w, h)
	case PatternBlink:
		if frameNo%2 == 0 {
			p.fill(0, 0, w, h, colWhite)
		} else {
			p.fill(0, 0, w, h, colBlack)
		}
	}
}

// bands splits [x0,x1) into n columns and fills each with its colour.
func bands(p painter, x0, x1, y0, y1 int, colours []rgb) {
	n := len(colours)
	for i, c := range colours {
		p.fill(x0+(x1-x0)*i/n, y0, x0+(x1-x0)*(i+1)/n, y1, c)
	}
}

// smpte lays out colour bars on the top two thirds, the reversed strip
// down to three quarters and the pluge, blacks and a patch of snow below.
func smpte(p painter, w, h int, rng *rand.Rand) {
	bands(p, 0, w, 0, h*2/3, smpteBars)
	bands(p, 0, w, h*2/3, h*3/4, smpteReverse)
	bands(p, 0, w/2, h*3/4, h, smptePluge)
	bands(p, w/2, w*3/4, h*3/4, h, smpteBlacks)
	snow(p, w*3/4, h*3/4, w, h, rng)
}

func snow(p painter, x0, y0, x1, y1 int, rng *rand.Rand) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			p.set(x, y, grey(uint8(rng.UintN(256))))
		}
	}
}

func checkers(p painter, w, h, size int) {
	for y := range h {
		for x := range w {
			if (x/size+y/size)%2 == 0 {
				p.set(x, y, colRed)
			} else {
				p.set(x, y, colGreen)
			}
		}
	}
}

var sineTable = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = uint8(math.Floor(255*(0.5+0.5*math.Sin(float64(i)*2*math.Pi/256)) + 0.5))
	}
	return t
}()

// circular draws concentric rings of rising frequency.
func circular(p painter, w, h int) {
	var freq [8]float64
	for i := 1; i < 8; i++ {
		freq[i] = 200 * math.Pow(2, -float64(i-1)/4)
	}
	for y := range h {
		for x := range w {
			dx := float64(2*x - w)
			dy := float64(2*y - h)
			dist := math.Sqrt(dx*dx+dy*dy) / float64(2*w)
			seg := int(math.Floor(dist * 16))
			var v uint8 = 255
			if seg > 0 && seg < 8 {
				d := int(math.Floor(256*dist*freq[seg] + 0.5))
				v = sineTable[d&0xff]
			}
			p.set(x, y, grey(v))
		}
	}
}
