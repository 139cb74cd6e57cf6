package utils

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"regexp"
)

var colourPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

func ColourValidate(c string) bool {
	return colourPattern.MatchString(c)
}

// ColourParse reads #rrggbb or #rrggbbaa. Without an alpha byte the colour
// is opaque.
func ColourParse(s string) (color.RGBA, error) {
	if !ColourValidate(s) {
		return color.RGBA{}, fmt.Errorf("invalid colour %q, want #rrggbb or #rrggbbaa", s)
	}
	b, err := hex.DecodeString(s[1:])
	if err != nil {
		return color.RGBA{}, err
	}
	c := color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xff}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}

// ColourFloats returns the red, green and blue components scaled to [0,1].
func ColourFloats(c color.RGBA) (r, g, b float32) {
	return float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255
}
