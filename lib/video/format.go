package video

import (
	"fmt"
	"strings"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatRGBA
	FormatBGRA
	FormatARGB
	FormatABGR
	FormatRGBx
	FormatBGRx
	FormatXRGB
	FormatXBGR
	FormatRGB
)

var formatNames = map[Format]string{
	FormatRGBA: "RGBA",
	FormatBGRA: "BGRA",
	FormatARGB: "ARGB",
	FormatABGR: "ABGR",
	FormatRGBx: "RGBx",
	FormatBGRx: "BGRx",
	FormatXRGB: "xRGB",
	FormatXBGR: "xBGR",
	FormatRGB:  "RGB",
}

// Component indices into ComponentOffsets.
const (
	CompR = iota
	CompG
	CompB
	CompA
)

// componentOffsets holds the byte offset of R, G, B and A (or the padding
// byte for x formats) inside one pixel. RGB has no alpha byte (-1).
var componentOffsets = map[Format][4]int{
	FormatRGBA: {0, 1, 2, 3},
	FormatBGRA: {2, 1, 0, 3},
	FormatARGB: {1, 2, 3, 0},
	FormatABGR: {3, 2, 1, 0},
	FormatRGBx: {0, 1, 2, 3},
	FormatBGRx: {2, 1, 0, 3},
	FormatXRGB: {1, 2, 3, 0},
	FormatXBGR: {3, 2, 1, 0},
	FormatRGB:  {0, 1, 2, -1},
}

func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown pixel format: %s", s)
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

func (f Format) BytesPerPixel() int {
	switch f {
	case FormatUnknown:
		return 0
	case FormatRGB:
		return 3
	default:
		return 4
	}
}

func (f Format) ComponentOffsets() [4]int {
	return componentOffsets[f]
}

// HasAlpha is false for padded (x) formats and RGB.
func (f Format) HasAlpha() bool {
	switch f {
	case FormatRGBA, FormatBGRA, FormatARGB, FormatABGR:
		return true
	default:
		return false
	}
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
