package renderconsts

import (
	"github.com/fosdem/vrsink/lib/video"
	"github.com/go-gl/gl/v4.1-core/gl"
)

type Color int32

const (
	RED   Color = gl.RED
	GREEN Color = gl.GREEN
	BLUE  Color = gl.BLUE
	ALPHA Color = gl.ALPHA
	ZERO  Color = gl.ZERO
	ONE   Color = gl.ONE
)

var byteChannels = [4]Color{RED, GREEN, BLUE, ALPHA}

// Swizzle is the texture swizzle mask that makes a texture holding the raw
// bytes of a frame in f sample as RGBA. Formats without alpha sample as
// opaque.
func Swizzle(f video.Format) [4]Color {
	off := f.ComponentOffsets()
	mask := [4]Color{byteChannels[off[video.CompR]], byteChannels[off[video.CompG]], byteChannels[off[video.CompB]], ONE}
	if f.HasAlpha() {
		mask[3] = byteChannels[off[video.CompA]]
	}
	return mask
}

// UploadFormat is the GL pixel format frames in f are uploaded with.
func UploadFormat(f video.Format) (format uint32, internal int32) {
	if f == video.FormatRGB {
		return gl.RGB, gl.RGB8
	}
	return gl.RGBA, gl.RGBA8
}
