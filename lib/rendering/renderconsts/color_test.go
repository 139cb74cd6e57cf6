package renderconsts

import (
	"testing"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"
)

func TestSwizzle(t *testing.T) {
	assert.Equal(t, [4]Color{RED, GREEN, BLUE, ALPHA}, Swizzle(video.FormatRGBA))
	assert.Equal(t, [4]Color{BLUE, GREEN, RED, ALPHA}, Swizzle(video.FormatBGRA))
	assert.Equal(t, [4]Color{GREEN, BLUE, ALPHA, RED}, Swizzle(video.FormatARGB))
	assert.Equal(t, [4]Color{ALPHA, BLUE, GREEN, RED}, Swizzle(video.FormatABGR))
	assert.Equal(t, [4]Color{GREEN, BLUE, ALPHA, ONE}, Swizzle(video.FormatXRGB))
	assert.Equal(t, [4]Color{RED, GREEN, BLUE, ONE}, Swizzle(video.FormatRGBx))
	assert.Equal(t, [4]Color{RED, GREEN, BLUE, ONE}, Swizzle(video.FormatRGB))
}

func TestUploadFormat(t *testing.T) {
	f, i := UploadFormat(video.FormatRGB)
	assert.EqualValues(t, gl.RGB, f)
	assert.EqualValues(t, gl.RGB8, i)

	f, i = UploadFormat(video.FormatBGRx)
	assert.EqualValues(t, gl.RGBA, f)
	assert.EqualValues(t, gl.RGBA8, i)
}
