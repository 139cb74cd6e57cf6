package rendering

import (
	"sync/atomic"

	"github.com/fosdem/vrsink/lib/rendering/renderconsts"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// SetupTexture allocates a texture that frames of info can be uploaded
// into, swizzled so that sampling it always yields RGBA.
func SetupTexture(info video.Info) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	borderColor := mgl32.Vec4{0, 0, 0, 0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)

	swizzle := renderconsts.Swizzle(info.Format)
	mask := [4]int32{int32(swizzle[0]), int32(swizzle[1]), int32(swizzle[2]), int32(swizzle[3])}
	gl.TexParameteriv(gl.TEXTURE_2D, gl.TEXTURE_SWIZZLE_RGBA, &mask[0])

	format, internal := renderconsts.UploadFormat(info.Format)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		internal,
		int32(info.Width),
		int32(info.Height),
		0,
		format,
		gl.UNSIGNED_BYTE,
		nil,
	)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// TextureUploadCounter counts the bytes sent to the GPU.
var TextureUploadCounter atomic.Uint64

func SendTextureToGPU(texID uint32, f *video.Frame) {
	format, _ := renderconsts.UploadFormat(f.Info.Format)
	if f.Info.Format == video.FormatRGB {
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		defer gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexSubImage2D(
		gl.TEXTURE_2D,
		0, 0, 0,
		int32(f.Info.Width), int32(f.Info.Height),
		format, gl.UNSIGNED_BYTE, gl.Ptr(f.Data),
	)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	TextureUploadCounter.Add(uint64(len(f.Data)))
}
