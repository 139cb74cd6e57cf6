// Package rendering holds the GL code that puts frames on screen: texture
// upload, a textured quad and the blitter the sink draws with.
package rendering

import (
	"fmt"
	"log/slog"

	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/rendering/shaders"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Blitter draws uploaded frames into the window's back buffer. All methods
// run on the GL thread.
type Blitter struct {
	logger *slog.Logger

	program    uint32
	texUniform int32
	quad       *Quad
	textures   *TextureCache
}

func NewBlitter(name string) *Blitter {
	return &Blitter{logger: log.New(name)}
}

func (b *Blitter) Setup() error {
	program, err := shaders.BuildGLProgram("texture.frag", &shaders.ShaderData{})
	if err != nil {
		return fmt.Errorf("could not build blit program: %w", err)
	}
	b.program = program
	b.texUniform = gl.GetUniformLocation(program, gl.Str("tex\x00"))
	b.quad = NewQuad(0)
	b.textures = NewTextureCache(SetupTexture)
	b.logger.Debug("blitter ready")
	return nil
}

func (b *Blitter) Upload(frames ...*video.Frame) error {
	if b.textures == nil {
		return fmt.Errorf("blitter is not set up")
	}
	for _, f := range frames {
		if len(f.Data) < f.Info.Size() {
			return fmt.Errorf("frame %d has %d bytes, %s needs %d", f.ID, len(f.Data), f.Info, f.Info.Size())
		}
		tex := b.textures.Bind(f)
		SendTextureToGPU(tex, f)
	}
	return nil
}

func (b *Blitter) Viewport(rect video.Rectangle) {
	gl.Viewport(int32(rect.X), int32(rect.Y), int32(rect.W), int32(rect.H))
}

// Blit clears the window and draws textures into rect, next to each other
// when there are several. With ignoreAlpha the source alpha still scales
// the colour, but the destination alpha stays 1.
func (b *Blitter) Blit(rect video.Rectangle, textures []uint32, ignoreAlpha bool) {
	blend := IgnoreAlphaBlend(ignoreAlpha)
	gl.ClearColor(0, 0, 0, blend.Alpha)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if blend.Enabled {
		gl.BlendColor(0, 0, 0, blend.Alpha)
		gl.BlendFunc(blend.SrcFactor, blend.DstFactor)
		gl.BlendEquation(blend.Equation)
		gl.Enable(gl.BLEND)
	}

	gl.UseProgram(b.program)
	gl.Uniform1i(b.texUniform, 0)
	gl.ActiveTexture(gl.TEXTURE0)
	for i, r := range SplitRect(rect, len(textures)) {
		gl.Viewport(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))
		gl.BindTexture(gl.TEXTURE_2D, textures[i])
		b.quad.Draw()
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
	if blend.Enabled {
		gl.Disable(gl.BLEND)
	}
	b.Viewport(rect)
}

// BlendState is the fixed-function blend setup around a blit.
type BlendState struct {
	Enabled   bool
	Alpha     float32
	SrcFactor uint32
	DstFactor uint32
	Equation  uint32
}

// IgnoreAlphaBlend returns the blend state for the ignore-alpha property.
// The pass-through program is the same either way; only the blend differs.
func IgnoreAlphaBlend(ignoreAlpha bool) BlendState {
	if !ignoreAlpha {
		return BlendState{}
	}
	return BlendState{
		Enabled:   true,
		Alpha:     1,
		SrcFactor: gl.SRC_ALPHA,
		DstFactor: gl.CONSTANT_COLOR,
		Equation:  gl.FUNC_ADD,
	}
}

func (b *Blitter) Cleanup() {
	b.deletePrograms()
	if b.quad != nil {
		b.quad.Delete()
		b.quad = nil
	}
	if b.textures != nil {
		textures := b.textures.Close()
		if len(textures) > 0 {
			gl.DeleteTextures(int32(len(textures)), &textures[0])
		}
		b.textures = nil
	}
}

func (b *Blitter) deletePrograms() {
	if b.program != 0 {
		gl.DeleteProgram(b.program)
		b.program = 0
	}
}

// SplitRect divides rect into n columns of (nearly) equal width.
func SplitRect(rect video.Rectangle, n int) []video.Rectangle {
	if n <= 1 {
		return []video.Rectangle{rect}
	}
	out := make([]video.Rectangle, n)
	x := rect.X
	for i := range n {
		w := rect.W / n
		if i == n-1 {
			w = rect.X + rect.W - x
		}
		out[i] = video.Rectangle{X: x, Y: rect.Y, W: max(1, w), H: rect.H}
		x += w
	}
	return out
}
