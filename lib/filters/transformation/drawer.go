package transformation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fosdem/vrsink/lib/gpu"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/rendering"
	"github.com/fosdem/vrsink/lib/rendering/shaders"
	"github.com/fosdem/vrsink/lib/sink"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Drawer replaces the sink's default drawing. Its Draw and Reshape methods
// are meant to be installed as the sink's client hooks and run on the GL
// thread.
type Drawer struct {
	logger *slog.Logger

	mu     sync.Mutex
	params Params

	program       uint32
	matrixUniform int32
	texUniform    int32
	quad          *rendering.Quad
	failed        bool
}

func New(name string, params Params) (*Drawer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transformation: %w", err)
	}
	return &Drawer{logger: log.New(name), params: params}, nil
}

func (d *Drawer) Params() Params {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

func (d *Drawer) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.params = p
	d.mu.Unlock()
	return nil
}

func (d *Drawer) setup() error {
	program, err := shaders.BuildGLProgram("texture.frag", &shaders.ShaderData{Transform: true})
	if err != nil {
		return err
	}
	d.program = program
	d.matrixUniform = gl.GetUniformLocation(program, gl.Str("u_matrix\x00"))
	d.texUniform = gl.GetUniformLocation(program, gl.Str("tex\x00"))
	d.quad = rendering.NewQuad(-1)
	return nil
}

// Draw renders the sample's texture with the current transformation.
func (d *Drawer) Draw(_ gpu.Context, s sink.Sample) sink.HookResult {
	if d.program == 0 && !d.failed {
		if err := d.setup(); err != nil {
			d.logger.Error(fmt.Sprintf("could not set up transformation, falling back to plain drawing: %s", err))
			d.failed = true
		}
	}
	if d.failed {
		return sink.Unhandled
	}

	p := d.Params()
	matrix := p.Matrix()

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(p.Red, p.Green, p.Blue, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(d.program)
	gl.UniformMatrix4fv(d.matrixUniform, 1, false, &matrix[0])
	gl.Uniform1i(d.texUniform, 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, s.Frame.Texture)
	d.quad.Draw()

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
	gl.Disable(gl.DEPTH_TEST)
	return sink.Handled
}

// Reshape picks up the window aspect when none was configured. The sink
// still places the video itself.
func (d *Drawer) Reshape(_ gpu.Context, width, height int) sink.HookResult {
	d.mu.Lock()
	if d.params.Aspect == 0 {
		d.params.ResolveAspect(width, height)
		d.logger.Debug(fmt.Sprintf("aspect set to %.3f", d.params.Aspect))
	}
	d.mu.Unlock()
	return sink.Unhandled
}

// Cleanup frees the GL objects. Runs on the GL thread.
func (d *Drawer) Cleanup() {
	if d.program != 0 {
		gl.DeleteProgram(d.program)
		d.program = 0
	}
	if d.quad != nil {
		d.quad.Delete()
		d.quad = nil
	}
	d.failed = false
}
