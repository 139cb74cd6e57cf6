package transformation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(m mgl32.Mat4, x, y, z float32) mgl32.Vec4 {
	return m.Mul4x1(mgl32.Vec4{x, y, z, 1})
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 45.0, p.Fovy)
	assert.Equal(t, 0.1, p.ZNear)
	assert.Equal(t, 100.0, p.ZFar)

	m := p.Matrix()
	assert.True(t, m.ApproxEqual(mgl32.Diag4(mgl32.Vec4{0.5, 0.5, 0.5, 1})))
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Params){
		"fovy":        func(p *Params) { p.Fovy = 181 },
		"aspect":      func(p *Params) { p.Aspect = -1 },
		"rotation":    func(p *Params) { p.YRotation = 400 },
		"translation": func(p *Params) { p.ZTranslation = -101 },
		"scale":       func(p *Params) { p.XScale = -0.5 },
		"colour":      func(p *Params) { p.Green = 2 },
		"planes":      func(p *Params) { p.ZNear, p.ZFar = 10, 5 },
	} {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestMatrixRotation(t *testing.T) {
	p := DefaultParams()
	p.ZRotation = 90
	v := apply(p.Matrix(), 1, 0, 0)
	assert.InDelta(t, 0, v.X(), 1e-6)
	assert.InDelta(t, 0.5, v.Y(), 1e-6)

	p = DefaultParams()
	p.XRotation = 90
	v = apply(p.Matrix(), 0, 1, 0)
	assert.InDelta(t, 0, v.Y(), 1e-6)
	assert.InDelta(t, 0.5, v.Z(), 1e-6)
}

func TestMatrixTranslationBeforeRotation(t *testing.T) {
	p := DefaultParams()
	p.XTranslation = 1
	p.ZRotation = 90
	// the vertex is moved first, then rotated around the origin
	v := apply(p.Matrix(), 0, 0, 0)
	assert.InDelta(t, 0, v.X(), 1e-6)
	assert.InDelta(t, 0.5, v.Y(), 1e-6)
}

func TestMatrixScale(t *testing.T) {
	p := DefaultParams()
	p.XScale = 2
	v := apply(p.Matrix(), 1, 1, -1)
	assert.InDelta(t, 1, v.X(), 1e-6)
	assert.InDelta(t, 0.5, v.Y(), 1e-6)
	assert.InDelta(t, -0.5, v.Z(), 1e-6)
}

func TestResolveAspect(t *testing.T) {
	p := DefaultParams()
	p.ResolveAspect(1920, 1080)
	assert.InDelta(t, 16.0/9.0, p.Aspect, 1e-9)

	p.ResolveAspect(100, 100)
	assert.InDelta(t, 16.0/9.0, p.Aspect, 1e-9, "an aspect once set is kept")

	q := DefaultParams()
	q.ResolveAspect(0, 10)
	assert.Zero(t, q.Aspect)
}

func TestDrawerParams(t *testing.T) {
	_, err := New("t", Params{})
	assert.Error(t, err, "zero znear and zfar")

	d, err := New("t", DefaultParams())
	require.NoError(t, err)

	p := d.Params()
	p.Red = 0.5
	require.NoError(t, d.SetParams(p))
	assert.Equal(t, float32(0.5), d.Params().Red)

	p.Blue = 7
	assert.Error(t, d.SetParams(p))
	assert.Zero(t, d.Params().Blue)

	d.Reshape(nil, 400, 200)
	assert.Equal(t, 2.0, d.Params().Aspect)
}
