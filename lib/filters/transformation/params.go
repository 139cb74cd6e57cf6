// Package transformation draws the video on a quad rotated, translated and
// scaled in 3D, with a plain background behind it.
package transformation

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Params struct {
	Fovy   float64 `yaml:"fovy" json:"fovy"`
	Aspect float64 `yaml:"aspect" json:"aspect"`
	ZNear  float64 `yaml:"znear" json:"znear"`
	ZFar   float64 `yaml:"zfar" json:"zfar"`

	XRotation float32 `yaml:"xrotation" json:"xrotation"`
	YRotation float32 `yaml:"yrotation" json:"yrotation"`
	ZRotation float32 `yaml:"zrotation" json:"zrotation"`

	XTranslation float32 `yaml:"xtranslation" json:"xtranslation"`
	YTranslation float32 `yaml:"ytranslation" json:"ytranslation"`
	ZTranslation float32 `yaml:"ztranslation" json:"ztranslation"`

	XScale float32 `yaml:"xscale" json:"xscale"`
	YScale float32 `yaml:"yscale" json:"yscale"`

	// background
	Red   float32 `yaml:"red" json:"red"`
	Green float32 `yaml:"green" json:"green"`
	Blue  float32 `yaml:"blue" json:"blue"`
}

func DefaultParams() Params {
	return Params{
		Fovy:   45,
		ZNear:  0.1,
		ZFar:   100,
		XScale: 1,
		YScale: 1,
	}
}

func checkRange[T float32 | float64](name string, v, lo, hi T) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %v and %v, not %v", name, lo, hi, v)
	}
	return nil
}

func (p *Params) Validate() error {
	checks := []error{
		checkRange("fovy", p.Fovy, 0, 180),
		checkRange("aspect", p.Aspect, 0, 100),
		checkRange("znear", p.ZNear, 0, 100),
		checkRange("zfar", p.ZFar, 0, 1000),
		checkRange("xrotation", p.XRotation, -360, 360),
		checkRange("yrotation", p.YRotation, -360, 360),
		checkRange("zrotation", p.ZRotation, -360, 360),
		checkRange("xtranslation", p.XTranslation, -100, 100),
		checkRange("ytranslation", p.YTranslation, -100, 100),
		checkRange("ztranslation", p.ZTranslation, -100, 100),
		checkRange("xscale", p.XScale, 0, 100),
		checkRange("yscale", p.YScale, 0, 100),
		checkRange("red", p.Red, 0, 1),
		checkRange("green", p.Green, 0, 1),
		checkRange("blue", p.Blue, 0, 1),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if p.ZNear >= p.ZFar {
		return fmt.Errorf("znear (%v) must be smaller than zfar (%v)", p.ZNear, p.ZFar)
	}
	return nil
}

// ResolveAspect fills in an automatic (zero) aspect from the output size.
func (p *Params) ResolveAspect(width, height int) {
	if p.Aspect == 0 && width > 0 && height > 0 {
		p.Aspect = float64(width) / float64(height)
	}
}

// Matrix is the model matrix applied to the quad: a fixed half scale
// projection, the scale factors, then rotation around Z, Y and X of the
// translated vertex.
func (p *Params) Matrix() mgl32.Mat4 {
	half := mgl32.Scale3D(0.5, 0.5, 0.5)
	scale := mgl32.Scale3D(p.XScale, p.YScale, 1)
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(p.ZRotation))
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(p.YRotation))
	rx := mgl32.HomogRotate3DX(mgl32.DegToRad(p.XRotation))
	t := mgl32.Translate3D(p.XTranslation, p.YTranslation, p.ZTranslation)
	return half.Mul4(scale).Mul4(rz).Mul4(ry).Mul4(rx).Mul4(t)
}
