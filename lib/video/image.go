package video

import (
	"fmt"
	"image"
	"image/draw"
)

// FrameFromImage draws img into an RGBA frame of the same size.
func FrameFromImage(img image.Image, into *Frame) error {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	if w != into.Info.Width || h != into.Info.Height {
		return fmt.Errorf("expected image of size %dx%d but got %dx%d", into.Info.Width, into.Info.Height, w, h)
	}
	if into.Info.Format != FormatRGBA {
		return fmt.Errorf("can only draw images into RGBA frames, not %s", into.Info.Format)
	}
	if len(into.Data) != w*h*4 {
		return fmt.Errorf("expected buffer of size %d but got %d", w*h*4, len(into.Data))
	}

	nrgba := &image.NRGBA{
		Pix:    into.Data,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

// ToImage copies a frame into an NRGBA image, whatever its packing.
func ToImage(f *Frame) (*image.NRGBA, error) {
	info := f.Info
	bpp := info.Format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("cannot convert %s frames to an image", info.Format)
	}
	if len(f.Data) < info.Size() {
		return nil, fmt.Errorf("frame buffer too small: %d < %d", len(f.Data), info.Size())
	}

	off := info.Format.ComponentOffsets()
	img := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
	for y := range info.Height {
		src := f.Data[y*info.Stride():]
		dst := img.Pix[y*img.Stride:]
		for x := range info.Width {
			p := src[x*bpp:]
			q := dst[x*4:]
			q[0] = p[off[CompR]]
			q[1] = p[off[CompG]]
			q[2] = p[off[CompB]]
			if info.Format.HasAlpha() {
				q[3] = p[off[CompA]]
			} else {
				q[3] = 255
			}
		}
	}
	return img, nil
}
