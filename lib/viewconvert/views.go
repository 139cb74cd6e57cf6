package viewconvert

import (
	"github.com/fosdem/vrsink/lib/video"
)

// view is one eye's picture inside an input frame.
type view struct {
	frame *video.Frame
	rect  video.Rectangle
	// flip mirrors vertically, flop horizontally
	flip, flop bool
}

func (c *ViewConverter) views(b bundle) (left, right view) {
	in := c.in
	full := video.Rectangle{W: in.Width, H: in.Height}
	left = view{frame: b.primary, rect: full}
	right = view{frame: b.primary, rect: full}

	switch in.MultiviewMode {
	case video.ModeSideBySide:
		half := in.Width / 2
		left.rect = video.Rectangle{W: half, H: in.Height}
		right.rect = video.Rectangle{X: half, W: in.Width - half, H: in.Height}
	case video.ModeTopBottom:
		half := in.Height / 2
		left.rect = video.Rectangle{W: in.Width, H: half}
		right.rect = video.Rectangle{Y: half, W: in.Width, H: in.Height - half}
	case video.ModeFrameByFrame:
		right.frame = b.secondary
	}

	flags := in.MultiviewFlags
	if flags&video.FlagsRightViewFirst != 0 {
		left, right = right, left
	}
	left.flip = flags&video.FlagsLeftFlipped != 0
	left.flop = flags&video.FlagsLeftFlopped != 0
	right.flip = flags&video.FlagsRightFlipped != 0
	right.flop = flags&video.FlagsRightFlopped != 0
	return left, right
}

// sampler reads RGBA values out of any supported packed format.
type sampler struct {
	data   []byte
	stride int
	bpp    int
	off    [4]int
	alpha  bool
}

func newSampler(f *video.Frame) sampler {
	return sampler{
		data:   f.Data,
		stride: f.Info.Stride(),
		bpp:    f.Info.Format.BytesPerPixel(),
		off:    f.Info.Format.ComponentOffsets(),
		alpha:  f.Info.Format.HasAlpha(),
	}
}

func (s sampler) at(x, y int) (r, g, b, a uint8) {
	p := s.data[y*s.stride+x*s.bpp:]
	r = p[s.off[video.CompR]]
	g = p[s.off[video.CompG]]
	b = p[s.off[video.CompB]]
	a = 255
	if s.alpha {
		a = p[s.off[video.CompA]]
	}
	return
}

// srcCoord maps a destination coordinate onto the view, nearest neighbour.
func (v view) srcCoord(dx, dy, dw, dh int) (int, int) {
	sx := dx * v.rect.W / dw
	sy := dy * v.rect.H / dh
	if v.flop {
		sx = v.rect.W - 1 - sx
	}
	if v.flip {
		sy = v.rect.H - 1 - sy
	}
	return v.rect.X + sx, v.rect.Y + sy
}

// blit scales v into the dst rectangle of an RGBA frame.
func blit(dst *video.Frame, rect video.Rectangle, v view) {
	src := newSampler(v.frame)
	stride := dst.Info.Stride()
	for y := range rect.H {
		row := dst.Data[(rect.Y+y)*stride:]
		for x := range rect.W {
			sx, sy := v.srcCoord(x, y, rect.W, rect.H)
			r, g, b, a := src.at(sx, sy)
			p := row[(rect.X+x)*4:]
			p[0], p[1], p[2], p[3] = r, g, b, a
		}
	}
}

// anaglyph mixes both views into the whole of an RGBA frame.
func anaglyph(dst *video.Frame, left, right view, m downmixMatrix) {
	ls := newSampler(left.frame)
	rs := newSampler(right.frame)
	w, h := dst.Info.Width, dst.Info.Height
	stride := dst.Info.Stride()

	for y := range h {
		row := dst.Data[y*stride:]
		for x := range w {
			lx, ly := left.srcCoord(x, y, w, h)
			rx, ry := right.srcCoord(x, y, w, h)
			lr, lg, lb, _ := ls.at(lx, ly)
			rr, rg, rb, _ := rs.at(rx, ry)
			r, g, b := m.apply(
				[3]float32{float32(lr), float32(lg), float32(lb)},
				[3]float32{float32(rr), float32(rg), float32(rb)},
			)
			p := row[x*4:]
			p[0], p[1], p[2], p[3] = r, g, b, 255
		}
	}
}

func (c *ViewConverter) convert(b bundle) ([]*video.Frame, error) {
	left, right := c.views(b)
	out := c.out
	full := video.Rectangle{W: out.Width, H: out.Height}

	first, err := c.acquire()
	if err != nil {
		return nil, err
	}
	frames := []*video.Frame{first}

	switch out.MultiviewMode {
	case video.ModeMono:
		if c.in.MultiviewMode.IsMono() {
			blit(first, full, left)
		} else {
			anaglyph(first, left, right, downmixMatrices[c.downmix])
		}
	case video.ModeLeft:
		blit(first, full, left)
		first.View = video.ViewLeft
	case video.ModeRight:
		blit(first, full, right)
		first.View = video.ViewRight
	case video.ModeSideBySide:
		half := out.Width / 2
		blit(first, video.Rectangle{W: half, H: out.Height}, left)
		blit(first, video.Rectangle{X: half, W: out.Width - half, H: out.Height}, right)
	case video.ModeTopBottom:
		half := out.Height / 2
		blit(first, video.Rectangle{W: out.Width, H: half}, left)
		blit(first, video.Rectangle{Y: half, W: out.Width, H: out.Height - half}, right)
	case video.ModeFrameByFrame:
		second, err := c.acquire()
		if err != nil {
			first.Unref()
			return nil, err
		}
		blit(first, full, left)
		blit(second, full, right)
		first.View = video.ViewLeft
		second.View = video.ViewRight
		second.PTS = b.primary.PTS
		second.Duration = b.primary.Duration
		frames = append(frames, second)
	}

	first.PTS = b.primary.PTS
	first.Duration = b.primary.Duration
	first.Flags = video.FlagFirstInBundle
	if b.discont {
		first.Flags |= video.FlagDiscont
	}
	return frames, nil
}
