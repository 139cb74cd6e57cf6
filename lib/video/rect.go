package video

import (
	"fmt"
	"math/bits"
)

type Rectangle struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.W, r.H)
}

// Contains reports whether o lies entirely inside r.
func (r Rectangle) Contains(o Rectangle) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// CenterRect places src inside dst. With scaling, src is resized to the
// largest size that fits dst while keeping its aspect ratio; without, it is
// cropped to dst. Leftover space is split evenly, rounding down.
// Width and height of the result are at least 1.
func CenterRect(src, dst Rectangle, scaling bool) Rectangle {
	var r Rectangle

	if !scaling {
		r.W = min(src.W, dst.W)
		r.H = min(src.H, dst.H)
	} else if src.W <= 0 || src.H <= 0 || dst.W <= 0 || dst.H <= 0 {
		r.W, r.H = dst.W, dst.H
	} else {
		// compare src.W/src.H with dst.W/dst.H without floats
		lhs := int64(src.W) * int64(dst.H)
		rhs := int64(dst.W) * int64(src.H)
		switch {
		case lhs > rhs:
			r.W = dst.W
			r.H = int(int64(dst.W) * int64(src.H) / int64(src.W))
		case lhs < rhs:
			r.W = int(int64(dst.H) * int64(src.W) / int64(src.H))
			r.H = dst.H
		default:
			r.W, r.H = dst.W, dst.H
		}
	}

	r.W = max(1, r.W)
	r.H = max(1, r.H)
	r.X = dst.X + max(0, (dst.W-r.W)/2)
	r.Y = dst.Y + max(0, (dst.H-r.H)/2)
	return r
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// DisplayRatio computes the display aspect ratio of a width x height
// picture with pixel aspect parN/parD shown on a display whose pixels have
// aspect dispParN/dispParD. The result is reduced.
func DisplayRatio(width, height, parN, parD, dispParN, dispParD int) (uint, uint, error) {
	if width <= 0 || height <= 0 || parN <= 0 || parD <= 0 || dispParN <= 0 || dispParD <= 0 {
		return 0, 0, fmt.Errorf("cannot compute display ratio of %dx%d par %d/%d on %d/%d",
			width, height, parN, parD, dispParN, dispParD)
	}

	num, err := mul3(uint64(width), uint64(parN), uint64(dispParD))
	if err != nil {
		return 0, 0, err
	}
	den, err := mul3(uint64(height), uint64(parD), uint64(dispParN))
	if err != nil {
		return 0, 0, err
	}
	g := gcd(num, den)
	num /= g
	den /= g
	if num > uint64(^uint32(0)) || den > uint64(^uint32(0)) {
		return 0, 0, fmt.Errorf("display ratio %d/%d overflows", num, den)
	}
	return uint(num), uint(den), nil
}

func mul3(a, b, c uint64) (uint64, error) {
	hi, ab := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("display ratio overflows")
	}
	hi, abc := bits.Mul64(ab, c)
	if hi != 0 {
		return 0, fmt.Errorf("display ratio overflows")
	}
	return abc, nil
}

// DisplaySize picks the size a stream should be shown at so that its
// display aspect ratio is respected: keep the height if it divides evenly,
// else keep the width if that divides evenly, else approximate keeping the
// height.
func DisplaySize(info Info, dispParN, dispParD int) (int, int, error) {
	if dispParN == 0 || dispParD == 0 {
		dispParN, dispParD = 1, 1
	}
	parN, parD := info.PAR()
	num, den, err := DisplayRatio(info.Width, info.Height, parN, parD, dispParN, dispParD)
	if err != nil {
		return 0, 0, err
	}

	w, h := uint64(info.Width), uint64(info.Height)
	n, d := uint64(num), uint64(den)
	switch {
	case h%d == 0:
		return int(h * n / d), int(h), nil
	case w%n == 0:
		return int(w), int(w * d / n), nil
	default:
		return int(h * n / d), int(h), nil
	}
}
