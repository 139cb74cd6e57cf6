package viewconvert

import (
	"testing"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sbsFrame is a 4x2 side-by-side RGBA frame: red left view, blue right view.
func sbsFrame() (*video.Frame, video.Info) {
	info := video.Info{Format: video.FormatRGBA, Width: 4, Height: 2, MultiviewMode: video.ModeSideBySide}
	f := video.Alloc(info)
	for y := range 2 {
		for x := range 4 {
			p := f.Pixel(x, y)
			if x < 2 {
				copy(p, []byte{255, 0, 0, 255})
			} else {
				copy(p, []byte{0, 0, 255, 255})
			}
		}
	}
	return f, info
}

func solid(info video.Info, rgba ...byte) *video.Frame {
	f := video.Alloc(info)
	for y := range info.Height {
		for x := range info.Width {
			copy(f.Pixel(x, y), rgba)
		}
	}
	return f
}

func configure(t *testing.T, c *ViewConverter, in video.Info, mode video.MultiviewMode, w, h int) video.Info {
	out := in.ChangeMode(mode, video.FlagsNone)
	out.Format = video.FormatRGBA
	out.Width, out.Height = w, h
	require.NoError(t, c.SetFormat(in, out, video.DownmixGreenMagentaDubois))
	return out
}

func TestSideBySideToLeft(t *testing.T) {
	in, info := sbsFrame()
	defer in.Unref()

	c := New("convert-left", 0)
	defer c.Close()
	configure(t, c, info, video.ModeLeft, 2, 2)

	require.NoError(t, c.Submit(in, nil, false))
	out, err := c.Poll()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []byte{255, 0, 0, 255}, out[0].Pixel(1, 1))
	assert.Equal(t, video.ViewLeft, out[0].View)
	assert.True(t, out[0].Flags.Has(video.FlagFirstInBundle))
	video.Release(out...)

	_, err = c.Poll()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRightViewFirstSwaps(t *testing.T) {
	in, info := sbsFrame()
	defer in.Unref()
	info.MultiviewFlags = video.FlagsRightViewFirst
	in.Info = info

	c := New("convert-swap", 0)
	defer c.Close()
	configure(t, c, info, video.ModeLeft, 2, 2)

	require.NoError(t, c.Submit(in, nil, false))
	out, err := c.Poll()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255}, out[0].Pixel(0, 0))
	video.Release(out...)
}

func TestSideBySideToTopBottom(t *testing.T) {
	in, info := sbsFrame()
	defer in.Unref()

	c := New("convert-tb", 0)
	defer c.Close()
	configure(t, c, info, video.ModeTopBottom, 2, 4)

	require.NoError(t, c.Submit(in, nil, false))
	out, err := c.Poll()
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, out[0].Pixel(0, 0))
	assert.Equal(t, []byte{0, 0, 255, 255}, out[0].Pixel(0, 3))
	video.Release(out...)
}

func TestFrameByFrameRoundTrip(t *testing.T) {
	info := video.Info{Format: video.FormatBGRx, Width: 2, Height: 2, MultiviewMode: video.ModeFrameByFrame}
	left := solid(info, 0, 0, 200, 0)
	right := solid(info, 200, 0, 0, 0)
	defer video.Release(left, right)

	c := New("convert-fbf", 0)
	defer c.Close()
	configure(t, c, info, video.ModeSideBySide, 4, 2)

	assert.Error(t, c.Submit(left, nil, false), "needs both halves")

	require.NoError(t, c.Submit(left, right, false))
	out, err := c.Poll()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []byte{200, 0, 0, 255}, out[0].Pixel(0, 0))
	assert.Equal(t, []byte{0, 0, 200, 255}, out[0].Pixel(3, 0))
	video.Release(out...)

	// and back to two frames
	configure(t, c, info, video.ModeFrameByFrame, 2, 2)
	require.NoError(t, c.Submit(left, right, false))
	out, err = c.Poll()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, video.ViewLeft, out[0].View)
	assert.Equal(t, video.ViewRight, out[1].View)
	assert.Equal(t, []byte{200, 0, 0, 255}, out[0].Pixel(1, 1))
	assert.Equal(t, []byte{0, 0, 200, 255}, out[1].Pixel(1, 1))
	video.Release(out...)
}

func TestAnaglyphDownmix(t *testing.T) {
	in, info := sbsFrame()
	defer in.Unref()

	c := New("convert-mono", 0)
	defer c.Close()
	configure(t, c, info, video.ModeMono, 2, 2)

	require.NoError(t, c.Submit(in, nil, false))
	out, err := c.Poll()
	require.NoError(t, err)

	// left red (255,0,0), right blue (0,0,255) through green-magenta dubois
	r, g, b := downmixMatrices[video.DownmixGreenMagentaDubois].apply(
		[3]float32{255, 0, 0}, [3]float32{0, 0, 255})
	assert.Equal(t, []byte{r, g, b, 255}, out[0].Pixel(0, 0))
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(56), g)
	assert.Equal(t, uint8(235), b)
	video.Release(out...)
}

func TestLatencyAndDiscont(t *testing.T) {
	in, info := sbsFrame()
	defer in.Unref()

	c := New("convert-latency", 1)
	defer c.Close()
	configure(t, c, info, video.ModeLeft, 2, 2)

	in.PTS = 1
	require.NoError(t, c.Submit(in, nil, false))
	_, err := c.Poll()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, int32(2), in.RefCount())

	// discont drops what was queued
	in.PTS = 2
	require.NoError(t, c.Submit(in, nil, true))
	_, err = c.Poll()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, int32(2), in.RefCount())

	require.NoError(t, c.Submit(in, nil, false))
	out, err := c.Poll()
	require.NoError(t, err)
	assert.True(t, out[0].Flags.Has(video.FlagDiscont))
	video.Release(out...)

	c.Flush()
	assert.Equal(t, int32(1), in.RefCount())
}

func TestSetFormatRejects(t *testing.T) {
	_, info := sbsFrame()
	c := New("convert-reject", 0)
	defer c.Close()

	out := info.ChangeMode(video.ModeLeft, video.FlagsNone)
	out.Format = video.FormatBGRA
	assert.Error(t, c.SetFormat(info, out, video.DownmixGreenMagentaDubois))

	out.Format = video.FormatRGBA
	out.MultiviewMode = video.ModeNone
	assert.Error(t, c.SetFormat(info, out, video.DownmixGreenMagentaDubois))

	f, _ := sbsFrame()
	defer f.Unref()
	assert.ErrorIs(t, c.Submit(f, nil, false), ErrNotConfigured)
}

func TestFlipFlop(t *testing.T) {
	info := video.Info{Format: video.FormatRGBA, Width: 2, Height: 1, MultiviewMode: video.ModeFrameByFrame,
		MultiviewFlags: video.FlagsLeftFlopped}
	left := video.NewFrame(info, []byte{1, 1, 1, 255, 2, 2, 2, 255}, nil)
	right := video.NewFrame(info, []byte{3, 3, 3, 255, 4, 4, 4, 255}, nil)
	defer video.Release(left, right)

	c := New("convert-flop", 0)
	defer c.Close()
	configure(t, c, info, video.ModeSideBySide, 4, 1)

	require.NoError(t, c.Submit(left, right, false))
	out, err := c.Poll()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 2, 2, 255, 1, 1, 1, 255, 3, 3, 3, 255, 4, 4, 4, 255}, out[0].Data)
	video.Release(out...)
}
