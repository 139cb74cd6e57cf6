package channelextract

import (
	"testing"

	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onePixel(t *testing.T, format video.Format, px []byte) *video.Frame {
	t.Helper()
	f := video.Alloc(video.Info{Format: format, Width: 1, Height: 1})
	copy(f.Data, px)
	return f
}

func TestExtract(t *testing.T) {
	for _, tc := range []struct {
		format  video.Format
		pixel   []byte
		channel uint
		want    []byte
	}{
		// R=10 G=20 B=30 A=40 in every layout
		{video.FormatRGBA, []byte{10, 20, 30, 40}, ChannelRed, []byte{10, 10, 10, 255}},
		{video.FormatRGBA, []byte{10, 20, 30, 40}, ChannelAlpha, []byte{40, 40, 40, 255}},
		{video.FormatBGRA, []byte{30, 20, 10, 40}, ChannelGreen, []byte{20, 20, 20, 255}},
		{video.FormatARGB, []byte{40, 10, 20, 30}, ChannelBlue, []byte{255, 30, 30, 30}},
		{video.FormatABGR, []byte{40, 30, 20, 10}, ChannelRed, []byte{255, 10, 10, 10}},
		{video.FormatXRGB, []byte{0, 10, 20, 30}, ChannelGreen, []byte{255, 20, 20, 20}},
		{video.FormatBGRx, []byte{30, 20, 10, 0}, ChannelBlue, []byte{30, 30, 30, 255}},
	} {
		t.Run(tc.format.String(), func(t *testing.T) {
			f, err := New(tc.channel)
			require.NoError(t, err)
			frame := onePixel(t, tc.format, tc.pixel)
			_, err = f.SetCaps(frame.Info)
			require.NoError(t, err)

			out, err := f.Process(frame)
			require.NoError(t, err)
			assert.Same(t, frame, out)
			assert.Equal(t, tc.want, out.Data)
		})
	}
}

func TestOutputIsGrey(t *testing.T) {
	f, err := New(ChannelGreen)
	require.NoError(t, err)
	info := video.Info{Format: video.FormatBGRA, Width: 3, Height: 2}
	frame := video.Alloc(info)
	for i := range frame.Data {
		frame.Data[i] = byte(i * 7)
	}
	_, err = f.SetCaps(info)
	require.NoError(t, err)
	_, err = f.Process(frame)
	require.NoError(t, err)

	img, err := video.ToImage(frame)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += 4 {
		assert.Equal(t, img.Pix[i], img.Pix[i+1])
		assert.Equal(t, img.Pix[i], img.Pix[i+2])
		assert.EqualValues(t, 255, img.Pix[i+3])
	}
}

func TestRejects(t *testing.T) {
	_, err := New(4)
	assert.Error(t, err)

	f, err := New(ChannelRed)
	require.NoError(t, err)

	frame := onePixel(t, video.FormatRGBA, []byte{1, 2, 3, 4})
	_, err = f.Process(frame)
	assert.Error(t, err, "not negotiated")

	_, err = f.SetCaps(video.Info{Format: video.FormatRGB, Width: 1, Height: 1})
	assert.Error(t, err)

	_, err = f.SetCaps(video.Info{Format: video.FormatBGRA, Width: 1, Height: 1})
	require.NoError(t, err)
	_, err = f.Process(frame)
	assert.Error(t, err, "format mismatch")

	assert.Error(t, f.SetChannel(9))
	assert.Equal(t, ChannelRed, f.Channel())
}
