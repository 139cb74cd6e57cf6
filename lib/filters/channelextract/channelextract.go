// Package channelextract replaces the colour of every pixel by the value of
// one of its channels, leaving an opaque grey image.
package channelextract

import (
	"fmt"
	"sync"

	"github.com/fosdem/vrsink/lib/video"
)

// Channels are counted in A, R, G, B order.
const (
	ChannelAlpha uint = iota
	ChannelRed
	ChannelGreen
	ChannelBlue
)

type Filter struct {
	mu      sync.Mutex
	channel uint
	format  video.Format
	// byte offsets of A, R, G and B
	offsets [4]int
}

func New(channel uint) (*Filter, error) {
	f := &Filter{}
	if err := f.SetChannel(channel); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filter) Name() string {
	return "channelextract"
}

func (f *Filter) SetChannel(channel uint) error {
	if channel > ChannelBlue {
		return fmt.Errorf("channel must be between 0 and 3, not %d", channel)
	}
	f.mu.Lock()
	f.channel = channel
	f.mu.Unlock()
	return nil
}

func (f *Filter) Channel() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channel
}

func supported(format video.Format) bool {
	return format.BytesPerPixel() == 4
}

// SetCaps accepts every four byte RGB layout; the output format is the
// input format.
func (f *Filter) SetCaps(info video.Info) (video.Info, error) {
	if !supported(info.Format) {
		return video.Info{}, fmt.Errorf("channelextract cannot handle %s", info.Format)
	}
	off := info.Format.ComponentOffsets()
	f.mu.Lock()
	f.format = info.Format
	f.offsets = [4]int{off[video.CompA], off[video.CompR], off[video.CompG], off[video.CompB]}
	f.mu.Unlock()
	return info, nil
}

// Process rewrites frame in place.
func (f *Filter) Process(frame *video.Frame) (*video.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.format == video.FormatUnknown {
		return nil, fmt.Errorf("channelextract was not negotiated yet")
	}
	if frame.Info.Format != f.format {
		return nil, fmt.Errorf("expected %s frame, got %s", f.format, frame.Info.Format)
	}
	if len(frame.Data) < frame.Info.Size() {
		return nil, fmt.Errorf("frame buffer too small: %d < %d", len(frame.Data), frame.Info.Size())
	}

	p := f.offsets
	src := p[f.channel]
	data := frame.Data[:frame.Info.Size()]
	for i := 0; i < len(data); i += 4 {
		px := data[i : i+4]
		c := px[src]
		px[p[0]] = 255
		px[p[1]] = c
		px[p[2]] = c
		px[p[3]] = c
	}
	return frame, nil
}
