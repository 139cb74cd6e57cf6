package sink

import (
	"github.com/fosdem/vrsink/lib/video"
)

// Renderer owns the GL objects of the default presentation path. Every
// method runs on the GL thread.
type Renderer interface {
	Setup() error
	// Upload puts the pixels of each frame into a texture and stores its id
	// in Frame.Texture.
	Upload(frames ...*video.Frame) error
	Viewport(r video.Rectangle)
	// Blit draws the textures into rect: one fills it, two are drawn as
	// the left and right half.
	Blit(rect video.Rectangle, textures []uint32, ignoreAlpha bool)
	Cleanup()
}
