package rendering

import (
	"sync"

	"github.com/fosdem/vrsink/lib/video"
)

type textureKey struct {
	width  int
	height int
	format video.Format
}

func keyOf(info video.Info) textureKey {
	return textureKey{width: info.Width, height: info.Height, format: info.Format}
}

// TextureCache hands out textures for frames and takes them back when the
// frame is no longer referenced. Allocation happens on the GL thread;
// textures come back from whichever goroutine drops the last reference, so
// returning them only touches the free lists.
type TextureCache struct {
	alloc func(video.Info) uint32

	mu     sync.Mutex
	free   map[textureKey][]uint32
	inUse  map[uint32]textureKey
	closed bool
}

func NewTextureCache(alloc func(video.Info) uint32) *TextureCache {
	return &TextureCache{
		alloc: alloc,
		free:  make(map[textureKey][]uint32),
		inUse: make(map[uint32]textureKey),
	}
}

// Bind gives f a texture of its size and format, reusing the one it
// already holds from this cache.
func (c *TextureCache) Bind(f *video.Frame) uint32 {
	key := keyOf(f.Info)

	c.mu.Lock()
	if k, ok := c.inUse[f.Texture]; f.Texture != 0 && ok && k == key {
		c.mu.Unlock()
		return f.Texture
	}

	var tex uint32
	if list := c.free[key]; len(list) > 0 {
		tex = list[len(list)-1]
		c.free[key] = list[:len(list)-1]
	}
	c.mu.Unlock()

	if tex == 0 {
		tex = c.alloc(f.Info)
	}

	c.mu.Lock()
	c.inUse[tex] = key
	c.mu.Unlock()

	f.Texture = tex
	f.OnUnused(func() { c.put(tex) })
	return tex
}

func (c *TextureCache) put(tex uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.inUse[tex]
	if !ok || c.closed {
		return
	}
	delete(c.inUse, tex)
	c.free[key] = append(c.free[key], tex)
}

func (c *TextureCache) Free() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, list := range c.free {
		n += len(list)
	}
	return n
}

// Close returns every texture the cache ever allocated so the caller can
// delete them. Textures coming back later are ignored.
func (c *TextureCache) Close() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var all []uint32
	for _, list := range c.free {
		all = append(all, list...)
	}
	for tex := range c.inUse {
		all = append(all, tex)
	}
	c.free = make(map[textureKey][]uint32)
	c.inUse = make(map[uint32]textureKey)
	c.closed = true
	return all
}
