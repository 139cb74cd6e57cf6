package bufferpool

import (
	"fmt"

	"github.com/fosdem/vrsink/lib/video"
)

// MinBuffers lets the sink hold one frame while the producer fills another.
const MinBuffers = 2

// Proposal is the sink's answer to an allocation query.
type Proposal struct {
	Info       video.Info
	Size       int
	MinBuffers int
	MaxBuffers int
	// FenceMeta is set when producers may attach GPU fences to frames.
	FenceMeta bool
	// Pool is nil when the producer did not ask for one.
	Pool *Pool
}

func NewProposal(name string, info video.Info, needPool bool, fenceMeta bool) (*Proposal, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("cannot propose allocation: %w", err)
	}

	p := &Proposal{
		Info:       info,
		Size:       info.Size(),
		MinBuffers: MinBuffers,
		FenceMeta:  fenceMeta,
	}
	if needPool {
		pool, err := New(name, Config{Info: info, MinBuffers: MinBuffers})
		if err != nil {
			return nil, fmt.Errorf("pool configuration rejected: %w", err)
		}
		p.Pool = pool
	}
	return p, nil
}
