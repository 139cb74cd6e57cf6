package sink

import "errors"

var (
	// ErrNotNegotiated is returned for frames that arrive before a usable
	// format was set.
	ErrNotNegotiated     = errors.New("not negotiated")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoContext         = errors.New("no gpu context")
	ErrPoolRejected      = errors.New("buffer pool configuration rejected")
	// ErrConversion aborts the prepare cycle of one frame only.
	ErrConversion   = errors.New("failed to convert multiview video buffer")
	ErrWindowClosed = errors.New("output window was closed")
	// ErrResourceSetup is fatal until the sink is torn down.
	ErrResourceSetup = errors.New("failed to set up gpu resources")
)
