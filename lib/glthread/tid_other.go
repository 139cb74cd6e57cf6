//go:build !linux

package glthread

// Without a thread id we cannot detect re-entrant Send calls; they must not
// happen on these platforms.
func currentThreadID() int64 {
	return -2
}
