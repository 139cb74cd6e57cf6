package glthread

import "golang.org/x/sys/unix"

func currentThreadID() int64 {
	return int64(unix.Gettid())
}
