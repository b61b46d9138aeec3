package verify

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isCrossDevice reports whether err is the os.Rename failure mode
// produced when src and dst live on different filesystems (EXDEV),
// unwrapping the *os.LinkError rename wraps its syscall errno in.
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, unix.EXDEV)
}
