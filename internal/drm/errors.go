package drm

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Error records a failed kernel call on a DRM node.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("drm %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("drm %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrShortBlob is returned when a property blob is smaller than its
// declared layout.
var ErrShortBlob = errors.New("blob too short")

// IsNotSupported reports whether err means the driver lacks the request.
func IsNotSupported(err error) bool {
	return errors.Is(err, unix.EINVAL) ||
		errors.Is(err, unix.EOPNOTSUPP) ||
		errors.Is(err, unix.ENOTTY)
}

// IsPermission reports whether err is an access failure, typically from
// opening a node without the video/render group.
func IsPermission(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}
