// Package drm queries DRM/KMS kernel state through read-only ioctls on a
// device node. It mirrors the subset of the uAPI that libdrm exposes as
// drmGetVersion, drmGetCap and the drmModeGet* family.
package drm

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl direction bits and field shifts from asm-generic/ioctl.h.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	drmIoctlBase = 'd'
)

func ioc(dir, nr int, size uintptr) uint32 {
	return uint32(dir<<iocDirShift |
		drmIoctlBase<<iocTypeShift |
		nr<<iocNrShift |
		int(size)<<iocSizeShift)
}

func iow(nr int, size uintptr) uint32  { return ioc(iocWrite, nr, size) }
func iowr(nr int, size uintptr) uint32 { return ioc(iocRead|iocWrite, nr, size) }

var (
	ioctlVersion          = iowr(0x00, unsafe.Sizeof(sysVersion{}))
	ioctlGetCap           = iowr(0x0c, unsafe.Sizeof(sysGetCap{}))
	ioctlSetClientCap     = iow(0x0d, unsafe.Sizeof(sysSetClientCap{}))
	ioctlModeGetResources = iowr(0xa0, unsafe.Sizeof(sysCardRes{}))
	ioctlModeGetCrtc      = iowr(0xa1, unsafe.Sizeof(sysCrtc{}))
	ioctlModeGetEncoder   = iowr(0xa6, unsafe.Sizeof(sysGetEncoder{}))
	ioctlModeGetConnector = iowr(0xa7, unsafe.Sizeof(sysGetConnector{}))
	ioctlModeGetProperty  = iowr(0xaa, unsafe.Sizeof(sysGetProperty{}))
	ioctlModeGetPropBlob  = iowr(0xac, unsafe.Sizeof(sysGetBlob{}))
	ioctlModeGetFB        = iowr(0xad, unsafe.Sizeof(sysFBCmd{}))
	ioctlModeGetPlaneRes  = iowr(0xb5, unsafe.Sizeof(sysGetPlaneRes{}))
	ioctlModeGetPlane     = iowr(0xb6, unsafe.Sizeof(sysGetPlane{}))
	ioctlModeObjGetProps  = iowr(0xb9, unsafe.Sizeof(sysObjGetProperties{}))
	ioctlModeGetFB2       = iowr(0xce, unsafe.Sizeof(sysFBCmd2{}))
)

// Card is an open DRM device node.
type Card struct {
	fd   int
	path string
}

// Open opens a DRM node read-only.
func Open(path string) (*Card, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	return &Card{fd: fd, path: path}, nil
}

// Close closes the node.
func (c *Card) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	if err != nil {
		return &Error{Op: "close", Path: c.path, Err: err}
	}
	return nil
}

// Path returns the node path.
func (c *Card) Path() string {
	return c.path
}

// ioctl issues cmd, retrying on EINTR and EAGAIN like drmIoctl does.
func (c *Card) ioctl(op string, cmd uint32, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), uintptr(cmd), uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return &Error{Op: op, Path: c.path, Err: errno}
		}
	}
}

// ptr converts the address of a slice's backing array to the u64 form the
// uAPI expects. Callers keep the slice alive across the ioctl.
func ptr[T any](s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&s[0])))
}

func keepAlive(vs ...any) {
	for _, v := range vs {
		runtime.KeepAlive(v)
	}
}
