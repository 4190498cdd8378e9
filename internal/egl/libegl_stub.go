//go:build !linux || cgo || !(amd64 || arm64)

package egl

// Load reports ErrUnsupported: libEGL is loaded through goffi, which needs a
// cgo-free linux/amd64 or linux/arm64 build.
func Load() (Backend, error) {
	return nil, ErrUnsupported
}
