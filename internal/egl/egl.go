// Package egl lists the EGL devices of the system with their client
// identification and the dmabuf formats and modifiers they can import.
package egl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnsupported is returned by Load when the binary was built without
	// dynamic library loading.
	ErrUnsupported = errors.New("egl: not supported by this build (requires CGO_ENABLED=0 on linux/amd64 or linux/arm64)")
	// ErrNoDmaBuf reports a display without EGL_EXT_image_dma_buf_import_modifiers.
	ErrNoDmaBuf = errors.New("egl: dmabuf import modifiers not supported")
)

// Report maps DRM device files to their EGL information. Devices without a
// DRM node are keyed by the empty string.
type Report map[string]*Info

type Info struct {
	Vendor   string   `json:"vendor" yaml:"vendor"`
	Version  string   `json:"version" yaml:"version"`
	Renderer string   `json:"renderer" yaml:"renderer"`
	Formats  []Format `json:"formats,omitempty" yaml:"formats,omitempty"`
}

// Format is one importable dmabuf format with its modifiers.
type Format struct {
	Format    uint32   `json:"format" yaml:"format"`
	Modifiers []uint64 `json:"modifiers" yaml:"modifiers"`
}

// Paths returns the device paths in sorted order.
func (r Report) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Backend enumerates EGL devices. Load returns the libEGL implementation.
type Backend interface {
	Devices() ([]Device, error)
	Close() error
}

type Device interface {
	// Path is the DRM device file, empty when the device has none.
	Path() string
	Open() (Display, error)
}

// Display is an initialized display with a current GLES context.
type Display interface {
	Vendor() string
	Version() string
	Renderer() string
	// DmaBufFormats returns ErrNoDmaBuf when the extension is missing.
	DmaBufFormats() ([]uint32, error)
	DmaBufModifiers(format uint32) ([]uint64, error)
	Close() error
}

// Collector gathers EGL device state.
type Collector struct {
	// Backend is used instead of libEGL when set.
	Backend Backend
	Logger  *log.Logger
}

// Collect queries every EGL device, or only those whose DRM device file is
// in paths. Devices that fail to initialize are logged and left out.
func (c *Collector) Collect(ctx context.Context, paths []string) (Report, error) {
	backend := c.Backend
	if backend == nil {
		b, err := Load()
		if err != nil {
			return nil, err
		}
		defer b.Close()
		backend = b
	}

	devices, err := backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("query egl devices: %w", err)
	}
	c.logger().Debug("egl devices", "count", len(devices))

	rep := make(Report)
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		path := dev.Path()
		if len(paths) > 0 && !slices.Contains(paths, path) {
			continue
		}
		info, err := c.device(dev)
		if err != nil {
			c.logger().Warn("failed to query egl device", "path", path, "err", err)
			continue
		}
		rep[path] = info
	}
	return rep, nil
}

func (c *Collector) device(dev Device) (*Info, error) {
	d, err := dev.Open()
	if err != nil {
		return nil, err
	}
	defer d.Close()

	info := &Info{
		Vendor:   d.Vendor(),
		Version:  d.Version(),
		Renderer: d.Renderer(),
	}
	formats, err := d.DmaBufFormats()
	if errors.Is(err, ErrNoDmaBuf) {
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query dmabuf formats: %w", err)
	}

	info.Formats = make([]Format, 0, len(formats))
	for _, f := range formats {
		mods, err := d.DmaBufModifiers(f)
		if err != nil {
			c.logger().Warn("failed to query modifiers", "path", dev.Path(), "format", f, "err", err)
			mods = nil
		}
		if mods == nil {
			mods = []uint64{}
		}
		info.Formats = append(info.Formats, Format{Format: f, Modifiers: mods})
	}
	return info, nil
}

func (c *Collector) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}
