package egl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"drminfo/internal/fourcc"
	"drminfo/internal/report"
)

const amdModifier = 0x0200000000603901

type fakeDisplay struct {
	renderer string
	formats  map[uint32][]uint64
	order    []uint32
	noDmaBuf bool
	closed   *int
}

func (d *fakeDisplay) Vendor() string   { return "Mesa Project" }
func (d *fakeDisplay) Version() string  { return "1.5" }
func (d *fakeDisplay) Renderer() string { return d.renderer }

func (d *fakeDisplay) DmaBufFormats() ([]uint32, error) {
	if d.noDmaBuf {
		return nil, ErrNoDmaBuf
	}
	return d.order, nil
}

func (d *fakeDisplay) DmaBufModifiers(format uint32) ([]uint64, error) {
	mods, ok := d.formats[format]
	if !ok {
		return nil, errors.New("bad format")
	}
	return mods, nil
}

func (d *fakeDisplay) Close() error {
	*d.closed++
	return nil
}

type fakeDevice struct {
	path    string
	display *fakeDisplay
	err     error
}

func (d *fakeDevice) Path() string { return d.path }

func (d *fakeDevice) Open() (Display, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.display, nil
}

type fakeBackend struct {
	devices []Device
	err     error
}

func (b *fakeBackend) Devices() ([]Device, error) { return b.devices, b.err }
func (b *fakeBackend) Close() error               { return nil }

func newFakeBackend(closed *int) *fakeBackend {
	return &fakeBackend{devices: []Device{
		&fakeDevice{path: "/dev/dri/card0", display: &fakeDisplay{
			renderer: "AMD Radeon RX 7900 XTX",
			order:    []uint32{fourcc.XRGB8888, fourcc.NV12, fourcc.ARGB8888},
			formats: map[uint32][]uint64{
				fourcc.XRGB8888: {0, amdModifier},
				fourcc.ARGB8888: {0},
			},
			closed: closed,
		}},
		&fakeDevice{path: "", display: &fakeDisplay{renderer: "llvmpipe", noDmaBuf: true, closed: closed}},
		&fakeDevice{path: "/dev/dri/card1", err: errors.New("eglInitialize failed")},
	}}
}

func collect(t *testing.T, b Backend, paths ...string) (Report, string) {
	t.Helper()
	var logs bytes.Buffer
	c := &Collector{Backend: b, Logger: log.New(&logs)}
	rep, err := c.Collect(context.Background(), paths)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rep, logs.String()
}

func TestCollect(t *testing.T) {
	var closed int
	rep, logs := collect(t, newFakeBackend(&closed))

	if len(rep) != 2 {
		t.Fatalf("report has %d devices, want 2: %v", len(rep), rep.Paths())
	}
	if closed != 2 {
		t.Errorf("closed %d displays, want 2", closed)
	}
	if !strings.Contains(logs, "failed to query egl device") {
		t.Errorf("logs = %q, want a warning for card1", logs)
	}

	card0 := rep["/dev/dri/card0"]
	if card0 == nil || card0.Renderer != "AMD Radeon RX 7900 XTX" || card0.Vendor != "Mesa Project" {
		t.Fatalf("card0 = %+v", card0)
	}
	if len(card0.Formats) != 3 {
		t.Fatalf("formats = %+v", card0.Formats)
	}
	if f := card0.Formats[0]; f.Format != fourcc.XRGB8888 || len(f.Modifiers) != 2 || f.Modifiers[1] != amdModifier {
		t.Errorf("formats[0] = %+v", f)
	}
	if f := card0.Formats[1]; f.Format != fourcc.NV12 || f.Modifiers == nil || len(f.Modifiers) != 0 {
		t.Errorf("format with failed modifier query = %+v, want empty list", f)
	}

	sw := rep[""]
	if sw == nil || sw.Formats != nil {
		t.Errorf("device without dmabuf = %+v", sw)
	}
}

func TestCollectFiltersPaths(t *testing.T) {
	var closed int
	rep, _ := collect(t, newFakeBackend(&closed), "/dev/dri/card0", "/dev/dri/card9")
	if paths := rep.Paths(); len(paths) != 1 || paths[0] != "/dev/dri/card0" {
		t.Errorf("paths = %v", paths)
	}
	if closed != 1 {
		t.Errorf("closed %d displays, want 1", closed)
	}
}

func TestCollectErrors(t *testing.T) {
	c := &Collector{Backend: &fakeBackend{err: errors.New("no devices")}}
	if _, err := c.Collect(context.Background(), nil); err == nil {
		t.Error("expected device query error")
	}

	var closed int
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c = &Collector{Backend: newFakeBackend(&closed)}
	if _, err := c.Collect(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var closed int
	rep, _ := collect(t, newFakeBackend(&closed))

	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	card0 := doc["/dev/dri/card0"]
	for _, key := range []string{"vendor", "version", "renderer", "formats"} {
		if _, ok := card0[key]; !ok {
			t.Errorf("card0 lacks %q: %v", key, card0)
		}
	}
	formats, _ := card0["formats"].([]any)
	first, _ := formats[0].(map[string]any)
	if first["format"] != float64(fourcc.XRGB8888) {
		t.Errorf("formats[0].format = %v", first["format"])
	}
	if mods, _ := first["modifiers"].([]any); len(mods) != 2 {
		t.Errorf("formats[0].modifiers = %v", first["modifiers"])
	}
	second, _ := formats[1].(map[string]any)
	if mods, ok := second["modifiers"].([]any); !ok || len(mods) != 0 {
		t.Errorf("formats[1].modifiers = %v, want []", second["modifiers"])
	}

	if _, ok := doc[""]["formats"]; ok {
		t.Errorf("device without dmabuf has formats: %v", doc[""])
	}
}

func TestWriteYAML(t *testing.T) {
	var closed int
	rep, _ := collect(t, newFakeBackend(&closed), "/dev/dri/card0")
	var buf bytes.Buffer
	if err := WriteYAML(&buf, rep); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}
	if !strings.Contains(buf.String(), "renderer: AMD Radeon RX 7900 XTX") {
		t.Errorf("yaml = %s", buf.String())
	}
}

func TestText(t *testing.T) {
	var closed int
	rep, _ := collect(t, newFakeBackend(&closed))
	out := Text(rep, report.PlainStyles())

	for _, want := range []string{
		"EGL device: /dev/dri/card0",
		"EGL device: (no DRM device)",
		"Renderer: AMD Radeon RX 7900 XTX",
		"XRGB8888 (0x34325258)",
		"LINEAR (0x0000000000000000)",
		"AMD(TILE_VERSION = GFX9, TILE = GFX9_64K_S_X",
		"dmabuf import not supported",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Text() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "(no DRM device)") > strings.Index(out, "/dev/dri/card0") {
		t.Error("devices not in path order")
	}
}
