package report

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"drminfo/internal/drm"
	"drminfo/internal/fourcc"
)

const linearModifier = 0

type fakeProp struct {
	prop  drm.Property
	value uint64
}

// fakeCard serves a single CRTC driving one connector through one primary
// plane.
type fakeCard struct {
	path    string
	closed  bool
	objects map[uint32][]fakeProp
	blobs   map[uint32][]byte
	fbs     map[uint32]*drm.Framebuffer
	noPlane bool
}

func (f *fakeCard) Path() string { return f.path }
func (f *fakeCard) Close() error { f.closed = true; return nil }

func (f *fakeCard) Version() (*drm.Version, error) {
	return &drm.Version{Major: 1, Minor: 2, Patch: 3, Name: "fake", Date: "20240101", Desc: "fake driver"}, nil
}

func (f *fakeCard) Cap(id uint64) (uint64, error) {
	if id == drm.CapDumbBuffer {
		return 1, nil
	}
	return 0, &drm.Error{Op: "get cap", Err: unix.EINVAL}
}

func (f *fakeCard) SetClientCap(id, value uint64) error {
	if id == drm.ClientCapUniversalPlanes || id == drm.ClientCapAtomic {
		return nil
	}
	return &drm.Error{Op: "set client cap", Err: unix.EINVAL}
}

func (f *fakeCard) Resources() (*drm.Resources, error) {
	return &drm.Resources{
		CRTCs:      []uint32{40},
		Connectors: []uint32{50, 51},
		Encoders:   []uint32{60},
		MinWidth:   1,
		MaxWidth:   16384,
		MinHeight:  1,
		MaxHeight:  16384,
	}, nil
}

var fakeMode = drm.Mode{
	Clock: 148500, HDisplay: 1920, HSyncStart: 2008, HSyncEnd: 2052, HTotal: 2200,
	VDisplay: 1080, VSyncStart: 1084, VSyncEnd: 1089, VTotal: 1125,
	VRefresh: 60, Flags: 0x5, Type: 0x48, Name: "1920x1080",
}

func (f *fakeCard) Connector(id uint32) (*drm.Connector, error) {
	if id != 50 {
		return nil, &drm.Error{Op: "get connector", Err: unix.ENOENT}
	}
	return &drm.Connector{
		ID: 50, Type: 11, TypeID: 1, Status: drm.ConnectorConnected,
		PhyWidth: 530, PhyHeight: 300, EncoderID: 60,
		Encoders: []uint32{60},
		Modes:    []drm.Mode{fakeMode},
	}, nil
}

func (f *fakeCard) Encoder(id uint32) (*drm.Encoder, error) {
	return &drm.Encoder{ID: id, Type: 2, CrtcID: 40, PossibleCrtcs: 1}, nil
}

func (f *fakeCard) Crtc(id uint32) (*drm.Crtc, error) {
	m := fakeMode
	return &drm.Crtc{ID: id, FBID: 70, GammaSize: 256, Mode: &m}, nil
}

func (f *fakeCard) PlaneResources() ([]uint32, error) {
	if f.noPlane {
		return nil, &drm.Error{Op: "get plane resources", Err: unix.EINVAL}
	}
	return []uint32{30}, nil
}

func (f *fakeCard) Plane(id uint32) (*drm.Plane, error) {
	return &drm.Plane{
		ID: id, CrtcID: 40, FBID: 70, PossibleCrtcs: 1,
		Formats: []uint32{fourcc.XRGB8888, fourcc.ARGB8888},
	}, nil
}

func (f *fakeCard) ObjectProperties(id, objType uint32) ([]drm.PropertyValue, error) {
	props, ok := f.objects[id]
	if !ok {
		return nil, &drm.Error{Op: "get object properties", Err: unix.ENOENT}
	}
	out := make([]drm.PropertyValue, len(props))
	for i, p := range props {
		out[i] = drm.PropertyValue{ID: p.prop.ID, Value: p.value}
	}
	return out, nil
}

func (f *fakeCard) Property(id uint32) (*drm.Property, error) {
	for _, props := range f.objects {
		for _, p := range props {
			if p.prop.ID == id {
				prop := p.prop
				return &prop, nil
			}
		}
	}
	return nil, &drm.Error{Op: "get property", Err: unix.ENOENT}
}

func (f *fakeCard) PropertyBlob(id uint32) ([]byte, error) {
	b, ok := f.blobs[id]
	if !ok {
		return nil, &drm.Error{Op: "get blob", Err: unix.ENOENT}
	}
	return b, nil
}

func (f *fakeCard) Framebuffer(id uint32) (*drm.Framebuffer, error) {
	fb, ok := f.fbs[id]
	if !ok {
		return nil, &drm.Error{Op: "get fb", Err: unix.ENOENT}
	}
	return fb, nil
}

func inFormatsBlob(formats []uint32, mods []drm.FormatModifier) []byte {
	ne := binary.NativeEndian
	formatsOffset := 24
	modsOffset := (formatsOffset + 4*len(formats) + 7) &^ 7
	b := make([]byte, modsOffset+24*len(mods))
	ne.PutUint32(b[0:], 1)
	ne.PutUint32(b[8:], uint32(len(formats)))
	ne.PutUint32(b[12:], uint32(formatsOffset))
	ne.PutUint32(b[16:], uint32(len(mods)))
	ne.PutUint32(b[20:], uint32(modsOffset))
	for i, f := range formats {
		ne.PutUint32(b[formatsOffset+4*i:], f)
	}
	for i, m := range mods {
		var mask uint64
		for _, code := range m.Formats {
			for j, f := range formats {
				if f == code {
					mask |= 1 << j
				}
			}
		}
		e := b[modsOffset+24*i:]
		ne.PutUint64(e[0:], mask)
		ne.PutUint64(e[16:], m.Modifier)
	}
	return b
}

func newFakeCard(path string) *fakeCard {
	formats := []uint32{fourcc.XRGB8888, fourcc.ARGB8888}
	fb := &drm.Framebuffer{
		ID: 70, Width: 1920, Height: 1080,
		Format: fourcc.XRGB8888, Modifier: 0x0200000000603901, HasModifier: true,
		Planes: []drm.FBPlane{{Offset: 0, Pitch: 7680}},
	}
	return &fakeCard{
		path: path,
		objects: map[uint32][]fakeProp{
			50: {
				{drm.Property{ID: 1, Name: "DPMS", Flags: drm.PropEnum, Enums: []drm.PropertyEnum{{Name: "On", Value: 0}, {Name: "Off", Value: 3}}}, 0},
				{drm.Property{ID: 2, Name: "PATH", Flags: drm.PropBlob | drm.PropImmutable}, 200},
			},
			40: {
				{drm.Property{ID: 10, Name: "MODE_ID", Flags: drm.PropBlob | drm.PropAtomic}, 201},
				{drm.Property{ID: 11, Name: "ACTIVE", Flags: drm.PropRange | drm.PropAtomic, Values: []uint64{0, 1}}, 1},
			},
			30: {
				{drm.Property{ID: 20, Name: "type", Flags: drm.PropEnum | drm.PropImmutable, Enums: []drm.PropertyEnum{{Name: "Overlay", Value: 0}, {Name: "Primary", Value: 1}, {Name: "Cursor", Value: 2}}}, 1},
				{drm.Property{ID: 21, Name: "SRC_W", Flags: drm.PropRange | drm.PropAtomic, Values: []uint64{0, 0xffffffff}}, 1920 << 16},
				{drm.Property{ID: 22, Name: "FB_ID", Flags: drm.PropObject | drm.PropAtomic, Values: []uint64{drm.ObjectFB}}, 70},
				{drm.Property{ID: 23, Name: "IN_FORMATS", Flags: drm.PropBlob | drm.PropImmutable}, 202},
				{drm.Property{ID: 24, Name: "CRTC_X", Flags: drm.PropSignedRange | drm.PropAtomic, Values: []uint64{1 << 63, 1<<63 - 1}}, 1<<64 - 5},
			},
		},
		blobs: map[uint32][]byte{
			200: []byte("mst:52-1"),
			201: modeInfoBlob(fakeMode),
			202: inFormatsBlob(formats, []drm.FormatModifier{
				{Modifier: linearModifier, Formats: formats},
				{Modifier: 0x0200000000603901, Formats: formats[:1]},
			}),
		},
		fbs: map[uint32]*drm.Framebuffer{70: fb},
	}
}

func modeInfoBlob(m drm.Mode) []byte {
	ne := binary.NativeEndian
	b := make([]byte, 68)
	ne.PutUint32(b[0:], m.Clock)
	for i, v := range []uint16{m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal, m.HSkew,
		m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal, m.VScan} {
		ne.PutUint16(b[4+2*i:], v)
	}
	ne.PutUint32(b[24:], m.VRefresh)
	ne.PutUint32(b[28:], m.Flags)
	ne.PutUint32(b[32:], m.Type)
	copy(b[36:], m.Name)
	return b
}

func collectFake(t *testing.T, ctx context.Context, cards map[string]*fakeCard, paths ...string) (Report, string) {
	t.Helper()
	var logs bytes.Buffer
	c := &Collector{
		SysfsRoot: t.TempDir(),
		Open: func(path string) (Card, error) {
			card, ok := cards[path]
			if !ok {
				return nil, &drm.Error{Op: "open", Path: path, Err: unix.ENOENT}
			}
			return card, nil
		},
		Logger: log.New(&logs),
	}
	rep, err := c.Collect(ctx, paths)
	if err != nil && ctx.Err() == nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rep, logs.String()
}

func TestCollect(t *testing.T) {
	card := newFakeCard("/dev/dri/card0")
	rep, _ := collectFake(t, context.Background(), map[string]*fakeCard{card.path: card}, card.path)

	node, ok := rep[card.path]
	if !ok {
		t.Fatalf("node %s missing from report", card.path)
	}
	if !card.closed {
		t.Error("card was not closed")
	}

	d := node.Driver
	if d == nil || d.Name != "fake" || d.Version.Patch != 3 {
		t.Fatalf("driver = %+v", d)
	}
	if !d.ClientCaps["UNIVERSAL_PLANES"] || !d.ClientCaps["ATOMIC"] || d.ClientCaps["STEREO_3D"] {
		t.Errorf("client caps = %v", d.ClientCaps)
	}
	if v := d.Caps["DUMB_BUFFER"]; v == nil || *v != 1 {
		t.Errorf("DUMB_BUFFER cap = %v", v)
	}
	if v, ok := d.Caps["PRIME"]; !ok || v != nil {
		t.Errorf("PRIME cap = %v, %v; want present and nil", v, ok)
	}
	if node.Device != nil {
		t.Errorf("device = %+v, want nil without sysfs entries", node.Device)
	}
	if node.FBSize.MaxWidth != 16384 {
		t.Errorf("fb size = %+v", node.FBSize)
	}

	// Connector 51 fails and is skipped.
	if len(node.Connectors) != 1 {
		t.Fatalf("got %d connectors, want 1", len(node.Connectors))
	}
	conn := node.Connectors[0]
	if conn.Modes[0].Name != "1920x1080" {
		t.Errorf("mode name = %q", conn.Modes[0].Name)
	}
	if p := conn.Properties["PATH"]; p == nil || p.Path == nil || *p.Path != "mst:52-1" {
		t.Errorf("PATH = %+v", p)
	}
	if p := conn.Properties["DPMS"]; p == nil || len(p.Enums) != 2 || p.Value() != uint64(0) {
		t.Errorf("DPMS = %+v", p)
	}

	if len(node.CRTCs) != 1 || node.CRTCs[0].Mode == nil {
		t.Fatalf("crtcs = %+v", node.CRTCs)
	}
	if p := node.CRTCs[0].Properties["MODE_ID"]; p == nil || p.Mode == nil || p.Mode.HTotal != 2200 {
		t.Errorf("MODE_ID = %+v", p)
	}

	if len(node.Planes) != 1 {
		t.Fatalf("got %d planes, want 1", len(node.Planes))
	}
	plane := node.Planes[0]
	if plane.FB == nil || plane.FB.Modifier == nil || *plane.FB.Modifier != 0x0200000000603901 {
		t.Errorf("plane fb = %+v", plane.FB)
	}
	props := plane.Properties
	if p := props["SRC_W"]; p == nil || p.Integer == nil || *p.Integer != 1920 {
		t.Errorf("SRC_W = %+v", p)
	}
	if p := props["FB_ID"]; p == nil || p.FB == nil || p.FB.ID != 70 {
		t.Errorf("FB_ID = %+v", p)
	}
	if p := props["CRTC_X"]; p == nil || p.Value() != int64(-5) {
		t.Errorf("CRTC_X value = %v", p.Value())
	}
	in := props["IN_FORMATS"]
	if in == nil || len(in.InFormats) != 2 {
		t.Fatalf("IN_FORMATS = %+v", in)
	}
	if got := in.InFormats[1]; got.Modifier != 0x0200000000603901 || len(got.Formats) != 1 || got.Formats[0] != fourcc.XRGB8888 {
		t.Errorf("IN_FORMATS[1] = %+v", got)
	}
}

func TestCollectSkipsFailedNodes(t *testing.T) {
	card := newFakeCard("/dev/dri/card1")
	rep, logs := collectFake(t, context.Background(), map[string]*fakeCard{card.path: card},
		"/dev/dri/card0", card.path)

	if _, ok := rep["/dev/dri/card0"]; ok {
		t.Error("unopenable node present in report")
	}
	if _, ok := rep[card.path]; !ok {
		t.Error("good node missing from report")
	}
	if !strings.Contains(logs, "failed to retrieve information") {
		t.Errorf("logs = %q, want a warning for card0", logs)
	}
}

func TestCollectPermissionHint(t *testing.T) {
	var logs bytes.Buffer
	c := &Collector{
		SysfsRoot: t.TempDir(),
		Open: func(path string) (Card, error) {
			return nil, &drm.Error{Op: "open", Path: path, Err: unix.EACCES}
		},
		Logger: log.New(&logs),
	}
	rep, err := c.Collect(context.Background(), []string{"/dev/dri/card0"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(rep) != 0 {
		t.Errorf("report = %v, want empty", rep)
	}
	if !strings.Contains(logs.String(), "video group") {
		t.Errorf("logs = %q, want a video group hint", logs.String())
	}

	_, missing := collectFake(t, context.Background(), nil, "/dev/dri/card1")
	if strings.Contains(missing, "video group") {
		t.Errorf("hint logged for a missing node: %q", missing)
	}
}

func TestCollectWithoutPlanes(t *testing.T) {
	card := newFakeCard("/dev/dri/card0")
	card.noPlane = true
	rep, _ := collectFake(t, context.Background(), map[string]*fakeCard{card.path: card}, card.path)
	if node := rep[card.path]; node == nil || node.Planes != nil {
		t.Errorf("planes = %+v, want nil", node)
	}
}

func TestCollectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	card := newFakeCard("/dev/dri/card0")
	c := &Collector{
		SysfsRoot: t.TempDir(),
		Open:      func(string) (Card, error) { return card, nil },
	}
	_, err := c.Collect(ctx, []string{card.path})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
}

func TestCollectDiscoverEmpty(t *testing.T) {
	c := &Collector{SysfsRoot: t.TempDir()}
	rep, err := c.Collect(context.Background(), nil)
	if err == nil && len(rep) != 0 {
		t.Errorf("Collect() = %v, want empty report", rep)
	}
}
