package report

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/tree"
	"github.com/charmbracelet/x/exp/charmtone"

	"drminfo/internal/drm"
	"drminfo/internal/fourcc"
	"drminfo/internal/modifier"
)

// TextStyles colors the text tree.
type TextStyles struct {
	Root       lipgloss.Style
	Section    lipgloss.Style
	Key        lipgloss.Style
	Name       lipgloss.Style
	Muted      lipgloss.Style
	Enumerator lipgloss.Style
}

// PlainStyles renders without escape sequences.
func PlainStyles() TextStyles {
	s := lipgloss.NewStyle()
	return TextStyles{Root: s, Section: s, Key: s, Name: s, Muted: s, Enumerator: s}
}

func DefaultStyles() TextStyles {
	fg := func(k charmtone.Key) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(k.Hex()))
	}
	return TextStyles{
		Root:       fg(charmtone.Zest).Bold(true),
		Section:    fg(charmtone.Malibu).Bold(true),
		Key:        fg(charmtone.Squid),
		Name:       fg(charmtone.Guac),
		Muted:      fg(charmtone.Charcoal),
		Enumerator: fg(charmtone.Charcoal),
	}
}

// Text renders r as a tree, one root per node in path order.
func Text(r Report, st TextStyles) string {
	t := textRenderer{st: st}
	var out []string
	for _, path := range r.Paths() {
		out = append(out, t.node(path, r[path]).String())
	}
	return strings.Join(out, "\n\n")
}

// Paths returns the node paths in sorted order.
func (r Report) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

type textRenderer struct {
	st TextStyles
}

func (t textRenderer) tree(root string) *tree.Tree {
	return tree.Root(root).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(t.st.Enumerator)
}

func (t textRenderer) kv(key string, format string, args ...any) string {
	return t.st.Key.Render(key+":") + " " + fmt.Sprintf(format, args...)
}

func (t textRenderer) node(path string, n *Node) *tree.Tree {
	root := t.tree(t.st.Root.Render("Node: " + path))
	if n.Driver != nil {
		root.Child(t.driver(n.Driver))
	}
	if n.Device != nil {
		root.Child(t.device(n.Device))
	}
	root.Child(t.tree(t.st.Section.Render("Framebuffer size")).Child(
		t.kv("Width", "[%d, %d]", n.FBSize.MinWidth, n.FBSize.MaxWidth),
		t.kv("Height", "[%d, %d]", n.FBSize.MinHeight, n.FBSize.MaxHeight),
	))

	conns := t.tree(t.st.Section.Render("Connectors"))
	for i, c := range n.Connectors {
		conns.Child(t.connector(i, c))
	}
	encs := t.tree(t.st.Section.Render("Encoders"))
	for i, e := range n.Encoders {
		encs.Child(t.tree(fmt.Sprintf("Encoder %d", i)).Child(
			t.kv("Object ID", "%d", e.ID),
			t.kv("Type", "%s", drm.EncoderTypeName(e.Type)),
			t.kv("CRTCs", "%s", bitList(e.PossibleCrtcs)),
			t.kv("Clones", "%s", bitList(e.PossibleClones)),
		))
	}
	crtcs := t.tree(t.st.Section.Render("CRTCs"))
	for i, c := range n.CRTCs {
		crtcs.Child(t.crtc(i, c))
	}
	planes := t.tree(t.st.Section.Render("Planes"))
	for i, p := range n.Planes {
		planes.Child(t.plane(i, p))
	}
	return root.Child(conns, encs, crtcs, planes)
}

func (t textRenderer) driver(d *Driver) *tree.Tree {
	dt := t.tree(t.st.Section.Render("Driver: ") + t.st.Name.Render(d.Name) +
		fmt.Sprintf(" (%s) version %d.%d.%d (%s)",
			d.Desc, d.Version.Major, d.Version.Minor, d.Version.Patch, d.Version.Date))
	for _, cc := range drm.ClientCaps {
		supported, ok := d.ClientCaps[cc.Name]
		if !ok {
			continue
		}
		state := "supported"
		if !supported {
			state = t.st.Muted.Render("not supported")
		}
		dt.Child(fmt.Sprintf("DRM_CLIENT_CAP_%s %s", cc.Name, state))
	}
	for _, cp := range drm.Caps {
		v, ok := d.Caps[cp.Name]
		if !ok {
			continue
		}
		if v == nil {
			dt.Child(fmt.Sprintf("DRM_CAP_%s %s", cp.Name, t.st.Muted.Render("not supported")))
			continue
		}
		dt.Child(fmt.Sprintf("DRM_CAP_%s = %d", cp.Name, *v))
	}
	if d.Kernel != nil {
		dt.Child(t.kv("Kernel", "%s %s %s", d.Kernel.Sysname, d.Kernel.Release, d.Kernel.Version))
	}
	return dt
}

func (t textRenderer) device(d *Device) *tree.Tree {
	label := drm.BusTypeName(d.BusType)
	if dd := d.DeviceData; dd != nil && dd.Vendor != nil {
		other := dd.Device
		if other == nil {
			other = dd.Product
		}
		if other != nil {
			label += fmt.Sprintf(" %04x:%04x", *dd.Vendor, *other)
		}
	}
	if d.KernelDriver != "" {
		label += " " + t.st.Name.Render(d.KernelDriver)
	}
	dt := t.tree(t.st.Section.Render("Device: ") + label)
	if bd := d.BusData; bd != nil {
		switch {
		case bd.Domain != nil && bd.Bus != nil && bd.Slot != nil && bd.Function != nil:
			dt.Child(t.kv("Bus", "%04x:%02x:%02x.%d", *bd.Domain, *bd.Bus, *bd.Slot, *bd.Function))
		case bd.Bus != nil && bd.Device != nil:
			dt.Child(t.kv("Bus", "%03d device %03d", *bd.Bus, *bd.Device))
		case bd.FullName != "":
			dt.Child(t.kv("OF node", "%s", bd.FullName))
		}
	}
	if dd := d.DeviceData; dd != nil && len(dd.Compatible) > 0 {
		dt.Child(t.kv("Compatible", "%s", strings.Join(dd.Compatible, ", ")))
	}
	return dt.Child(t.kv("Available nodes", "%s", nodeNames(d.AvailableNodes)))
}

func nodeNames(mask uint32) string {
	var names []string
	for bit, name := range []string{"primary", "control", "render"} {
		if mask&(1<<bit) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func (t textRenderer) connector(i int, c Connector) *tree.Tree {
	ct := t.tree(fmt.Sprintf("Connector %d", i)).Child(
		t.kv("Object ID", "%d", c.ID),
		t.kv("Type", "%s", drm.ConnectorTypeName(c.Type)),
		t.kv("Status", "%s", drm.ConnectorStatusName(c.Status)),
	)
	if c.Status != drm.ConnectorDisconnected {
		ct.Child(
			t.kv("Physical size", "%dx%d mm", c.PhyWidth, c.PhyHeight),
			t.kv("Subpixel", "%s", drm.SubpixelName(c.Subpixel)),
		)
	}
	ct.Child(t.kv("Encoders", "%s", idList(c.Encoders)))
	if len(c.Modes) > 0 {
		modes := t.tree("Modes")
		for _, m := range c.Modes {
			modes.Child(ModeString(m))
		}
		ct.Child(modes)
	}
	return ct.Child(t.properties(c.Properties))
}

func (t textRenderer) crtc(i int, c CRTC) *tree.Tree {
	legacy := t.tree(t.st.Key.Render("Legacy info"))
	if c.Mode != nil {
		legacy.Child(t.kv("Mode", "%s", ModeString(*c.Mode)))
	}
	legacy.Child(t.kv("FB ID", "%d", c.FBID), t.kv("Gamma size", "%d", c.GammaSize))
	return t.tree(fmt.Sprintf("CRTC %d", i)).Child(
		t.kv("Object ID", "%d", c.ID),
		legacy,
		t.properties(c.Properties),
	)
}

func (t textRenderer) plane(i int, p Plane) *tree.Tree {
	pt := t.tree(fmt.Sprintf("Plane %d", i)).Child(
		t.kv("Object ID", "%d", p.ID),
		t.kv("CRTCs", "%s", bitList(p.PossibleCrtcs)),
	)
	legacy := t.tree(t.st.Key.Render("Legacy info")).Child(t.kv("FB ID", "%d", p.FBID))
	if p.FB != nil {
		legacy.Child(t.framebuffer(p.FB))
	}
	formats := t.tree(t.st.Key.Render("Formats"))
	for _, line := range formatLines(p.Formats, 6) {
		formats.Child(line)
	}
	legacy.Child(formats)
	return pt.Child(legacy, t.properties(p.Properties))
}

func (t textRenderer) framebuffer(fb *Framebuffer) *tree.Tree {
	ft := t.tree(t.st.Key.Render("FB")).Child(
		t.kv("Object ID", "%d", fb.ID),
		t.kv("Size", "%dx%d", fb.Width, fb.Height),
	)
	if fb.Format != nil {
		ft.Child(t.kv("Format", "%s", fourcc.Format(*fb.Format)))
	}
	if fb.Modifier != nil {
		ft.Child(t.kv("Modifier", "%s", modifier.Format(*fb.Modifier)))
	}
	for i, pl := range fb.Planes {
		ft.Child(t.kv(fmt.Sprintf("Plane %d", i), "offset %d, pitch %d", pl.Offset, pl.Pitch))
	}
	if fb.Pitch != nil {
		ft.Child(t.kv("Pitch", "%d", *fb.Pitch))
	}
	if fb.BPP != nil {
		ft.Child(t.kv("Bits per pixel", "%d", *fb.BPP))
	}
	if fb.Depth != nil {
		ft.Child(t.kv("Depth", "%d", *fb.Depth))
	}
	return ft
}

func (t textRenderer) properties(props Properties) *tree.Tree {
	pt := t.tree(t.st.Key.Render("Properties"))
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return int(props[a].ID) - int(props[b].ID)
	})
	for _, name := range names {
		pt.Child(t.property(name, props[name]))
	}
	return pt
}

func (t textRenderer) property(name string, p *Property) any {
	head := fmt.Sprintf("%q", name)
	if p.Immutable {
		head += t.st.Muted.Render(" (immutable)")
	}
	if !p.Atomic {
		head += t.st.Muted.Render(" (legacy)")
	}
	head += ": " + PropertyValueString(p)

	children := t.propertyData(p)
	if len(children) == 0 {
		return head
	}
	return t.tree(head).Child(children...)
}

func (t textRenderer) propertyData(p *Property) []any {
	var out []any
	switch {
	case p.InFormats != nil:
		for _, f := range p.InFormats {
			mt := t.tree(t.st.Name.Render(modifier.Format(f.Modifier)))
			for _, line := range formatLines(f.Formats, 6) {
				mt.Child(line)
			}
			out = append(out, mt)
		}
	case p.Mode != nil:
		out = append(out, ModeString(*p.Mode))
	case p.Formats != nil:
		for _, line := range formatLines(p.Formats, 6) {
			out = append(out, line)
		}
	case p.Path != nil:
		out = append(out, strings.TrimRight(*p.Path, "\x00"))
	case p.HDR != nil:
		out = append(out, t.kv("Type", "%d", p.HDR.Type))
		if p.HDR.EOTF != nil {
			out = append(out, t.kv("EOTF", "%s", eotfName(*p.HDR.EOTF)))
			for _, c := range []string{"r", "g", "b"} {
				dp := p.HDR.DisplayPrimaries[c]
				out = append(out, t.kv("Primary "+c, "(%.4f, %.4f)", dp.X, dp.Y))
			}
			if wp := p.HDR.WhitePoint; wp != nil {
				out = append(out, t.kv("White point", "(%.4f, %.4f)", wp.X, wp.Y))
			}
			out = append(out,
				t.kv("Mastering luminance", "[%.4f, %d] cd/m²",
					deref(p.HDR.MinDisplayMasteringLuminance), deref(p.HDR.MaxDisplayMasteringLuminance)),
				t.kv("MaxCLL", "%d cd/m²", deref(p.HDR.MaxCLL)),
				t.kv("MaxFALL", "%d cd/m²", deref(p.HDR.MaxFALL)),
			)
		}
	case p.FB != nil:
		out = append(out, t.framebuffer(p.FB))
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func eotfName(e uint8) string {
	switch e {
	case 0:
		return "traditional gamma SDR"
	case 1:
		return "traditional gamma HDR"
	case 2:
		return "SMPTE ST 2084"
	case 3:
		return "HLG"
	}
	return fmt.Sprintf("unknown (%d)", e)
}

var objectTypeNames = map[uint64]string{
	drm.ObjectCrtc:      "CRTC",
	drm.ObjectConnector: "connector",
	drm.ObjectEncoder:   "encoder",
	drm.ObjectMode:      "mode",
	drm.ObjectProperty:  "property",
	drm.ObjectFB:        "FB",
	drm.ObjectBlob:      "blob",
	drm.ObjectPlane:     "plane",
}

// PropertyValueString renders a property's type, spec and current value,
// for example `enum {None, Full} = Full`.
func PropertyValueString(p *Property) string {
	switch p.Type {
	case drm.PropRange:
		if p.Range == nil {
			return fmt.Sprintf("range = %d", p.RawValue)
		}
		return fmt.Sprintf("range [%d, %s] = %d", p.Range.Min, rangeMax(p.Range.Max), p.RawValue)
	case drm.PropSignedRange:
		if p.Range == nil {
			return fmt.Sprintf("srange = %d", int64(p.RawValue))
		}
		return fmt.Sprintf("srange [%d, %d] = %d", int64(p.Range.Min), int64(p.Range.Max), int64(p.RawValue))
	case drm.PropEnum:
		names := make([]string, len(p.Enums))
		cur := "unknown"
		for i, e := range p.Enums {
			names[i] = e.Name
			if e.Value == p.RawValue {
				cur = e.Name
			}
		}
		return fmt.Sprintf("enum {%s} = %s", strings.Join(names, ", "), cur)
	case drm.PropBitmask:
		names := make([]string, len(p.Enums))
		var set []string
		for i, e := range p.Enums {
			names[i] = e.Name
			if e.Value < 64 && p.RawValue&(1<<e.Value) != 0 {
				set = append(set, e.Name)
			}
		}
		return fmt.Sprintf("bitmask {%s} = (%s)", strings.Join(names, ", "), strings.Join(set, " | "))
	case drm.PropBlob:
		return fmt.Sprintf("blob = %d", p.RawValue)
	case drm.PropObject:
		kind := "unknown"
		if p.ObjectType != nil {
			if n, ok := objectTypeNames[*p.ObjectType]; ok {
				kind = n
			}
		}
		return fmt.Sprintf("object %s = %d", kind, p.RawValue)
	}
	return fmt.Sprintf("unknown type (%d) = %d", p.Type, p.RawValue)
}

func rangeMax(v uint64) string {
	switch v {
	case 1<<64 - 1:
		return "UINT64_MAX"
	case 1<<32 - 1:
		return "UINT32_MAX"
	case 1<<31 - 1:
		return "INT32_MAX"
	}
	return fmt.Sprint(v)
}

// Mode flags and types (DRM_MODE_FLAG_*, DRM_MODE_TYPE_*).
var (
	modeFlagNames = []string{
		"phsync", "nhsync", "pvsync", "nvsync", "interlace", "dblscan",
		"csync", "pcsync", "ncsync", "hskew", "bcast", "pixmux", "dblclk", "clkdiv2",
	}
	modeTypeNames = map[uint32]string{
		1 << 3: "preferred",
		1 << 4: "default",
		1 << 5: "userdef",
		1 << 6: "driver",
	}
)

const (
	modeTypePreferred = 1 << 3

	modeFlagInterlace = 1 << 4
	modeFlagDblScan   = 1 << 5
)

// Refresh returns the vertical refresh rate in Hz.
func (m Mode) Refresh() float64 {
	if m.HTotal == 0 || m.VTotal == 0 {
		return 0
	}
	r := float64(m.Clock) * 1000 / (float64(m.HTotal) * float64(m.VTotal))
	if m.Flags&modeFlagInterlace != 0 {
		r *= 2
	}
	if m.Flags&modeFlagDblScan != 0 {
		r /= 2
	}
	if m.VScan > 1 {
		r /= float64(m.VScan)
	}
	return r
}

// ModeString renders a mode as `1920x1080@60.00 preferred driver phsync`.
func ModeString(m Mode) string {
	parts := []string{fmt.Sprintf("%dx%d@%.02f", m.HDisplay, m.VDisplay, m.Refresh())}
	for bit := uint32(1 << 3); bit <= 1<<6; bit <<= 1 {
		if m.Type&bit != 0 {
			parts = append(parts, modeTypeNames[bit])
		}
	}
	for i, name := range modeFlagNames {
		if m.Flags&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " ")
}

// bitList renders a possible_crtcs style mask as the set of bit indices.
func bitList(mask uint32) string {
	var idx []string
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		idx = append(idx, fmt.Sprint(i))
		mask &^= 1 << i
	}
	return "{" + strings.Join(idx, ", ") + "}"
}

func idList(ids []uint32) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = fmt.Sprint(id)
	}
	return "{" + strings.Join(s, ", ") + "}"
}

// formatLines lists fourcc names, perLine to a row.
func formatLines(codes []uint32, perLine int) []string {
	var lines []string
	for chunk := range slices.Chunk(codes, perLine) {
		names := make([]string, len(chunk))
		for i, c := range chunk {
			names[i] = fourcc.Name(c)
		}
		lines = append(lines, strings.Join(names, " "))
	}
	return lines
}
