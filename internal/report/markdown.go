package report

import (
	"fmt"
	"strings"

	"drminfo/internal/drm"
	"drminfo/internal/fourcc"
	"drminfo/internal/modifier"
)

// Markdown summarizes r as markdown tables, one section per node, followed
// by the modifiers each plane advertises.
func Markdown(r Report) string {
	var b strings.Builder
	for i, path := range r.Paths() {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		writeNodeMarkdown(&b, path, r[path])
	}
	return b.String()
}

func writeNodeMarkdown(b *strings.Builder, path string, n *Node) {
	fmt.Fprintf(b, "# %s\n\n", path)
	if d := n.Driver; d != nil {
		fmt.Fprintf(b, "**%s** %s, version %d.%d.%d (%s)\n\n",
			d.Name, d.Desc, d.Version.Major, d.Version.Minor, d.Version.Patch, d.Version.Date)
	}
	if d := n.Device; d != nil {
		fmt.Fprintf(b, "Bus: %s", drm.BusTypeName(d.BusType))
		if d.KernelDriver != "" {
			fmt.Fprintf(b, ", kernel driver `%s`", d.KernelDriver)
		}
		b.WriteString("\n\n")
	}
	fmt.Fprintf(b, "Framebuffer size: %dx%d to %dx%d\n\n",
		n.FBSize.MinWidth, n.FBSize.MinHeight, n.FBSize.MaxWidth, n.FBSize.MaxHeight)

	if len(n.Connectors) > 0 {
		b.WriteString("## Connectors\n\n| ID | Type | Status | Size | Modes | Preferred |\n|---|---|---|---|---|---|\n")
		for _, c := range n.Connectors {
			preferred := "-"
			for _, m := range c.Modes {
				if m.Type&modeTypePreferred != 0 {
					preferred = ModeString(m)
					break
				}
			}
			fmt.Fprintf(b, "| %d | %s | %s | %dx%d mm | %d | %s |\n",
				c.ID, drm.ConnectorTypeName(c.Type), drm.ConnectorStatusName(c.Status),
				c.PhyWidth, c.PhyHeight, len(c.Modes), preferred)
		}
		b.WriteString("\n")
	}

	if len(n.Encoders) > 0 {
		b.WriteString("## Encoders\n\n| ID | Type | CRTC | Possible CRTCs |\n|---|---|---|---|\n")
		for _, e := range n.Encoders {
			fmt.Fprintf(b, "| %d | %s | %d | %s |\n",
				e.ID, drm.EncoderTypeName(e.Type), e.CrtcID, bitList(e.PossibleCrtcs))
		}
		b.WriteString("\n")
	}

	if len(n.CRTCs) > 0 {
		b.WriteString("## CRTCs\n\n| ID | FB | Mode | Gamma size |\n|---|---|---|---|\n")
		for _, c := range n.CRTCs {
			mode := "-"
			if c.Mode != nil {
				mode = ModeString(*c.Mode)
			}
			fmt.Fprintf(b, "| %d | %d | %s | %d |\n", c.ID, c.FBID, mode, c.GammaSize)
		}
		b.WriteString("\n")
	}

	if len(n.Planes) > 0 {
		b.WriteString("## Planes\n\n| ID | Type | CRTC | FB | Formats | Modifiers |\n|---|---|---|---|---|---|\n")
		for _, p := range n.Planes {
			fmt.Fprintf(b, "| %d | %s | %d | %d | %d | %d |\n",
				p.ID, planeType(p), p.CrtcID, p.FBID, len(p.Formats), len(inFormats(p)))
		}
		b.WriteString("\n")
		for i, p := range n.Planes {
			writePlaneModifiers(b, i, p)
		}
	}
}

func planeType(p Plane) string {
	if t, ok := p.Properties["type"]; ok {
		return drm.PlaneTypeName(t.RawValue)
	}
	return "-"
}

func inFormats(p Plane) []InFormat {
	if prop, ok := p.Properties["IN_FORMATS"]; ok {
		return prop.InFormats
	}
	return nil
}

func writePlaneModifiers(b *strings.Builder, i int, p Plane) {
	mods := inFormats(p)
	if len(mods) == 0 {
		return
	}
	fmt.Fprintf(b, "### Plane %d modifiers\n\n", i)
	for _, f := range mods {
		names := make([]string, len(f.Formats))
		for j, c := range f.Formats {
			names[j] = fourcc.Name(c)
		}
		fmt.Fprintf(b, "- `%s`: %s\n", modifier.Format(f.Modifier), strings.Join(names, ", "))
	}
	b.WriteString("\n")
}
