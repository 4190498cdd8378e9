package egl

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2/tree"

	"drminfo/internal/fourcc"
	"drminfo/internal/modifier"
	"drminfo/internal/report"
)

// Text renders r as one tree per device, with formats and modifiers named.
func Text(r Report, st report.TextStyles) string {
	var out []string
	for _, path := range r.Paths() {
		out = append(out, deviceTree(path, r[path], st).String())
	}
	return strings.Join(out, "\n\n")
}

func deviceTree(path string, info *Info, st report.TextStyles) *tree.Tree {
	newTree := func(root string) *tree.Tree {
		return tree.Root(root).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(st.Enumerator)
	}
	kv := func(k, v string) string {
		return st.Key.Render(k+":") + " " + v
	}

	name := path
	if name == "" {
		name = st.Muted.Render("(no DRM device)")
	}
	root := newTree(st.Root.Render("EGL device:") + " " + name).Child(
		kv("Vendor", info.Vendor),
		kv("Version", info.Version),
		kv("Renderer", st.Name.Render(info.Renderer)),
	)
	if info.Formats == nil {
		return root.Child(st.Muted.Render("dmabuf import not supported"))
	}

	formats := newTree(st.Section.Render("Formats"))
	for _, f := range info.Formats {
		ft := newTree(fourcc.Format(f.Format))
		for _, m := range f.Modifiers {
			ft.Child(modifier.Format(m))
		}
		formats.Child(ft)
	}
	return root.Child(formats)
}
