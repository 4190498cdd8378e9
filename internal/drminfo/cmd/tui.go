package cmd

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"drminfo/internal/drminfo/styles"
	"drminfo/internal/report"
	"drminfo/internal/ui/colorize"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewTree
	viewJSON
	viewCount
)

type model struct {
	viewport viewport.Model
	report   report.Report
	mode     viewMode
	width    int
	height   int

	// rendered content per mode, reset when the width changes
	cache map[viewMode]string
}

func newModel(rep report.Report) model {
	vp := viewport.New()
	m := model{
		viewport: vp,
		report:   rep,
		cache:    make(map[viewMode]string),
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			if msg.Width != m.width {
				m.cache = make(map[viewMode]string)
			}
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		// j and k belong to the viewport
		case "1", "s":
			m.setMode(viewSummary)
			return m, nil
		case "2", "t":
			m.setMode(viewTree)
			return m, nil
		case "3":
			m.setMode(viewJSON)
			return m, nil
		case "tab":
			m.setMode((m.mode + 1) % viewCount)
			return m, nil
		case "shift+tab":
			m.setMode((m.mode + viewCount - 1) % viewCount)
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) setMode(mode viewMode) {
	if m.mode == mode {
		return
	}
	m.mode = mode
	m.updateContent()
	m.viewport.GotoTop()
}

func (m model) View() string {
	var menu string
	switch m.mode {
	case viewTree:
		menu = " 1: summary • 3: json • Tab: cycle • Q: quit "
	case viewJSON:
		menu = " 1: summary • 2: tree • Tab: cycle • Q: quit "
	default:
		menu = " 2: tree • 3: json • Tab: cycle • Q: quit "
	}
	return m.viewport.View() + "\n" + styles.MenuBar(m.width).Render(menu)
}

func (m *model) updateContent() {
	content, ok := m.cache[m.mode]
	if !ok {
		content = m.render(m.mode)
		m.cache[m.mode] = content
	}
	m.viewport.SetContent(content)
}

func (m *model) render(mode viewMode) string {
	if len(m.report) == 0 {
		return styles.RenderMarkdown("# drminfo\n\nNo DRM nodes could be read.", m.width-2)
	}
	switch mode {
	case viewTree:
		return report.Text(m.report, report.DefaultStyles())
	case viewJSON:
		var buf bytes.Buffer
		if err := report.WriteJSON(&buf, m.report); err != nil {
			return err.Error()
		}
		out, err := colorize.JSON(buf.String())
		if err != nil {
			out = buf.String()
		}
		return strings.TrimSuffix(out, "\n")
	}
	width := m.width
	if width == 0 {
		width = 80
	}
	return styles.RenderMarkdown(report.Markdown(m.report), width-2)
}
