package cmd

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"

	"drminfo/internal/report"
)

func fixtureReport(t *testing.T) report.Report {
	t.Helper()
	rep, err := report.Load(strings.NewReader(fixtureJSON))
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestModelModes(t *testing.T) {
	t.Setenv("DRMINFO_NO_COLOR", "1")
	m := newModel(fixtureReport(t))
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	if m.mode != viewSummary {
		t.Fatalf("initial mode = %v", m.mode)
	}
	if !strings.Contains(m.View(), "2: tree") {
		t.Errorf("summary menu missing:\n%s", m.View())
	}

	m = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.mode != viewTree {
		t.Errorf("mode after tab = %v, want tree", m.mode)
	}
	if !strings.Contains(m.cache[viewTree], "Node: /dev/dri/card0") {
		t.Errorf("tree content = %q", m.cache[viewTree])
	}

	m = update(t, m, tea.KeyPressMsg{Code: '3', Text: "3"})
	if m.mode != viewJSON {
		t.Errorf("mode after 3 = %v, want json", m.mode)
	}
	if !strings.Contains(m.cache[viewJSON], `"i915"`) {
		t.Errorf("json content = %q", m.cache[viewJSON])
	}

	m = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.mode != viewSummary {
		t.Errorf("mode after wrapping tab = %v, want summary", m.mode)
	}
	if !strings.Contains(m.cache[viewSummary], "HDMI") && !strings.Contains(m.cache[viewSummary], "eDP") {
		t.Errorf("summary content = %q", m.cache[viewSummary])
	}
}

func TestModelScrollKeysStayWithViewport(t *testing.T) {
	t.Setenv("DRMINFO_NO_COLOR", "1")
	m := newModel(fixtureReport(t))
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 10})
	m = update(t, m, tea.KeyPressMsg{Code: '2', Text: "2"})
	if m.mode != viewTree {
		t.Fatalf("mode after 2 = %v, want tree", m.mode)
	}

	m = update(t, m, tea.KeyPressMsg{Code: 'j', Text: "j"})
	if m.mode != viewTree {
		t.Errorf("j changed the view to %v", m.mode)
	}
	if m.viewport.AtTop() {
		t.Error("j did not scroll down")
	}
	m = update(t, m, tea.KeyPressMsg{Code: 'k', Text: "k"})
	if !m.viewport.AtTop() {
		t.Error("k did not scroll back up")
	}
}

func TestModelResizeDropsCache(t *testing.T) {
	m := newModel(fixtureReport(t))
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if len(m.cache) == 0 {
		t.Fatal("cache empty after first render")
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 24})
	if len(m.cache) != 1 {
		t.Errorf("cache has %d entries after resize, want only the active view", len(m.cache))
	}
}

func TestModelQuit(t *testing.T) {
	m := newModel(report.Report{})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
