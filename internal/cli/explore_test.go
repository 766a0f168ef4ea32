package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/pipeline"
)

const (
	needs2    = `{"op":"&","c":[{"type":"completion","cm":2,"e":1}]}`
	needs2or3 = `{"op":"|","c":[{"type":"completion","cm":2,"e":1},{"type":"completion","cm":3,"e":1}]}`
)

func exploreRecords() []activity.Record {
	return []activity.Record{
		activity.NewRecord(2, "Reading", "", 0),
		activity.NewRecord(3, "Quiz", needs2, 2),
		activity.NewRecord(4, "Forum", "", 3),
		activity.NewRecord(5, "Exam", needs2or3, 3),
	}
}

func buildFor(t *testing.T, mode pipeline.Mode) *pipeline.Result {
	t.Helper()
	res, err := pipeline.Build(exploreRecords(), pipeline.Options{Mode: mode})
	if err != nil {
		t.Fatalf("Build(%s): %v", mode, err)
	}
	return res
}

func press(m exploreModel, keys ...tea.KeyMsg) exploreModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(exploreModel)
	}
	return m
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyT     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}}
)

// selectNode moves the cursor to id and selects it.
func selectNode(t *testing.T, m exploreModel, id string) exploreModel {
	t.Helper()
	for i, n := range m.nodes {
		if n.ID == id {
			m.cursor = i
			return press(m, keyEnter)
		}
	}
	t.Fatalf("node %s not listed", id)
	return m
}

func TestExploreSelect(t *testing.T) {
	m := newExploreModel(buildFor(t, pipeline.ModeSimplified), nil)

	// Forum has no dependencies and is filtered from the simplified graph.
	for _, n := range m.nodes {
		if n.ID == "4" {
			t.Fatal("simplified graph lists the isolated activity 4")
		}
	}

	m = selectNode(t, m, "3")
	if m.focus != "3" {
		t.Fatalf("focus = %q, want 3", m.focus)
	}
	if !m.ancestry.Includes("2") || m.ancestry.Includes("5") {
		t.Errorf("ancestry of 3 = %v, want 3 and 2", m.ancestry.Nodes)
	}

	m = press(m, keyEsc)
	if m.focus != "" || len(m.ancestry.Nodes) != 0 {
		t.Errorf("esc left focus %q", m.focus)
	}
}

func TestExploreNavigation(t *testing.T) {
	m := newExploreModel(buildFor(t, pipeline.ModeSimplified), nil)
	m = press(m, keyDown, keyDown, keyDown, keyDown, keyDown)
	if m.cursor != len(m.nodes)-1 {
		t.Errorf("cursor = %d, want clamped to %d", m.cursor, len(m.nodes)-1)
	}
	if !strings.Contains(m.View(), pipeline.HeadingSimplified) {
		t.Error("view lacks the simplified heading")
	}
}

func TestExploreToggle(t *testing.T) {
	builds := 0
	rebuild := func(mode pipeline.Mode) (*pipeline.Result, error) {
		builds++
		return buildFor(t, mode), nil
	}
	m := newExploreModel(buildFor(t, pipeline.ModeSimplified), rebuild)
	m = selectNode(t, m, "5")

	m = press(m, keyT)
	if m.err != nil {
		t.Fatalf("toggle: %v", m.err)
	}
	if m.mode != pipeline.ModeFull {
		t.Fatalf("mode = %s, want full", m.mode)
	}
	if m.focus != "5" || m.nodes[m.cursor].ID != "5" {
		t.Errorf("focus after toggle = %q at cursor %d", m.focus, m.cursor)
	}
	if !m.ancestry.Includes("op1") && !m.ancestry.Includes("op2") {
		t.Errorf("full ancestry of 5 = %v, want operator nodes", m.ancestry.Nodes)
	}
	if !strings.Contains(m.View(), pipeline.HeadingFull) {
		t.Error("view lacks the full heading")
	}

	m = press(m, keyT, keyT)
	if builds != 1 {
		t.Errorf("rebuilt %d times, want the full graph built once", builds)
	}
}

func TestExploreToggleWithoutRecords(t *testing.T) {
	m := newExploreModel(buildFor(t, pipeline.ModeFull), nil)
	m = press(m, keyT)
	if m.err == nil || m.mode != pipeline.ModeFull {
		t.Errorf("toggle without rebuild: mode %s, err %v", m.mode, m.err)
	}
}
