package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/sadopc/sqlcheck/internal/batch"
)

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newModel(t *testing.T) Model {
	t.Helper()
	dir := writeDir(t, map[string]string{
		"answer.txt": "select id from t where x = 1;\n",
		"alice.sql":  "SELECT id FROM t WHERE x = 1;\n",
		"bob.sql":    "select id from t where x = 2;\n",
	})
	return New(context.Background(), Options{
		Dir:     dir,
		Answer:  filepath.Join(dir, "answer.txt"),
		Workers: 2,
		Logger:  zaptest.NewLogger(t),
	})
}

// update feeds msg to m and returns the resulting Model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// graded runs the model's grading command synchronously.
func graded(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.gradeCmd()()
	gm, ok := msg.(GradedMsg)
	if !ok {
		t.Fatalf("gradeCmd() returned %T", msg)
	}
	if gm.Err != nil {
		t.Fatalf("grading failed: %v", gm.Err)
	}
	m, _ = update(t, m, gm)
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ---------------------------------------------------------------------------
// TestNew: defaults
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	m := newModel(t)

	t.Run("focusedPane is PaneFiles", func(t *testing.T) {
		if m.focusedPane != PaneFiles {
			t.Errorf("focusedPane = %d, want PaneFiles", m.focusedPane)
		}
	})

	t.Run("theme defaults", func(t *testing.T) {
		if m.theme == nil || m.opts.Report.Theme != m.theme {
			t.Error("report options should carry the default theme")
		}
	})

	t.Run("grading starts", func(t *testing.T) {
		if !m.grading {
			t.Error("grading should be true until the first GradedMsg")
		}
		if m.Init() == nil {
			t.Error("Init() should return the grade command")
		}
	})

	t.Run("view before size", func(t *testing.T) {
		if m.View() != "Loading..." {
			t.Errorf("View() = %q", m.View())
		}
	})
}

func TestGradedMsg(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = graded(t, m)

	if m.grading {
		t.Error("grading should be false after GradedMsg")
	}
	if len(m.results) != 2 {
		t.Fatalf("results = %d, want 2", len(m.results))
	}
	if filepath.Base(m.shown) != "alice.sql" {
		t.Errorf("shown = %q, want alice.sql", m.shown)
	}
	if _, err := os.Stat(filepath.Join(m.opts.Dir, "alice.diff")); err == nil {
		t.Error("review should not write report files")
	}

	view := m.View()
	for _, want := range []string{"Submissions", "alice.sql", "bob.sql", "1.00"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestSelectFollowsList(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = graded(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if cmd == nil {
		t.Fatal("expected SelectFileMsg command")
	}
	m, _ = update(t, m, cmd())
	if filepath.Base(m.shown) != "bob.sql" {
		t.Errorf("shown = %q, want bob.sql", m.shown)
	}
	if !strings.Contains(m.report.View(), "* WHERE X = 2") {
		t.Errorf("report pane = %q", m.report.View())
	}
}

func TestToggleExpected(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = graded(t, m)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, cmd())

	_, cmd = update(t, m, keyRunes("e"))
	if cmd == nil {
		t.Fatal("expected ToggleMsg command")
	}
	msg, ok := cmd().(ToggleMsg)
	if !ok || msg.Option != OptionExpected {
		t.Fatalf("cmd() = %#v", msg)
	}
	m, _ = update(t, m, msg)
	if !m.opts.Report.ShowExpected {
		t.Error("ShowExpected should be on")
	}
	if !strings.Contains(m.report.View(), "> WHERE X = 1") {
		t.Errorf("report pane missing expected line: %q", m.report.View())
	}

	m, _ = update(t, m, ToggleMsg{Option: OptionHints})
	if !m.opts.Report.Hints {
		t.Error("Hints should be on")
	}
}

func TestFocusSwitch(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedPane != PaneReport || m.files.Focused() {
		t.Errorf("after tab: pane=%v filesFocused=%v", m.focusedPane, m.files.Focused())
	}

	// The filter key jumps back to the file list.
	m, _ = update(t, m, keyRunes("/"))
	if m.focusedPane != PaneFiles || !m.files.Filtering() {
		t.Errorf("after /: pane=%v filtering=%v", m.focusedPane, m.files.Filtering())
	}

	// While filtering, q is text, not quit.
	m, _ = update(t, m, keyRunes("q"))
	if m.quitting {
		t.Error("q inside the filter should not quit")
	}
}

func TestRegrade(t *testing.T) {
	m := newModel(t)
	m = graded(t, m)

	_, cmd := update(t, m, keyRunes("r"))
	if cmd == nil {
		t.Fatal("expected RegradeMsg command")
	}
	if _, ok := cmd().(RegradeMsg); !ok {
		t.Fatal("r should request a regrade")
	}
	m, cmd = update(t, m, RegradeMsg{})
	if !m.grading || cmd == nil {
		t.Error("RegradeMsg should start grading")
	}
	// A second request while grading is ignored.
	if _, cmd := update(t, m, RegradeMsg{}); cmd != nil {
		t.Error("RegradeMsg while grading should be ignored")
	}
}

func TestExport(t *testing.T) {
	m := newModel(t)
	m = graded(t, m)

	msg := m.exportCmd()()
	st, ok := msg.(StatusMsg)
	if !ok || st.IsError {
		t.Fatalf("exportCmd() = %#v", msg)
	}
	if _, err := os.Stat(filepath.Join(m.opts.Dir, SummaryFile)); err != nil {
		t.Errorf("summary not written: %v", err)
	}
}

func TestGradeError(t *testing.T) {
	m := New(context.Background(), Options{Dir: filepath.Join(t.TempDir(), "missing"), Answer: "a.sql"})
	msg := m.gradeCmd()().(GradedMsg)
	if msg.Err == nil {
		t.Fatal("expected an error for a missing directory")
	}
	m, _ = update(t, m, msg)
	if m.grading || len(m.results) != 0 {
		t.Errorf("state after error: grading=%v results=%d", m.grading, len(m.results))
	}
}

func TestHelpAndQuit(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = update(t, m, keyRunes("?"))
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	if !strings.Contains(m.View(), "regrade") {
		t.Error("help view should list bindings")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Fatal("esc should close help")
	}

	m, cmd := update(t, m, keyRunes("q"))
	if !m.quitting || cmd == nil {
		t.Error("q should quit")
	}
}

func TestResultsForBatch(t *testing.T) {
	// The model keys results by the paths batch reports.
	m := newModel(t)
	m = graded(t, m)
	inputs, err := batch.Inputs(m.opts.Dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range inputs {
		if _, ok := m.results[p]; !ok {
			t.Errorf("missing result for %s", p)
		}
	}
}
