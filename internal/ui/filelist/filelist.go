// Package filelist is the review pane listing graded submissions with a
// fuzzy filter.
package filelist

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	appmsg "github.com/sadopc/sqlcheck/internal/msg"
	"github.com/sadopc/sqlcheck/internal/report"
	"github.com/sadopc/sqlcheck/internal/theme"
	"github.com/sadopc/sqlcheck/internal/textutil"
)

// Model is the file list pane.
type Model struct {
	theme   *theme.Theme
	entries []report.Entry
	names   []string // base names, the fuzzy match source
	visible []int    // indexes into entries after filtering
	cursor  int
	offset  int // scroll offset
	focused bool
	width   int
	height  int
	search  textinput.Model
}

// New creates an empty file list.
func New(th *theme.Theme) Model {
	if th == nil {
		th = theme.Default()
	}
	ti := textinput.New()
	ti.Placeholder = "Filter files..."
	ti.Prompt = "/ "
	ti.Width = 24
	return Model{theme: th, search: ti}
}

// SetEntries replaces the listed files, keeping the selection on the same
// path when it is still present.
func (m *Model) SetEntries(entries []report.Entry) {
	prev, hadPrev := m.Selected()
	m.entries = entries
	m.names = make([]string, len(entries))
	for i, e := range entries {
		m.names[i] = filepath.Base(e.Path)
	}
	m.filter()
	if hadPrev {
		for i, idx := range m.visible {
			if m.entries[idx].Path == prev.Path {
				m.cursor = i
				break
			}
		}
	}
	m.ensureVisible()
}

// Selected returns the highlighted entry.
func (m Model) Selected() (report.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return report.Entry{}, false
	}
	return m.entries[m.visible[m.cursor]], true
}

// Position returns the 1-based position of the selection among the
// filtered files and their count. Position is 0 when nothing is selected.
func (m Model) Position() (int, int) {
	if len(m.visible) == 0 {
		return 0, 0
	}
	return m.cursor + 1, len(m.visible)
}

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool { return m.search.Focused() }

// Focus gives the pane keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	m.search.Blur()
}

// Focused returns whether the pane has focus.
func (m Model) Focused() bool { return m.focused }

// SetSize sets the available space.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(width-6, 4)
	m.ensureVisible()
}

// Update handles file list messages. Moving the selection emits a
// SelectFileMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	before, _ := m.Selected()
	if m.search.Focused() {
		switch key.String() {
		case "esc":
			m.search.SetValue("")
			m.search.Blur()
			m.filter()
		case "enter", "down", "up":
			m.search.Blur()
		default:
			prevVal := m.search.Value()
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			if m.search.Value() != prevVal {
				m.cursor = 0
				m.offset = 0
				m.filter()
			}
			return m, tea.Batch(cmd, m.selectionChanged(before))
		}
		return m, m.selectionChanged(before)
	}

	switch key.String() {
	case "/":
		cmd := m.search.Focus()
		return m, cmd
	case "up", "k", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "ctrl+n":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "pgup":
		m.cursor = max(m.cursor-m.visibleCount(), 0)
	case "pgdown":
		m.cursor = max(min(m.cursor+m.visibleCount(), len(m.visible)-1), 0)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.visible)-1, 0)
	default:
		return m, nil
	}
	m.ensureVisible()
	return m, m.selectionChanged(before)
}

func (m Model) selectionChanged(before report.Entry) tea.Cmd {
	after, ok := m.Selected()
	if !ok || after.Path == before.Path {
		return nil
	}
	return func() tea.Msg { return appmsg.SelectFileMsg{Path: after.Path} }
}

// View renders the file list.
func (m Model) View() string {
	th := m.theme
	w := max(m.width-2, minWidth)

	title := th.Title.Render(" Submissions ")
	searchView := m.search.View()

	var lines []string
	end := min(m.offset+m.visibleCount(), len(m.visible))
	for i := m.offset; i < end; i++ {
		e := m.entries[m.visible[i]]
		line := m.formatEntry(e, w-2)
		switch {
		case i == m.cursor && m.focused:
			lines = append(lines, th.ListSelected.Render(line))
		case i == m.cursor:
			lines = append(lines, th.ListItem.Bold(true).Render(line))
		case e.Err != nil:
			lines = append(lines, th.ErrorText.PaddingLeft(1).PaddingRight(1).Render(line))
		default:
			lines = append(lines, th.ListItem.Render(line))
		}
	}
	if len(m.visible) == 0 {
		lines = append(lines, th.MutedText.Render(" No matching files"))
	}

	countText := fmt.Sprintf(" %d/%d files", len(m.visible), len(m.entries))
	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		searchView,
		strings.Join(lines, "\n"),
		th.MutedText.Render(countText),
	)

	return th.Border.Width(w).Height(max(m.height-2, 1)).Render(content)
}

// minWidth keeps the placeholder and file counts on one line before the
// first WindowSizeMsg arrives.
const minWidth = 24

// visibleCount returns how many entries fit in the visible area.
func (m Model) visibleCount() int {
	// Title + search + count = 3 lines of chrome
	// Plus 2 for border
	return max(m.height-5, 3)
}

func (m *Model) ensureVisible() {
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// filter rebuilds the visible list from the search text. An empty filter
// lists every file in path order; otherwise files are ranked by fuzzy score.
func (m *Model) filter() {
	query := m.search.Value()
	m.visible = make([]int, 0, len(m.entries))
	if query == "" {
		for i := range m.entries {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.Find(query, m.names) {
			m.visible = append(m.visible, match.Index)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m Model) formatEntry(e report.Entry, maxWidth int) string {
	var status string
	if e.Err != nil {
		status = "error"
	} else {
		status = fmt.Sprintf("%.2f", e.Score)
	}
	nameMax := max(maxWidth-len(status)-1, 4)
	name := filepath.Base(e.Path)
	if textutil.DisplayWidth(name) > nameMax {
		name = truncateWidth(name, nameMax-1) + "…"
	}
	return textutil.PadRight(name, nameMax) + " " + status
}

func truncateWidth(s string, w int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		rw := textutil.RuneWidth(r)
		if n+rw > w {
			break
		}
		b.WriteRune(r)
		n += rw
	}
	return b.String()
}
