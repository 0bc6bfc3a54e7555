package statusbar

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sqlcheck/internal/batch"
	appmsg "github.com/sadopc/sqlcheck/internal/msg"
	"github.com/sadopc/sqlcheck/internal/report"
	"github.com/sadopc/sqlcheck/internal/theme"
)

// ClearStatusMsg is sent after a timeout to revert the status bar to key hints.
type ClearStatusMsg struct{}

// Model is the status bar component.
type Model struct {
	theme     *theme.Theme
	width     int
	dir       string
	files     int
	failed    int
	mean      float64
	gradeTime time.Duration
	message   string
	isError   bool
	position  int // 1-based, 0 when nothing is selected
	total     int
	score     float64
	hasScore  bool
}

// New creates a new status bar for the graded directory dir.
func New(th *theme.Theme, dir string) Model {
	if th == nil {
		th = theme.Default()
	}
	return Model{theme: th, dir: dir}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	clearAfter := func() tea.Cmd {
		return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return ClearStatusMsg{}
		})
	}

	switch msg := msg.(type) {
	case appmsg.GradedMsg:
		if msg.Err != nil {
			m.message = msg.Err.Error()
			m.isError = true
			return m, clearAfter()
		}
		m.files = len(msg.Results)
		m.failed = batch.Failed(msg.Results)
		m.mean = meanScore(msg.Results)
		m.gradeTime = msg.Duration
		m.message = ""
		m.isError = false
		return m, clearAfter()

	case appmsg.StatusMsg:
		m.message = msg.Text
		m.isError = msg.IsError
		if msg.Duration > 0 {
			m.gradeTime = msg.Duration
		}
		return m, clearAfter()

	case ClearStatusMsg:
		m.gradeTime = 0
		m.message = ""
		m.isError = false
	}

	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	th := m.theme

	// Left section: graded directory
	left := th.StatusBarKey.Render(" " + truncate(m.dir, m.width/3) + " ")

	// Center section: message, grading stats or key hints
	var center string
	switch {
	case m.message != "":
		if m.isError {
			center = th.ErrorText.Render(" " + truncate(m.message, m.width/2) + " ")
		} else {
			center = th.StatusBar.Render(" " + m.message + " ")
		}
	case m.gradeTime > 0:
		stats := fmt.Sprintf(" %d files ", m.files)
		if m.failed > 0 {
			stats += fmt.Sprintf(" %d failed ", m.failed)
		}
		stats += fmt.Sprintf(" mean %.2f ", m.mean)
		center = th.StatusBar.Render(stats + " " + formatDuration(m.gradeTime) + " ")
	default:
		hintKey := th.StatusBarKey
		hintSep := th.StatusBar
		center = hintKey.Render("/") +
			hintSep.Render(" Filter ") +
			hintKey.Render("e") +
			hintSep.Render(" Expected ") +
			hintKey.Render("h") +
			hintSep.Render(" Hints ") +
			hintKey.Render("r") +
			hintSep.Render(" Regrade ") +
			hintKey.Render("q") +
			hintSep.Render(" Quit ")
	}

	// Right section: position and score of the selected file
	var right string
	if m.position > 0 {
		right = th.StatusBarKey.Render(fmt.Sprintf(" %d/%d ", m.position, m.total))
		if m.hasScore {
			right += th.Score(m.score).Render(fmt.Sprintf(" %.2f ", m.score))
		}
	}

	leftW := lipgloss.Width(left)
	centerW := lipgloss.Width(center)
	rightW := lipgloss.Width(right)
	gap := m.width - leftW - centerW - rightW
	if gap < 0 {
		gap = 0
	}

	leftGap := gap / 2
	rightGap := gap - leftGap

	bar := left +
		th.StatusBar.Render(spaces(leftGap)) +
		center +
		th.StatusBar.Render(spaces(rightGap)) +
		right

	return th.StatusBar.Width(m.width).Render(bar)
}

// SetSize sets the status bar width.
func (m *Model) SetSize(width int) {
	m.width = width
}

// SetPosition updates the selected file display. Pass position 0 to clear
// it; a nil report hides the score.
func (m *Model) SetPosition(position, total int, rep *report.Entry) {
	m.position = position
	m.total = total
	m.hasScore = rep != nil && rep.Err == nil
	if m.hasScore {
		m.score = rep.Score
	}
}

func meanScore(results []batch.Result) float64 {
	var sum float64
	n := 0
	for _, r := range results {
		if r.Err == nil && r.Report != nil {
			sum += r.Report.Score()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	if len(s) > maxLen {
		return "..." + s[len(s)-maxLen+3:]
	}
	return s
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
