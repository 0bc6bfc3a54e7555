// Package app is the interactive review browser: a file list of graded
// submissions beside the annotated report of the selected one.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/sqlcheck/internal/batch"
	"github.com/sadopc/sqlcheck/internal/grade"
	"github.com/sadopc/sqlcheck/internal/logging"
	"github.com/sadopc/sqlcheck/internal/report"
	"github.com/sadopc/sqlcheck/internal/theme"
	"github.com/sadopc/sqlcheck/internal/ui/filelist"
	"github.com/sadopc/sqlcheck/internal/ui/statusbar"
)

// SummaryFile is the name of the CSV written by the export key, inside the
// graded directory.
const SummaryFile = "summary.csv"

// Options configures the review browser.
type Options struct {
	Dir     string
	Answer  string
	Grader  *grade.Grader
	Workers int
	Report  report.Options
	Logger  *zap.Logger
}

// Model is the root review model.
type Model struct {
	ctx    context.Context
	opts   Options
	theme  *theme.Theme
	logger *zap.Logger

	// Layout
	width     int
	height    int
	listWidth int

	// Focus
	focusedPane Pane

	// Components
	files     filelist.Model
	report    viewport.Model
	statusbar statusbar.Model
	help      help.Model
	spinner   spinner.Model
	keyMap    KeyMap

	// State
	results  map[string]batch.Result
	entries  []report.Entry
	shown    string // path whose report is in the viewport
	grading  bool
	showHelp bool
	quitting bool
}

// New creates the review model. Grading starts from Init.
func New(ctx context.Context, opts Options) Model {
	th := opts.Report.Theme
	if th == nil {
		th = theme.Default()
		opts.Report.Theme = th
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	files := filelist.New(th)
	files.Focus()

	return Model{
		ctx:    ctx,
		opts:   opts,
		theme:  th,
		logger: logging.OrNop(opts.Logger),

		listWidth:   32,
		focusedPane: PaneFiles,

		files:     files,
		report:    viewport.New(0, 0),
		statusbar: statusbar.New(th, opts.Dir),
		help:      help.New(),
		spinner:   s,
		keyMap:    DefaultKeyMap(),

		results: make(map[string]batch.Result),
		grading: true,
	}
}

// Init grades the directory for the first time.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.gradeCmd(),
	)
}

func (m Model) gradeCmd() tea.Cmd {
	ctx, opts, logger := m.ctx, m.opts, m.logger
	return func() tea.Msg {
		start := time.Now()
		results, err := batch.Grade(ctx, opts.Dir, opts.Answer, batch.Options{
			Grader:  opts.Grader,
			Workers: opts.Workers,
			Logger:  logger,
			DryRun:  true,
		})
		return GradedMsg{Results: results, Duration: time.Since(start), Err: err}
	}
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		// Help overlay consumes all keys except toggle/close
		if m.showHelp {
			if key.Matches(msg, m.keyMap.Help, m.keyMap.Quit) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// The filter input gets every key while it is focused
		if m.files.Filtering() {
			var cmd tea.Cmd
			m.files, cmd = m.files.Update(msg)
			return m, cmd
		}

		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
		cmds = append(cmds, m.handleFocusedPaneKey(msg))

	case GradedMsg:
		m.grading = false
		if msg.Err == nil {
			m.results = make(map[string]batch.Result, len(msg.Results))
			for _, r := range msg.Results {
				m.results[r.Path] = r
			}
			m.entries = batch.Entries(msg.Results)
			m.files.SetEntries(m.entries)
			m.shown = ""
			m.refreshReport()
		} else {
			m.logger.Error("review grading failed", zap.Error(msg.Err))
		}
		var cmd tea.Cmd
		m.statusbar, cmd = m.statusbar.Update(msg)
		cmds = append(cmds, cmd)

	case RegradeMsg:
		if !m.grading {
			m.grading = true
			cmds = append(cmds, m.spinner.Tick, m.gradeCmd())
		}

	case SelectFileMsg:
		m.refreshReport()

	case ToggleMsg:
		var on bool
		switch msg.Option {
		case OptionExpected:
			m.opts.Report.ShowExpected = !m.opts.Report.ShowExpected
			on = m.opts.Report.ShowExpected
		case OptionHints:
			m.opts.Report.Hints = !m.opts.Report.Hints
			on = m.opts.Report.Hints
		}
		m.renderReport()
		var cmd tea.Cmd
		m.statusbar, cmd = m.statusbar.Update(StatusMsg{Text: fmt.Sprintf("%s %s", msg.Option, onOff(on))})
		cmds = append(cmds, cmd)

	case StatusMsg:
		var cmd tea.Cmd
		m.statusbar, cmd = m.statusbar.Update(msg)
		cmds = append(cmds, cmd)

	case statusbar.ClearStatusMsg:
		m.statusbar, _ = m.statusbar.Update(msg)

	case spinner.TickMsg:
		if m.grading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		// Blink and other component messages
		var cmd tea.Cmd
		m.files, cmd = m.files.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := m.keyMap
	switch {
	case key.Matches(msg, km.Quit):
		m.quitting = true
		return tea.Quit, true

	case key.Matches(msg, km.Help):
		m.showHelp = true
		return nil, true

	case key.Matches(msg, km.FocusNext):
		m.setFocus(m.focusedPane.Next())
		return nil, true

	case key.Matches(msg, km.Regrade):
		return func() tea.Msg { return RegradeMsg{} }, true

	case key.Matches(msg, km.ToggleExpected):
		return func() tea.Msg { return ToggleMsg{Option: OptionExpected} }, true

	case key.Matches(msg, km.ToggleHints):
		return func() tea.Msg { return ToggleMsg{Option: OptionHints} }, true

	case key.Matches(msg, km.Export):
		return m.exportCmd(), true

	case key.Matches(msg, km.Filter):
		// Filtering always happens in the file list
		m.setFocus(PaneFiles)
		var cmd tea.Cmd
		m.files, cmd = m.files.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (m *Model) handleFocusedPaneKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focusedPane {
	case PaneFiles:
		m.files, cmd = m.files.Update(msg)
	case PaneReport:
		km := m.keyMap
		switch {
		case key.Matches(msg, km.Top):
			m.report.GotoTop()
		case key.Matches(msg, km.Bottom):
			m.report.GotoBottom()
		default:
			m.report, cmd = m.report.Update(msg)
		}
	}
	return cmd
}

func (m *Model) setFocus(p Pane) {
	m.focusedPane = p
	if p == PaneFiles {
		m.files.Focus()
	} else {
		m.files.Blur()
	}
}

func (m Model) exportCmd() tea.Cmd {
	entries := m.entries
	path := filepath.Join(m.opts.Dir, SummaryFile)
	return func() tea.Msg {
		if err := report.ExportCSV(path, entries); err != nil {
			return StatusMsg{Text: "Export failed: " + err.Error(), IsError: true}
		}
		return StatusMsg{Text: fmt.Sprintf("Exported %d files to %s", len(entries), path)}
	}
}

// refreshReport shows the selected file's report, scrolling to the top when
// the selection changed.
func (m *Model) refreshReport() {
	sel, ok := m.files.Selected()
	pos, total := m.files.Position()
	if !ok {
		m.statusbar.SetPosition(0, total, nil)
		m.shown = ""
		m.report.SetContent(m.theme.MutedText.Render("No file selected"))
		return
	}
	m.statusbar.SetPosition(pos, total, &sel)
	if sel.Path != m.shown {
		m.shown = sel.Path
		m.renderReport()
		m.report.GotoTop()
		return
	}
	m.renderReport()
}

func (m *Model) renderReport() {
	if m.shown == "" {
		return
	}
	r := m.results[m.shown]
	th := m.theme

	var b strings.Builder
	b.WriteString(th.Title.Render(filepath.Base(r.Path)))
	if r.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(th.ErrorText.Render(r.Err.Error()))
		m.report.SetContent(b.String())
		return
	}
	s := r.Report.Summary
	b.WriteString("  ")
	b.WriteString(th.Score(r.Report.Score()).Render(fmt.Sprintf("%.2f", r.Report.Score())))
	b.WriteString(th.MutedText.Render(fmt.Sprintf("  %d unchanged  %d corrected  %d missing  %d extra",
		s.Unchanged, s.Corrected, s.Missing, s.Extra)))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(report.Lines(r.Report, m.opts.Report), "\n"))
	m.report.SetContent(b.String())
}

func (m *Model) updateLayout() {
	listW := min(m.listWidth, m.width/3)
	mainH := max(m.height-2, 3) // status bar + help line
	m.files.SetSize(listW, mainH)
	m.report.Width = max(m.width-listW-4, 1)
	m.report.Height = max(mainH-2, 1)
	m.statusbar.SetSize(m.width)
	m.help.Width = m.width
}

// View renders the browser.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	th := m.theme
	if m.showHelp {
		return th.Border.Width(max(m.width-2, 10)).Render(
			th.Title.Render(" Keys ") + "\n\n" + m.help.FullHelpView(m.keyMap.FullHelp()))
	}

	border := th.Border
	if m.focusedPane != PaneReport {
		border = border.BorderForeground(th.MutedText.GetForeground())
	}
	reportView := m.report.View()
	if m.grading && len(m.results) == 0 {
		reportView = m.spinner.View() + " Grading " + m.opts.Dir + "..."
	}
	reportPane := border.
		Width(m.report.Width).
		Height(m.report.Height).
		Render(reportView)

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.files.View(), reportPane)
	helpLine := m.help.ShortHelpView(m.keyMap.ShortHelp())
	if m.grading && len(m.results) > 0 {
		helpLine = m.spinner.View() + " regrading  " + helpLine
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, m.statusbar.View(), helpLine)
}

// Run starts the review browser and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(
		New(ctx, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
