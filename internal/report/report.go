// Package report renders grading reports as annotated text, colored
// terminal text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/sadopc/sqlcheck/internal/grade"
	"github.com/sadopc/sqlcheck/internal/textutil"
	"github.com/sadopc/sqlcheck/internal/theme"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	expectedMarker = "> "
	hintMarker     = "? "
)

// Options controls what a text report shows.
type Options struct {
	// ShowExpected adds the answer's line after each corrected line.
	ShowExpected bool
	// Hints adds a marker line under corrected lines pointing at the
	// characters that differ.
	Hints bool
	// Theme colors the report. Nil means plain text.
	Theme *theme.Theme
}

// Lines renders r as text lines without trailing newlines.
func Lines(r *grade.Report, opts Options) []string {
	var hl *Highlighter
	if opts.Theme != nil {
		hl = NewHighlighter(opts.Theme)
	}

	out := make([]string, 0, len(r.Verdicts))
	for _, v := range r.Verdicts {
		out = append(out, verdictLine(v, opts.Theme, hl))
		if v.Kind != grade.Corrected {
			continue
		}
		if opts.Hints && v.Hint != nil && v.Hint.Revision != "" {
			out = append(out, styled(opts.Theme, hintStyle, hintMarker+v.Hint.Revision))
		}
		if opts.ShowExpected {
			out = append(out, styled(opts.Theme, expectedStyle, expectedMarker+v.Expected))
			if opts.Hints && v.Hint != nil && v.Hint.Base != "" {
				out = append(out, styled(opts.Theme, hintStyle, hintMarker+v.Hint.Base))
			}
		}
	}
	return out
}

// Text renders r as newline-terminated text.
func Text(r *grade.Report, opts Options) string {
	return textutil.JoinLines(Lines(r, opts))
}

func verdictLine(v grade.Verdict, th *theme.Theme, hl *Highlighter) string {
	line := v.Kind.Marker() + v.Line()
	if th == nil {
		return line
	}
	if v.Kind == grade.Unchanged {
		return v.Kind.Marker() + hl.Highlight(v.Line())
	}
	return kindStyle(th, v.Kind).Render(line)
}

func kindStyle(th *theme.Theme, k grade.Kind) lipgloss.Style {
	switch k {
	case grade.Corrected:
		return th.Corrected
	case grade.Missing:
		return th.Missing
	case grade.Extra:
		return th.Extra
	default:
		return th.Unchanged
	}
}

func hintStyle(th *theme.Theme) lipgloss.Style     { return th.Hint }
func expectedStyle(th *theme.Theme) lipgloss.Style { return th.Expected }

func styled(th *theme.Theme, pick func(*theme.Theme) lipgloss.Style, s string) string {
	if th == nil {
		return s
	}
	return pick(th).Render(s)
}

// Document is the JSON form of a report.
type Document struct {
	Path    string        `json:"path,omitempty"`
	Summary grade.Summary `json:"summary"`
	Score   float64       `json:"score"`
	Lines   []Line        `json:"lines"`
}

// Line is one verdict in a Document.
type Line struct {
	Kind     grade.Kind `json:"kind"`
	Actual   string     `json:"actual,omitempty"`
	Expected string     `json:"expected,omitempty"`
	Hint     string     `json:"hint,omitempty"`
}

// NewDocument converts r for JSON output. path may be empty.
func NewDocument(path string, r *grade.Report) Document {
	d := Document{
		Path:    path,
		Summary: r.Summary,
		Score:   r.Score(),
		Lines:   make([]Line, 0, len(r.Verdicts)),
	}
	for _, v := range r.Verdicts {
		l := Line{Kind: v.Kind, Actual: v.Actual, Expected: v.Expected}
		if v.Kind == grade.Unchanged {
			l.Expected = ""
		}
		if v.Hint != nil {
			l.Hint = v.Hint.Revision
		}
		d.Lines = append(d.Lines, l)
	}
	return d
}

// JSON renders r as an indented JSON document followed by a newline.
func JSON(path string, r *grade.Report) ([]byte, error) {
	b, err := json.MarshalIndent(NewDocument(path, r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(b, '\n'), nil
}

// Render produces the report bytes in the given format.
func Render(path string, r *grade.Report, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(path, r)
	case FormatText, "":
		return []byte(Text(r, opts)), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Write renders r to w.
func Write(w io.Writer, path string, r *grade.Report, format string, opts Options) error {
	b, err := Render(path, r, format, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ColorEnabled decides whether output to f is colored. mode is "always",
// "never" or "auto"; auto colors terminals unless NO_COLOR is set.
func ColorEnabled(mode string, f *os.File) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// ForceColor makes lipgloss emit ANSI colors even when stdout is not a
// terminal, for --color=always.
func ForceColor() {
	lipgloss.SetColorProfile(termenv.ANSI256)
}
