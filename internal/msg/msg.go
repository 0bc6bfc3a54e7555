// Package msg holds the messages exchanged by the review UI components.
package msg

import (
	"time"

	"github.com/sadopc/sqlcheck/internal/batch"
)

// Pane focus targets.
type Pane int

const (
	PaneFiles Pane = iota
	PaneReport
)

func (p Pane) String() string {
	if p == PaneReport {
		return "report"
	}
	return "files"
}

// Next returns the pane after p, wrapping around.
func (p Pane) Next() Pane {
	if p == PaneFiles {
		return PaneReport
	}
	return PaneFiles
}

// RegradeMsg requests grading the directory again.
type RegradeMsg struct{}

// GradedMsg is sent when a grading pass over the directory completes.
type GradedMsg struct {
	Results  []batch.Result
	Duration time.Duration
	Err      error
}

// SelectFileMsg is sent when the highlighted file changes.
type SelectFileMsg struct {
	Path string
}

// StatusMsg updates the status bar text.
type StatusMsg struct {
	Text     string
	IsError  bool
	Duration time.Duration
}

// ToggleMsg flips one of the report display options.
type ToggleMsg struct {
	Option Option
}

// Option is a report display option that can be toggled at runtime.
type Option int

const (
	OptionExpected Option = iota
	OptionHints
)

func (o Option) String() string {
	if o == OptionHints {
		return "hints"
	}
	return "expected"
}
