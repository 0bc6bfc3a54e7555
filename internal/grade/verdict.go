// Package grade classifies the differences between a submission and the
// reference answer into per-line verdicts.
package grade

import (
	"fmt"

	"github.com/sadopc/sqlcheck/internal/linediff"
)

// Kind is the verdict for one line.
type Kind uint8

const (
	// Unchanged lines appear identically in both submission and answer.
	Unchanged Kind = iota
	// Corrected lines are wrong versions of a specific answer line.
	Corrected
	// Missing lines exist only in the answer.
	Missing
	// Extra lines exist only in the submission.
	Extra
)

var kindNames = [...]string{
	Unchanged: "unchanged",
	Corrected: "corrected",
	Missing:   "missing",
	Extra:     "extra",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Marker is the two-character prefix used in text reports.
func (k Kind) Marker() string {
	switch k {
	case Corrected:
		return "* "
	case Missing:
		return "+ "
	case Extra:
		return "- "
	default:
		return "  "
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind parses the name of a verdict kind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return Unchanged, fmt.Errorf("unknown verdict kind %q", s)
}

// Verdict is the classification of one line. Actual is the submission's
// line and Expected the answer's; Missing has no Actual and Extra no
// Expected. Hint is set for Corrected verdicts.
type Verdict struct {
	Kind     Kind           `json:"kind"`
	Actual   string         `json:"actual,omitempty"`
	Expected string         `json:"expected,omitempty"`
	Hint     *linediff.Hint `json:"-"`
}

// Line returns the text a report shows for v.
func (v Verdict) Line() string {
	if v.Kind == Missing {
		return v.Expected
	}
	return v.Actual
}

// Summary counts verdicts by kind.
type Summary struct {
	Unchanged int `json:"unchanged"`
	Corrected int `json:"corrected"`
	Missing   int `json:"missing"`
	Extra     int `json:"extra"`
}

func (s *Summary) add(k Kind) {
	switch k {
	case Unchanged:
		s.Unchanged++
	case Corrected:
		s.Corrected++
	case Missing:
		s.Missing++
	case Extra:
		s.Extra++
	}
}

// AnswerLines is the number of lines in the answer.
func (s Summary) AnswerLines() int {
	return s.Unchanged + s.Corrected + s.Missing
}

// TargetLines is the number of lines in the submission.
func (s Summary) TargetLines() int {
	return s.Unchanged + s.Corrected + s.Extra
}

// Perfect reports whether the submission matches the answer exactly.
func (s Summary) Perfect() bool {
	return s.Corrected == 0 && s.Missing == 0 && s.Extra == 0
}

// Score is the share of answer lines reproduced unchanged, in [0, 1]. Two
// empty inputs score 1.
func (s Summary) Score() float64 {
	if s.AnswerLines() == 0 {
		if s.Extra == 0 {
			return 1
		}
		return 0
	}
	return float64(s.Unchanged) / float64(s.AnswerLines())
}

// Report is the ordered list of verdicts for one submission.
type Report struct {
	Verdicts []Verdict
	Summary  Summary
}

// Score returns r.Summary.Score().
func (r *Report) Score() float64 {
	return r.Summary.Score()
}

// TargetLines reconstructs the submission's lines from the report.
func (r *Report) TargetLines() []string {
	out := make([]string, 0, r.Summary.TargetLines())
	for _, v := range r.Verdicts {
		if v.Kind != Missing {
			out = append(out, v.Actual)
		}
	}
	return out
}

// AnswerLines reconstructs the answer's lines from the report.
func (r *Report) AnswerLines() []string {
	out := make([]string, 0, r.Summary.AnswerLines())
	for _, v := range r.Verdicts {
		if v.Kind != Extra {
			out = append(out, v.Expected)
		}
	}
	return out
}

// Lines returns the report lines of the given kind.
func (r *Report) Lines(k Kind) []string {
	var out []string
	for _, v := range r.Verdicts {
		if v.Kind == k {
			out = append(out, v.Line())
		}
	}
	return out
}

// Classify compares the submission's lines with the answer's and returns
// one verdict per line, in submission order with missing answer lines
// placed where they belong. It never fails; empty inputs are valid.
func Classify(target, answer []string) *Report {
	r := &Report{}
	// The answer is the base of the edit script, so a deletion is a line
	// the submission lacks and an insertion one it should not have.
	for _, op := range linediff.Compare(answer, target) {
		var v Verdict
		switch op.Kind {
		case linediff.Equal:
			v = Verdict{Kind: Unchanged, Actual: op.Revision, Expected: op.Base}
		case linediff.Replace:
			v = Verdict{Kind: Corrected, Actual: op.Revision, Expected: op.Base, Hint: op.Hint}
		case linediff.Delete:
			v = Verdict{Kind: Missing, Expected: op.Base}
		case linediff.Insert:
			v = Verdict{Kind: Extra, Actual: op.Revision}
		}
		r.Verdicts = append(r.Verdicts, v)
		r.Summary.add(v.Kind)
	}
	return r
}
