package grade

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/sadopc/sqlcheck/internal/sqlfmt"
	"github.com/sadopc/sqlcheck/internal/textutil"
)

// ErrEncoding is returned when an input file is not valid UTF-8.
var ErrEncoding = textutil.ErrEncoding

// Grader formats a submission and the answer and classifies their
// differences. A Grader is safe for concurrent use.
type Grader struct {
	formatter *sqlfmt.Formatter
}

// NewGrader returns a Grader that canonicalizes both inputs with f. With a
// nil f the inputs are compared line by line as written, with double
// quotes removed.
func NewGrader(f *sqlfmt.Formatter) *Grader {
	return &Grader{formatter: f}
}

// Lines returns the lines of text that take part in the comparison.
func (g *Grader) Lines(text string) []string {
	if g.formatter != nil {
		return g.formatter.Format(text)
	}
	text = textutil.NormalizeLF(strings.ReplaceAll(text, `"`, ""))
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Grade compares the submission text against the answer text.
func (g *Grader) Grade(target, answer string) *Report {
	return Classify(g.Lines(target), g.Lines(answer))
}

// GradeFile reads the submission at path and grades it against the
// already prepared answer lines.
func (g *Grader) GradeFile(path string, answer []string) (*Report, error) {
	text, err := textutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submission: %w", err)
	}
	return Classify(g.Lines(text), answer), nil
}

// AnswerFile reads and prepares the answer lines at path.
func (g *Grader) AnswerFile(path string) ([]string, error) {
	text, err := textutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answer: %w", err)
	}
	return g.Lines(text), nil
}

// Fingerprint hashes a line sequence. Submissions that format to the same
// lines share a fingerprint.
func Fingerprint(lines []string) uint64 {
	h := xxh3.New()
	for _, l := range lines {
		_, _ = h.WriteString(l)
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

// FormatFingerprint renders a fingerprint as 16 lowercase hex digits.
func FormatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
