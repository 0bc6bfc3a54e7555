// Package sqlfmt canonicalizes SQL text into a deterministic line layout so
// that two submissions differing only in case, spacing or line breaks
// compare equal line by line.
//
// Tokenizing is delegated to the chroma SQL lexer; this package groups its
// token stream into a tree and prints it.
package sqlfmt

import (
	"strings"

	"github.com/sadopc/sqlcheck/internal/textutil"
)

// Formatter formats SQL text with a fixed set of options. It holds no
// mutable state and is safe for concurrent use.
type Formatter struct {
	opts Options
}

// New returns a Formatter using opts.
func New(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

// Options returns the options f was built with.
func (f *Formatter) Options() Options {
	return f.opts
}

// Format formats text and returns its lines without line terminators.
//
// Blank lines and comment lines (starting with "#" or "--") separate
// blocks of SQL. Comment lines are copied verbatim, runs of blank lines
// collapse to one and leading or trailing blank lines are dropped. Each
// statement of a block is formatted on its own, with one blank line
// between statements.
func (f *Formatter) Format(text string) []string {
	if f.opts.StripDoubleQuotes {
		text = strings.ReplaceAll(text, `"`, "")
	}
	text = textutil.NormalizeLF(text)

	var (
		out   []string
		block strings.Builder
	)
	flush := func() {
		if block.Len() == 0 {
			return
		}
		for i, stmt := range Split(block.String()) {
			if i > 0 {
				out = append(out, "")
			}
			out = append(out, strings.Split(f.FormatStatement(stmt), "\n")...)
		}
		block.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			flush()
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
		case IsCommentLine(line):
			flush()
			out = append(out, line)
		default:
			block.WriteString(line)
			block.WriteByte('\n')
		}
	}
	flush()

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// FormatStatement formats a single statement. CREATE TABLE statements
// with a column list get the aligned table layout; everything else goes
// through PrettyPrint.
func (f *Formatter) FormatStatement(stmt string) string {
	toks := Parse(stmt)
	if s, ok := tableDefinition(significant(toks, true), f.opts); ok {
		return s
	}
	p := newPrinter(f.opts, 0)
	p.statement(significant(toks, f.opts.StripComments), 0)
	return p.String()
}

// IsCommentLine reports whether line is a whole-line comment.
func IsCommentLine(line string) bool {
	s := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(s, "#") || strings.HasPrefix(s, "--")
}

// Format formats text with DefaultOptions.
func Format(text string) []string {
	return New(DefaultOptions()).Format(text)
}
