package sqlfmt

import (
	"strings"

	"github.com/sadopc/sqlcheck/internal/textutil"
)

type role uint8

const (
	roleOperand role = iota // names, literals, groups, wildcards
	roleWord                // keywords
	roleUnary
	roleBinary
	rolePunct
)

// printer writes tokens as canonical SQL text. It tracks the display column
// of the cursor so clause lists and subqueries can be aligned.
type printer struct {
	opts      Options
	buf       strings.Builder
	col       int
	lineStart bool
	indent    int

	hasPrev  bool
	prev     Token
	operand  bool
	unary    bool
	binary   bool
	callable bool
}

func newPrinter(opts Options, col int) *printer {
	return &printer{opts: opts, col: col, lineStart: col == 0}
}

// String returns the printed text with trailing blanks removed from every
// line.
func (p *printer) String() string {
	lines := strings.Split(p.buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func (p *printer) write(s string) {
	if p.lineStart {
		p.buf.WriteString(strings.Repeat(" ", p.indent))
		p.col = p.indent
		p.lineStart = false
	}
	p.buf.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		p.col = textutil.DisplayWidth(s[i+1:])
	} else {
		p.col += textutil.DisplayWidth(s)
	}
}

// newline ends the current line. Consecutive calls never produce an empty
// line; the last indent wins.
func (p *printer) newline(indent int) {
	if !p.lineStart {
		p.buf.WriteByte('\n')
		p.lineStart = true
	}
	p.indent = indent
	p.col = indent
}

func (p *printer) lastByte() byte {
	s := p.buf.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (p *printer) text(t Token) string {
	switch t.Kind {
	case KindKeyword:
		return p.opts.KeywordCase.apply(t.Value)
	case KindName, KindBuiltin:
		if isQuoted(t.Value) {
			return t.Value
		}
		return p.opts.IdentifierCase.apply(t.Value)
	}
	return t.Value
}

func (p *printer) roleOf(t Token) role {
	switch t.Kind {
	case KindKeyword:
		if valueWords[t.Upper()] {
			return roleOperand
		}
		return roleWord
	case KindOperator:
		switch t.Value {
		case "*", "?":
			if !p.operand {
				return roleOperand
			}
		case "-", "+", "~":
			if !p.operand {
				return roleUnary
			}
		}
		return roleBinary
	case KindPunctuation:
		if t.Value == ")" || t.Value == "]" {
			return roleOperand
		}
		return rolePunct
	}
	return roleOperand
}

func (p *printer) spaceBefore(t Token, r role) bool {
	if p.lineStart || !p.hasPrev || p.unary {
		return false
	}
	switch {
	case t.Kind == KindPunctuation:
		switch t.Value {
		case ",", ";", ")", ".", "::", "]":
			return false
		case "[":
			if p.operand {
				return false
			}
		}
	case t.Kind == KindGroup:
		if p.callable {
			return false
		}
	case r == roleBinary && !p.opts.SpaceAroundOperators:
		return false
	}
	if p.prev.Kind == KindPunctuation {
		switch p.prev.Value {
		case "(", ".", "::", "[", ":":
			return false
		}
	}
	if p.binary && !p.opts.SpaceAroundOperators {
		return false
	}
	return true
}

func (p *printer) after(t Token, r role) {
	p.hasPrev = true
	p.prev = t
	p.operand = r == roleOperand
	p.unary = r == roleUnary
	p.binary = r == roleBinary
	p.callable = t.Kind == KindName || t.Kind == KindBuiltin ||
		(t.Kind == KindKeyword && functionWords[t.Upper()])
}

// emit writes one token and returns the column it starts at.
func (p *printer) emit(t Token) int {
	switch t.Kind {
	case KindWhitespace:
		return -1
	case KindComment:
		return p.comment(t)
	case KindGroup:
		return p.group(t)
	}
	r := p.roleOf(t)
	s := p.text(t)
	if p.spaceBefore(t, r) || p.joinsComment(s) {
		p.write(" ")
	}
	start := p.startCol()
	p.write(s)
	p.after(t, r)
	return start
}

// joinsComment reports whether writing s right after the buffer would form
// a comment opener.
func (p *printer) joinsComment(s string) bool {
	if p.lineStart || s == "" {
		return false
	}
	switch p.lastByte() {
	case '-':
		return s[0] == '-'
	case '/':
		return s[0] == '*'
	}
	return false
}

func (p *printer) startCol() int {
	if p.lineStart {
		return p.indent
	}
	return p.col
}

func (p *printer) comment(t Token) int {
	if p.opts.StripComments {
		return -1
	}
	s := strings.TrimSpace(t.Value)
	if !p.lineStart && p.hasPrev {
		p.write(" ")
	}
	start := p.startCol()
	p.write(s)
	if strings.HasPrefix(s, "--") || strings.HasPrefix(s, "#") {
		p.newline(p.indent)
	}
	return start
}

func (p *printer) group(t Token) int {
	if p.spaceBefore(t, roleOperand) {
		p.write(" ")
	}
	start := p.startCol()
	p.write("(")
	p.after(Token{Kind: KindPunctuation, Value: "("}, rolePunct)

	inner := significant(t.Inner(), p.opts.StripComments)
	if p.opts.Reindent && isSubquery(inner) {
		p.statement(inner, p.col)
	} else {
		for _, c := range inner {
			p.emit(c)
		}
	}
	if t.Closed() {
		p.write(")")
	}
	p.after(t, roleOperand)
	return start
}

// statement prints a statement or subquery whose clauses start at indent.
func (p *printer) statement(toks []Token, indent int) {
	var (
		clause  string
		inList  bool
		listCol = -1
		between bool
	)
	for i := 0; i < len(toks); {
		t := toks[i]
		if p.opts.Reindent {
			if n, name := clauseAt(toks, i); n > 0 {
				if i > 0 {
					p.newline(indent)
				}
				for _, k := range toks[i : i+n] {
					p.emit(k)
				}
				clause, inList, listCol, between = name, listClauses[name], -1, false
				i += n
				continue
			}
			switch {
			case t.IsWordOf("BETWEEN"):
				between = true
			case between && t.IsWordOf("AND"):
				between = false
			case condClauses[clause] && t.IsWordOf("AND", "OR"):
				p.newline(indent + 2)
			case inList && t.IsPunct(","):
				p.emit(t)
				if listCol >= 0 {
					p.newline(listCol)
				}
				i++
				continue
			}
		}
		start := p.emit(t)
		if inList && listCol < 0 {
			listCol = start
		}
		i++
	}
}

// clauseAt reports whether a clause phrase starts at toks[i] and returns
// its length in tokens and its canonical name.
func clauseAt(toks []Token, i int) (int, string) {
	t := toks[i]
	if !t.IsWord() {
		return 0, ""
	}
	u := t.Upper()
	next := func(words ...string) bool {
		return i+1 < len(toks) && toks[i+1].IsWordOf(words...)
	}
	switch {
	case clauseWords[u]:
		return 1, u
	case u == "GROUP" || u == "ORDER":
		if next("BY") {
			return 2, u + " BY"
		}
	case u == "UNION":
		if next("ALL", "DISTINCT") {
			return 2, u
		}
		return 1, u
	case u == "JOIN" || joinModifiers[u]:
		j := i
		for j < len(toks) && toks[j].IsWord() && joinModifiers[toks[j].Upper()] {
			j++
		}
		if j < len(toks) && toks[j].IsWordOf("JOIN") {
			return j - i + 1, "JOIN"
		}
	}
	return 0, ""
}

func significant(toks []Token, stripComments bool) []Token {
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == KindWhitespace || (stripComments && t.Kind == KindComment) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isSubquery(inner []Token) bool {
	return len(inner) > 0 && inner[0].IsWordOf("SELECT", "WITH")
}

// inline prints toks on one logical line starting at column col.
func inline(toks []Token, opts Options, col int) string {
	p := newPrinter(opts, col)
	for _, t := range toks {
		p.emit(t)
	}
	return p.String()
}

// PrettyPrint renders one statement with the generic layout: cased words,
// normalized spacing and, with Reindent, one clause per line.
func PrettyPrint(stmt string, opts Options) string {
	p := newPrinter(opts, 0)
	p.statement(significant(Parse(stmt), opts.StripComments), 0)
	return p.String()
}
