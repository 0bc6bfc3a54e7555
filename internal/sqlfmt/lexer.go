package sqlfmt

import (
	"strings"
	"unicode"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Kind classifies a Token.
type Kind uint8

// Token kinds.
const (
	KindWhitespace Kind = iota
	KindComment
	KindKeyword
	KindName
	KindBuiltin
	KindString
	KindNumber
	KindOperator
	KindPunctuation
	KindGroup
)

var kindNames = [...]string{
	KindWhitespace:  "whitespace",
	KindComment:     "comment",
	KindKeyword:     "keyword",
	KindName:        "name",
	KindBuiltin:     "builtin",
	KindString:      "string",
	KindNumber:      "number",
	KindOperator:    "operator",
	KindPunctuation: "punctuation",
	KindGroup:       "group",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one node of the token tree. Leaf tokens carry their literal text
// in Value. A KindGroup token is a parenthesized list: its Children start
// with the "(" token and end with ")" when the input closed it.
type Token struct {
	Kind     Kind
	Value    string
	Children []Token
}

// String returns the source text of the token, including all children.
func (t Token) String() string {
	if t.Kind != KindGroup {
		return t.Value
	}
	var b strings.Builder
	for _, c := range t.Children {
		b.WriteString(c.String())
	}
	return b.String()
}

// Upper returns the ASCII upper-cased value of a leaf token.
func (t Token) Upper() string {
	return upperASCII(t.Value)
}

// IsSpace reports whether t carries no meaning for formatting.
func (t Token) IsSpace() bool {
	return t.Kind == KindWhitespace || t.Kind == KindComment
}

// IsWord reports whether t is an unquoted keyword, name or type name.
func (t Token) IsWord() bool {
	switch t.Kind {
	case KindKeyword, KindBuiltin:
		return true
	case KindName:
		return !isQuoted(t.Value)
	}
	return false
}

// IsWordOf reports whether t is a word equal to one of words, ignoring case.
func (t Token) IsWordOf(words ...string) bool {
	if !t.IsWord() {
		return false
	}
	u := t.Upper()
	for _, w := range words {
		if u == w {
			return true
		}
	}
	return false
}

// IsPunct reports whether t is the punctuation p.
func (t Token) IsPunct(p string) bool {
	return t.Kind == KindPunctuation && t.Value == p
}

// Inner returns the children of a group without the enclosing parentheses.
func (t Token) Inner() []Token {
	ch := t.Children
	if len(ch) > 0 && ch[0].IsPunct("(") {
		ch = ch[1:]
	}
	if len(ch) > 0 && ch[len(ch)-1].IsPunct(")") {
		ch = ch[:len(ch)-1]
	}
	return ch
}

// Closed reports whether a group ends with its closing parenthesis.
func (t Token) Closed() bool {
	n := len(t.Children)
	return n > 1 && t.Children[n-1].IsPunct(")")
}

var sqlLexer = func() chroma.Lexer {
	l := lexers.Get("SQL")
	if l == nil {
		l = lexers.Fallback
	}
	return l
}()

// multiOps lists the operators written as more than one character. The
// chroma SQL lexer emits every operator character on its own.
var multiOps = map[string]bool{
	"<=": true, ">=": true, "<>": true, "!=": true, "==": true,
	"||": true, "&&": true, "<<": true, ">>": true,
	"->": true, "->>": true, "#>": true, "#>>": true,
	"@>": true, "<@": true, "!~": true, "~*": true, "!~*": true,
	":=": true,
}

// Tokenize returns the flat token stream of sql. Concatenating the values
// of the returned tokens reproduces sql.
func Tokenize(sql string) []Token {
	iter, err := sqlLexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, sql)
	if err != nil {
		return []Token{{Kind: KindName, Value: sql}}
	}
	var m merger
	for _, ct := range iter.Tokens() {
		if ct.Value == "" {
			continue
		}
		m.add(ct)
	}
	m.finish()
	return m.out
}

// merger folds chroma's fine-grained token stream into formatter tokens.
type merger struct {
	out []Token
	// frag marks output tokens that absorbed a rune chroma could not lex.
	frag []bool
	// pending backtick-quoted identifier
	quote   strings.Builder
	inQuote bool
	rawType chroma.TokenType
}

func (m *merger) push(t Token, frag bool) {
	m.out = append(m.out, t)
	m.frag = append(m.frag, frag)
}

func (m *merger) last() (*Token, bool) {
	if len(m.out) == 0 {
		return nil, false
	}
	return &m.out[len(m.out)-1], m.frag[len(m.frag)-1]
}

func (m *merger) add(ct chroma.Token) {
	if m.inQuote {
		m.quote.WriteString(ct.Value)
		if strings.HasSuffix(ct.Value, "`") {
			m.inQuote = false
			m.push(Token{Kind: KindName, Value: m.quote.String()}, false)
			m.quote.Reset()
		}
		return
	}
	if ct.Value == "`" {
		m.inQuote = true
		m.quote.WriteString(ct.Value)
		return
	}

	kind, frag := classify(ct)
	t := Token{Kind: kind, Value: ct.Value}
	prev, prevFrag := m.last()
	prevType := m.rawType
	m.rawType = ct.Type
	if prev == nil {
		m.push(t, frag)
		return
	}

	switch {
	case kind == KindString && prev.Kind != KindString && !prevFrag && isStringPrefix(*prev):
		// E'\n', N'text', X'CAFE', B'101'
		prev.Kind = KindString
		prev.Value += t.Value
		return

	case ct.Type == chroma.LiteralStringDouble && prevType == chroma.LiteralStringDouble,
		kind == KindString && prev.Kind == KindString,
		kind == KindComment && prev.Kind == KindComment,
		kind == KindWhitespace && prev.Kind == KindWhitespace:
		prev.Value += t.Value
		return

	case (frag || prevFrag) && isWordPiece(t, frag) && isWordPiece(*prev, prevFrag):
		prev.Kind = KindName
		prev.Value += t.Value
		m.frag[len(m.frag)-1] = true
		return

	case kind == KindOperator && prev.Kind == KindOperator && multiOps[prev.Value+t.Value],
		kind == KindOperator && prev.IsPunct(":") && multiOps[prev.Value+t.Value]:
		prev.Kind = KindOperator
		prev.Value += t.Value
		return

	case t.IsPunct(":") && prev.IsPunct(":"):
		prev.Value = "::"
		return

	case prev.Kind == KindNumber && (kind == KindName || kind == KindKeyword || kind == KindBuiltin) && !frag:
		// 1e5, 0x1F
		prev.Value += t.Value
		return

	case kind == KindNumber && prev.IsPunct(".") && len(m.out) > 1 && m.out[len(m.out)-2].Kind == KindNumber:
		m.out = m.out[:len(m.out)-1]
		m.frag = m.frag[:len(m.frag)-1]
		p, _ := m.last()
		p.Value += "." + t.Value
		return
	}
	m.push(t, frag)
}

func (m *merger) finish() {
	if m.inQuote {
		m.push(Token{Kind: KindName, Value: m.quote.String()}, false)
		m.inQuote = false
	}
	m.mergeBrackets()
}

// mergeBrackets turns "[" followed by words and spaces up to "]" into a
// single bracket-quoted name. Brackets holding anything else, or a line
// break, are left alone.
func (m *merger) mergeBrackets() {
	out := m.out[:0]
	for i := 0; i < len(m.out); i++ {
		if end := m.bracketEnd(i); end > 0 {
			var b strings.Builder
			for _, t := range m.out[i : end+1] {
				b.WriteString(t.Value)
			}
			out = append(out, Token{Kind: KindName, Value: b.String()})
			i = end
			continue
		}
		out = append(out, m.out[i])
	}
	m.out = out
	m.frag = nil
}

// bracketEnd returns the index of the "]" closing a bracket-quoted name
// opened at i, or 0 when i does not open one.
func (m *merger) bracketEnd(i int) int {
	if !m.out[i].IsPunct("[") {
		return 0
	}
	words := 0
	for j := i + 1; j < len(m.out); j++ {
		t := m.out[j]
		switch {
		case t.IsPunct("]"):
			if words == 0 {
				return 0
			}
			return j
		case t.Kind == KindWhitespace && !strings.ContainsAny(t.Value, "\r\n"):
		case t.Kind == KindName || t.Kind == KindKeyword || t.Kind == KindBuiltin || t.Kind == KindNumber:
			words++
		default:
			return 0
		}
	}
	return 0
}

// classify maps a chroma token type onto a Kind. The second result is true
// for runes chroma failed to lex that can still be part of an identifier.
func classify(ct chroma.Token) (Kind, bool) {
	tt := ct.Type
	switch {
	case tt == chroma.Error:
		if isWordText(ct.Value) {
			return KindName, true
		}
		return KindPunctuation, false
	case tt == chroma.TextWhitespace || tt == chroma.Text:
		if strings.TrimSpace(ct.Value) == "" {
			return KindWhitespace, false
		}
		return KindName, false
	case tt.InCategory(chroma.Comment):
		return KindComment, false
	case tt == chroma.KeywordType || tt == chroma.NameBuiltin:
		return KindBuiltin, false
	case tt.InCategory(chroma.Keyword), tt == chroma.OperatorWord:
		return KindKeyword, false
	case tt == chroma.LiteralStringDouble, tt == chroma.LiteralStringBacktick, tt == chroma.LiteralStringSymbol:
		return KindName, false
	case tt.InSubCategory(chroma.LiteralString):
		return KindString, false
	case tt.InSubCategory(chroma.LiteralNumber):
		return KindNumber, false
	case tt.InCategory(chroma.Operator):
		return KindOperator, false
	case tt.InCategory(chroma.Punctuation):
		return KindPunctuation, false
	case tt.InCategory(chroma.Name):
		return KindName, false
	}
	return KindName, false
}

// isStringPrefix reports whether t is a letter that, written directly
// before a quote, changes the meaning of the string literal.
func isStringPrefix(t Token) bool {
	if t.Kind != KindName && t.Kind != KindKeyword && t.Kind != KindBuiltin {
		return false
	}
	switch t.Value {
	case "E", "e", "N", "n", "X", "x", "B", "b":
		return true
	}
	return false
}

func isWordPiece(t Token, frag bool) bool {
	if frag {
		return true
	}
	switch t.Kind {
	case KindName, KindKeyword, KindBuiltin, KindNumber:
		return isWordText(t.Value)
	}
	return false
}

func isWordText(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return false
		}
	}
	return true
}

func isQuoted(s string) bool {
	return strings.HasPrefix(s, "`") || strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`)
}

func upperASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'a' <= c && c <= 'z' {
			return strings.Map(func(r rune) rune {
				if 'a' <= r && r <= 'z' {
					return r - 'a' + 'A'
				}
				return r
			}, s)
		}
	}
	return s
}

func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r - 'A' + 'a'
		}
		return r
	}, s)
}

// Parse tokenizes stmt and groups parenthesized lists into KindGroup
// tokens. Unbalanced parentheses never fail: a stray ")" stays a
// punctuation token and an unclosed "(" group runs to the end.
func Parse(stmt string) []Token {
	toks := Tokenize(stmt)
	out, _ := group(toks, 0, false)
	return out
}

func group(toks []Token, i int, nested bool) ([]Token, int) {
	var out []Token
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.IsPunct("("):
			children, next := group(toks, i+1, true)
			out = append(out, Token{Kind: KindGroup, Children: append([]Token{t}, children...)})
			i = next
			continue
		case t.IsPunct(")") && nested:
			out = append(out, t)
			return out, i + 1
		}
		out = append(out, t)
		i++
	}
	return out, i
}

// Split breaks sql into statements at top-level semicolons. Each statement
// keeps its terminating ";" and is trimmed of surrounding whitespace.
// Statements with nothing but whitespace, comments and semicolons are
// dropped. Inside CREATE statements a BEGIN ... END body is not split.
func Split(sql string) []string {
	var (
		stmts       []string
		cur         strings.Builder
		depth       int
		block       int
		isCreate    bool
		significant bool
		first       = true
	)
	flush := func() {
		if significant {
			stmts = append(stmts, strings.TrimSpace(cur.String()))
		}
		cur.Reset()
		depth, block = 0, 0
		isCreate, significant, first = false, false, true
	}
	for _, t := range Tokenize(sql) {
		cur.WriteString(t.Value)
		if t.IsSpace() {
			continue
		}
		if first && t.IsWord() {
			isCreate = t.Upper() == "CREATE"
		}
		first = false
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			if depth > 0 {
				depth--
			}
		case isCreate && t.IsWordOf("BEGIN"):
			block++
		case block > 0 && t.IsWordOf("CASE"):
			block++
		case block > 0 && t.IsWordOf("END"):
			block--
		}
		if t.IsPunct(";") {
			if depth == 0 && block == 0 {
				flush()
			}
			continue
		}
		significant = true
	}
	flush()
	return stmts
}
