package report

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sqlcheck/internal/theme"
)

// Highlighter tokenises SQL text using chroma and renders it with lipgloss
// styles from a theme.
type Highlighter struct {
	lexer chroma.Lexer
	theme *theme.Theme
}

// NewHighlighter creates a Highlighter over the generic SQL lexer.
func NewHighlighter(th *theme.Theme) *Highlighter {
	l := lexers.Get("SQL")
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l), theme: th}
}

// Highlight styles one line of SQL. Text chroma cannot tokenise is
// returned unchanged.
func (h *Highlighter) Highlight(line string) string {
	if h == nil || h.theme == nil || line == "" {
		return line
	}
	iter, err := h.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, line)
	if err != nil {
		return line
	}

	var b strings.Builder
	b.Grow(len(line) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := h.styleFor(tok.Type)
		if !ok || strings.TrimSpace(tok.Value) == "" {
			b.WriteString(tok.Value)
			continue
		}
		b.WriteString(style.Render(tok.Value))
	}
	return b.String()
}

// styleFor maps a chroma token type to a theme style. The second return
// value is false when the token passes through unstyled.
func (h *Highlighter) styleFor(tt chroma.TokenType) (lipgloss.Style, bool) {
	th := h.theme
	switch {
	case tt == chroma.KeywordType:
		return th.SQLType, true
	case tt == chroma.NameFunction || tt == chroma.NameBuiltin:
		return th.SQLFunction, true
	case tt.InCategory(chroma.Keyword):
		return th.SQLKeyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.SQLString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.SQLNumber, true
	case tt.InCategory(chroma.Comment):
		return th.SQLComment, true
	case tt.InCategory(chroma.Operator):
		return th.SQLOperator, true
	default:
		return lipgloss.Style{}, false
	}
}
