// Package theme provides the styles for colored grading reports and the
// review browser. Every visual element references a lipgloss.Style held in
// a Theme so the whole look can be swapped by name.
package theme

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds lipgloss.Style values for every styled element.
type Theme struct {
	Name string

	// SQL syntax highlighting
	SQLKeyword  lipgloss.Style
	SQLString   lipgloss.Style
	SQLNumber   lipgloss.Style
	SQLComment  lipgloss.Style
	SQLOperator lipgloss.Style
	SQLFunction lipgloss.Style
	SQLType     lipgloss.Style

	// Report line markers
	Unchanged lipgloss.Style
	Corrected lipgloss.Style
	Missing   lipgloss.Style
	Extra     lipgloss.Style
	Expected  lipgloss.Style
	Hint      lipgloss.Style

	// Scores
	ScorePerfect lipgloss.Style
	ScorePartial lipgloss.Style
	ScoreFailed  lipgloss.Style

	// Review browser
	Title        lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	Border       lipgloss.Style
	StatusBar    lipgloss.Style
	StatusBarKey lipgloss.Style

	// General
	ErrorText lipgloss.Style
	MutedText lipgloss.Style
}

type palette struct {
	keyword, str, number, comment, operator, function, typ string
	good, bad, warn, info, muted, fg, selectBG, accent     string
}

func build(name string, p palette) *Theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return &Theme{
		Name: name,

		SQLKeyword:  fg(p.keyword).Bold(true),
		SQLString:   fg(p.str),
		SQLNumber:   fg(p.number),
		SQLComment:  fg(p.comment).Italic(true),
		SQLOperator: fg(p.operator),
		SQLFunction: fg(p.function),
		SQLType:     fg(p.typ),

		Unchanged: fg(p.fg),
		Corrected: fg(p.warn).Bold(true),
		Missing:   fg(p.good),
		Extra:     fg(p.bad),
		Expected:  fg(p.info),
		Hint:      fg(p.warn),

		ScorePerfect: fg(p.good).Bold(true),
		ScorePartial: fg(p.warn).Bold(true),
		ScoreFailed:  fg(p.bad).Bold(true),

		Title: fg(p.accent).Bold(true),
		ListItem: fg(p.fg).
			PaddingLeft(1).
			PaddingRight(1),
		ListSelected: fg(p.fg).
			Bold(true).
			Background(lipgloss.Color(p.selectBG)).
			PaddingLeft(1).
			PaddingRight(1),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.accent)),
		StatusBar: fg(p.fg).
			Background(lipgloss.Color(p.selectBG)),
		StatusBarKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.selectBG)).
			Background(lipgloss.Color(p.accent)).
			PaddingLeft(1).
			PaddingRight(1),

		ErrorText: fg(p.bad).Bold(true),
		MutedText: fg(p.muted),
	}
}

// Themes maps theme names to their Theme definitions.
var Themes = map[string]*Theme{
	"default": build("default", palette{
		keyword: "#569CD6", str: "#CE9178", number: "#B5CEA8", comment: "#6A9955",
		operator: "#D4D4D4", function: "#DCDCAA", typ: "#4EC9B0",
		good: "#6A9955", bad: "#F44747", warn: "#CCA700", info: "#9CDCFE",
		muted: "#808080", fg: "#D4D4D4", selectBG: "#264F78", accent: "#569CD6",
	}),
	"light": build("light", palette{
		keyword: "#0000FF", str: "#A31515", number: "#098658", comment: "#008000",
		operator: "#1E1E1E", function: "#795E26", typ: "#267F99",
		good: "#16825D", bad: "#E51400", warn: "#BF8803", info: "#001080",
		muted: "#A0A0A0", fg: "#1E1E1E", selectBG: "#C9DEF5", accent: "#0451A5",
	}),
	"monokai": build("monokai", palette{
		keyword: "#F92672", str: "#E6DB74", number: "#AE81FF", comment: "#75715E",
		operator: "#F92672", function: "#A6E22E", typ: "#66D9EF",
		good: "#A6E22E", bad: "#F92672", warn: "#E6DB74", info: "#66D9EF",
		muted: "#75715E", fg: "#F8F8F2", selectBG: "#49483E", accent: "#A6E22E",
	}),
}

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme identified by name. If no theme with that name exists
// it falls back to the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}

// Names returns the registered theme names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Themes))
	for n := range Themes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Score picks the style for a score in [0, 1].
func (t *Theme) Score(score float64) lipgloss.Style {
	switch {
	case score >= 1:
		return t.ScorePerfect
	case score > 0:
		return t.ScorePartial
	default:
		return t.ScoreFailed
	}
}
