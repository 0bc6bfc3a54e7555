package sqlfmt

import (
	"strings"

	"github.com/sadopc/sqlcheck/internal/textutil"
)

const recordIndent = "    "

// tableDefinition lays out a CREATE TABLE statement with one column or
// constraint per line and the column names padded to a common display
// width. Comments are always dropped. ok is false when toks is not a table
// definition with a parenthesized body.
func tableDefinition(toks []Token, opts Options) (out string, ok bool) {
	body := tableBody(toks)
	if body < 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(inline(toks[:body], opts, 0))
	b.WriteString(" (\n")

	records := splitRecords(significant(toks[body].Inner(), true))
	names := make([]string, len(records))
	width := 0
	for i, rec := range records {
		if !isColumn(rec) {
			continue
		}
		names[i] = inline(rec[:1], opts, 0)
		width = max(width, textutil.DisplayWidth(names[i]))
	}

	for i, rec := range records {
		line := recordIndent
		switch {
		case !isColumn(rec):
			line += inline(rec, opts, len(recordIndent))
		case len(rec) == 1:
			line += names[i]
		default:
			line += textutil.PadRight(names[i], width) + " " +
				inline(rec[1:], opts, len(recordIndent)+width+1)
		}
		if i < len(records)-1 {
			line += ","
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var trailing []Token
	for _, t := range toks[body+1:] {
		if !t.IsPunct(";") {
			trailing = append(trailing, t)
		}
	}
	if len(trailing) == 0 {
		b.WriteString(");")
		return b.String(), true
	}
	b.WriteString(")\n")
	p := newPrinter(opts, 0)
	p.statement(trailing, 0)
	b.WriteString(p.String())
	b.WriteString(";")
	return b.String(), true
}

// tableBody returns the index of the column list group of a
// CREATE [TEMP|TEMPORARY] TABLE statement, or -1.
func tableBody(toks []Token) int {
	i := 0
	if len(toks) == 0 || !toks[i].IsWordOf("CREATE") {
		return -1
	}
	i++
	for i < len(toks) && toks[i].IsWordOf("TEMP", "TEMPORARY") {
		i++
	}
	if i >= len(toks) || !toks[i].IsWordOf("TABLE") {
		return -1
	}
	for j := i + 1; j < len(toks); j++ {
		switch {
		case toks[j].IsWordOf("AS"):
			return -1
		case toks[j].Kind == KindGroup:
			if isSubquery(significant(toks[j].Inner(), true)) {
				return -1
			}
			return j
		}
	}
	return -1
}

// IsTableDefinition reports whether stmt gets the column-aligned layout.
func IsTableDefinition(stmt string) bool {
	return tableBody(significant(Parse(stmt), true)) >= 0
}

// splitRecords splits a table body at its commas. Nested parentheses are
// single group tokens, so only top-level commas split.
func splitRecords(toks []Token) [][]Token {
	var (
		out [][]Token
		cur []Token
	)
	for _, t := range toks {
		if t.IsPunct(",") {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// isColumn reports whether a record starts with a column name rather than
// a table-level constraint keyword.
func isColumn(rec []Token) bool {
	return !(rec[0].IsWord() && tableKeywords[rec[0].Upper()])
}
