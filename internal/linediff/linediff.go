// Package linediff produces a line-level edit script between two line
// sequences. Like difflib's Differ it pairs near-identical lines of a
// replaced block into substitutions carrying intra-line change markers,
// but the result does not depend on argument order: Compare(b, a) is
// always the mirror image of Compare(a, b).
package linediff

import (
	"slices"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sadopc/sqlcheck/internal/textutil"
)

// Kind is the type of an edit operation.
type Kind uint8

const (
	Equal Kind = iota
	Delete
	Insert
	Replace
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	}
	return "unknown"
}

// Hint holds the Differ-style marker lines for both sides of a Replace:
// "^" marks changed characters, "-" characters only in the base line and
// "+" characters only in the revision line. Markers are padded to display
// width and trailing blanks are trimmed, so a side without changes has an
// empty marker line.
type Hint struct {
	Base     string
	Revision string
}

// Op is one edit operation. Equal carries the shared line in both Base and
// Revision, Delete only Base, Insert only Revision.
type Op struct {
	Kind     Kind
	Base     string
	Revision string
	Hint     *Hint
}

const (
	// candidates must beat this score to be considered at all
	floorRatio  = 0.74
	// the best candidate must reach this score to be paired
	cutoffRatio = 0.75
	// a single line replaced by a single line pairs from this score
	loneRatio   = 0.5
)

// Compare returns the edit script turning base into revision.
func Compare(base, revision []string) []Op {
	if slices.Compare(base, revision) > 0 {
		return mirror(compare(revision, base))
	}
	return compare(base, revision)
}

func compare(a, b []string) []Op {
	var ops []Op
	m := difflib.NewMatcher(a, b)
	for _, oc := range m.GetOpCodes() {
		switch oc.Tag {
		case 'e':
			for i := oc.I1; i < oc.I2; i++ {
				ops = append(ops, Op{Kind: Equal, Base: a[i], Revision: a[i]})
			}
		case 'd':
			ops = dump(ops, Delete, a[oc.I1:oc.I2])
		case 'i':
			ops = dump(ops, Insert, b[oc.J1:oc.J2])
		case 'r':
			ops = fancyReplace(ops, a[oc.I1:oc.I2], b[oc.J1:oc.J2])
		}
	}
	return ops
}

func mirror(ops []Op) []Op {
	for i := range ops {
		op := &ops[i]
		op.Base, op.Revision = op.Revision, op.Base
		switch op.Kind {
		case Delete:
			op.Kind = Insert
		case Insert:
			op.Kind = Delete
		}
		if op.Hint != nil {
			op.Hint = &Hint{Base: op.Hint.Revision, Revision: op.Hint.Base}
		}
	}
	return ops
}

func dump(ops []Op, kind Kind, lines []string) []Op {
	for _, l := range lines {
		if kind == Delete {
			ops = append(ops, Op{Kind: Delete, Base: l})
		} else {
			ops = append(ops, Op{Kind: Insert, Revision: l})
		}
	}
	return ops
}

// fancyReplace looks for the most similar pair of lines in a replaced
// block, emits it as a Replace and recurses on the lines before and after
// it. Without a close enough pair an identical pair syncs the block
// instead; failing that the block is emitted as plain deletes and inserts.
func fancyReplace(ops []Op, a, b []string) []Op {
	best, bi, bj := floorRatio, -1, -1
	ei, ej := -1, -1
	ar := make([][]string, len(a))
	for i := range a {
		ar[i] = runes(a[i])
	}
	for j := range b {
		br := runes(b[j])
		for i := range a {
			if a[i] == b[j] {
				if ei < 0 || i+j < ei+ej || (i+j == ei+ej && i < ei) {
					ei, ej = i, j
				}
				continue
			}
			r := similarity(ar[i], br, best)
			if r > best || (r == best && bi >= 0 && better(i, j, bi, bj)) {
				best, bi, bj = r, i, j
			}
		}
	}

	identical := false
	if best < cutoffRatio {
		if ei < 0 {
			return plainReplace(ops, a, b)
		}
		bi, bj, identical = ei, ej, true
	}

	ops = fancyHelper(ops, a[:bi], b[:bj])
	if identical {
		ops = append(ops, Op{Kind: Equal, Base: a[bi], Revision: b[bj]})
	} else {
		ops = append(ops, Op{
			Kind:     Replace,
			Base:     a[bi],
			Revision: b[bj],
			Hint:     hint(a[bi], b[bj]),
		})
	}
	return fancyHelper(ops, a[bi+1:], b[bj+1:])
}

// better reports whether pair (i, j) wins a tie against (bi, bj).
func better(i, j, bi, bj int) bool {
	if i+j != bi+bj {
		return i+j < bi+bj
	}
	return i < bi
}

func fancyHelper(ops []Op, a, b []string) []Op {
	switch {
	case len(a) > 0 && len(b) > 0:
		return fancyReplace(ops, a, b)
	case len(a) > 0:
		return dump(ops, Delete, a)
	case len(b) > 0:
		return dump(ops, Insert, b)
	}
	return ops
}

// plainReplace emits the smaller side first. A lone line replaced by a
// lone line is still paired when the two are reasonably alike.
func plainReplace(ops []Op, a, b []string) []Op {
	if len(a) == 1 && len(b) == 1 && similarity(runes(a[0]), runes(b[0]), loneRatio) >= loneRatio {
		return append(ops, Op{Kind: Replace, Base: a[0], Revision: b[0], Hint: hint(a[0], b[0])})
	}
	if len(b) < len(a) {
		ops = dump(ops, Insert, b)
		return dump(ops, Delete, a)
	}
	ops = dump(ops, Delete, a)
	return dump(ops, Insert, b)
}

func runes(s string) []string {
	return strings.Split(s, "")
}

// similarity returns the larger of the two directed similarity ratios of a
// and b, or 0 when the cheap upper bounds already rule out beating floor.
func similarity(a, b []string, floor float64) float64 {
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	if m.RealQuickRatio() < floor || m.QuickRatio() < floor {
		return 0
	}
	r := m.Ratio()
	m.SetSeqs(b, a)
	return max(r, m.Ratio())
}

// hint builds the marker lines for a paired substitution.
func hint(a, b string) *Hint {
	ar, br := runes(a), runes(b)
	var atags, btags []byte
	m := difflib.NewMatcherWithJunk(ar, br, false, nil)
	for _, oc := range m.GetOpCodes() {
		la, lb := oc.I2-oc.I1, oc.J2-oc.J1
		switch oc.Tag {
		case 'r':
			atags = appendTag(atags, '^', la)
			btags = appendTag(btags, '^', lb)
		case 'd':
			atags = appendTag(atags, '-', la)
		case 'i':
			btags = appendTag(btags, '+', lb)
		case 'e':
			atags = appendTag(atags, ' ', la)
			btags = appendTag(btags, ' ', lb)
		}
	}
	return &Hint{Base: markers(a, atags), Revision: markers(b, btags)}
}

func appendTag(tags []byte, c byte, n int) []byte {
	for ; n > 0; n-- {
		tags = append(tags, c)
	}
	return tags
}

// markers aligns tags under line: whitespace under an unchanged position is
// copied from the line so tabs line up, and a wide rune gets its tag twice.
func markers(line string, tags []byte) string {
	var b strings.Builder
	i := 0
	for _, r := range line {
		if i >= len(tags) {
			break
		}
		c := tags[i]
		i++
		if c == ' ' && unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		for n := textutil.RuneWidth(r); n > 0; n-- {
			b.WriteByte(c)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}
