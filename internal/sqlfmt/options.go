package sqlfmt

import (
	"fmt"
	"strings"
)

// Case selects how keywords or identifiers are cased.
type Case uint8

const (
	CaseUnchanged Case = iota
	CaseUpper
	CaseLower
)

func (c Case) String() string {
	switch c {
	case CaseUpper:
		return "upper"
	case CaseLower:
		return "lower"
	default:
		return "unchanged"
	}
}

// ParseCase parses "upper", "lower" or "unchanged".
func ParseCase(s string) (Case, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper":
		return CaseUpper, nil
	case "lower":
		return CaseLower, nil
	case "", "unchanged", "preserve":
		return CaseUnchanged, nil
	}
	return CaseUnchanged, fmt.Errorf("unknown case %q", s)
}

func (c Case) apply(s string) string {
	switch c {
	case CaseUpper:
		return upperASCII(s)
	case CaseLower:
		return lowerASCII(s)
	default:
		return s
	}
}

// Options controls the formatter. The zero value leaves the text's case,
// comments and operator spacing alone and prints each statement on one line.
type Options struct {
	KeywordCase          Case
	IdentifierCase       Case
	StripComments        bool
	Reindent             bool
	SpaceAroundOperators bool
	// StripDoubleQuotes removes every '"' from the input before formatting.
	StripDoubleQuotes bool
}

// DefaultOptions returns the canonical grading layout.
func DefaultOptions() Options {
	return Options{
		KeywordCase:          CaseUpper,
		IdentifierCase:       CaseUpper,
		StripComments:        true,
		Reindent:             true,
		SpaceAroundOperators: true,
		StripDoubleQuotes:    true,
	}
}
