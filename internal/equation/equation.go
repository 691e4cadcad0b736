// Package equation extracts free variables from parametric equation text
// and substitutes bound values to produce engine-ready equation strings.
//
// Equations are opaque strings: the numeric engine parses them. The only
// structure recognised here is the single-letter variable token.
package equation

import (
	"strconv"
	"strings"
	"unicode"
)

// Reserved iteration parameters. These are never free variables: the
// numeric engine iterates over them when sampling.
const (
	ParamS = 's'
	ParamT = 't'
)

// isVariableLetter reports whether r can name a variable: a lowercase
// Latin or Greek letter. Greek letters are reserved for the distinguished
// transformation variables (σ, τ, ...).
func isVariableLetter(r rune) bool {
	return unicode.IsLower(r) && (unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Greek, r))
}

// isolated reports whether the letter at index i stands alone, i.e. is not
// part of a longer identifier such as a function name. Whole-token matching
// here is an invariant: substitution must never corrupt multi-letter names.
func isolated(runes []rune, i int) bool {
	if i > 0 {
		if prev := runes[i-1]; unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			return false
		}
	}
	if i+1 < len(runes) {
		if next := runes[i+1]; unicode.IsLetter(next) || unicode.IsDigit(next) {
			return false
		}
	}
	return true
}

// FreeVariables returns the free variable names of an equation in first
// appearance order: every isolated single-letter token except the reserved
// iteration parameters.
func FreeVariables(text string) []string {
	var names []string
	seen := make(map[rune]bool)

	runes := []rune(text)
	for i, r := range runes {
		if !isVariableLetter(r) || r == ParamS || r == ParamT {
			continue
		}
		if !isolated(runes, i) || seen[r] {
			continue
		}
		seen[r] = true
		names = append(names, string(r))
	}
	return names
}

// Resolve substitutes bound variable values into an equation, producing a
// new string for the numeric engine. Every bound variable token becomes its
// parenthesised value; the reserved parameters become (s-offset) and
// (t-offset) so the scrub controls can shift the sampling parameter.
// The source text is never modified.
func Resolve(text string, values map[string]float64, sOffset, tOffset float64) string {
	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	for i, r := range runes {
		if isVariableLetter(r) && isolated(runes, i) {
			switch {
			case r == ParamS:
				b.WriteString("(s-" + formatValue(sOffset) + ")")
				continue
			case r == ParamT:
				b.WriteString("(t-" + formatValue(tOffset) + ")")
				continue
			default:
				if v, ok := values[string(r)]; ok {
					b.WriteString("(" + formatValue(v) + ")")
					continue
				}
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
