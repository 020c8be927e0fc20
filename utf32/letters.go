package utf32

import "unicode"

// Letter counting for user-visible string indexing: a letter is a base
// codepoint followed by any number of combining marks (Mn/Me/Mc).
// Surrogate-escaped bytes never combine, neither as mark nor as base.

func isCombining(cp rune) bool {
	if IsSurrogateEscape(cp) {
		return false
	}
	return unicode.Is(unicode.Mn, cp) ||
		unicode.Is(unicode.Mc, cp) ||
		unicode.Is(unicode.Me, cp)
}

// LetterLen returns the number of letters in cps. A leading combining
// mark counts as a letter of its own.
func LetterLen(cps []rune) int {
	letters := 0
	i := 0
	for i < len(cps) {
		i += FirstLetterLen(cps[i:])
		letters++
	}
	return letters
}

// FirstLetterLen returns the codepoint length of the first letter of
// cps. Returns 0 for an empty sequence.
func FirstLetterLen(cps []rune) int {
	if len(cps) == 0 {
		return 0
	}
	n := 1
	if IsSurrogateEscape(cps[0]) {
		return n
	}
	for n < len(cps) && isCombining(cps[n]) {
		n++
	}
	return n
}
