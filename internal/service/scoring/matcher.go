// internal/service/scoring/matcher.go

package scoring

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"campwatch/internal/domain/camp"
)

// Match pairs a keyword with its occurrence count in a single text.
type Match struct {
	Keyword camp.Keyword
	Count   int
}

// FindMatches finds word-boundary occurrences of each keyword term in text.
// Matching is case-insensitive unless the keyword says otherwise, and the
// boundary check is Unicode-aware so "AI" never matches inside "again" or
// inside a word with accented letters. Only keywords with at least one
// occurrence appear in the result, in input order.
func FindMatches(text string, keywords []camp.Keyword) []Match {
	if text == "" {
		return nil
	}

	var matches []Match
	for _, kw := range keywords {
		if kw.Term == "" {
			continue
		}

		pattern := regexp.QuoteMeta(kw.Term)
		if !kw.CaseSensitive {
			pattern = "(?i)" + pattern
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}

		count := 0
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if boundedAt(text, loc[0], loc[1]) {
				count++
			}
		}

		if count > 0 {
			matches = append(matches, Match{Keyword: kw, Count: count})
		}
	}

	return matches
}

// MatchesAny reports whether text contains at least one of the keyword
// terms under word-boundary matching.
func MatchesAny(text string, keywords []camp.Keyword) bool {
	return len(FindMatches(text, keywords)) > 0
}

// boundedAt reports whether the occurrence at text[start:end] sits on word
// boundaries: the runes immediately before and after it must not be word
// runes.
func boundedAt(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
