package catalog

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "of": true, "the": true, "with": true, "for": true,
}

// tokenSet is a sorted, de-duplicated list of normalized tokens
type tokenSet []string

func (s tokenSet) phrase() string {
	return strings.Join(s, " ")
}

func (s tokenSet) contains(tok string) bool {
	i := sort.SearchStrings(s, tok)
	return i < len(s) && s[i] == tok
}

func (s tokenSet) weight() int {
	n := 0
	for _, tok := range s {
		n += utf8.RuneCountInString(tok)
	}
	return n
}

// normalizeName lowercases and collapses whitespace
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokenize lowercases s, splits on anything that is not a letter or digit,
// drops stop words and folds simple plurals
func tokenize(s string) tokenSet {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	out := make(tokenSet, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		f = singular(f)
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// singular folds the regular English plurals that show up in item
// descriptions: boxes -> box, dishes -> dish, chairs -> chair.
func singular(tok string) string {
	if utf8.RuneCountInString(tok) <= 3 {
		return tok
	}
	if strings.HasSuffix(tok, "es") {
		stem := strings.TrimSuffix(tok, "es")
		for _, suffix := range []string{"x", "s", "sh", "ch", "z"} {
			if strings.HasSuffix(stem, suffix) {
				return stem
			}
		}
	}
	if strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && !strings.HasSuffix(tok, "us") {
		return strings.TrimSuffix(tok, "s")
	}
	return tok
}

// similarity is the character-weighted Dice coefficient of two token sets:
// twice the length of the shared tokens over the combined length.
func similarity(query, name tokenSet) float64 {
	total := query.weight() + name.weight()
	if total == 0 {
		return 0
	}
	common := 0
	for _, tok := range query {
		if name.contains(tok) {
			common += utf8.RuneCountInString(tok)
		}
	}
	return float64(2*common) / float64(total)
}
