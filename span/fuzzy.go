package span

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the similarity ratio at which two values are the same.
const DefaultThreshold = 90

// Matcher scores the similarity of two strings on a 0-100 scale.
type Matcher interface {
	Ratio(a, b string) int
}

// TokenSortMatcher compares strings after NFKC normalization, case folding,
// punctuation stripping and sorting of whitespace-separated tokens, so word
// order and letter case do not matter. The score is 2*M/T*100 where M is the
// number of runes in matching diff runs and T the combined rune length.
type TokenSortMatcher struct{}

// Ratio implements Matcher.
func (TokenSortMatcher) Ratio(a, b string) int {
	a, b = normalize(a), normalize(b)
	if a == b {
		return 100
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}

	dmp := diffmatchpatch.New()
	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	return int(math.Round(200 * float64(matched) / float64(total)))
}

func normalize(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, s)
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
