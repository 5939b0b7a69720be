package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	groupedNumeralPattern = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\b`)
	digitsPattern         = regexp.MustCompile(`\p{Nd}+`)
	longVowelRunPattern   = regexp.MustCompile(`ー{2,}`)
)

var (
	hyphenReplacer = strings.NewReplacer(
		"˗", "-", "֊", "-", "‐", "-", "‑", "-", "‒", "-",
		"–", "-", "⁃", "-", "⁻", "-", "₋", "-", "−", "-",
	)
	longVowelReplacer = strings.NewReplacer(
		"﹣", "ー", "－", "ー", "ｰ", "ー", "—", "ー",
		"―", "ー", "─", "ー", "━", "ー",
	)
	tildeReplacer = strings.NewReplacer(
		"~", "", "∼", "", "∾", "", "〜", "", "〰", "", "～", "",
	)
)

// NormalizeRules canonicalizes cleaned text. Numeral rules must run after
// nfkc so that full-width digit groups are already ASCII. The digits rule
// matches decimal digits of every script.
var NormalizeRules = Chain{
	{Name: "orthography", Apply: NormalizeOrthography},
	{Name: "nfkc", Apply: norm.NFKC.String},
	{Name: "lowercase", Apply: strings.ToLower},
	{Name: "grouped-numerals", Apply: replaceGroupedNumerals},
	{Name: "digits", Apply: replaceDigits},
}

// Normalize applies NormalizeRules to text.
func Normalize(text string) string {
	return NormalizeRules.Apply(text)
}

func replaceGroupedNumerals(text string) string {
	return groupedNumeralPattern.ReplaceAllString(text, "0")
}

func replaceDigits(text string) string {
	return digitsPattern.ReplaceAllString(text, "0")
}

// NormalizeOrthography unifies conventional Japanese spelling variants:
// hyphen and long-vowel look-alikes, repeated long-vowel marks, wave dashes
// and the spaces Japanese text does not need.
func NormalizeOrthography(text string) string {
	text = hyphenReplacer.Replace(text)
	text = longVowelReplacer.Replace(text)
	text = longVowelRunPattern.ReplaceAllString(text, "ー")
	text = tildeReplacer.Replace(text)
	return squeezeSpaces(text)
}

// squeezeSpaces collapses whitespace runs and drops them entirely unless both
// neighbours are non-Japanese (so "deep learning" keeps its space but
// "日本 語" and "日本 go" do not).
func squeezeSpaces(text string) string {
	runes := []rune(strings.TrimSpace(text))
	var b strings.Builder
	b.Grow(len(runes))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		prev, next := runes[i-1], runes[j]
		if !isJapanese(prev) && !isJapanese(next) {
			b.WriteByte(' ')
		}
		i = j - 1
	}
	return b.String()
}

func isJapanese(r rune) bool {
	if r == 'ー' || r == '々' {
		return true
	}
	return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han)
}
