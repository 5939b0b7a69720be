package ingest

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[\w/:%#$&?()~.=+\-]+`)

// asciiSymbols is the fixed set of half-width symbols (plus a handful of
// common Japanese brackets and marks) stripped by the cleaner.
const asciiSymbols = "!\"#$%&'\\()*+,-./:;<=>?@[]^_`{|}~" +
	"「」〔〕“”〈〉『』【】＆＊・（）＄＃＠。、？！｀＋￥％"

var asciiSymbolSet = func() map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range asciiSymbols {
		set[r] = struct{}{}
	}
	return set
}()

const ideographicSpace = '\u3000'

// CleanRules strips noise from raw text. Order:
// line breaks, URLs, emoji, half-width symbols, full-width symbols, then
// the full-width space is turned into an ASCII space.
var CleanRules = Chain{
	{Name: "line-breaks", Apply: removeLineBreaks},
	{Name: "urls", Apply: removeURLs},
	{Name: "emoji", Apply: RemoveEmoji},
	{Name: "ascii-symbols", Apply: removeASCIISymbols},
	{Name: "fullwidth-symbols", Apply: removeFullwidthSymbols},
	{Name: "fullwidth-space", Apply: replaceIdeographicSpace},
}

// Clean applies CleanRules to text.
func Clean(text string) string {
	return CleanRules.Apply(text)
}

func removeLineBreaks(text string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(text)
}

func removeURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

func removeASCIISymbols(text string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := asciiSymbolSet[r]; ok {
			return -1
		}
		return r
	}, text)
}

// isFullwidthSymbol reports whether r sits in the full-width symbol rows or
// the CJK symbols block. U+3000 is left for replaceIdeographicSpace.
func isFullwidthSymbol(r rune) bool {
	switch {
	case r >= 0xFF01 && r <= 0xFF0F,
		r >= 0xFF1A && r <= 0xFF20,
		r >= 0xFF3B && r <= 0xFF40,
		r >= 0xFF5B && r <= 0xFF65,
		r >= 0x3001 && r <= 0x303F:
		return true
	}
	return false
}

func removeFullwidthSymbols(text string) string {
	return strings.Map(func(r rune) rune {
		if isFullwidthSymbol(r) {
			return -1
		}
		return r
	}, text)
}

func replaceIdeographicSpace(text string) string {
	return strings.ReplaceAll(text, string(ideographicSpace), " ")
}
