package rda

import "regexp"

// abbreviation pairs a cataloging abbreviation with its spelled-out form.
// Patterns start at a word boundary so "p." never matches the tail of
// "comp." or of an already expanded word.
type abbreviation struct {
	pattern   *regexp.Regexp
	expansion string
}

// physicalAbbreviations are applied cumulatively, in order, to 300 $a and $b.
var physicalAbbreviations = []abbreviation{
	{regexp.MustCompile(`\bp\.`), "pages"},
	{regexp.MustCompile(`\bv\.`), "volumes"},
	{regexp.MustCompile(`\bill(?:us)?\.`), "illustrations"},
	{regexp.MustCompile(`\bfacsims\.`), "facsimiles"},
	{regexp.MustCompile(`\bsd\.`), "sound"},
	{regexp.MustCompile(`\bca\.`), "approximately"},
}

// noteAbbreviations are applied as separate passes over the 50X notes.
var noteAbbreviations = []abbreviation{
	{regexp.MustCompile(`\bp\.`), "pages"},
	{regexp.MustCompile(`\bintrod\.`), "Introduction"},
}

func expand(value string, abbreviations []abbreviation) string {
	for _, a := range abbreviations {
		value = a.pattern.ReplaceAllLiteralString(value, a.expansion)
	}
	return value
}
