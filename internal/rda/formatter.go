package rda

import (
	"strings"

	"github.com/wizzomafizzo/rdaconv/internal/marc"
)

// TagTitle is the title statement tag.
const TagTitle = "245"

// Format245 rebuilds a title statement in RDA order and punctuation:
// $a $n $p $b $c, with $a closed by " :" before a subtitle or " /" before a
// statement of responsibility. The general material designator ($h) is not
// carried over. Any other subfields follow $c in their original order.
//
// Returns nil when f is not a 245.
func Format245(f *marc.Field) *marc.Field {
	if f == nil || f.Tag != TagTitle {
		return nil
	}

	out := marc.NewDataField(TagTitle, f.Indicator1(), f.Indicator2())

	title, hasTitle := f.First('a')
	if hasTitle {
		if n := len(title); n > 0 && (title[n-1] == '.' || title[n-1] == '\\') {
			title = strings.TrimSpace(title[:n-1])
		}
		out.AddSubfield('a', title+" ")
	}

	numbers := f.Values('n')
	names := f.Values('p')
	subtitles := f.Values('b')
	responsibility := f.Values('c')

	for _, v := range numbers {
		out.AddSubfield('n', v)
	}
	for _, v := range names {
		out.AddSubfield('p', v)
	}

	if hasTitle {
		switch {
		case len(subtitles) > 0:
			out.Subfields[0].Value = strings.TrimSpace(out.Subfields[0].Value) + " :"
		case len(responsibility) > 0:
			out.Subfields[0].Value = strings.TrimSpace(out.Subfields[0].Value) + " /"
		}
	}

	for _, v := range subtitles {
		out.AddSubfield('b', v)
	}
	for _, v := range responsibility {
		out.AddSubfield('c', v)
	}

	seenTitle := false
	for _, sf := range f.Subfields {
		switch sf.Code {
		case 'a':
			if !seenTitle {
				seenTitle = true
				continue
			}
		case 'n', 'p', 'b', 'c', 'h':
			continue
		}
		out.AddSubfield(sf.Code, sf.Value)
	}

	return out
}
