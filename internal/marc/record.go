// Package marc implements the MARC21 record model used by rdaconv together with
// readers and writers for the ISO 2709 exchange format and MARCXML.
package marc

import (
	"sort"
	"strings"
)

// LeaderLen is the fixed length of a MARC21 leader.
const LeaderLen = 24

// Structural bytes of the ISO 2709 exchange format.
const (
	RecordTerminator  = 0x1d
	FieldTerminator   = 0x1e
	SubfieldDelimiter = 0x1f
)

// Subfield is a single coded value inside a data field.
type Subfield struct {
	Value string
	Code  byte
}

// Field is either a control field (tags 001-009) holding a single Value, or a
// data field with two indicators and an ordered list of subfields. Subfield
// codes may repeat and their order is significant.
type Field struct {
	Tag        string
	Value      string
	Subfields  []Subfield
	Indicators [2]byte
}

// IsControlTag reports whether tag names a control field.
func IsControlTag(tag string) bool {
	return tag < "010"
}

// NewControlField creates a control field with the given value.
func NewControlField(tag, value string) *Field {
	return &Field{Tag: tag, Value: value}
}

// NewDataField creates a data field with the given indicators and subfields.
func NewDataField(tag string, ind1, ind2 byte, subfields ...Subfield) *Field {
	f := &Field{Tag: tag, Indicators: [2]byte{ind1, ind2}}
	f.Subfields = append(f.Subfields, subfields...)
	return f
}

// IsControl reports whether the field is a control field.
func (f *Field) IsControl() bool {
	return IsControlTag(f.Tag)
}

// Indicator1 returns the first indicator.
func (f *Field) Indicator1() byte { return f.Indicators[0] }

// Indicator2 returns the second indicator.
func (f *Field) Indicator2() byte { return f.Indicators[1] }

// SetIndicator2 sets the second indicator.
func (f *Field) SetIndicator2(ind byte) { f.Indicators[1] = ind }

// Values returns the values of every subfield with the given code, in order.
func (f *Field) Values(code byte) []string {
	var values []string
	for _, sf := range f.Subfields {
		if sf.Code == code {
			values = append(values, sf.Value)
		}
	}
	return values
}

// First returns the value of the first subfield with the given code.
func (f *Field) First(code byte) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// Has reports whether the field contains at least one subfield with code.
func (f *Field) Has(code byte) bool {
	_, ok := f.First(code)
	return ok
}

// AddSubfield appends a subfield and returns the field for chaining.
func (f *Field) AddSubfield(code byte, value string) *Field {
	f.Subfields = append(f.Subfields, Subfield{Code: code, Value: value})
	return f
}

// DeleteSubfield removes every subfield with the given code and returns how
// many were removed.
func (f *Field) DeleteSubfield(code byte) int {
	kept := f.Subfields[:0]
	removed := 0
	for _, sf := range f.Subfields {
		if sf.Code == code {
			removed++
			continue
		}
		kept = append(kept, sf)
	}
	f.Subfields = kept
	return removed
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := *f
	c.Subfields = append([]Subfield(nil), f.Subfields...)
	return &c
}

// String renders the field in the MARCMaker mnemonic form, e.g.
// "=245  10$aTitle /$cby Author." Blanks are shown as backslashes.
func (f *Field) String() string {
	var b strings.Builder
	b.WriteString("=")
	b.WriteString(f.Tag)
	b.WriteString("  ")
	if f.IsControl() {
		b.WriteString(strings.ReplaceAll(f.Value, " ", `\`))
		return b.String()
	}
	for _, ind := range f.Indicators {
		b.WriteByte(displayIndicator(ind))
	}
	for _, sf := range f.Subfields {
		b.WriteByte('$')
		b.WriteByte(sf.Code)
		b.WriteString(sf.Value)
	}
	return b.String()
}

func displayIndicator(ind byte) byte {
	if ind == ' ' || ind == 0 {
		return '\\'
	}
	return ind
}

// Record is a MARC21 record: a leader and an ordered list of fields.
type Record struct {
	Leader string
	fields []*Field
}

// NewRecord creates an empty record with a blank leader.
func NewRecord() *Record {
	return &Record{Leader: strings.Repeat(" ", LeaderLen)}
}

// LeaderByte returns the leader byte at pos, if the leader is long enough.
func (r *Record) LeaderByte(pos int) (byte, bool) {
	if pos < 0 || pos >= len(r.Leader) {
		return 0, false
	}
	return r.Leader[pos], true
}

// Fields returns the fields with any of the given tags in record order. With
// no tags, every field is returned.
func (r *Record) Fields(tags ...string) []*Field {
	if len(tags) == 0 {
		return append([]*Field(nil), r.fields...)
	}
	var fields []*Field
	for _, f := range r.fields {
		for _, t := range tags {
			if f.Tag == t {
				fields = append(fields, f)
				break
			}
		}
	}
	return fields
}

// Field returns the first field with the given tag, or nil.
func (r *Record) Field(tag string) *Field {
	for _, f := range r.fields {
		if f.Tag == tag {
			return f
		}
	}
	return nil
}

// HasField reports whether the record contains a field with the given tag.
func (r *Record) HasField(tag string) bool {
	return r.Field(tag) != nil
}

// ControlValue returns the value of the first control field with tag.
func (r *Record) ControlValue(tag string) (string, bool) {
	f := r.Field(tag)
	if f == nil {
		return "", false
	}
	return f.Value, true
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	return len(r.fields)
}

// AddField appends fields to the record.
func (r *Record) AddField(fields ...*Field) {
	r.fields = append(r.fields, fields...)
}

// RemoveField removes the given field (by identity). It reports whether the
// field was found.
func (r *Record) RemoveField(field *Field) bool {
	for i, f := range r.fields {
		if f == field {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceField puts replacement in the position held by old.
func (r *Record) ReplaceField(old, replacement *Field) bool {
	for i, f := range r.fields {
		if f == old {
			r.fields[i] = replacement
			return true
		}
	}
	return false
}

// SortFields orders fields by tag, keeping the relative order of fields that
// share a tag.
func (r *Record) SortFields() {
	sort.SliceStable(r.fields, func(i, j int) bool {
		return r.fields[i].Tag < r.fields[j].Tag
	})
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{Leader: r.Leader, fields: make([]*Field, 0, len(r.fields))}
	for _, f := range r.fields {
		c.fields = append(c.fields, f.Clone())
	}
	return c
}

// String renders the record in mnemonic form, one field per line.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString("=LDR  ")
	b.WriteString(strings.ReplaceAll(r.Leader, " ", `\`))
	b.WriteString("\n")
	for _, f := range r.fields {
		b.WriteString(f.String())
		b.WriteString("\n")
	}
	return b.String()
}
