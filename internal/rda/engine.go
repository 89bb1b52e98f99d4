// Package rda rewrites MARC21 bibliographic records from AACR2 to RDA
// following the PCC hybrid-record recommendations (February 2013).
package rda

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wizzomafizzo/rdaconv/internal/marc"
)

// Rule names, in the order ConvertAll runs them.
const (
	RuleTitle       = "title"
	RulePublication = "publication"
	RulePhysical    = "physical"
	RuleContent     = "content"
	RuleMedia       = "media"
	RuleCarrier     = "carrier"
	RuleNotes       = "notes"
)

var (
	// ErrMalformedLeader is returned when a rule needs a leader byte the
	// record's leader is too short to hold.
	ErrMalformedLeader = errors.New("malformed leader")

	// ErrMalformedField is returned when a field's shape contradicts its tag:
	// a data field carrying a control value or a control field carrying
	// subfields.
	ErrMalformedField = errors.New("malformed field")

	// ErrRulePanic wraps a panic recovered while a rule was running.
	ErrRulePanic = errors.New("rule panicked")
)

// RuleError reports the failure of a single named rule.
type RuleError struct {
	Err  error
	Rule string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

type rule struct {
	apply func(*Engine) error
	name  string
}

var sequence = []rule{
	{name: RuleTitle, apply: (*Engine).Convert245},
	{name: RulePublication, apply: (*Engine).Convert264},
	{name: RulePhysical, apply: (*Engine).Convert300},
	{name: RuleContent, apply: (*Engine).Create336},
	{name: RuleMedia, apply: (*Engine).Create337},
	{name: RuleCarrier, apply: (*Engine).Create338},
	{name: RuleNotes, apply: (*Engine).ConvertNotes},
}

// RuleNames returns the rule names in execution order.
func RuleNames() []string {
	names := make([]string, 0, len(sequence))
	for _, r := range sequence {
		names = append(names, r.name)
	}
	return names
}

// IsRuleName reports whether name is a known rule.
func IsRuleName(name string) bool {
	for _, r := range sequence {
		if r.name == name {
			return true
		}
	}
	return false
}

// Option configures an Engine.
type Option func(*Engine)

// WithSkip disables the named rules in ConvertAll.
func WithSkip(names ...string) Option {
	return func(e *Engine) {
		for _, n := range names {
			e.skip[n] = true
		}
	}
}

// Engine applies the conversion rules to one record, mutating it in place.
type Engine struct {
	record *marc.Record
	skip   map[string]bool
}

// NewEngine creates an engine around rec.
func NewEngine(rec *marc.Record, opts ...Option) *Engine {
	e := &Engine{record: rec, skip: make(map[string]bool)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Record returns the record the engine is converting.
func (e *Engine) Record() *marc.Record {
	return e.record
}

// ConvertAll runs every enabled rule in order. A failing rule does not stop
// the rules after it; all failures are joined into the returned error.
func (e *Engine) ConvertAll() error {
	var errs []error
	for _, r := range sequence {
		if e.skip[r.name] {
			continue
		}
		if err := e.run(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) run(r rule) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RuleError{Rule: r.name, Err: fmt.Errorf("%w: %v", ErrRulePanic, p)}
		}
	}()

	if err := r.apply(e); err != nil {
		return &RuleError{Rule: r.name, Err: err}
	}
	return nil
}

var etAl = regexp.MustCompile(`(?:\x{2026}|\.\.\.)\s*\[et al\.\]`)

// Convert245 replaces "… [et al.]" in $c with "[and others]", drops the
// general material designator and rebuilds every title statement.
func (e *Engine) Convert245() error {
	fields, err := e.dataFields(TagTitle)
	if err != nil {
		return err
	}

	for _, f := range fields {
		replaceEtAl(f)
		f.DeleteSubfield('h')
		e.record.ReplaceField(f, Format245(f))
	}
	return nil
}

func replaceEtAl(f *marc.Field) {
	for i, sf := range f.Subfields {
		if sf.Code != 'c' {
			continue
		}
		loc := etAl.FindStringIndex(sf.Value)
		if loc == nil {
			continue
		}
		prefix := strings.TrimRight(sf.Value[:loc[0]], " ")
		if prefix == "" {
			f.Subfields[i].Value = "[and others]"
			continue
		}
		f.Subfields[i].Value = prefix + " [and others]"
	}
}

const (
	placeUnknown     = "S.l."
	placeRDA         = "Place of publication not identified"
	publisherUnknown = "s.n."
	publisherRDA     = "publisher not identified"
)

// Convert264 spells out "S.l." and "s.n." in publication statements (264 and
// the older 260) and marks blank-indicator 264s as publication statements.
func (e *Engine) Convert264() error {
	fields, err := e.dataFields("260", "264")
	if err != nil {
		return err
	}

	for _, f := range fields {
		for i := range f.Subfields {
			f.Subfields[i].Value = strings.ReplaceAll(f.Subfields[i].Value, placeUnknown, placeRDA)
		}
	}
	for _, f := range fields {
		for i := range f.Subfields {
			f.Subfields[i].Value = strings.ReplaceAll(f.Subfields[i].Value, publisherUnknown, publisherRDA)
		}
	}

	for _, f := range fields {
		if f.Tag == "264" && isBlank(f.Indicator2()) {
			f.SetIndicator2('1')
		}
	}
	return nil
}

// Convert300 expands abbreviations in $a and $b of the physical description.
func (e *Engine) Convert300() error {
	fields, err := e.dataFields("300")
	if err != nil {
		return err
	}

	for _, f := range fields {
		for i, sf := range f.Subfields {
			if sf.Code == 'a' || sf.Code == 'b' {
				f.Subfields[i].Value = expand(sf.Value, physicalAbbreviations)
			}
		}
	}
	return nil
}

// ConvertNotes expands "p." and "introd." in general, "with", dissertation
// and bibliography notes.
func (e *Engine) ConvertNotes() error {
	fields, err := e.dataFields("500", "501", "502", "504")
	if err != nil {
		return err
	}

	for _, pass := range noteAbbreviations {
		for _, f := range fields {
			for i := range f.Subfields {
				f.Subfields[i].Value = pass.pattern.ReplaceAllLiteralString(f.Subfields[i].Value, pass.expansion)
			}
		}
	}
	return nil
}

// Create336 adds a content type field derived from leader/06 unless the
// record already has one.
func (e *Engine) Create336() error {
	if e.record.HasField("336") {
		return nil
	}
	if len(e.record.Leader) < marc.LeaderLen {
		return fmt.Errorf("%w: %d bytes", ErrMalformedLeader, len(e.record.Leader))
	}

	recordType, _ := e.record.LeaderByte(6)
	term, ok := ContentType(recordType)
	if !ok {
		return nil
	}
	e.record.AddField(typeField("336", term, SourceContent))
	return nil
}

// Create337 adds a media type field derived from 007/00 unless the record
// already has one.
func (e *Engine) Create337() error {
	if e.record.HasField("337") {
		return nil
	}
	value, ok, err := e.controlValue("007")
	if err != nil || !ok || value == "" {
		return err
	}

	term, ok := MediaType(value[0])
	if !ok {
		return nil
	}
	e.record.AddField(typeField("337", term, SourceMedia))
	return nil
}

// Create338 adds a carrier type field derived from 007/00-01 unless the
// record already has one.
func (e *Engine) Create338() error {
	if e.record.HasField("338") {
		return nil
	}
	value, ok, err := e.controlValue("007")
	if err != nil || !ok || len(value) < 2 {
		return err
	}

	term, ok := CarrierType(value[0], value[1])
	if !ok {
		return nil
	}
	e.record.AddField(typeField("338", term, SourceCarrier))
	return nil
}

func typeField(tag string, term Term, source string) *marc.Field {
	return marc.NewDataField(tag, ' ', ' ',
		marc.Subfield{Code: 'a', Value: term.Term},
		marc.Subfield{Code: 'b', Value: term.Code},
		marc.Subfield{Code: '2', Value: source},
	)
}

// dataFields returns the fields with the given tags, rejecting any whose
// shape is not that of a data field.
func (e *Engine) dataFields(tags ...string) ([]*marc.Field, error) {
	fields := e.record.Fields(tags...)
	for _, f := range fields {
		if f.Value != "" {
			return nil, fmt.Errorf("%w: %s carries a control value", ErrMalformedField, f.Tag)
		}
	}
	return fields, nil
}

// controlValue returns the first control field value for tag.
func (e *Engine) controlValue(tag string) (string, bool, error) {
	f := e.record.Field(tag)
	if f == nil {
		return "", false, nil
	}
	if len(f.Subfields) > 0 || strings.IndexByte(f.Value, marc.SubfieldDelimiter) >= 0 {
		return "", false, fmt.Errorf("%w: %s carries subfields", ErrMalformedField, tag)
	}
	return f.Value, true, nil
}

func isBlank(ind byte) bool {
	return ind == ' ' || ind == 0
}
