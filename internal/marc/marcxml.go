package marc

import (
	"bufio"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// SlimNamespace is the MARCXML (MARC21 slim) namespace.
const SlimNamespace = "http://www.loc.gov/MARC21/slim"

// XMLWriter streams records as a MARCXML collection. Each record is rendered
// with etree and written as soon as it arrives.
type XMLWriter struct {
	w       *bufio.Writer
	started bool
}

// NewXMLWriter creates an XMLWriter around w. Close writes the closing
// collection tag and flushes.
func NewXMLWriter(w io.Writer) *XMLWriter {
	return &XMLWriter{w: bufio.NewWriter(w)}
}

func (x *XMLWriter) start() error {
	if x.started {
		return nil
	}
	x.started = true
	_, err := fmt.Fprintf(x.w, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<collection xmlns=%q>\n", SlimNamespace)
	if err != nil {
		return fmt.Errorf("failed to write collection header: %w", err)
	}
	return nil
}

// Write renders one record element.
func (x *XMLWriter) Write(rec *Record) error {
	if err := x.start(); err != nil {
		return err
	}

	doc := etree.NewDocument()
	doc.AddChild(RecordElement(rec))
	doc.IndentTabs()
	if _, err := doc.WriteTo(x.w); err != nil {
		return fmt.Errorf("failed to write record element: %w", err)
	}
	return nil
}

// Close finishes the collection and flushes. It does not close the
// underlying writer.
func (x *XMLWriter) Close() error {
	if err := x.start(); err != nil {
		return err
	}
	if _, err := x.w.WriteString("</collection>\n"); err != nil {
		return fmt.Errorf("failed to write collection footer: %w", err)
	}
	if err := x.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush MARCXML: %w", err)
	}
	return nil
}

// RecordElement builds the MARCXML <record> element for rec.
func RecordElement(rec *Record) *etree.Element {
	el := etree.NewElement("record")
	el.CreateElement("leader").SetText(rec.Leader)

	for _, f := range rec.fields {
		if f.IsControl() {
			cf := el.CreateElement("controlfield")
			cf.CreateAttr("tag", f.Tag)
			cf.SetText(f.Value)
			continue
		}

		df := el.CreateElement("datafield")
		df.CreateAttr("tag", f.Tag)
		df.CreateAttr("ind1", string(blankIndicator(f.Indicators[0])))
		df.CreateAttr("ind2", string(blankIndicator(f.Indicators[1])))
		for _, sf := range f.Subfields {
			s := df.CreateElement("subfield")
			s.CreateAttr("code", string(sf.Code))
			s.SetText(sf.Value)
		}
	}
	return el
}

func blankIndicator(ind byte) byte {
	if ind == 0 {
		return ' '
	}
	return ind
}
