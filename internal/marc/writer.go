package marc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	maxRecordLen = 99999
	maxFieldLen  = 9999
)

// ErrRecordTooLong is returned when a record cannot be represented in ISO 2709.
var ErrRecordTooLong = errors.New("record exceeds ISO 2709 length limits")

// RecordWriter is implemented by the ISO 2709 and MARCXML writers.
type RecordWriter interface {
	Write(rec *Record) error
	Close() error
}

// Writer serializes records to the ISO 2709 exchange format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer around w. Close must be called to flush.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes and writes one record.
func (w *Writer) Write(rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes buffered output. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return nil
}

// Encode serializes a record to ISO 2709. Record length and base address in
// the leader are recomputed; all other leader bytes are preserved.
func Encode(rec *Record) ([]byte, error) {
	var directory, body bytes.Buffer

	for _, f := range rec.fields {
		data := encodeField(f)
		if len(data) > maxFieldLen {
			return nil, fmt.Errorf("%w: field %s is %d bytes", ErrRecordTooLong, f.Tag, len(data))
		}
		if len(f.Tag) != 3 {
			return nil, fmt.Errorf("invalid tag %q", f.Tag)
		}
		fmt.Fprintf(&directory, "%s%04d%05d", f.Tag, len(data), body.Len())
		body.Write(data)
	}
	directory.WriteByte(FieldTerminator)

	base := LeaderLen + directory.Len()
	total := base + body.Len() + 1
	if total > maxRecordLen {
		return nil, fmt.Errorf("%w: record is %d bytes", ErrRecordTooLong, total)
	}

	leader := []byte(normalizeLeader(rec.Leader))
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	copy(leader[12:17], fmt.Sprintf("%05d", base))

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, directory.Bytes()...)
	out = append(out, body.Bytes()...)
	out = append(out, RecordTerminator)
	return out, nil
}

func encodeField(f *Field) []byte {
	var b bytes.Buffer
	if f.IsControl() {
		b.WriteString(f.Value)
		b.WriteByte(FieldTerminator)
		return b.Bytes()
	}
	for _, ind := range f.Indicators {
		if ind == 0 {
			ind = ' '
		}
		b.WriteByte(ind)
	}
	for _, sf := range f.Subfields {
		b.WriteByte(SubfieldDelimiter)
		b.WriteByte(sf.Code)
		b.WriteString(sf.Value)
	}
	b.WriteByte(FieldTerminator)
	return b.Bytes()
}

// normalizeLeader pads or truncates the leader to 24 bytes and fills the
// fixed indicator/subfield-count and entry-map positions.
func normalizeLeader(leader string) string {
	if len(leader) < LeaderLen {
		leader += strings.Repeat(" ", LeaderLen-len(leader))
	}
	b := []byte(leader[:LeaderLen])
	b[10] = '2'
	b[11] = '2'
	copy(b[20:24], "4500")
	return string(b)
}
