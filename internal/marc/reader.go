package marc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	recordLengthLen   = 5
	directoryEntryLen = 12
	minRecordLen      = LeaderLen + 2
)

// ErrFraming is returned when the input stream cannot be split into records.
// Reading cannot continue past a framing error because the next record
// boundary is unknown.
var ErrFraming = errors.New("invalid record framing")

// DecodeError reports a record that was framed correctly but whose leader or
// directory could not be decoded. The reader stays usable after a DecodeError.
type DecodeError struct {
	Err    error
	Raw    []byte
	Offset int64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode record at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reader reads ISO 2709 MARC21 records from an io.Reader.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

// NewReader creates a Reader around r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read returns the next record. It returns io.EOF once the input is
// exhausted between records.
func (r *Reader) Read() (*Record, error) {
	header := make([]byte, recordLengthLen)
	n, err := io.ReadFull(r.r, header)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: reading record length at offset %d (read %d bytes): %w",
			ErrFraming, r.offset, n, err)
	}

	length, err := parseDigits(header)
	if err != nil || length < minRecordLen {
		return nil, fmt.Errorf("%w: record length %q at offset %d", ErrFraming, header, r.offset)
	}

	data := make([]byte, length)
	copy(data, header)
	if _, err := io.ReadFull(r.r, data[recordLengthLen:]); err != nil {
		return nil, fmt.Errorf("%w: truncated record at offset %d: %w", ErrFraming, r.offset, err)
	}

	start := r.offset
	r.offset += int64(length)

	rec, err := Decode(data)
	if err != nil {
		return nil, &DecodeError{Offset: start, Raw: data, Err: err}
	}
	return rec, nil
}

// Decode parses a single ISO 2709 record.
func Decode(data []byte) (*Record, error) {
	if len(data) < minRecordLen {
		return nil, fmt.Errorf("record too short (%d bytes)", len(data))
	}
	if data[len(data)-1] != RecordTerminator {
		return nil, errors.New("missing record terminator")
	}

	rec := &Record{Leader: string(data[:LeaderLen])}

	base, err := parseDigits(data[12:17])
	if err != nil {
		return nil, fmt.Errorf("invalid base address %q", data[12:17])
	}
	if base <= LeaderLen || base >= len(data) {
		return nil, fmt.Errorf("base address %d out of range", base)
	}

	directory := data[LeaderLen : base-1]
	if len(directory)%directoryEntryLen != 0 {
		return nil, errors.New("invalid directory length")
	}

	for o := 0; o < len(directory); o += directoryEntryLen {
		entry := directory[o : o+directoryEntryLen]
		tag := string(entry[0:3])
		fieldLen, err := parseDigits(entry[3:7])
		if err != nil || fieldLen < 1 {
			return nil, fmt.Errorf("invalid length for field %s", tag)
		}
		fieldOffset, err := parseDigits(entry[7:12])
		if err != nil {
			return nil, fmt.Errorf("invalid offset for field %s", tag)
		}

		start := base + fieldOffset
		end := start + fieldLen - 1
		if start < base || end >= len(data) {
			return nil, fmt.Errorf("field %s exceeds record bounds", tag)
		}

		rec.fields = append(rec.fields, decodeField(tag, data[start:end]))
	}

	return rec, nil
}

// parseDigits reads an unsigned decimal leader or directory number.
func parseDigits(b []byte) (int, error) {
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid number %q", b)
		}
	}
	return strconv.Atoi(string(b))
}

func decodeField(tag string, data []byte) *Field {
	if IsControlTag(tag) {
		return NewControlField(tag, string(data))
	}

	f := &Field{Tag: tag, Indicators: [2]byte{' ', ' '}}
	chunks := splitSubfields(data)
	head := chunks[0]
	for i := 0; i < len(head) && i < 2; i++ {
		f.Indicators[i] = head[i]
	}
	for _, chunk := range chunks[1:] {
		if len(chunk) == 0 {
			continue
		}
		f.Subfields = append(f.Subfields, Subfield{Code: chunk[0], Value: string(chunk[1:])})
	}
	return f
}

func splitSubfields(data []byte) [][]byte {
	var chunks [][]byte
	start := 0
	for i, b := range data {
		if b == SubfieldDelimiter {
			chunks = append(chunks, data[start:i])
			start = i + 1
		}
	}
	return append(chunks, data[start:])
}
