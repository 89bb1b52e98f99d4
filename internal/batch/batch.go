// Package batch drives the RDA rule engine over a file of MARC21 records.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/rdaconv/internal/journal"
	"github.com/wizzomafizzo/rdaconv/internal/logging"
	"github.com/wizzomafizzo/rdaconv/internal/marc"
	"github.com/wizzomafizzo/rdaconv/internal/metrics"
	"github.com/wizzomafizzo/rdaconv/internal/rda"
)

// Output formats.
const (
	FormatMARC    = "marc"
	FormatMARCXML = "marcxml"
)

// Error classes reported for skipped records.
const (
	ClassDecode          = "decode"
	ClassMalformedLeader = "malformed_leader"
	ClassMalformedField  = "malformed_field"
	ClassPanic           = "panic"
	ClassEncode          = "encode"
	ClassConversion      = "conversion"
)

var ErrUnknownFormat = errors.New("unknown output format")

type Options struct {
	// Progress receives the start line, progress markers and the
	// completion line. Nil discards them.
	Progress io.Writer
	Journal  *journal.Journal
	Metrics  *metrics.Metrics
	Format   string
	Skip     []string
	Workers  int

	SortFields bool
}

func DefaultOptions() Options {
	return Options{
		Format:     FormatMARC,
		Workers:    1,
		SortFields: true,
	}
}

// Failure describes a skipped record. Index is 0-based.
type Failure struct {
	Err   error
	Class string
	Index int
}

type Result struct {
	Failures  []Failure
	RunID     int64
	Total     int
	Converted int
	Failed    int
	Elapsed   time.Duration
}

type Converter struct {
	fs   afero.Fs
	opts Options
	now  func() time.Time
}

func New(fs afero.Fs, opts Options) *Converter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Format == "" {
		opts.Format = FormatMARC
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Converter{fs: fs, opts: opts, now: time.Now}
}

type job struct {
	rec   *marc.Record
	err   error
	index int
}

type outcome struct {
	rec      *marc.Record
	err      error
	index    int
	duration time.Duration
}

// Run converts every record in inputPath and writes the results to
// outputPath in input order. Records that fail are logged and skipped.
// Framing errors in the input, output errors and cancellation stop the run.
func (c *Converter) Run(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	in, err := c.fs.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := c.fs.OpenFile(outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	defer func() { _ = out.Close() }()

	writer, err := newRecordWriter(c.opts.Format, out)
	if err != nil {
		return nil, err
	}

	started := c.now()
	result := &Result{}
	_, _ = fmt.Fprintf(c.opts.Progress, "Converting %s to RDA at %s\n", inputPath, started.Format(time.RFC3339))

	if c.opts.Journal != nil {
		result.RunID, err = c.opts.Journal.StartRun(ctx, inputPath, outputPath, c.opts.Format, started)
		if err != nil {
			logging.Get(ctx).Warn().Err(err).Msg("journal unavailable for this run")
		}
	}

	runErr := c.pipeline(ctx, marc.NewReader(in), writer, result)
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}

	finished := c.now()
	result.Elapsed = finished.Sub(started)

	if c.opts.Journal != nil && result.RunID != 0 {
		// a cancelled run is still closed out in the journal
		err := c.opts.Journal.FinishRun(context.WithoutCancel(ctx), result.RunID, result.Total, result.Converted, result.Failed, finished)
		if err != nil {
			logging.Get(ctx).Warn().Err(err).Int64("journal_run", result.RunID).Msg("failed to finish journal run")
		}
	}

	_, _ = fmt.Fprintf(c.opts.Progress, "\nFinished converting %d records to RDA at %s total=%.2f minutes\n",
		result.Total, finished.Format(time.RFC3339), result.Elapsed.Minutes())

	return result, runErr
}

func (c *Converter) pipeline(parent context.Context, reader *marc.Reader, writer marc.RecordWriter, result *Result) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	jobs := make(chan job)
	outcomes := make(chan outcome)

	readErrs := make(chan error, 1)
	go func() {
		defer close(jobs)
		for index := 0; ; index++ {
			rec, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			var decodeErr *marc.DecodeError
			if err != nil && !errors.As(err, &decodeErr) {
				readErrs <- err
				return
			}
			select {
			case jobs <- job{index: index, rec: rec, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range c.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				o := c.convert(j)
				select {
				case outcomes <- o:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var runErr error
	pending := make(map[int]outcome)
	next := 0
	for o := range outcomes {
		if runErr != nil {
			continue
		}
		pending[o.index] = o
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := c.emit(ctx, ready, writer, result); err != nil {
				runErr = err
				cancel()
				break
			}
			next++
		}
	}

	if runErr != nil {
		return runErr
	}
	if err := parent.Err(); err != nil {
		return fmt.Errorf("conversion cancelled after %d records: %w", result.Total, err)
	}
	select {
	case err := <-readErrs:
		return fmt.Errorf("failed to read record %d: %w", next, err)
	default:
		return nil
	}
}

func (c *Converter) convert(j job) outcome {
	if j.err != nil {
		return outcome{index: j.index, err: j.err}
	}

	start := time.Now()
	engine := rda.NewEngine(j.rec, rda.WithSkip(c.opts.Skip...))
	err := engine.ConvertAll()
	if err == nil && c.opts.SortFields {
		j.rec.SortFields()
	}
	return outcome{index: j.index, rec: j.rec, err: err, duration: time.Since(start)}
}

// emit writes one outcome in input order, or records it as a failure.
func (c *Converter) emit(ctx context.Context, o outcome, writer marc.RecordWriter, result *Result) error {
	c.progress(o.index)
	result.Total++

	err := o.err
	if err == nil {
		err = writer.Write(o.rec)
		if err != nil && !errors.Is(err, marc.ErrRecordTooLong) {
			return err
		}
	}

	if err == nil {
		result.Converted++
		c.opts.Metrics.Observe(true, "", o.duration)
		return nil
	}

	class := Classify(err)
	result.Failed++
	result.Failures = append(result.Failures, Failure{Index: o.index, Class: class, Err: err})
	c.opts.Metrics.Observe(false, class, o.duration)

	logging.Get(ctx).Error().
		Int("record", o.index).
		Str("class", class).
		Err(err).
		Msg("failed to convert record")

	if c.opts.Journal != nil && result.RunID != 0 {
		if jerr := c.opts.Journal.RecordFailure(ctx, result.RunID, o.index, class, err.Error()); jerr != nil {
			logging.Get(ctx).Warn().Err(jerr).Int("record", o.index).Msg("failed to journal record failure")
		}
	}
	return nil
}

func (c *Converter) progress(index int) {
	if index > 0 && index%10 == 0 {
		_, _ = fmt.Fprint(c.opts.Progress, ".")
	}
	if index%100 == 0 {
		_, _ = fmt.Fprint(c.opts.Progress, index)
	}
}

// Classify names the error class logged for a skipped record.
func Classify(err error) string {
	var decodeErr *marc.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return ClassDecode
	case errors.Is(err, rda.ErrRulePanic):
		return ClassPanic
	case errors.Is(err, rda.ErrMalformedLeader):
		return ClassMalformedLeader
	case errors.Is(err, rda.ErrMalformedField):
		return ClassMalformedField
	case errors.Is(err, marc.ErrRecordTooLong):
		return ClassEncode
	default:
		return ClassConversion
	}
}

func newRecordWriter(format string, w io.Writer) (marc.RecordWriter, error) {
	switch format {
	case FormatMARC:
		return marc.NewWriter(w), nil
	case FormatMARCXML:
		return marc.NewXMLWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
