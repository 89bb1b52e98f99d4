package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/wizzomafizzo/rdaconv/internal/batch"
	"github.com/wizzomafizzo/rdaconv/internal/marc"
	"github.com/wizzomafizzo/rdaconv/internal/rda"
)

// Inspect prints every record in path in mnemonic form, converting each
// first when convert is set. Record failures are reported inline.
func (a *App) Inspect(ctx context.Context, path string, convert bool) error {
	f, err := a.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var skip []string
	if convert {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}
		skip = cfg.Rules.Skip
	}

	reader := marc.NewReader(f)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var decodeErr *marc.DecodeError
		if errors.As(err, &decodeErr) {
			a.printRecordError(index, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read record %d: %w", index, err)
		}

		if convert {
			if err := rda.NewEngine(rec, rda.WithSkip(skip...)).ConvertAll(); err != nil {
				a.printRecordError(index, err)
			}
			rec.SortFields()
		}

		_, _ = fmt.Fprintf(a.out, "%s\n%s\n\n", color.CyanString("# record %d", index), rec)
	}
}

func (a *App) printRecordError(index int, err error) {
	_, _ = fmt.Fprintf(a.out, "%s %v\n",
		color.RedString("# record %d (%s):", index, batch.Classify(err)), err)
}
