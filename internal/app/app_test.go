package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wizzomafizzo/rdaconv/internal/config"
	"github.com/wizzomafizzo/rdaconv/internal/database"
	"github.com/wizzomafizzo/rdaconv/internal/marc"
	"github.com/wizzomafizzo/rdaconv/internal/testutil"
)

type mockPrompter struct {
	response string
	asked    int
}

func (m *mockPrompter) Prompt(string) (string, error) {
	m.asked++
	return m.response, nil
}

func (*mockPrompter) Close() error {
	return nil
}

func book(id, physical string) *marc.Record {
	rec := marc.NewRecord()
	rec.Leader = "00000nam a2200000 a 4500"
	rec.AddField(
		marc.NewControlField("001", id),
		marc.NewControlField("007", physical),
		marc.NewDataField("245", '1', '0',
			marc.Subfield{Code: 'a', Value: "Title"},
			marc.Subfield{Code: 'h', Value: "[sound recording] /"},
			marc.Subfield{Code: 'c', Value: "by Ann."}),
	)
	return rec
}

func writeRecords(t *testing.T, fs afero.Fs, path string, recs ...*marc.Record) {
	t.Helper()

	var buf bytes.Buffer
	w := marc.NewWriter(&buf)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func writeConfig(t *testing.T, fs afero.Fs, path string, mutate func(*config.Config)) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Journal.Path = database.MemoryDSN
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Save(fs, path))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	promFile := "/metrics/rdaconv.prom"
	require.NoError(t, fs.MkdirAll("/metrics", 0o750))
	writeConfig(t, fs, "rdaconv.yml", func(cfg *config.Config) {
		cfg.Metrics.Textfile = promFile
	})
	writeRecords(t, fs, "in.mrc", book("one", "sd fsngnnmmned"), book("two", "s\x1fd"))

	var out, logs bytes.Buffer
	a := New(Options{FS: fs, Out: &out, LogWriter: &logs, ConfigPath: "rdaconv.yml"})

	result, err := a.Convert(context.Background(), ConvertRequest{Input: "in.mrc", Output: "out.mrc"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Failed)

	assert.Contains(t, out.String(), "Converting in.mrc to RDA at ")
	assert.Contains(t, out.String(), "Done: 1 of 2 records converted, 1 failed")
	assert.Contains(t, logs.String(), `"class":"malformed_field"`)
	assert.Contains(t, logs.String(), `"record":1`)

	prom, err := afero.ReadFile(fs, promFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `rdaconv_records_total{status="converted"} 1`)

	data, err := afero.ReadFile(fs, "out.mrc")
	require.NoError(t, err)
	rec, err := marc.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "=245  10$aTitle /$cby Ann.", rec.Field("245").String())
	assert.Equal(t, `=338  \\$aaudio disc$bsd$2rdacarrier`, rec.Field("338").String())
}

func TestConvertOverrides(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "rdaconv.yml", func(cfg *config.Config) {
		cfg.Conversion.Progress = false
		cfg.Journal.Enabled = false
	})
	writeRecords(t, fs, "in.mrc", book("one", "sd fsngnnmmned"))

	var out bytes.Buffer
	a := New(Options{FS: fs, Out: &out, LogWriter: &bytes.Buffer{}, ConfigPath: "rdaconv.yml"})

	_, err := a.Convert(context.Background(), ConvertRequest{
		Input: "in.mrc", Output: "out.xml", Format: "marcxml", Workers: 2,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Converting")

	data, err := afero.ReadFile(fs, "out.xml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	_, err = a.Convert(context.Background(), ConvertRequest{
		Input: "in.mrc", Output: "out.json", Format: "json", Yes: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format 'json'")
}

func TestConvertSamePath(t *testing.T) {
	t.Parallel()

	a := New(Options{FS: afero.NewMemMapFs(), Out: &bytes.Buffer{}})
	_, err := a.Convert(context.Background(), ConvertRequest{Input: "x.mrc", Output: "./x.mrc"})
	require.ErrorIs(t, err, ErrSamePath)
}

func TestConvertOverwrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		response  string
		yes       bool
		wantErr   bool
		wantAsked int
	}{
		{name: "declined", response: "n", wantErr: true, wantAsked: 1},
		{name: "accepted", response: "y", wantAsked: 1},
		{name: "yes flag", yes: true, wantAsked: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			writeConfig(t, fs, "rdaconv.yml", nil)
			writeRecords(t, fs, "in.mrc", book("one", "sd fsngnnmmned"))
			require.NoError(t, afero.WriteFile(fs, "out.mrc", []byte("old"), 0o644))

			prompter := &mockPrompter{response: tt.response}
			a := New(Options{
				FS: fs, Out: &bytes.Buffer{}, LogWriter: &bytes.Buffer{},
				Prompter: prompter, ConfigPath: "rdaconv.yml",
			})

			_, err := a.Convert(context.Background(), ConvertRequest{Input: "in.mrc", Output: "out.mrc", Yes: tt.yes})
			assert.Equal(t, tt.wantAsked, prompter.asked)

			data, readErr := afero.ReadFile(fs, "out.mrc")
			require.NoError(t, readErr)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutputExists)
				assert.Equal(t, "old", string(data))
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, "old", string(data))
		})
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := afero.NewOsFs()
	configPath := filepath.Join(dir, "rdaconv.yml")
	writeConfig(t, fs, configPath, func(cfg *config.Config) {
		cfg.Journal.Path = filepath.Join(dir, "data", "journal.db")
		cfg.Conversion.Progress = false
	})

	input := filepath.Join(dir, "in.mrc")
	writeRecords(t, fs, input, book("one", "sd fsngnnmmned"), book("two", "s\x1fd"))

	var out bytes.Buffer
	a := New(Options{FS: fs, Out: &out, LogWriter: &bytes.Buffer{}, ConfigPath: configPath})

	ctx := context.Background()
	_, err := a.Convert(ctx, ConvertRequest{Input: input, Output: filepath.Join(dir, "first.mrc")})
	require.NoError(t, err)
	_, err = a.Convert(ctx, ConvertRequest{Input: input, Output: filepath.Join(dir, "second.xml"), Format: "marcxml"})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, a.History(ctx, 10))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "#2 "))
	assert.Contains(t, lines[0], "second.xml (marcxml) 1/2 converted 1 failed")
	assert.Contains(t, lines[1], "record 1: malformed_field: ")
	assert.True(t, strings.HasPrefix(lines[2], "#1 "))

	out.Reset()
	require.NoError(t, a.History(ctx, 1))
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 2)
}

func TestHistoryEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := afero.NewOsFs()
	configPath := filepath.Join(dir, "rdaconv.yml")
	writeConfig(t, fs, configPath, func(cfg *config.Config) {
		cfg.Journal.Path = filepath.Join(dir, "journal.db")
	})

	var out bytes.Buffer
	require.NoError(t, New(Options{FS: fs, Out: &out, ConfigPath: configPath}).History(context.Background(), 0))
	assert.Equal(t, "No conversion runs recorded\n", out.String())
}

func TestInspect(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "springer.mrc", testutil.LoadTestdataFile(t, "springer.mrc"), 0o644))

	var out bytes.Buffer
	a := New(Options{FS: fs, Out: &out})

	require.NoError(t, a.Inspect(context.Background(), "springer.mrc", false))
	assert.Contains(t, out.String(), "# record 0")
	assert.Contains(t, out.String(), `=LDR  01760nam\a22003735i\4500`)
	assert.Contains(t, out.String(), "$h[electronic resource] :")

	out.Reset()
	require.NoError(t, a.Inspect(context.Background(), "springer.mrc", true))
	assert.Contains(t, out.String(), "=245  10$aASP.NET Web API 2 Recipes :$bA Problem Solution Approach /")
	assert.NotContains(t, out.String(), "$h")
}

func TestInspectReportsFailures(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeRecords(t, fs, "in.mrc", book("one", "sd fsngnnmmned"), book("two", "s\x1fd"))

	var out bytes.Buffer
	require.NoError(t, New(Options{FS: fs, Out: &out}).Inspect(context.Background(), "in.mrc", true))
	assert.Contains(t, out.String(), "# record 1 (malformed_field):")
	assert.Equal(t, 2, strings.Count(out.String(), "=LDR  "))
}

func TestInspectMissingFile(t *testing.T) {
	t.Parallel()

	err := New(Options{FS: afero.NewMemMapFs(), Out: &bytes.Buffer{}}).Inspect(context.Background(), "nope.mrc", false)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "good.yml", nil)
	require.NoError(t, afero.WriteFile(fs, "bad.yml", []byte("rules:\n  skip: [bogus]\n"), 0o600))

	result, err := New(Options{FS: fs, ConfigPath: "good.yml"}).Validate()
	require.NoError(t, err)
	assert.Equal(t, "Configuration is valid", result)

	_, err = New(Options{FS: fs, ConfigPath: "bad.yml"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule 'bogus'")

	_, err = New(Options{FS: fs, ConfigPath: "missing.yml"}).Validate()
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	a := New(Options{FS: fs, Out: &out, ConfigPath: "rdaconv.yml"})

	require.NoError(t, a.Init(false))
	assert.Equal(t, "Created rdaconv.yml\n", out.String())

	cfg, err := config.Load(fs, "rdaconv.yml")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	require.ErrorIs(t, a.Init(false), ErrConfigExists)
	require.NoError(t, a.Init(true))
}
