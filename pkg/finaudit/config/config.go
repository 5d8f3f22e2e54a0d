// Package config loads verification settings from TOML files.
//
// A file may set any subset of the options; everything else keeps its
// default:
//
//	total_keywords = ["합계", "총계", "소계", "Total"]
//	tolerance = 0.5
//	excessive_sign_ratio = 0.5
//	sparse_column_ratio = "0.8"
//	workers = 4
//
//	[tables."현금흐름표"]
//	tolerance = 1000
//
//	[extract]
//	header_rows = 2
//	print_areas = false
//	sheets = ["BS", "IS"]
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit"
)

// Config is a loaded configuration.
type Config struct {
	Verify  finaudit.Options
	Extract finaudit.ExtractOptions
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Verify:  finaudit.DefaultOptions(),
		Extract: finaudit.DefaultExtractOptions(),
	}
}

// Number is a decimal option value. TOML integers, floats and strings are
// accepted; strings keep full decimal precision.
type Number struct {
	decimal.Decimal
}

// UnmarshalTOML implements toml.Unmarshaler.
func (n *Number) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		n.Decimal = decimal.NewFromInt(x)
	case float64:
		n.Decimal = decimal.NewFromFloat(x)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return fmt.Errorf("not a number: %q", x)
		}
		n.Decimal = d
	default:
		return fmt.Errorf("expected a number, got %T", v)
	}
	return nil
}

type thresholdsFile struct {
	Tolerance          *Number `toml:"tolerance"`
	ExcessiveSignRatio *Number `toml:"excessive_sign_ratio"`
	SparseColumnRatio  *Number `toml:"sparse_column_ratio"`
}

type extractFile struct {
	HeaderRows *int     `toml:"header_rows"`
	PrintAreas *bool    `toml:"print_areas"`
	Sheets     []string `toml:"sheets"`
}

type file struct {
	TotalKeywords      []string                  `toml:"total_keywords"`
	Workers            *int                      `toml:"workers"`
	Tolerance          *Number                   `toml:"tolerance"`
	ExcessiveSignRatio *Number                   `toml:"excessive_sign_ratio"`
	SparseColumnRatio  *Number                   `toml:"sparse_column_ratio"`
	Tables             map[string]thresholdsFile `toml:"tables"`
	Extract            extractFile               `toml:"extract"`
}

// Load reads the TOML file at path over the defaults and validates the
// result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", finaudit.ErrFileNotFound, path)
		}
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	var raw file
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return Config{}, &finaudit.ConfigError{Option: "file", Reason: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, &finaudit.ConfigError{
			Option: keys[0],
			Reason: "unknown option",
		}
	}

	cfg := Default()
	opts := &cfg.Verify
	if md.IsDefined("total_keywords") {
		opts.TotalKeywords = raw.TotalKeywords
	}
	if raw.Workers != nil {
		opts.Workers = *raw.Workers
	}
	applyThresholds(&opts.Thresholds, thresholdsFile{
		Tolerance:          raw.Tolerance,
		ExcessiveSignRatio: raw.ExcessiveSignRatio,
		SparseColumnRatio:  raw.SparseColumnRatio,
	})

	if len(raw.Tables) > 0 {
		opts.TableThresholds = make(map[string]finaudit.ThresholdOverride, len(raw.Tables))
		for name, t := range raw.Tables {
			opts.TableThresholds[name] = finaudit.ThresholdOverride{
				Tolerance:          decimalPtr(t.Tolerance),
				ExcessiveSignRatio: decimalPtr(t.ExcessiveSignRatio),
				SparseColumnRatio:  decimalPtr(t.SparseColumnRatio),
			}
		}
	}

	if raw.Extract.HeaderRows != nil && *raw.Extract.HeaderRows < 0 {
		return Config{}, &finaudit.ConfigError{Option: "extract.header_rows", Reason: "must not be negative"}
	}
	cfg.Extract.HeaderRows = raw.Extract.HeaderRows
	cfg.Extract.IncludePrintAreas = raw.Extract.PrintAreas
	cfg.Extract.Sheets = raw.Extract.Sheets

	if err := opts.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyThresholds(th *finaudit.Thresholds, f thresholdsFile) {
	if f.Tolerance != nil {
		th.Tolerance = f.Tolerance.Decimal
	}
	if f.ExcessiveSignRatio != nil {
		th.ExcessiveSignRatio = f.ExcessiveSignRatio.Decimal
	}
	if f.SparseColumnRatio != nil {
		th.SparseColumnRatio = f.SparseColumnRatio.Decimal
	}
}

func decimalPtr(n *Number) *decimal.Decimal {
	if n == nil {
		return nil
	}
	d := n.Decimal
	return &d
}
