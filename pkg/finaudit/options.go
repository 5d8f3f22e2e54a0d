// Package finaudit verifies financial-statement tables: it reconciles total
// rows against their line items, cross-checks line items shared between
// statements and flags anomalous numeric patterns.
package finaudit

import (
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/anomaly"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/reconcile"
)

// DefaultTotalKeywords are the label fragments marking total rows.
var DefaultTotalKeywords = []string{"합계", "총계", "소계", "Total", "Sum"}

// Thresholds holds the numeric limits of the checks.
type Thresholds struct {
	// Tolerance is the absolute difference below which two values are equal.
	Tolerance decimal.Decimal
	// ExcessiveSignRatio flags a column when negatives exceed this fraction
	// of positives.
	ExcessiveSignRatio decimal.Decimal
	// SparseColumnRatio flags a column when the fraction of empty cells
	// exceeds it.
	SparseColumnRatio decimal.Decimal
}

// DefaultThresholds returns tolerance 0.01 and 50% ratios.
func DefaultThresholds() Thresholds {
	ratios := anomaly.DefaultThresholds()
	return Thresholds{
		Tolerance:          reconcile.DefaultTolerance,
		ExcessiveSignRatio: ratios.ExcessiveSignRatio,
		SparseColumnRatio:  ratios.SparseColumnRatio,
	}
}

// ThresholdOverride replaces individual thresholds for one table.
// Nil fields keep the run-wide value.
type ThresholdOverride struct {
	Tolerance          *decimal.Decimal
	ExcessiveSignRatio *decimal.Decimal
	SparseColumnRatio  *decimal.Decimal
}

// Options configures a verification run.
type Options struct {
	// TotalKeywords marks a row as a total when its label contains one.
	TotalKeywords []string
	// Thresholds applies to every table without an override.
	Thresholds Thresholds
	// TableThresholds overrides thresholds per table name. Cross-reference
	// comparisons use the tolerance of the first table of the pair.
	TableThresholds map[string]ThresholdOverride
	// Workers bounds the number of tables processed concurrently.
	// If zero, defaults to GOMAXPROCS.
	Workers int
	// Logger, if set, also receives the run's trace records.
	Logger *slog.Logger
}

// DefaultOptions returns default verification options.
func DefaultOptions() Options {
	return Options{
		TotalKeywords: append([]string(nil), DefaultTotalKeywords...),
		Thresholds:    DefaultThresholds(),
	}
}

// ThresholdsFor returns the thresholds in effect for the named table.
func (o Options) ThresholdsFor(table string) Thresholds {
	th := o.Thresholds
	ov, ok := o.TableThresholds[table]
	if !ok {
		return th
	}
	if ov.Tolerance != nil {
		th.Tolerance = *ov.Tolerance
	}
	if ov.ExcessiveSignRatio != nil {
		th.ExcessiveSignRatio = *ov.ExcessiveSignRatio
	}
	if ov.SparseColumnRatio != nil {
		th.SparseColumnRatio = *ov.SparseColumnRatio
	}
	return th
}

// WorkerCount returns the effective concurrency.
func (o Options) WorkerCount() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate rejects options no run can use. The returned error is a
// *ConfigError.
func (o Options) Validate() error {
	usable := 0
	for _, kw := range o.TotalKeywords {
		if strings.TrimSpace(kw) != "" {
			usable++
		}
	}
	if usable == 0 {
		return &ConfigError{Option: "total_keywords", Reason: "at least one non-blank keyword is required"}
	}
	if o.Workers < 0 {
		return &ConfigError{Option: "workers", Reason: "must not be negative"}
	}
	if err := validateThresholds("", o.Thresholds); err != nil {
		return err
	}
	names := make([]string, 0, len(o.TableThresholds))
	for name := range o.TableThresholds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validateThresholds(name, o.ThresholdsFor(name)); err != nil {
			return err
		}
	}
	return nil
}

func validateThresholds(table string, th Thresholds) error {
	option := func(name string) string {
		if table == "" {
			return name
		}
		return "tables." + table + "." + name
	}
	one := decimal.NewFromInt(1)

	if th.Tolerance.IsNegative() {
		return &ConfigError{Option: option("tolerance"), Reason: "must not be negative, got " + th.Tolerance.String()}
	}
	if th.ExcessiveSignRatio.IsNegative() {
		return &ConfigError{Option: option("excessive_sign_ratio"), Reason: "must not be negative, got " + th.ExcessiveSignRatio.String()}
	}
	if th.SparseColumnRatio.IsNegative() || th.SparseColumnRatio.GreaterThan(one) {
		return &ConfigError{Option: option("sparse_column_ratio"), Reason: "must be between 0 and 1, got " + th.SparseColumnRatio.String()}
	}
	return nil
}
