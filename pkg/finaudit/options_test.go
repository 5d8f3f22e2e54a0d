package finaudit

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

func decPtr(s string) *decimal.Decimal {
	return models.DecimalPtr(decimal.RequireFromString(s))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	assert.Equal(t, DefaultTotalKeywords, opts.TotalKeywords)
	assert.True(t, opts.Thresholds.Tolerance.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, opts.Thresholds.ExcessiveSignRatio.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, opts.Thresholds.SparseColumnRatio.Equal(decimal.RequireFromString("0.5")))
	assert.Positive(t, opts.WorkerCount())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		option string
	}{
		{"no keywords", func(o *Options) { o.TotalKeywords = nil }, "total_keywords"},
		{"blank keywords", func(o *Options) { o.TotalKeywords = []string{" ", ""} }, "total_keywords"},
		{"negative tolerance", func(o *Options) { o.Thresholds.Tolerance = decimal.NewFromInt(-1) }, "tolerance"},
		{"negative sign ratio", func(o *Options) { o.Thresholds.ExcessiveSignRatio = decimal.NewFromInt(-1) }, "excessive_sign_ratio"},
		{"sparse ratio above one", func(o *Options) { o.Thresholds.SparseColumnRatio = decimal.NewFromFloat(1.5) }, "sparse_column_ratio"},
		{"negative workers", func(o *Options) { o.Workers = -2 }, "workers"},
		{"bad table override", func(o *Options) {
			o.TableThresholds = map[string]ThresholdOverride{"BS": {Tolerance: decPtr("-0.5")}}
		}, "tables.BS.tolerance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			err := opts.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}
}

func TestOptions_ThresholdsFor(t *testing.T) {
	opts := DefaultOptions()
	opts.TableThresholds = map[string]ThresholdOverride{
		"CF": {Tolerance: decPtr("1000"), SparseColumnRatio: decPtr("0.9")},
	}

	cf := opts.ThresholdsFor("CF")
	assert.True(t, cf.Tolerance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cf.SparseColumnRatio.Equal(decimal.RequireFromString("0.9")))
	assert.True(t, cf.ExcessiveSignRatio.Equal(opts.Thresholds.ExcessiveSignRatio))

	bs := opts.ThresholdsFor("BS")
	assert.Equal(t, opts.Thresholds, bs)
}
