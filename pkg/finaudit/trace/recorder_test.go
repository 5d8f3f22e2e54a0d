package trace_test

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/trace"
)

func TestRecorder_CapturesRecords(t *testing.T) {
	rec := trace.NewRecorder("BS", nil)
	log := slog.New(rec)

	log.Debug("levels inferred", slog.Int("unit_width", 2))
	log.Warn("table skipped", slog.String("reason", "empty"))

	entries := rec.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "DEBUG", entries[0].Level)
	assert.Equal(t, "BS", entries[0].Table)
	assert.Equal(t, "levels inferred", entries[0].Message)
	assert.Equal(t, int64(2), entries[0].Attrs["unit_width"])

	assert.Equal(t, "WARN", entries[1].Level)
	assert.Equal(t, "empty", entries[1].Attrs["reason"])
}

func TestRecorder_WithAttrsAndGroups(t *testing.T) {
	rec := trace.NewRecorder("IS", nil)
	log := slog.New(rec).With(slog.String("stage", "reconcile")).WithGroup("sum")

	log.Info("checked", slog.Int("totals", 3), slog.Group("cols", slog.Int("n", 2)))

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "reconcile", entries[0].Attrs["stage"])
	assert.Equal(t, int64(3), entries[0].Attrs["sum.totals"])
	assert.Equal(t, int64(2), entries[0].Attrs["sum.cols.n"])
}

func TestRecorder_NoAttrs(t *testing.T) {
	rec := trace.NewRecorder("", nil)
	slog.New(rec).Info("run started")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Attrs)
	assert.Empty(t, entries[0].Table)
}

func TestRecorder_ForwardsToNext(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	rec := trace.NewRecorder("CF", next)
	log := slog.New(rec)

	log.Debug("hidden from next")
	log.Info("shown", slog.String("k", "v"))

	assert.Equal(t, 2, rec.Len(), "the recorder keeps every level")
	assert.NotContains(t, buf.String(), "hidden from next")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestRecorder_ConcurrentUse(t *testing.T) {
	rec := trace.NewRecorder("T", nil)
	log := slog.New(rec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				log.Info("tick", slog.Int("worker", n))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, rec.Len())
}
