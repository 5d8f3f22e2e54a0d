// Package trace records the structured diagnostics of one verification run.
//
// A Recorder is an slog.Handler that keeps records in memory instead of
// writing them out, so each run carries its own trace rather than sharing
// process-wide logging state:
//
//	rec := trace.NewRecorder("BS", nil)
//	log := slog.New(rec)
//	log.Info("levels inferred", slog.Int("unit_width", 2))
//	entries := rec.Entries()
package trace

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// store is shared between a Recorder and the handlers derived from it.
type store struct {
	mu      sync.Mutex
	entries []models.TraceEntry
}

// Recorder implements slog.Handler and captures records as trace entries.
// Records are optionally forwarded to a second handler.
type Recorder struct {
	table      string
	store      *store
	next       slog.Handler
	preAttrs   map[string]any
	groupNames []string
}

// NewRecorder returns a Recorder tagging every entry with table. When next
// is non-nil, records are also passed to it.
func NewRecorder(table string, next slog.Handler) *Recorder {
	return &Recorder{
		table: table,
		store: &store{},
		next:  next,
	}
}

// Enabled implements slog.Handler. Every level is recorded.
func (r *Recorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (r *Recorder) Handle(ctx context.Context, rec slog.Record) error {
	entry := models.TraceEntry{
		Level:   rec.Level.String(),
		Table:   r.table,
		Message: rec.Message,
	}

	attrs := make(map[string]any, len(r.preAttrs)+rec.NumAttrs())
	for k, v := range r.preAttrs {
		attrs[k] = v
	}
	prefix := strings.Join(r.groupNames, ".")
	rec.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, prefix, a)
		return true
	})
	if len(attrs) > 0 {
		entry.Attrs = attrs
	}

	r.store.mu.Lock()
	r.store.entries = append(r.store.entries, entry)
	r.store.mu.Unlock()

	if r.next != nil && r.next.Enabled(ctx, rec.Level) {
		return r.next.Handle(ctx, rec)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := r.clone()
	// attributes added before a group stay outside it
	prefix := strings.Join(r.groupNames, ".")
	for _, a := range attrs {
		addAttr(clone.preAttrs, prefix, a)
	}
	if r.next != nil {
		clone.next = r.next.WithAttrs(attrs)
	}
	return clone
}

// WithGroup implements slog.Handler.
func (r *Recorder) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	clone := r.clone()
	clone.groupNames = append(clone.groupNames, name)
	if r.next != nil {
		clone.next = r.next.WithGroup(name)
	}
	return clone
}

func (r *Recorder) clone() *Recorder {
	pre := make(map[string]any, len(r.preAttrs))
	for k, v := range r.preAttrs {
		pre[k] = v
	}
	return &Recorder{
		table:      r.table,
		store:      r.store,
		next:       r.next,
		preAttrs:   pre,
		groupNames: append([]string(nil), r.groupNames...),
	}
}

// Entries returns a copy of the recorded entries in emission order.
func (r *Recorder) Entries() []models.TraceEntry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.TraceEntry, len(r.store.entries))
	copy(out, r.store.entries)
	return out
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.entries)
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		// groups with an empty key are inlined
		groupPrefix := key
		if a.Key == "" {
			groupPrefix = prefix
		}
		for _, ga := range a.Value.Group() {
			addAttr(dst, groupPrefix, ga)
		}
		return
	}
	dst[key] = a.Value.Any()
}
