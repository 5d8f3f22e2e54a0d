package finaudit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/anomaly"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/crossref"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/findings"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/levels"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/reconcile"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/table"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/trace"
)

// tableResult is the outcome of processing one input table.
type tableResult struct {
	done     bool
	table    models.Table
	index    crossref.Index
	summary  models.TableSummary
	findings []models.Finding
	err      *models.ProcessingError
	trace    []models.TraceEntry
}

// Verify runs every check over raws and returns the aggregated report.
//
// Invalid options fail the run before any table is touched. A table that
// cannot be processed is reported as a ProcessingError and excluded from the
// remaining checks; other tables are unaffected. When ctx is cancelled,
// Verify returns the report gathered so far together with ctx.Err().
func Verify(ctx context.Context, raws []models.RawTable, opts Options) (*models.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	keywords := levels.NewKeywords(opts.TotalKeywords)

	var next slog.Handler
	if opts.Logger != nil {
		next = opts.Logger.Handler()
	}
	runRec := trace.NewRecorder("", next)
	runLog := slog.New(runRec)
	runLog.Info("verification started",
		slog.Int("tables", len(raws)),
		slog.Int("workers", opts.WorkerCount()),
		slog.Int("keywords", keywords.Len()),
	)

	results := make([]tableResult, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.WorkerCount())
	for i := range raws {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processTable(raws[i], keywords, opts, next)
			return nil
		})
	}
	_ = g.Wait()

	report := &models.Report{
		Tables: make([]models.TableSummary, 0, len(raws)),
	}
	var groups [][]models.Finding
	var tableTrace []models.TraceEntry
	var built []int
	for i, res := range results {
		if !res.done {
			continue
		}
		tableTrace = append(tableTrace, res.trace...)
		if res.err != nil {
			report.Errors = append(report.Errors, *res.err)
			continue
		}
		report.Tables = append(report.Tables, res.summary)
		groups = append(groups, res.findings)
		built = append(built, i)
	}

	tailRec := trace.NewRecorder("", next)
	tailLog := slog.New(tailRec)
	crossLog := tailLog.With(slog.String("stage", "crossref"))
	for _, p := range crossref.Pairs(len(built)) {
		if ctx.Err() != nil {
			break
		}
		a, b := &results[built[p.I]], &results[built[p.J]]
		fs, perr := comparePair(a, b, opts.ThresholdsFor(a.table.Name).Tolerance)
		if perr != nil {
			crossLog.Error("comparison failed",
				slog.String("other", b.table.Name),
				slog.String("error", perr.Message),
			)
			report.Errors = append(report.Errors, *perr)
			continue
		}
		if len(fs) > 0 {
			crossLog.Debug("cross-reference mismatches",
				slog.String("left", a.table.Name),
				slog.String("right", b.table.Name),
				slog.Int("count", len(fs)),
			)
		}
		groups = append(groups, fs)
	}

	report.Findings = findings.Aggregate(groups...)

	err := ctx.Err()
	if err != nil {
		tailLog.Warn("verification cancelled", slog.String("error", err.Error()))
	} else {
		tailLog.Info("verification finished",
			slog.Int("findings", len(report.Findings)),
			slog.Int("errors", len(report.Errors)),
		)
	}

	report.Trace = append(report.Trace, runRec.Entries()...)
	report.Trace = append(report.Trace, tableTrace...)
	report.Trace = append(report.Trace, tailRec.Entries()...)
	return report, err
}

// processTable builds raw and runs the single-table checks on it. A panic in
// any stage is recovered into a ProcessingError for that stage.
func processTable(raw models.RawTable, keywords levels.Keywords, opts Options, next slog.Handler) (res tableResult) {
	rec := trace.NewRecorder(raw.Name, next)
	log := slog.New(rec)
	stage := "build"

	defer func() {
		if r := recover(); r != nil {
			log.Error("table processing failed", slog.String("stage", stage), slog.Any("panic", r))
			res = tableResult{
				err: &models.ProcessingError{
					Table:   raw.Name,
					Stage:   stage,
					Message: fmt.Sprint(r),
				},
			}
		}
		res.trace = rec.Entries()
		res.done = true
	}()

	t, err := table.Build(raw)
	if err != nil {
		log.Warn("table rejected", slog.String("stage", stage), slog.String("error", err.Error()))
		res.err = &models.ProcessingError{Table: raw.Name, Stage: stage, Message: err.Error()}
		return res
	}
	log.Debug("table built",
		slog.Int("rows", len(t.Rows)),
		slog.Int("columns", t.ColumnCount()),
	)

	th := opts.ThresholdsFor(t.Name)

	stage = "levels"
	assignment := levels.Infer(&t, keywords)
	log.Debug("levels inferred",
		slog.Int("unit_width", assignment.UnitWidth),
		slog.Int("total_rows", assignment.TotalRows()),
		depthAttrs(levels.Stats(&t, assignment)),
	)

	stage = "reconcile"
	sums := reconcile.Reconcile(&t, assignment, th.Tolerance)
	log.Debug("sums reconciled", slog.Int("mismatches", len(sums)))

	stage = "anomaly"
	anomalies := anomaly.Detect(&t, anomaly.Thresholds{
		ExcessiveSignRatio: th.ExcessiveSignRatio,
		SparseColumnRatio:  th.SparseColumnRatio,
	})
	log.Debug("anomalies detected", slog.Int("count", len(anomalies)))

	stage = "crossref"
	res.index = crossref.NewIndex(&t)

	res.table = t
	res.findings = append(sums, anomalies...)
	res.summary = models.TableSummary{
		Name:              t.Name,
		Rows:              len(t.Rows),
		Columns:           t.ColumnCount(),
		NumericColumns:    len(t.NumericColumns()),
		TotalRowsDetected: assignment.TotalRows(),
	}
	return res
}

// depthAttrs renders per-depth statistics as the group
// depths.<n>.{rows,totals,sum}.
func depthAttrs(stats []levels.DepthStat) slog.Attr {
	groups := make([]any, 0, len(stats))
	for _, st := range stats {
		groups = append(groups, slog.Group(strconv.Itoa(st.Depth),
			slog.Int("rows", st.Rows),
			slog.Int("totals", st.Totals),
			slog.String("sum", st.Sum.String()),
		))
	}
	return slog.Group("depths", groups...)
}

func comparePair(a, b *tableResult, tolerance decimal.Decimal) (fs []models.Finding, perr *models.ProcessingError) {
	defer func() {
		if r := recover(); r != nil {
			fs = nil
			perr = &models.ProcessingError{
				Table:   a.table.Name + " / " + b.table.Name,
				Stage:   "crossref",
				Message: fmt.Sprint(r),
			}
		}
	}()
	return crossref.CompareIndexed(&a.table, a.index, &b.table, b.index, tolerance), nil
}
