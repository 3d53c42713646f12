package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/dietplan/internal/acquisition"
	"github.com/fdg312/dietplan/internal/blob"
	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/metrics"
	"github.com/fdg312/dietplan/internal/planner"
	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/fdg312/dietplan/internal/reports"
)

const (
	StatusOK     = "OK"
	bundleName   = "plans.zip"
	reportName   = "report.json"
	contentPDF   = "application/pdf"
	contentZip   = "application/zip"
	contentJSON  = "application/json"
	runKeyPrefix = "runs"
)

var ErrUnknownRow = errors.New("unknown survey row")

// Generator produces one plan. *planner.Planner satisfies it.
type Generator interface {
	Generate(ctx context.Context, p profiles.UserProfile) (*planner.Result, error)
}

type Options struct {
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Renderer *reports.Renderer
	Now      func() time.Time
	// Progress, when set, is called after each row finishes.
	Progress func(RowResult)
}

type RowResult struct {
	Index      int           `json:"index"`
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	OK         bool          `json:"ok"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	File       string        `json:"file,omitempty"`
	Relaxation string        `json:"relaxation,omitempty"`
	Attempts   int           `json:"attempts"`
}

type Report struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Rows       []RowResult `json:"rows"`
	BundleKey  string      `json:"bundle_key,omitempty"`
}

func (r *Report) Succeeded() int {
	n := 0
	for _, row := range r.Rows {
		if row.OK {
			n++
		}
	}
	return n
}

// WriteSummary prints one aligned line per row.
func (r *Report) WriteSummary(w io.Writer) error {
	for _, row := range r.Rows {
		if _, err := fmt.Fprintf(w, "%-30s %-25s %6.1fs\n", row.Name, row.Status, row.Elapsed.Seconds()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d/%d plans generated\n", r.Succeeded(), len(r.Rows))
	return err
}

// RunKey is the storage prefix for one run.
func RunKey(runID, name string) string {
	return path.Join(runKeyPrefix, runID, name)
}

// ReportKey locates the stored report.json of a run.
func ReportKey(runID string) string {
	return RunKey(runID, reportName)
}

// BundleKey locates the zip of a run.
func BundleKey(runID string) string {
	return RunKey(runID, bundleName)
}

type Runner struct {
	gen      Generator
	store    blob.Store
	log      *logger.Logger
	metrics  *metrics.Metrics
	renderer *reports.Renderer
	now      func() time.Time
	progress func(RowResult)
}

func NewRunner(gen Generator, store blob.Store, opts Options) *Runner {
	r := &Runner{
		gen:      gen,
		store:    store,
		log:      logger.OrNop(opts.Log),
		metrics:  opts.Metrics,
		renderer: opts.Renderer,
		now:      opts.Now,
		progress: opts.Progress,
	}
	if r.renderer == nil {
		r.renderer = reports.NewRenderer()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run generates plans for the selected rows one at a time. A nil indices
// slice selects every row. A failing row is recorded and the run moves on;
// only cancellation or a storage failure for the bundle aborts it.
func (r *Runner) Run(ctx context.Context, survey *Survey, indices []int) (*Report, error) {
	if indices == nil {
		indices = survey.Indices()
	}
	rows := make([]Row, 0, len(indices))
	for _, idx := range indices {
		row, ok := survey.Row(idx)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownRow, idx)
		}
		rows = append(rows, row)
	}

	rep := &Report{RunID: uuid.NewString(), StartedAt: r.now().UTC()}
	log := r.log.With("run_id", rep.RunID)
	log.Info("batch run started", "rows", len(rows))

	var files []reports.File
	used := make(map[string]int)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			log.Warn("batch run canceled", "completed", len(rep.Rows))
			return rep, err
		}

		result, pdf := r.runRow(ctx, row)
		if result.OK {
			result.File = uniqueName(used, result.Name) + ".pdf"
			key := RunKey(rep.RunID, result.File)
			if _, err := r.store.PutObject(ctx, key, pdf, contentPDF); err != nil {
				result.OK = false
				result.Status = failed("storage error")
				result.File = ""
				log.Error("store plan pdf", "row", row.Index, "error", err)
			} else {
				files = append(files, reports.File{Name: result.File, Data: pdf})
			}
		}

		if result.OK {
			r.metrics.ObserveBatchRow("ok")
		} else {
			r.metrics.ObserveBatchRow("failed")
		}
		log.Info("batch row finished",
			"row", row.Index,
			"name", result.Name,
			"status", result.Status,
			"elapsed", result.Elapsed.Round(time.Millisecond).String(),
		)
		rep.Rows = append(rep.Rows, result)
		if r.progress != nil {
			r.progress(result)
		}
	}

	if len(files) > 0 {
		zipped, err := reports.Bundle(files)
		if err != nil {
			return rep, fmt.Errorf("bundle plans: %w", err)
		}
		key := BundleKey(rep.RunID)
		if _, err := r.store.PutObject(ctx, key, zipped, contentZip); err != nil {
			return rep, fmt.Errorf("store bundle: %w", err)
		}
		rep.BundleKey = key
	}
	rep.FinishedAt = r.now().UTC()

	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return rep, err
	}
	if _, err := r.store.PutObject(ctx, ReportKey(rep.RunID), raw, contentJSON); err != nil {
		return rep, fmt.Errorf("store run report: %w", err)
	}

	log.Info("batch run finished", "succeeded", rep.Succeeded(), "rows", len(rep.Rows))
	return rep, nil
}

func (r *Runner) runRow(ctx context.Context, row Row) (RowResult, []byte) {
	start := r.now()
	result := RowResult{
		Index: row.Index,
		Name:  SanitizeName(row.Name(), fmt.Sprintf("user_%d", row.Index)),
	}
	finish := func(status string) {
		result.Status = status
		result.Elapsed = r.now().Sub(start)
	}

	p, err := ToProfile(row)
	if err != nil {
		finish(failed(reason(err)))
		return result, nil
	}

	res, err := r.gen.Generate(ctx, p)
	if res != nil {
		result.Attempts = len(res.Attempts)
		result.Relaxation = res.Relaxation.String()
	}
	if err != nil {
		finish(failed(reason(err)))
		return result, nil
	}

	pdf, err := r.renderer.PDF(res.Plan, reports.Meta{
		Name:        p.Name,
		Targets:     res.Targets,
		Report:      res.Report,
		Relaxation:  res.Relaxation.String(),
		GeneratedAt: r.now(),
	})
	if err != nil {
		finish(failed("pdf error"))
		return result, nil
	}

	result.OK = true
	finish(StatusOK)
	return result, pdf
}

func failed(reason string) string {
	return "FAILED (" + reason + ")"
}

func reason(err error) string {
	switch {
	case errors.Is(err, profiles.ErrInvalidProfile):
		return "invalid profile"
	case errors.Is(err, candidates.ErrInsufficientCandidates):
		return "insufficient candidates"
	case errors.Is(err, acquisition.ErrExhausted):
		return "validation failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "generation error"
}

// uniqueName suffixes repeated names: Asha, Asha_2, Asha_3.
func uniqueName(used map[string]int, name string) string {
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return name
}

// ReadReport loads a stored run report.
func ReadReport(ctx context.Context, store blob.Store, runID string) (*Report, error) {
	raw, err := store.GetObject(ctx, ReportKey(runID))
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode run report: %w", err)
	}
	return &rep, nil
}
