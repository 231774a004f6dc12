// Package batch runs many render requests with per-item isolation.
//
// A failure in one request is recorded and the run moves on. The exception
// is a TRANSPORT_ERROR (the remote renderer cannot be reached): the run
// stops submitting work, and every item not yet started is reported as
// not run instead of failed.
package batch

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/observability"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/request"
)

// Assembler renders one request. *pipeline.Assembler and *client.Client
// implement it.
type Assembler interface {
	Assemble(ctx context.Context, req request.Request) (*pipeline.Result, error)
}

// Status is the outcome of one batch item.
type Status string

// Item outcomes.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusInvalid Status = "invalid" // rejected while decoding the batch input
	StatusAborted Status = "aborted" // hit the transport failure that stopped the run
	StatusNotRun  Status = "not_run" // never started
)

// Item is the report for one input record, in input order.
type Item struct {
	Index    int           `json:"index" bson:"index"`
	Label    string        `json:"label" bson:"label"`
	Status   Status        `json:"status" bson:"status"`
	Output   string        `json:"output,omitempty" bson:"output,omitempty"`
	Path     string        `json:"path,omitempty" bson:"path,omitempty"`
	Pages    int           `json:"pages,omitempty" bson:"pages,omitempty"`
	CacheHit bool          `json:"cache_hit,omitempty" bson:"cache_hit,omitempty"`
	Code     errors.Code   `json:"code,omitempty" bson:"code,omitempty"`
	Message  string        `json:"message,omitempty" bson:"message,omitempty"`
	Duration time.Duration `json:"duration" bson:"duration"`
}

// Summary reports a whole run. Every item is counted exactly once:
// Total = Succeeded + Failed + AbortedItems + NotRun.
type Summary struct {
	ID           string    `json:"id" bson:"_id"`
	StartedAt    time.Time `json:"started_at" bson:"started_at"`
	FinishedAt   time.Time `json:"finished_at" bson:"finished_at"`
	Total        int       `json:"total" bson:"total"`
	Succeeded    int       `json:"succeeded" bson:"succeeded"`
	Failed       int       `json:"failed" bson:"failed"`
	AbortedItems int       `json:"aborted_items" bson:"aborted_items"` // ran and hit the transport failure
	NotRun       int       `json:"not_run" bson:"not_run"`             // never started
	Aborted      bool      `json:"aborted" bson:"aborted"`
	AbortErr     string    `json:"abort_error,omitempty" bson:"abort_error,omitempty"`
	Items        []Item    `json:"items" bson:"items"`
}

// Failures returns the items that did not succeed.
func (s Summary) Failures() []Item {
	var out []Item
	for _, it := range s.Items {
		if it.Status != StatusOK {
			out = append(out, it)
		}
	}
	return out
}

// Runner executes batches.
type Runner struct {
	Assembler Assembler
	Workers   int // <= 1 runs items one after another
	Logger    *log.Logger
}

// NewRunner returns a runner. A nil logger discards output.
func NewRunner(a Assembler, workers int, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Assembler: a, Workers: workers, Logger: logger}
}

// entry is one input position: a request to run or a record already rejected.
type entry struct {
	req     *request.Request
	skipped *request.Skipped
}

// Run processes reqs in input order. skipped are records rejected while
// decoding the same input; they are slotted back at their input index and
// count as failed. Cancelling ctx stops submitting items; items in flight
// finish.
func (r *Runner) Run(ctx context.Context, reqs []request.Request, skipped ...request.Skipped) Summary {
	entries := merge(reqs, skipped)
	sum := Summary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Total:     len(entries),
		Items:     make([]Item, len(entries)),
	}
	observability.Batch().OnBatchStart(ctx, sum.ID, sum.Total)
	r.Logger.Info("batch started", "batch", sum.ID, "requests", sum.Total, "workers", max(r.Workers, 1))

	var (
		aborted  atomic.Bool
		abortMu  sync.Mutex
		abortErr error
	)
	run := func(i int) {
		e := entries[i]
		if e.skipped != nil {
			sum.Items[i] = Item{
				Index:   i,
				Label:   e.skipped.Label,
				Status:  StatusInvalid,
				Code:    errors.CodeOf(e.skipped.Err),
				Message: e.skipped.Reason,
			}
			observability.Batch().OnBatchItem(ctx, sum.ID, i, string(sum.Items[i].Code), 0)
			return
		}
		if aborted.Load() || ctx.Err() != nil {
			sum.Items[i] = Item{Index: i, Label: e.req.Label(), Status: StatusNotRun}
			return
		}

		start := time.Now()
		res, err := r.Assembler.Assemble(ctx, *e.req)
		it := Item{Index: i, Label: e.req.Label(), Duration: time.Since(start)}
		switch {
		case err == nil:
			it.Status, it.Output, it.Path, it.Pages, it.CacheHit = StatusOK, res.Output, res.Path, res.Pages, res.CacheHit
			r.Logger.Info("rendered", "item", i+1, "output", res.Output, "pages", res.Pages, "duration", it.Duration)
		case errors.IsTransport(err):
			it.Status, it.Code, it.Message = StatusAborted, errors.ErrCodeTransport, errors.UserMessage(err)
			if aborted.CompareAndSwap(false, true) {
				abortMu.Lock()
				abortErr = err
				abortMu.Unlock()
				r.Logger.Error("renderer unreachable, aborting batch", "item", i+1, "err", err)
			}
		default:
			it.Status, it.Code, it.Message = StatusFailed, errors.CodeOf(err), errors.UserMessage(err)
			r.Logger.Error("render failed", "item", i+1, "request", it.Label, "code", it.Code, "err", err)
		}
		sum.Items[i] = it
		observability.Batch().OnBatchItem(ctx, sum.ID, i, string(it.Code), it.Duration)
	}

	if r.Workers <= 1 {
		for i := range entries {
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.Workers)
		for i := range entries {
			if entries[i].req != nil && (aborted.Load() || ctx.Err() != nil) {
				run(i) // records not_run without occupying a worker
				continue
			}
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, it := range sum.Items {
		switch it.Status {
		case StatusOK:
			sum.Succeeded++
		case StatusFailed, StatusInvalid:
			sum.Failed++
		case StatusAborted:
			sum.AbortedItems++
		default:
			sum.NotRun++
		}
	}
	if abortErr != nil {
		sum.Aborted = true
		sum.AbortErr = abortErr.Error()
	}
	sum.FinishedAt = time.Now()

	observability.Batch().OnBatchComplete(ctx, sum.ID, sum.Succeeded, sum.Failed, sum.Aborted)
	r.Logger.Info("batch finished", "batch", sum.ID,
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed,
		"aborted", sum.AbortedItems, "not_run", sum.NotRun,
		"duration", sum.FinishedAt.Sub(sum.StartedAt))
	return sum
}

// merge interleaves skipped records back into their input positions.
func merge(reqs []request.Request, skipped []request.Skipped) []entry {
	sk := append([]request.Skipped(nil), skipped...)
	sort.SliceStable(sk, func(i, j int) bool { return sk[i].Index < sk[j].Index })

	total := len(reqs) + len(sk)
	out := make([]entry, 0, total)
	ri, si := 0, 0
	for len(out) < total {
		if si < len(sk) && (sk[si].Index <= len(out) || ri == len(reqs)) {
			out = append(out, entry{skipped: &sk[si]})
			si++
			continue
		}
		out = append(out, entry{req: &reqs[ri]})
		ri++
	}
	return out
}
