package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopops/pickticket/constants"
	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/order"
	"github.com/shopops/pickticket/internal/printer"
)

// Renderer generates the printable document for one order.
type Renderer interface {
	Render(o order.Order, templateID string) ([]byte, error)
	// Preload resolves and parses the template without rendering, so a
	// missing template aborts the batch before any order is dispatched.
	Preload(templateID string) error
}

// Tagger commits the "printed" marker to an order. The commit is
// idempotent at the remote source.
type Tagger interface {
	MarkPrinted(ctx context.Context, orderID string) error
}

// Executor drives a batch through render -> print -> tag with a bounded
// worker pool. Orders are independent: one order's failure never aborts
// the rest, and aggregate state is owned by a single collector.
type Executor struct {
	renderer      Renderer
	sink          printer.Sink
	tagger        Tagger
	logger        *slog.Logger
	workers       int
	printAttempts int
}

type Option func(*Executor)

func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithPrintAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.printAttempts = n
		}
	}
}

func NewExecutor(renderer Renderer, sink printer.Sink, tagger Tagger, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		renderer:      renderer,
		sink:          sink,
		tagger:        tagger,
		logger:        logger,
		workers:       4,
		printAttempts: 3,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run processes every order in the batch and returns the full report.
// Duplicate order IDs in the input are processed once. Cancelling ctx
// stops dispatch immediately; orders already printed still complete
// their tag call so no physical print goes unrecorded.
func (e *Executor) Run(ctx context.Context, job *Job, orders []order.Order) (Report, error) {
	report := Report{BatchID: job.ID, StartedAt: time.Now().UTC()}

	if err := e.renderer.Preload(job.TemplateID); err != nil {
		return report, common.WrapError(err, "preload template")
	}

	deduped := dedupe(orders)
	if len(deduped) < len(orders) {
		e.logger.Info("batch.dedupe", "batch_id", job.ID, "dropped", len(orders)-len(deduped))
	}

	feed := make(chan order.Order)
	results := make(chan Result, len(deduped))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for o := range feed {
				results <- e.processOrder(ctx, job, o, workerID)
			}
		}(i + 1)
	}

	// Collector owns all aggregate state.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			report.Results = append(report.Results, res)
			if res.Outcome == constants.OutcomeFailed {
				e.logger.Warn("batch.order.failed",
					"batch_id", job.ID,
					"order_id", res.OrderID,
					"order_name", res.OrderName,
					"stage", string(res.Stage),
					"reason", res.Reason,
				)
			} else {
				e.logger.Info("batch.order.done",
					"batch_id", job.ID,
					"order_id", res.OrderID,
					"order_name", res.OrderName,
					"outcome", string(res.Outcome),
				)
			}
		}
	}()

	dispatched := 0
dispatch:
	for _, o := range deduped {
		select {
		case <-ctx.Done():
			e.logger.Warn("batch.cancelled", "batch_id", job.ID, "dispatched", dispatched, "total", len(deduped))
			break dispatch
		case feed <- o:
			dispatched++
		}
	}
	close(feed)

	// Orders never handed to a worker still get a reported outcome.
	for _, o := range deduped[dispatched:] {
		results <- Result{
			OrderID:     o.ID,
			OrderName:   o.Name,
			Outcome:     constants.OutcomeFailed,
			Stage:       constants.StageDispatch,
			Reason:      "batch cancelled before dispatch",
			CompletedAt: time.Now().UTC(),
		}
	}

	wg.Wait()
	close(results)
	<-done

	report.FinishedAt = time.Now().UTC()
	report.sortResults()

	e.logger.Info("batch.complete",
		"batch_id", job.ID,
		"orders", len(report.Results),
		"tagged", report.Count(constants.OutcomeTagged),
		"printed", report.Count(constants.OutcomePrinted),
		"failed", report.Count(constants.OutcomeFailed),
		"elapsed_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

// processOrder walks one order through the pipeline. The outcome moves
// strictly forward: PENDING -> RENDERED -> PRINTED -> TAGGED, or to
// FAILED at whichever stage broke.
func (e *Executor) processOrder(ctx context.Context, job *Job, o order.Order, workerID int) (res Result) {
	res = Result{OrderID: o.ID, OrderName: o.Name, Outcome: constants.OutcomePending}
	defer func() {
		res.CompletedAt = time.Now().UTC()
	}()

	fail := func(stage constants.Stage, err error) Result {
		res.Outcome = constants.OutcomeFailed
		res.Stage = stage
		res.Reason = err.Error()
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(constants.StageDispatch, errors.New("batch cancelled before dispatch"))
	}

	doc, err := e.renderer.Render(o, job.TemplateID)
	if err != nil {
		return fail(constants.StageRender, err)
	}
	res.Outcome = constants.OutcomeRendered
	e.logger.Debug("batch.order.rendered", "worker_id", workerID, "order_name", o.Name, "bytes", len(doc))

	if err := e.printWithRetry(ctx, job, o, doc); err != nil {
		return fail(constants.StagePrint, err)
	}
	res.Outcome = constants.OutcomePrinted

	if !job.TagPrinted {
		return res
	}

	// The order is physically printed now. Even if the batch was
	// cancelled mid-flight, the tag call runs to completion so the
	// print is recorded upstream; the HTTP timeout still bounds it.
	if err := e.tagger.MarkPrinted(context.WithoutCancel(ctx), o.ID); err != nil {
		// Reported distinctly from print failures: the paper exists,
		// only the marker is missing. Retrying the batch re-prints.
		return fail(constants.StageTag, err)
	}
	res.Outcome = constants.OutcomeTagged
	return res
}

func (e *Executor) printWithRetry(ctx context.Context, job *Job, o order.Order, doc []byte) error {
	var lastErr error
	for attempt := 1; attempt <= e.printAttempts; attempt++ {
		if err := ctx.Err(); err != nil && attempt > 1 {
			break
		}
		lastErr = e.sink.Submit(ctx, printer.Document{
			Name:    o.Name,
			Content: doc,
			Printer: job.Printer,
			Copies:  job.Copies,
		})
		if lastErr == nil {
			return nil
		}
		e.logger.Warn("batch.print.retry",
			"order_name", o.Name,
			"attempt", attempt,
			"max_attempts", e.printAttempts,
			"error", lastErr,
		)
	}
	return fmt.Errorf("%w: %v", common.ErrPrinterFailure, lastErr)
}

// dedupe drops repeated order IDs, keeping the first occurrence.
// Pagination tolerates duplicates across page boundaries; this is where
// they are resolved.
func dedupe(orders []order.Order) []order.Order {
	seen := make(map[string]struct{}, len(orders))
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}
