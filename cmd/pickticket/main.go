package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopops/pickticket/constants"
	"github.com/shopops/pickticket/internal/batch"
	"github.com/shopops/pickticket/internal/common"
	"github.com/shopops/pickticket/internal/export"
	"github.com/shopops/pickticket/internal/order"
	"github.com/shopops/pickticket/internal/printer"
	"github.com/shopops/pickticket/internal/render"
	"github.com/shopops/pickticket/internal/repository"
	"github.com/shopops/pickticket/internal/shopify"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		filter       = flag.String("filter", "", "order filter expression (default: unprinted open orders)")
		pageSize     = flag.Int("page-size", 50, "orders per page, capped at the API maximum")
		limit        = flag.Int("limit", 0, "stop after this many orders (0 = no limit)")
		fromStr      = flag.String("from", "", "from date YYYY-MM-DD (overrides --filter)")
		toStr        = flag.String("to", "", "to date YYYY-MM-DD (overrides --filter)")
		templateID   = flag.String("template", render.DefaultTemplateID, "document template ID")
		templatesDir = flag.String("templates-dir", "", "directory with a templates.yaml manifest (default: built-in templates)")
		printerName  = flag.String("printer", "", "target printer (default: sink default)")
		copies       = flag.Int("copies", 0, "copies per order (default from PRINT_COPIES)")
		workers      = flag.Int("workers", 0, "worker pool size (default from BATCH_WORKERS)")
		noTag        = flag.Bool("no-tag", false, "skip marking printed orders")
		dryRun       = flag.Bool("dry-run", false, "render only: discard documents, skip tagging")
		out          = flag.String("out", "", "report file path, .xlsx or .csv (optional)")
	)
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Load configuration
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if *copies > 0 {
		cfg.Print.Copies = *copies
	}
	if *printerName != "" {
		cfg.Print.Printer = *printerName
	}

	// Resolve filter: an explicit date window wins over --filter.
	query := *filter
	if *fromStr != "" || *toStr != "" {
		var from, to time.Time
		var err error
		if *fromStr != "" {
			if from, err = time.Parse("2006-01-02", *fromStr); err != nil {
				printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
				os.Exit(1)
			}
		}
		if *toStr != "" {
			if to, err = time.Parse("2006-01-02", *toStr); err != nil {
				printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
				os.Exit(1)
			}
		}
		query = shopify.DateRangeFilter(from, to)
	}

	// Wire template store
	var store render.Store
	if *templatesDir != "" {
		fsStore, err := render.NewFSStore(*templatesDir)
		if err != nil {
			logger.Error("failed to open template store", "dir", *templatesDir, "error", err)
			os.Exit(1)
		}
		store = fsStore
	} else {
		store = render.NewEmbeddedStore()
	}

	// Wire clients and pipeline
	client := shopify.NewClient(cfg.Shopify, logger)
	renderer := render.NewRenderer(store, logger)

	var sink printer.Sink
	if *dryRun {
		sink = printer.NewNopSink(logger)
	} else {
		fileSink, err := printer.NewFileSink(cfg.Print.OutputDir, logger)
		if err != nil {
			logger.Error("failed to create print sink", "error", err)
			os.Exit(1)
		}
		sink = fileSink
	}

	tagging := cfg.Batch.TagPrinted && !*noTag && !*dryRun

	// Fetch: paginate summaries, then pull full details per order.
	logger.Info("fetching orders", "filter", query, "page_size", *pageSize, "limit", *limit)
	orders, skipped, err := fetchOrders(ctx, client, query, *pageSize, *limit, logger)
	if err != nil {
		logger.Error("failed to fetch orders", "error", err)
		os.Exit(1)
	}
	if len(orders) == 0 && len(skipped) == 0 {
		fmt.Println("No orders matched the filter.")
		return
	}

	// Execute batch
	job, err := batch.NewJob(*templateID, cfg.Print.Printer, cfg.Print.Copies, tagging)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	executor := batch.NewExecutor(renderer, sink, client, logger,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithPrintAttempts(cfg.Batch.PrintAttempts),
	)

	report, err := executor.Run(common.WithBatchID(ctx, job.ID.String()), job, orders)
	if err != nil {
		logger.Error("batch aborted", "error", err)
		os.Exit(1)
	}
	report.Add(skipped...)

	// Write report file
	if *out != "" {
		if err := writeReport(*out, report, logger); err != nil {
			logger.Error("failed to write report", "path", *out, "error", err)
			os.Exit(1)
		}
	}

	// Persist audit rows when a report database is configured.
	if cfg.Report.DBPath != "" {
		if err := persistReport(ctx, cfg.Report.DBPath, report, logger); err != nil {
			logger.Error("failed to persist report", "error", err)
			os.Exit(1)
		}
	}

	// Human summary
	fmt.Printf("Batch %s complete!\n", job.ID)
	fmt.Printf("- Orders processed: %d\n", len(report.Results))
	fmt.Printf("- Tagged: %d\n", report.Count(constants.OutcomeTagged))
	fmt.Printf("- Printed (untagged): %d\n", report.Count(constants.OutcomePrinted))
	fmt.Printf("- Failed: %d\n", report.Count(constants.OutcomeFailed))
	if *out != "" {
		fmt.Printf("- Report: %s\n", *out)
	}
	if n := report.UntaggedPrints(); n > 0 {
		fmt.Printf("WARNING: %d order(s) printed but not tagged. Retrying the batch re-prints them.\n", n)
	}
}

// fetchOrders paginates the order source, deduplicates on order ID across
// page boundaries, and normalizes each order's detail record. Orders that
// fail fetch or normalization come back as pre-failed results so the
// final report still enumerates them.
func fetchOrders(ctx context.Context, client *shopify.Client, query string, pageSize, limit int, logger *slog.Logger) ([]order.Order, []batch.Result, error) {
	var (
		orders  []order.Order
		skipped []batch.Result
		cursor  shopify.PageCursor
		seen    = make(map[string]struct{})
	)

	for {
		page, err := client.FetchPage(ctx, query, pageSize, cursor)
		if err != nil {
			return nil, nil, err
		}

		for _, summary := range page.Orders {
			if _, ok := seen[summary.ID]; ok {
				continue
			}
			seen[summary.ID] = struct{}{}

			detail, err := client.FetchOne(ctx, summary.ID)
			if err == nil {
				var o order.Order
				if o, err = order.Normalize(detail); err == nil {
					orders = append(orders, o)
					continue
				}
			}
			logger.Warn("skipping order", "order_id", summary.ID, "order_name", summary.Name, "error", err)
			skipped = append(skipped, batch.Result{
				OrderID:     summary.ID,
				OrderName:   summary.Name,
				Outcome:     constants.OutcomeFailed,
				Stage:       constants.StageDispatch,
				Reason:      err.Error(),
				CompletedAt: time.Now().UTC(),
			})
		}

		if limit > 0 && len(orders) >= limit {
			orders = orders[:limit]
			break
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	logger.Info("orders fetched", "normalized", len(orders), "skipped", len(skipped))
	return orders, skipped, nil
}

func writeReport(path string, report batch.Report, logger *slog.Logger) error {
	svc := export.NewService(logger)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		data, err := svc.WriteXLSX(report)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		return svc.WriteCSV(f, report)
	default:
		return fmt.Errorf("unsupported report format %q, use .xlsx or .csv", filepath.Ext(path))
	}
}

func persistReport(ctx context.Context, dbPath string, report batch.Report, logger *slog.Logger) error {
	db, err := repository.Open(ctx, dbPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	store, err := repository.NewReportStore(ctx, db, logger)
	if err != nil {
		return err
	}
	return store.SaveReport(ctx, report)
}
