package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/supplier-invoices/constants"
	"github.com/joseph-ayodele/supplier-invoices/internal/async"
	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/export"
	"github.com/joseph-ayodele/supplier-invoices/internal/ingest"
	"github.com/joseph-ayodele/supplier-invoices/internal/pipeline"
	repo "github.com/joseph-ayodele/supplier-invoices/internal/repository"
	"github.com/joseph-ayodele/supplier-invoices/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// dryRun routes queue jobs through Normalize so nothing is stored.
type dryRun struct {
	proc *pipeline.Processor
}

func (d dryRun) Process(ctx context.Context, raw []byte, _ pipeline.Options) (*entity.ProcessResult, error) {
	return d.proc.Normalize(ctx, raw)
}

type summary struct {
	mu       sync.Mutex
	stored   int
	review   int
	failed   int
	exporter *export.Service
	outDir   string
	logger   *slog.Logger
}

// record tallies one job outcome and writes its XLSX when an output
// directory is configured. Called from queue workers.
func (s *summary) record(r async.Result) {
	s.mu.Lock()
	switch {
	case r.Err != nil:
		s.failed++
	case r.Result.Status == constants.InvoiceStatusPersisted:
		s.stored++
	}
	if r.Err == nil && r.Result.Invoice.NeedsReview {
		s.review++
	}
	s.mu.Unlock()

	if r.Err != nil || s.exporter == nil || r.Result.Status != constants.InvoiceStatusPersisted {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	xlsx, err := s.exporter.InvoiceItemsXLSX(ctx, r.Result.InvoiceID)
	if err != nil {
		s.logger.Error("failed to export invoice", "source", r.Job.Source, "error", err)
		return
	}
	name := strings.TrimSuffix(r.Job.Source, filepath.Ext(r.Job.Source)) + ".xlsx"
	if err := os.WriteFile(filepath.Join(s.outDir, name), xlsx, 0o644); err != nil {
		s.logger.Error("failed to write XLSX", "path", name, "error", err)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory of extraction JSON files (required)")
		out     = flag.String("out", "", "directory to write one XLSX per stored invoice (optional)")
		dry     = flag.Bool("dry-run", false, "normalize only, store nothing")
		watch   = flag.Bool("watch", false, "keep running and process files as they appear")
		workers = flag.Int("workers", 0, "worker count (defaults to BATCH_WORKERS)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.Driver = repo.DriverSQLite
		cfg.Database.SQLitePath = repo.MemoryPath
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	files, stats, err := ingest.Scan(*dir, nil)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("directory scanned", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched)
	if len(files) == 0 && !*watch {
		logger.Warn("no extraction files found", "dir", *dir)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer store.Close()

	processor, err := server.NewPipeline(store, cfg.Normalize, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	var proc async.Processor = processor
	if *dry {
		proc = dryRun{proc: processor}
	}

	sum := &summary{outDir: *out, logger: logger}
	if *out != "" && !*dry {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			logger.Error("failed to create output directory", "out", *out, "error", err)
			os.Exit(1)
		}
		sum.exporter = export.NewService(repo.NewInvoiceRepository(store, logger), logger)
	}

	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.ProcessTimeout),
		async.WithRateLimit(cfg.Batch.RatePerSecond),
		async.WithResultHandler(sum.record),
	)

	start := time.Now()
	opts := pipeline.Options{AutoCreateSuppliers: cfg.Normalize.AutoCreateSuppliers}
	submit := func(path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read file", "path", path, "error", err)
			return
		}
		job := async.Job{Source: filepath.Base(path), Payload: b, Options: opts, TraceID: filepath.Base(path)}
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Error("failed to enqueue", "path", path, "error", err)
		}
	}
	for _, path := range files {
		submit(path)
	}

	if *watch {
		events, _, err := ingest.Watch(ctx, ingest.WatchConfig{Root: *dir, Debounce: 500 * time.Millisecond}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching for new files", "dir", *dir)
		for path := range events {
			submit(path)
		}
	}
	queue.Shutdown(context.Background())

	logger.Info("batch completed",
		"files", len(files),
		"stored", sum.stored,
		"needs_review", sum.review,
		"failed", sum.failed,
		"dry_run", *dry,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if sum.failed > 0 {
		os.Exit(1)
	}
}
