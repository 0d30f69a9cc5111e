package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/questiontitler/internal/gcp"
	"github.com/Lllllllleong/questiontitler/internal/models"
	"golang.org/x/sync/errgroup"
)

const defaultBackfillConcurrency = 8

// QuestionSource streams the stored documents of a collection.
type QuestionSource interface {
	ForEachQuestion(ctx context.Context, collection string, fn func(models.QuestionRecord) error) error
}

// BackfillOptions controls a single backfill run.
type BackfillOptions struct {
	Force       bool // retitle documents that already have a title
	DryRun      bool
	Concurrency int
}

// Backfiller titles existing question documents with the same strategy and writer as the trigger.
type Backfiller struct {
	source     QuestionSource
	writer     TitleWriter
	strategy   TitleStrategy
	collection string
}

func NewBackfiller(source QuestionSource, writer TitleWriter, strategy TitleStrategy, collection string) *Backfiller {
	return &Backfiller{source: source, writer: writer, strategy: strategy, collection: collection}
}

// Run walks the collection once. Per-document write failures are counted in the report;
// only a failure to iterate the collection is returned as an error.
func (b *Backfiller) Run(ctx context.Context, opts BackfillOptions) (*models.BackfillReport, error) {
	logCtx := slog.With("collection", b.collection, "dryRun", opts.DryRun)
	logCtx.Info("Starting title backfill.", "force", opts.Force)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultBackfillConcurrency
	}

	report := &models.BackfillReport{Collection: b.collection, DryRun: opts.DryRun}
	var mu sync.Mutex
	count := func(fn func(r *models.BackfillReport)) {
		mu.Lock()
		defer mu.Unlock()
		fn(report)
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	iterErr := b.source.ForEachQuestion(gctx, b.collection, func(record models.QuestionRecord) error {
		count(func(r *models.BackfillReport) { r.Scanned++ })

		docPath := ExtractRelativePath(record.ResourceName)
		if !InScope(docPath, b.collection) {
			logCtx.Warn("Skipping document outside the collection.", "resourceName", record.ResourceName)
			count(func(r *models.BackfillReport) { r.Skipped++ })
			return nil
		}
		if record.Title != "" && !opts.Force {
			count(func(r *models.BackfillReport) { r.Skipped++ })
			return nil
		}

		eg.Go(func() error {
			result := b.strategy.MakeTitle(gctx, record.Question)
			if result.Source == SourceFallback {
				count(func(r *models.BackfillReport) { r.Fallbacks++ })
				logCtx.Warn("Title generation failed. Using deterministic title.", "documentPath", docPath, "error", result.FallbackReason)
			}

			if opts.DryRun {
				logCtx.Info("Would update question.", "documentPath", docPath, "title", result.Title)
				count(func(r *models.BackfillReport) { r.Updated++ })
				return nil
			}

			if err := b.writer.WriteTitle(gctx, docPath, result.Title); err != nil {
				logCtx.Error("Failed to write title", "documentPath", docPath, "error", err)
				count(func(r *models.BackfillReport) { r.Failed++ })
				return nil
			}
			count(func(r *models.BackfillReport) { r.Updated++ })
			return nil
		})
		return nil
	})

	// Wait even on iteration failure so no goroutine outlives Run.
	_ = eg.Wait()
	if iterErr != nil {
		logCtx.Error("Backfill aborted", "error", iterErr)
		return report, fmt.Errorf("backfill of %s aborted: %w", b.collection, iterErr)
	}

	logCtx.Info("Title backfill complete.",
		"scanned", report.Scanned,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"fallbacks", report.Fallbacks,
	)
	return report, nil
}

// BackfillReportObject names the report object for a run started at the given time.
func BackfillReportObject(startedAt time.Time) string {
	return fmt.Sprintf("backfill/%s.json", startedAt.UTC().Format(time.RFC3339))
}

// SaveBackfillReport stores the report as JSON in the bucket and returns its gs:// URI.
func SaveBackfillReport(ctx context.Context, client *storage.Client, bucket string, report *models.BackfillReport, startedAt time.Time) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backfill report: %w", err)
	}

	objectName := BackfillReportObject(startedAt)
	if err := gcp.SaveToGCSAtomically(ctx, client.Bucket(bucket), objectName, "application/json", body); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", bucket, objectName), nil
}
