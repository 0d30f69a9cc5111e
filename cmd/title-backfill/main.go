package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/questiontitler/internal/gcp"
	"github.com/Lllllllleong/questiontitler/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	force        bool
	dryRun       bool
	concurrency  int
	reportBucket string
	collection   string
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:   "title-backfill",
		Short: "Derive titles for existing question documents",
		Long: `title-backfill walks the questions collection in Firestore and merges a
title into every document that does not have one yet, using the same title
strategy as the QuestionTitler function (Gemini when GEMINI_API_KEY is set).`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the backfill once",
		RunE:  runBackfill,
	}
	runCmd.Flags().BoolVar(&force, "force", false, "Retitle documents that already have a title")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute titles without writing them")
	runCmd.Flags().IntVar(&concurrency, "concurrency", 8, "Maximum documents processed in parallel")
	runCmd.Flags().StringVar(&reportBucket, "report-bucket", "", "Cloud Storage bucket for the JSON run report")
	runCmd.Flags().StringVar(&collection, "collection", "", "Override QUESTIONS_COLLECTION")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	startedAt := time.Now()

	config, err := services.LoadConfig()
	if err != nil {
		return err
	}
	if collection != "" {
		config.Collection = collection
		if err := config.Validate(); err != nil {
			return fmt.Errorf("invalid --collection: %w", err)
		}
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.DatabaseID)
	if err != nil {
		return err
	}
	defer firestoreClient.Close()

	strategy, closeStrategy := services.NewTitleStrategy(ctx, config)
	defer closeStrategy()

	store := gcp.NewQuestionStore(firestoreClient)
	backfiller := services.NewBackfiller(store, store, strategy, config.Collection)

	report, err := backfiller.Run(ctx, services.BackfillOptions{
		Force:       force,
		DryRun:      dryRun,
		Concurrency: concurrency,
	})
	if err != nil {
		return err
	}

	if reportBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		defer storageClient.Close()

		uri, err := services.SaveBackfillReport(ctx, storageClient, reportBucket, report, startedAt)
		if err != nil {
			return err
		}
		slog.Info("Backfill report saved.", "reportUri", uri)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d updated=%d skipped=%d failed=%d fallbacks=%d\n",
		report.Scanned, report.Updated, report.Skipped, report.Failed, report.Fallbacks)
	return nil
}
