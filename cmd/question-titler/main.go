package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/Lllllllleong/questiontitler/internal/gcp"
	"github.com/Lllllllleong/questiontitler/internal/services"
)

var (
	titlerInstance *services.TitlerFunction
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "QuestionTitler" is the entry point name configured on the Firestore trigger.
	functions.CloudEvent("QuestionTitler", titleQuestion)
}

// main serves the registered function locally; FUNCTION_TARGET selects it when more than one is registered.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Function framework exited", "error", err)
		os.Exit(1)
	}
}

// titleQuestion is the Cloud Function entry point for Firestore document-written events.
func titleQuestion(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for one-time initialization of clients.
	once.Do(func() {
		titlerInstance, initErr = services.NewTitler(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	status, err := titlerInstance.Process(ctx, e)
	if err != nil {
		// Already logged with context in Process. Returning it marks the invocation as failed.
		return err
	}
	slog.Info("Event handled.", "eventId", e.ID(), "status", status)
	return nil
}
