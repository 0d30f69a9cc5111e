package services

import (
	"context"
	"fmt"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/Lllllllleong/questiontitler/internal/gcp"
	"github.com/Lllllllleong/questiontitler/internal/models"
)

// Values of the "reason" log attribute on skipped events.
const (
	skipOutOfScope        = "out_of_scope"
	skipQuestionUnchanged = "question_unchanged"
)

// TitleWriter merges a title into the document at a relative path.
type TitleWriter interface {
	WriteTitle(ctx context.Context, path, title string) error
}

// TitlerFunction holds the dependencies for titling question documents.
type TitlerFunction struct {
	strategy TitleStrategy
	writer   TitleWriter
	config   TitlerConfig
}

// NewTitler creates a TitlerFunction from the environment. Only configuration and Firestore
// failures are returned; a generator that cannot start leaves deterministic titles active.
func NewTitler(ctx context.Context) (*TitlerFunction, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	strategy, _ := NewTitleStrategy(ctx, config)
	f := NewTitlerFunction(*config, strategy, gcp.NewQuestionStore(firestoreClient))
	slog.Info("Question titler initialized.", "collection", config.Collection, "database", config.DatabaseID)
	return f, nil
}

func NewTitlerFunction(config TitlerConfig, strategy TitleStrategy, writer TitleWriter) *TitlerFunction {
	return &TitlerFunction{strategy: strategy, writer: writer, config: config}
}

// GeneratorFactory builds the text generator behind the generative strategy. The returned
// cleanup releases it.
type GeneratorFactory func(ctx context.Context, config *TitlerConfig) (TextGenerator, func(), error)

// NewVertexGenerator is the production GeneratorFactory. An empty ProjectID is detected from
// the environment, as the Firestore client does.
func NewVertexGenerator(ctx context.Context, config *TitlerConfig) (TextGenerator, func(), error) {
	projectID := config.ProjectID
	if projectID == "" {
		detected, err := gcp.DetectProjectID(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve project for vertex client: %w", err)
		}
		projectID = detected
	}

	vertexClient, err := gcp.NewVertexClient(ctx, projectID, config.VertexAIRegion, config.TitleModel, config.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}
	return vertexClient, func() { _ = vertexClient.Close() }, nil
}

// NewTitleStrategy resolves the title strategy once for the process. The returned cleanup
// releases the generator, if one was created.
func NewTitleStrategy(ctx context.Context, config *TitlerConfig) (TitleStrategy, func()) {
	return NewTitleStrategyWith(ctx, config, NewVertexGenerator)
}

// NewTitleStrategyWith selects the generative strategy when a credential is configured and
// newGenerator succeeds; otherwise deterministic titles.
func NewTitleStrategyWith(ctx context.Context, config *TitlerConfig, newGenerator GeneratorFactory) (TitleStrategy, func()) {
	noop := func() {}
	if !config.GenerativeEnabled() {
		slog.Info("No provider credential configured. Using deterministic titles.")
		return SimpleTitler{}, noop
	}

	generator, cleanup, err := newGenerator(ctx, config)
	if err != nil {
		slog.Warn("Generative title model unavailable. Using deterministic titles.", "error", err)
		return SimpleTitler{}, noop
	}
	if cleanup == nil {
		cleanup = noop
	}
	slog.Info("Generative titles enabled.", "model", config.TitleModel, "region", config.VertexAIRegion, "timeout", config.GenerationTimeout.String())
	return NewGenerativeTitler(generator, config.GenerationTimeout), cleanup
}

// Process handles one Firestore change event and returns StatusOK, StatusIgnored for documents
// outside the collection, or StatusUnchanged when the question did not change.
// Decode and store failures are returned so the trigger runtime can redeliver.
func (f *TitlerFunction) Process(ctx context.Context, e cloudevents.Event) (string, error) {
	logCtx := slog.With("eventId", e.ID(), "eventType", e.Type())

	event, err := DecodeEvent(e)
	if err != nil {
		logCtx.Error("Failed to decode event data", "error", err, "contentType", e.DataContentType())
		return "", err
	}
	return f.processDocument(ctx, logCtx, event)
}

func (f *TitlerFunction) processDocument(ctx context.Context, logCtx *slog.Logger, event models.DocumentEvent) (string, error) {
	docPath := ExtractRelativePath(event.Value.ResourceName)
	if !InScope(docPath, f.config.Collection) {
		logCtx.Info("Skip non-questions path.", "documentPath", docPath, "reason", skipOutOfScope)
		return models.StatusIgnored, nil
	}
	logCtx = logCtx.With("documentPath", docPath)

	question := event.Value.StringField(models.QuestionField)
	if isOwnWrite(event, question) {
		logCtx.Info("Question unchanged and title present. Skipping.", "reason", skipQuestionUnchanged)
		return models.StatusUnchanged, nil
	}

	result := f.strategy.MakeTitle(ctx, question)
	if result.Source == SourceFallback {
		logCtx.Warn("Title generation failed. Using deterministic title.", "error", result.FallbackReason)
	}

	if err := f.writer.WriteTitle(ctx, docPath, result.Title); err != nil {
		logCtx.Error("Failed to write title", "error", err)
		return "", &StoreError{Path: docPath, Err: err}
	}

	logCtx.Info("Updated question with title.", "title", result.Title, "titleSource", result.Source)
	return models.StatusOK, nil
}

// isOwnWrite reports whether the event is an update that left the question untouched on a
// document that already has a title, such as the event raised by our own title write.
func isOwnWrite(event models.DocumentEvent, question string) bool {
	if event.OldValue == nil {
		return false
	}
	return event.Value.StringField(models.TitleField) != "" &&
		event.OldValue.StringField(models.QuestionField) == question
}
