package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Lllllllleong/questiontitler/internal/gcp"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TitlerConfig holds all configuration for the question titler and the backfill.
type TitlerConfig struct {
	ProjectID         string
	DatabaseID        string
	Collection        string
	VertexAIRegion    string
	TitleModel        string
	GeminiAPIKey      string
	GenerationTimeout time.Duration
}

var collectionIDPattern = regexp.MustCompile(`^[^/]+$`)

// LoadConfig loads and validates the environment. ProjectID may stay empty; the Firestore
// client then detects it from credentials.
func LoadConfig() (*TitlerConfig, error) {
	timeout, err := gcp.GetEnvDuration("GENERATION_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config := &TitlerConfig{
		ProjectID:         gcp.GetEnv("PROJECT_ID", ""),
		DatabaseID:        gcp.GetEnv("FIRESTORE_DATABASE", "(default)"),
		Collection:        gcp.GetEnv("QUESTIONS_COLLECTION", "questions"),
		VertexAIRegion:    gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		TitleModel:        gcp.GetEnv("TITLE_MODEL", "gemini-1.5-flash"),
		GeminiAPIKey:      gcp.GetEnv("GEMINI_API_KEY", ""),
		GenerationTimeout: timeout,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks the settings the titler cannot run without. Generative settings are not
// validated here: a broken generator downgrades to deterministic titles instead of failing.
func (c TitlerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DatabaseID, validation.Required),
		validation.Field(&c.Collection, validation.Required, validation.Match(collectionIDPattern)),
		validation.Field(&c.GenerationTimeout, validation.Required, validation.Min(time.Second)),
	)
}

// GenerativeEnabled reports whether a provider credential is configured.
func (c TitlerConfig) GenerativeEnabled() bool {
	return c.GeminiAPIKey != ""
}
