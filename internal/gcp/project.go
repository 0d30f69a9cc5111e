package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/compute/metadata"
	"golang.org/x/oauth2/google"
)

// ErrProjectNotFound is returned when neither credentials nor the metadata server name a project.
var ErrProjectNotFound = errors.New("could not detect a Google Cloud project ID")

// DetectProjectID resolves the project when PROJECT_ID is unset: from GOOGLE_CLOUD_PROJECT,
// then Application Default Credentials, then the metadata server on GCP.
func DetectProjectID(ctx context.Context) (string, error) {
	if projectID := os.Getenv("GOOGLE_CLOUD_PROJECT"); projectID != "" {
		return projectID, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err == nil && creds.ProjectID != "" {
		return creds.ProjectID, nil
	}

	if metadata.OnGCE() {
		projectID, mdErr := metadata.ProjectIDWithContext(ctx)
		if mdErr != nil {
			return "", fmt.Errorf("metadata.ProjectIDWithContext: %w", mdErr)
		}
		if projectID != "" {
			return projectID, nil
		}
	}
	return "", ErrProjectNotFound
}
