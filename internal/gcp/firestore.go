package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/questiontitler/internal/models"
	"google.golang.org/api/iterator"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project and database.
// An empty projectID falls back to the project detected from the environment's credentials,
// an empty databaseID to the default database.
func NewFirestoreClient(ctx context.Context, projectID, databaseID string) (*firestore.Client, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// QuestionStore reads question documents and merges titles back onto them.
type QuestionStore struct {
	client *firestore.Client
}

func NewQuestionStore(client *firestore.Client) *QuestionStore {
	return &QuestionStore{client: client}
}

// WriteTitle sets only the title field of the document at path (relative, e.g. "questions/abc123").
// The document is created if it does not exist; all other fields are preserved.
func (s *QuestionStore) WriteTitle(ctx context.Context, path, title string) error {
	docRef := s.client.Doc(path)
	if docRef == nil {
		return fmt.Errorf("invalid document path %q", path)
	}
	update := map[string]interface{}{models.TitleField: title}
	if _, err := docRef.Set(ctx, update, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge title into %s: %w", path, err)
	}
	return nil
}

// ForEachQuestion streams every document of the collection to fn, stopping at the first error fn returns.
func (s *QuestionStore) ForEachQuestion(ctx context.Context, collection string, fn func(models.QuestionRecord) error) error {
	it := s.client.Collection(collection).Documents(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to iterate collection %s: %w", collection, err)
		}
		data := snap.Data()
		record := models.QuestionRecord{
			ResourceName: snap.Ref.Path,
			Question:     stringField(data, models.QuestionField),
			Title:        stringField(data, models.TitleField),
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func stringField(data map[string]interface{}, name string) string {
	s, _ := data[name].(string)
	return s
}
