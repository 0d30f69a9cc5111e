package gcp

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Lllllllleong/questiontitler/internal/models"
)

// newEmulatorStore connects to the Firestore emulator, skipping the test when none is configured.
func newEmulatorStore(t *testing.T) (*QuestionStore, string) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set; skipping Firestore integration test")
	}
	ctx := context.Background()
	client, err := NewFirestoreClient(ctx, "question-titler-test", "")
	if err != nil {
		t.Fatalf("NewFirestoreClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	collection := fmt.Sprintf("questions_%d", time.Now().UnixNano())
	return NewQuestionStore(client), collection
}

func TestQuestionStoreWriteTitleMerges(t *testing.T) {
	store, collection := newEmulatorStore(t)
	ctx := context.Background()
	path := collection + "/q1"

	if _, err := store.client.Doc(path).Set(ctx, map[string]interface{}{
		models.QuestionField: "What is the capital of France",
		"author":             "dana",
	}); err != nil {
		t.Fatalf("seeding document: %v", err)
	}

	if err := store.WriteTitle(ctx, path, "What is the capital of France"); err != nil {
		t.Fatalf("WriteTitle() error = %v", err)
	}

	snap, err := store.client.Doc(path).Get(ctx)
	if err != nil {
		t.Fatalf("reading document back: %v", err)
	}
	data := snap.Data()
	if data[models.TitleField] != "What is the capital of France" {
		t.Errorf("title = %v, want merged title", data[models.TitleField])
	}
	if data["author"] != "dana" || data[models.QuestionField] != "What is the capital of France" {
		t.Errorf("merge clobbered existing fields: %v", data)
	}
}

func TestQuestionStoreWriteTitleCreatesMissingDocument(t *testing.T) {
	store, collection := newEmulatorStore(t)
	ctx := context.Background()
	path := collection + "/new-doc"

	if err := store.WriteTitle(ctx, path, "שאלה"); err != nil {
		t.Fatalf("WriteTitle() error = %v", err)
	}
	snap, err := store.client.Doc(path).Get(ctx)
	if err != nil {
		t.Fatalf("reading document back: %v", err)
	}
	if got := snap.Data()[models.TitleField]; got != "שאלה" {
		t.Errorf("title = %v, want placeholder", got)
	}
}

func TestQuestionStoreWriteTitleRejectsCollectionPath(t *testing.T) {
	store, collection := newEmulatorStore(t)
	if err := store.WriteTitle(context.Background(), collection, "title"); err == nil {
		t.Fatal("WriteTitle() with a collection path should fail")
	}
}

func TestQuestionStoreForEachQuestion(t *testing.T) {
	store, collection := newEmulatorStore(t)
	ctx := context.Background()

	seed := map[string]map[string]interface{}{
		"a": {models.QuestionField: "first?", models.TitleField: "first"},
		"b": {models.QuestionField: "second?"},
		"c": {models.QuestionField: 42},
	}
	for id, data := range seed {
		if _, err := store.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
			t.Fatalf("seeding %s: %v", id, err)
		}
	}

	got := map[string]models.QuestionRecord{}
	err := store.ForEachQuestion(ctx, collection, func(r models.QuestionRecord) error {
		got[r.ResourceName] = r
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachQuestion() error = %v", err)
	}
	if len(got) != len(seed) {
		t.Fatalf("ForEachQuestion() visited %d docs, want %d", len(got), len(seed))
	}
	for name, r := range got {
		switch {
		case r.Question == "first?" && r.Title != "first":
			t.Errorf("%s: title = %q, want %q", name, r.Title, "first")
		case r.Question == "" && r.Title != "":
			t.Errorf("%s: non-string question should read as empty, got record %+v", name, r)
		}
	}
}
