package models

// Status strings returned by the question titler for a single event.
const (
	StatusOK        = "ok"
	StatusIgnored   = "ignored"
	// StatusUnchanged marks an in-scope update whose question is unchanged on an already titled document.
	StatusUnchanged = "unchanged"
)

// Firestore field names read and written on question documents.
const (
	QuestionField = "question"
	TitleField    = "title"
)

// BackfillReport summarises one run of the title backfill.
// It is also the JSON document saved to Cloud Storage after a run.
type BackfillReport struct {
	Collection string `json:"collection"`
	DryRun     bool   `json:"dryRun"`
	Scanned    int    `json:"scanned"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Fallbacks  int    `json:"fallbacks"`
}
