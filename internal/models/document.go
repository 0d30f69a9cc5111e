package models

import "time"

// FieldKind identifies which variant of a FieldValue is populated.
type FieldKind int

const (
	KindNull FieldKind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindTimestamp
	KindString
	KindBytes
	KindReference
	KindGeoPoint
	KindArray
	KindMap
)

// FieldValue is a typed Firestore field value, decoupled from the event wire schema.
// Reference values are carried in String; geo points in Latitude/Longitude.
type FieldValue struct {
	Kind      FieldKind
	Boolean   bool
	Integer   int64
	Double    float64
	Timestamp time.Time
	String    string
	Bytes     []byte
	Latitude  float64
	Longitude float64
	Array     []FieldValue
	Map       map[string]FieldValue
}

// StringValue returns the value if it is string-typed, otherwise "".
func (v FieldValue) StringValue() string {
	if v.Kind != KindString {
		return ""
	}
	return v.String
}

// Snapshot is one decoded document state carried by a change event.
type Snapshot struct {
	ResourceName string
	Fields       map[string]FieldValue
}

// StringField returns the named string field, or "" when it is absent or not a string.
func (s Snapshot) StringField(name string) string {
	return s.Fields[name].StringValue()
}

// DocumentEvent is the decoded form of a Firestore "document written" event.
// OldValue is nil for creates.
type DocumentEvent struct {
	Value      Snapshot
	OldValue   *Snapshot
	UpdateMask []string
}

// QuestionRecord is a stored question document as read by the backfill.
type QuestionRecord struct {
	ResourceName string
	Question     string
	Title        string
}
