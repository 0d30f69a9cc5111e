package services

import (
	"fmt"
	"mime"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/googleapis/google-cloudevents-go/cloud/firestoredata"
	"github.com/Lllllllleong/questiontitler/internal/models"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// DecodeEvent decodes the data of a Firestore CloudEvent. Eventarc delivers protobuf by default;
// triggers configured for JSON set an application/json content type.
func DecodeEvent(e cloudevents.Event) (models.DocumentEvent, error) {
	mediaType, _, _ := mime.ParseMediaType(e.DataContentType())
	if mediaType == cloudevents.ApplicationJSON {
		return DecodeJSON(e.Data())
	}
	return Decode(e.Data())
}

// Decode parses a protobuf-encoded DocumentEventData payload.
func Decode(raw []byte) (models.DocumentEvent, error) {
	var data firestoredata.DocumentEventData
	options := proto.UnmarshalOptions{DiscardUnknown: true}
	if err := options.Unmarshal(raw, &data); err != nil {
		return models.DocumentEvent{}, fmt.Errorf("%w: proto.Unmarshal: %v", ErrMalformedEvent, err)
	}
	return projectEvent(&data), nil
}

// DecodeJSON parses a protojson-encoded DocumentEventData payload.
func DecodeJSON(raw []byte) (models.DocumentEvent, error) {
	var data firestoredata.DocumentEventData
	options := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := options.Unmarshal(raw, &data); err != nil {
		return models.DocumentEvent{}, fmt.Errorf("%w: protojson.Unmarshal: %v", ErrMalformedEvent, err)
	}
	return projectEvent(&data), nil
}

// projectEvent copies the wire message into the plain models representation.
// Missing substructure yields empty values rather than an error.
func projectEvent(data *firestoredata.DocumentEventData) models.DocumentEvent {
	event := models.DocumentEvent{
		Value:      projectDocument(data.GetValue()),
		UpdateMask: data.GetUpdateMask().GetFieldPaths(),
	}
	if old := data.GetOldValue(); old != nil {
		snapshot := projectDocument(old)
		event.OldValue = &snapshot
	}
	return event
}

func projectDocument(doc *firestoredata.Document) models.Snapshot {
	return models.Snapshot{
		ResourceName: doc.GetName(),
		Fields:       projectFields(doc.GetFields()),
	}
}

func projectFields(fields map[string]*firestoredata.Value) map[string]models.FieldValue {
	out := make(map[string]models.FieldValue, len(fields))
	for name, v := range fields {
		out[name] = projectValue(v)
	}
	return out
}

func projectValue(v *firestoredata.Value) models.FieldValue {
	switch t := v.GetValueType().(type) {
	case *firestoredata.Value_BooleanValue:
		return models.FieldValue{Kind: models.KindBoolean, Boolean: t.BooleanValue}
	case *firestoredata.Value_IntegerValue:
		return models.FieldValue{Kind: models.KindInteger, Integer: t.IntegerValue}
	case *firestoredata.Value_DoubleValue:
		return models.FieldValue{Kind: models.KindDouble, Double: t.DoubleValue}
	case *firestoredata.Value_TimestampValue:
		return models.FieldValue{Kind: models.KindTimestamp, Timestamp: t.TimestampValue.AsTime()}
	case *firestoredata.Value_StringValue:
		return models.FieldValue{Kind: models.KindString, String: t.StringValue}
	case *firestoredata.Value_BytesValue:
		return models.FieldValue{Kind: models.KindBytes, Bytes: t.BytesValue}
	case *firestoredata.Value_ReferenceValue:
		return models.FieldValue{Kind: models.KindReference, String: t.ReferenceValue}
	case *firestoredata.Value_GeoPointValue:
		return models.FieldValue{
			Kind:      models.KindGeoPoint,
			Latitude:  t.GeoPointValue.GetLatitude(),
			Longitude: t.GeoPointValue.GetLongitude(),
		}
	case *firestoredata.Value_ArrayValue:
		values := t.ArrayValue.GetValues()
		array := make([]models.FieldValue, 0, len(values))
		for _, item := range values {
			array = append(array, projectValue(item))
		}
		return models.FieldValue{Kind: models.KindArray, Array: array}
	case *firestoredata.Value_MapValue:
		return models.FieldValue{Kind: models.KindMap, Map: projectFields(t.MapValue.GetFields())}
	default:
		// null_value or an unset oneof
		return models.FieldValue{Kind: models.KindNull}
	}
}
