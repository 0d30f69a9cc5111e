package services

import "strings"

// documentsRootMarker separates project/database metadata from the collection/document hierarchy
// in a fully-qualified resource name.
const documentsRootMarker = "/documents/"

// ExtractRelativePath returns the part of resourceName after the last documents-root marker,
// e.g. "projects/p/databases/(default)/documents/questions/abc123" -> "questions/abc123".
// It returns "" when the marker is absent.
//
// Precondition: no collection or document ID below the root is literally "documents".
// IDs cannot contain "/", so the marker never occurs inside a single ID.
func ExtractRelativePath(resourceName string) string {
	i := strings.LastIndex(resourceName, documentsRootMarker)
	if i < 0 {
		return ""
	}
	return resourceName[i+len(documentsRootMarker):]
}

// InScope reports whether path lies under the given collection.
func InScope(path, collection string) bool {
	return collection != "" && strings.HasPrefix(path, collection+"/")
}
