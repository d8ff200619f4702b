// Package content defines the schemaless document repository that holds
// orders, membership applications and binary assets.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Reserved document fields
const (
	FieldID        = "_id"
	FieldType      = "_type"
	FieldCreatedAt = "_createdAt"
	FieldUpdatedAt = "_updatedAt"
)

// ErrDocumentNotFound is returned when a document does not exist
var ErrDocumentNotFound = errors.New("content: document not found")

// Document is a schemaless record. Values are JSON-compatible.
type Document map[string]any

// ID returns the document id
func (d Document) ID() string {
	return d.String(FieldID)
}

// Type returns the document type
func (d Document) Type() string {
	return d.String(FieldType)
}

// String returns a string field, or "" when absent or not a string
func (d Document) String(field string) string {
	if s, ok := d[field].(string); ok {
		return s
	}
	return ""
}

// Bool returns a bool field, or false when absent
func (d Document) Bool(field string) bool {
	b, _ := d[field].(bool)
	return b
}

// Defined reports whether field is present with a non-null value
func (d Document) Defined(field string) bool {
	v, ok := d[field]
	return ok && v != nil
}

// Time parses an RFC 3339 string field
func (d Document) Time(field string) (time.Time, bool) {
	s := d.String(field)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CreatedAt returns the document creation time
func (d Document) CreatedAt() time.Time {
	t, _ := d.Time(FieldCreatedAt)
	return t
}

// FormatTime renders t the way timestamps are stored in documents
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Store is the document repository
type Store interface {
	// Create stores doc and returns it with _id and _createdAt assigned.
	// A caller-supplied _createdAt is kept.
	Create(ctx context.Context, doc Document) (Document, error)

	// Patch starts a partial update of the document with the given id
	Patch(id string) *Patch

	// Delete removes a document. Returns ErrDocumentNotFound when missing.
	Delete(ctx context.Context, id string) error

	// Fetch returns all documents matching q
	Fetch(ctx context.Context, q Query) ([]Document, error)

	// GetDocument returns a single document or ErrDocumentNotFound
	GetDocument(ctx context.Context, id string) (Document, error)
}

// PatchCommitter applies a patch. Implemented by Store backends.
type PatchCommitter interface {
	CommitPatch(ctx context.Context, id string, set map[string]any, unset []string) (Document, error)
}

// Patch collects field changes for a single document
type Patch struct {
	id        string
	set       map[string]any
	unset     []string
	committer PatchCommitter
}

// NewPatch creates a patch that commits through c
func NewPatch(id string, c PatchCommitter) *Patch {
	return &Patch{id: id, set: make(map[string]any), committer: c}
}

// Set merges fields into the patch. Reserved fields are ignored.
func (p *Patch) Set(fields map[string]any) *Patch {
	for k, v := range fields {
		if isReserved(k) {
			continue
		}
		p.set[k] = v
	}
	return p
}

// Unset removes fields from the document
func (p *Patch) Unset(fields ...string) *Patch {
	for _, f := range fields {
		if !isReserved(f) {
			p.unset = append(p.unset, f)
		}
	}
	return p
}

// Commit applies the patch and returns the updated document
func (p *Patch) Commit(ctx context.Context) (Document, error) {
	if p.id == "" {
		return nil, fmt.Errorf("content: patch without document id")
	}
	if p.committer == nil {
		return nil, fmt.Errorf("content: patch %s has no store", p.id)
	}
	return p.committer.CommitPatch(ctx, p.id, p.set, p.unset)
}

// ApplyPatch sets then unsets fields on doc. Store backends use it so that
// every backend resolves a patch identically.
func ApplyPatch(doc Document, set map[string]any, unset []string) {
	for k, v := range set {
		doc[k] = v
	}
	for _, k := range unset {
		delete(doc, k)
	}
}

func isReserved(field string) bool {
	switch field {
	case FieldID, FieldType, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}
