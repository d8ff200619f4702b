package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ensure DocumentStore implements the content interfaces
var (
	_ content.Store          = (*DocumentStore)(nil)
	_ content.PatchCommitter = (*DocumentStore)(nil)
)

// DocumentStore keeps content documents in the documents table. The type
// and creation time are promoted to columns so Fetch can narrow in SQL;
// every other filter is evaluated on the decoded body.
type DocumentStore struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

// DocumentStoreOption configures a DocumentStore
type DocumentStoreOption func(*DocumentStore)

// WithNow overrides the clock used for timestamps
func WithNow(now func() time.Time) DocumentStoreOption {
	return func(s *DocumentStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides document id generation
func WithIDGenerator(gen func() string) DocumentStoreOption {
	return func(s *DocumentStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *gorm.DB, opts ...DocumentStoreOption) *DocumentStore {
	s := &DocumentStore{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores doc. A missing _id is generated; a missing or unparsable
// _createdAt becomes the current time.
func (s *DocumentStore) Create(ctx context.Context, doc content.Document) (content.Document, error) {
	docType := doc.Type()
	if docType == "" {
		return nil, errors.New("content: document type is required")
	}

	id := doc.ID()
	if id == "" {
		id = s.newID()
	}
	now := s.now().UTC()
	createdAt, ok := doc.Time(content.FieldCreatedAt)
	if !ok {
		createdAt = now
	}

	body, err := encodeBody(doc)
	if err != nil {
		return nil, err
	}

	model := &models.DocumentModel{
		BaseModel: models.BaseModel{ID: id, CreatedAt: createdAt.UTC(), UpdatedAt: now},
		DocType:   docType,
		Body:      body,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, fmt.Errorf("content: failed to create %s document: %w", docType, err)
	}
	return decodeModel(model)
}

// Patch starts a partial update
func (s *DocumentStore) Patch(id string) *content.Patch {
	return content.NewPatch(id, s)
}

// CommitPatch applies set and unset to the stored body. Concurrent patches
// to the same document are last-write-wins.
func (s *DocumentStore) CommitPatch(ctx context.Context, id string, set map[string]any, unset []string) (content.Document, error) {
	var out content.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.DocumentModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return content.ErrDocumentNotFound
			}
			return err
		}

		doc, err := decodeModel(&model)
		if err != nil {
			return err
		}
		content.ApplyPatch(doc, set, unset)

		body, err := encodeBody(doc)
		if err != nil {
			return err
		}
		model.Body = body
		model.UpdatedAt = s.now().UTC()

		if err := tx.Model(&models.DocumentModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"body": model.Body, "updated_at": model.UpdatedAt}).Error; err != nil {
			return err
		}

		out, err = decodeModel(&model)
		return err
	})
	if err != nil {
		if errors.Is(err, content.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("content: failed to patch document %s: %w", id, err)
	}
	return out, nil
}

// Delete removes a document
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.DocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("content: failed to delete document %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return content.ErrDocumentNotFound
	}
	return nil
}

// GetDocument returns a single document
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (content.Document, error) {
	var model models.DocumentModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, content.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("content: failed to load document %s: %w", id, err)
	}
	return decodeModel(&model)
}

// Fetch returns documents matching q, oldest first
func (s *DocumentStore) Fetch(ctx context.Context, q content.Query) ([]content.Document, error) {
	tx := s.db.WithContext(ctx).Model(&models.DocumentModel{})
	if q.Type != "" {
		tx = tx.Where("doc_type = ?", q.Type)
	}
	for _, f := range q.Filters {
		if f.Field == content.FieldCreatedAt && f.Op == content.OpLt {
			if t, ok := f.Value.(time.Time); ok {
				tx = tx.Where("created_at < ?", t.UTC())
			}
		}
	}

	var rows []models.DocumentModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("content: failed to fetch %q documents: %w", q.Type, err)
	}

	docs := make([]content.Document, 0, len(rows))
	for i := range rows {
		doc, err := decodeModel(&rows[i])
		if err != nil {
			return nil, err
		}
		if !q.Matches(doc) {
			continue
		}
		docs = append(docs, doc)
		if q.Limit > 0 && len(docs) == q.Limit {
			break
		}
	}
	return docs, nil
}

// encodeBody serializes the non-reserved fields of doc
func encodeBody(doc content.Document) (datatypes.JSON, error) {
	body := maps.Clone(doc)
	for _, f := range []string{content.FieldID, content.FieldType, content.FieldCreatedAt, content.FieldUpdatedAt} {
		delete(body, f)
	}
	if body == nil {
		body = content.Document{}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("content: document body is not JSON-encodable: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// decodeModel rebuilds a document, restoring reserved fields from columns
func decodeModel(m *models.DocumentModel) (content.Document, error) {
	doc := content.Document{}
	if len(m.Body) > 0 {
		if err := json.Unmarshal(m.Body, &doc); err != nil {
			return nil, fmt.Errorf("content: corrupt body for document %s: %w", m.ID, err)
		}
	}
	doc[content.FieldID] = m.ID
	doc[content.FieldType] = m.DocType
	doc[content.FieldCreatedAt] = content.FormatTime(m.CreatedAt)
	doc[content.FieldUpdatedAt] = content.FormatTime(m.UpdatedAt)
	return doc, nil
}
