package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/domain/shared"
)

// Document types stored by the repositories
const (
	DocTypeOrder                 = "order"
	DocTypeMembershipApplication = "membershipApplication"
	DocTypeMembershipType        = "membershipType"
)

// translateNotFound maps store misses onto the domain sentinel
func translateNotFound(err error) error {
	if errors.Is(err, content.ErrDocumentNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// loadTyped fetches id and checks that it has the expected type
func loadTyped(ctx context.Context, store content.Store, id, docType string) (content.Document, error) {
	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if doc.Type() != docType {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

func decimalOf(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n).Round(2)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

func int64Of(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func optionalString(doc content.Document, field string) *string {
	s := doc.String(field)
	if s == "" {
		return nil
	}
	return &s
}

func stringOrNil(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// reference builds a document reference field value
func reference(id string) map[string]any {
	return map[string]any{"_type": "reference", "_ref": id}
}

func refOf(v any) string {
	ref, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := ref["_ref"].(string)
	return id
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return content.FormatTime(*t)
}

func patchError(kind, id string, err error) error {
	if errors.Is(err, content.ErrDocumentNotFound) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("failed to update %s %s: %w", kind, id, err)
}
