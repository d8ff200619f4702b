package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommitter struct {
	id    string
	set   map[string]any
	unset []string
}

func (r *recordingCommitter) CommitPatch(_ context.Context, id string, set map[string]any, unset []string) (Document, error) {
	r.id, r.set, r.unset = id, set, unset
	doc := Document{FieldID: id}
	ApplyPatch(doc, set, unset)
	return doc, nil
}

func TestDocument_Accessors(t *testing.T) {
	doc := Document{
		FieldID:        "doc-1",
		FieldType:      "order",
		FieldCreatedAt: "2024-03-15T10:30:45Z",
		"paid":         true,
		"email":        "a@example.com",
		"nothing":      nil,
	}

	assert.Equal(t, "doc-1", doc.ID())
	assert.Equal(t, "order", doc.Type())
	assert.True(t, doc.Bool("paid"))
	assert.False(t, doc.Bool("email"))
	assert.Equal(t, "", doc.String("paid"))
	assert.True(t, doc.Defined("email"))
	assert.False(t, doc.Defined("nothing"))
	assert.False(t, doc.Defined("missing"))
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC), doc.CreatedAt())

	_, ok := Document{FieldCreatedAt: "yesterday"}.Time(FieldCreatedAt)
	assert.False(t, ok)
}

func TestPatch_Commit(t *testing.T) {
	t.Run("collects set and unset fields", func(t *testing.T) {
		c := &recordingCommitter{}
		doc, err := NewPatch("doc-1", c).
			Set(map[string]any{"status": "approved", FieldID: "hijack", FieldType: "other"}).
			Set(map[string]any{"paid": false}).
			Unset("message", FieldCreatedAt).
			Commit(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "doc-1", c.id)
		assert.Equal(t, map[string]any{"status": "approved", "paid": false}, c.set)
		assert.Equal(t, []string{"message"}, c.unset)
		assert.Equal(t, "doc-1", doc.ID())
	})

	t.Run("requires id", func(t *testing.T) {
		_, err := NewPatch("", &recordingCommitter{}).Commit(context.Background())
		assert.Error(t, err)
	})

	t.Run("requires committer", func(t *testing.T) {
		_, err := NewPatch("doc-1", nil).Commit(context.Background())
		assert.Error(t, err)
	})
}

func TestQuery_Matches(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	stale := Document{
		FieldType:         "membershipApplication",
		FieldCreatedAt:    FormatTime(now.Add(-48 * time.Hour)),
		"paid":            false,
		"stripeSessionId": "cs_1",
	}
	fresh := Document{
		FieldType:         "membershipApplication",
		FieldCreatedAt:    FormatTime(now.Add(-time.Hour)),
		"paid":            false,
		"stripeSessionId": "cs_2",
	}
	paid := Document{
		FieldType:         "membershipApplication",
		FieldCreatedAt:    FormatTime(now.Add(-48 * time.Hour)),
		"paid":            true,
		"stripeSessionId": "cs_3",
	}
	noSession := Document{
		FieldType:      "membershipApplication",
		FieldCreatedAt: FormatTime(now.Add(-48 * time.Hour)),
		"paid":         false,
	}
	order := Document{
		FieldType:         "order",
		FieldCreatedAt:    FormatTime(now.Add(-48 * time.Hour)),
		"paid":            false,
		"stripeSessionId": "cs_4",
	}

	q := Query{
		Type: "membershipApplication",
		Filters: []Filter{
			Eq("paid", false),
			Defined("stripeSessionId"),
			Lt(FieldCreatedAt, cutoff),
		},
	}

	assert.True(t, q.Matches(stale))
	assert.False(t, q.Matches(fresh))
	assert.False(t, q.Matches(paid))
	assert.False(t, q.Matches(noSession))
	assert.False(t, q.Matches(order))
}

func TestFilter_Matches(t *testing.T) {
	doc := Document{"qty": float64(3), "name": "mug", "status": "approved"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"numeric eq across types", Eq("qty", 3), true},
		{"numeric lt", Lt("qty", 4), true},
		{"numeric not lt", Lt("qty", 3), false},
		{"string eq", Eq("name", "mug"), true},
		{"string lt", Lt("name", "z"), true},
		{"neq present", Neq("status", "rejected"), true},
		{"neq equal", Neq("status", "approved"), false},
		{"neq absent", Neq("missing", "x"), true},
		{"eq absent", Eq("missing", "x"), false},
		{"lt absent", Lt("missing", 1), false},
		{"lt incomparable", Lt("name", 1), false},
		{"unknown operator", Filter{Field: "qty", Op: "~"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}

func TestFileReference(t *testing.T) {
	ref := FileReference("file-123")
	assert.Equal(t, "file", ref["_type"])
	assert.Equal(t, "file-123", AssetRefOf(ref))

	assert.Equal(t, "", AssetRefOf(nil))
	assert.Equal(t, "", AssetRefOf("file-123"))
	assert.Equal(t, "", AssetRefOf(map[string]any{"asset": "x"}))
}
