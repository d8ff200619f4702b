package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/domain/membership"
)

// Ensure the membership repositories implement their interfaces
var (
	_ membership.ApplicationRepository    = (*DocumentApplicationRepository)(nil)
	_ membership.MembershipTypeRepository = (*DocumentMembershipTypeRepository)(nil)
)

// DocumentApplicationRepository stores membership applications as documents
type DocumentApplicationRepository struct {
	store content.Store
}

// NewDocumentApplicationRepository creates a new DocumentApplicationRepository
func NewDocumentApplicationRepository(store content.Store) *DocumentApplicationRepository {
	return &DocumentApplicationRepository{store: store}
}

// Create persists a new application
func (r *DocumentApplicationRepository) Create(ctx context.Context, app *membership.Application) error {
	created, err := r.store.Create(ctx, applicationToDocument(app))
	if err != nil {
		return fmt.Errorf("failed to create membership application: %w", err)
	}
	app.ID = created.ID()
	app.CreatedAt = created.CreatedAt()
	return nil
}

// FindByID finds an application by its ID
func (r *DocumentApplicationRepository) FindByID(ctx context.Context, id string) (*membership.Application, error) {
	doc, err := loadTyped(ctx, r.store, id, DocTypeMembershipApplication)
	if err != nil {
		return nil, err
	}
	return documentToApplication(doc), nil
}

// UpdateStatus patches the review status
func (r *DocumentApplicationRepository) UpdateStatus(ctx context.Context, id string, status membership.ApplicationStatus) error {
	return r.patch(ctx, id, map[string]any{"status": string(status)})
}

// RecordPaymentSession overwrites the stored checkout session ID
func (r *DocumentApplicationRepository) RecordPaymentSession(ctx context.Context, id, sessionID string) error {
	return r.patch(ctx, id, map[string]any{"stripeSessionId": sessionID})
}

// MarkPaid patches the payment fields from app
func (r *DocumentApplicationRepository) MarkPaid(ctx context.Context, app *membership.Application) error {
	fields := map[string]any{
		"paid":   app.Paid,
		"paidAt": timeOrNil(app.PaidAt),
	}
	if app.PaymentIntentID != nil {
		fields["paymentIntentId"] = *app.PaymentIntentID
	}
	return r.patch(ctx, app.ID, fields)
}

// FindAbandonedIDs selects unpaid applications that started a checkout and
// were created before cutoff
func (r *DocumentApplicationRepository) FindAbandonedIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	docs, err := r.store.Fetch(ctx, content.Query{
		Type: DocTypeMembershipApplication,
		Filters: []content.Filter{
			content.Eq("paid", false),
			content.Defined("stripeSessionId"),
			content.Lt(content.FieldCreatedAt, cutoff),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query abandoned applications: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID())
	}
	return ids, nil
}

// Delete removes an application. Already deleted applications are ignored.
func (r *DocumentApplicationRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil && !errors.Is(err, content.ErrDocumentNotFound) {
		return fmt.Errorf("failed to delete membership application %s: %w", id, err)
	}
	return nil
}

func (r *DocumentApplicationRepository) patch(ctx context.Context, id string, fields map[string]any) error {
	if _, err := r.store.Patch(id).Set(fields).Commit(ctx); err != nil {
		return patchError("membership application", id, err)
	}
	return nil
}

func applicationToDocument(app *membership.Application) content.Document {
	doc := content.Document{
		content.FieldType: DocTypeMembershipApplication,
		"name":            app.Name,
		"email":           app.Email,
		"status":          string(app.Status),
		"paid":            app.Paid,
	}
	if !app.CreatedAt.IsZero() {
		doc[content.FieldCreatedAt] = content.FormatTime(app.CreatedAt)
	}
	if app.Phone != "" {
		doc["phone"] = app.Phone
	}
	if app.Message != "" {
		doc["message"] = app.Message
	}
	if app.MembershipTypeID != "" {
		doc["membershipType"] = reference(app.MembershipTypeID)
	}
	if app.PaidAt != nil {
		doc["paidAt"] = content.FormatTime(*app.PaidAt)
	}
	if app.StripeSessionID != nil {
		doc["stripeSessionId"] = *app.StripeSessionID
	}
	if app.PaymentIntentID != nil {
		doc["paymentIntentId"] = *app.PaymentIntentID
	}
	return doc
}

func documentToApplication(doc content.Document) *membership.Application {
	app := &membership.Application{
		Name:             doc.String("name"),
		Email:            doc.String("email"),
		Phone:            doc.String("phone"),
		Message:          doc.String("message"),
		MembershipTypeID: refOf(doc["membershipType"]),
		Status:           membership.ApplicationStatus(doc.String("status")),
		Paid:             doc.Bool("paid"),
		StripeSessionID:  optionalString(doc, "stripeSessionId"),
		PaymentIntentID:  optionalString(doc, "paymentIntentId"),
	}
	if app.Status == "" {
		app.Status = membership.StatusPending
	}
	app.ID = doc.ID()
	app.CreatedAt = doc.CreatedAt()
	if paidAt, ok := doc.Time("paidAt"); ok {
		app.PaidAt = &paidAt
	}
	return app
}

// DocumentMembershipTypeRepository reads "membershipType" documents
type DocumentMembershipTypeRepository struct {
	store content.Store
}

// NewDocumentMembershipTypeRepository creates a new DocumentMembershipTypeRepository
func NewDocumentMembershipTypeRepository(store content.Store) *DocumentMembershipTypeRepository {
	return &DocumentMembershipTypeRepository{store: store}
}

// FindByID finds a membership type by its ID
func (r *DocumentMembershipTypeRepository) FindByID(ctx context.Context, id string) (*membership.MembershipType, error) {
	doc, err := loadTyped(ctx, r.store, id, DocTypeMembershipType)
	if err != nil {
		return nil, err
	}
	return &membership.MembershipType{
		ID:    doc.ID(),
		Title: doc.String("title"),
		Price: decimalOf(doc["price"]),
	}, nil
}
