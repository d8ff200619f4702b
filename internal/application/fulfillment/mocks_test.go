package fulfillment

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of commerce.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*commerce.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) AttachReceipt(ctx context.Context, orderID, assetID string) error {
	args := m.Called(ctx, orderID, assetID)
	return args.Error(0)
}

// MockLineItemLister is a mock implementation of LineItemLister
type MockLineItemLister struct {
	mock.Mock
}

func (m *MockLineItemLister) ListSessionLineItems(ctx context.Context, sessionID string, limit int) ([]payment.SessionLineItem, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.SessionLineItem), args.Error(1)
}

// MockAssetStore is a mock implementation of content.AssetStore
type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) Upload(ctx context.Context, kind content.AssetKind, data []byte, opts content.UploadOptions) (*content.Asset, error) {
	args := m.Called(ctx, kind, data, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Asset), args.Error(1)
}

// fakePDFRenderer returns fixed bytes instead of driving a browser
type fakePDFRenderer struct {
	mu       sync.Mutex
	data     []byte
	err      error
	requests []*printing.RenderRequest
}

func newFakePDFRenderer() *fakePDFRenderer {
	return &fakePDFRenderer{data: []byte("%PDF-1.4 fake receipt")}
}

func (r *fakePDFRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &printing.RenderResult{PDFData: r.data, PageCount: printing.CountPages(r.data)}, nil
}

func (r *fakePDFRenderer) Close() error { return nil }

func (r *fakePDFRenderer) lastHTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return ""
	}
	return r.requests[len(r.requests)-1].HTML
}

// recordingMailer keeps sent messages
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
