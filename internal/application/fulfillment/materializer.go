package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// LineItemLister reads the purchased lines of a checkout session
type LineItemLister interface {
	ListSessionLineItems(ctx context.Context, sessionID string, limit int) ([]payment.SessionLineItem, error)
}

// Materializer builds and stores the order for a completed checkout session
type Materializer struct {
	lineItems LineItemLister
	orders    commerce.OrderRepository
	limit     int
	now       func() time.Time
	logger    *zap.Logger
}

// MaterializerConfig contains configuration for Materializer
type MaterializerConfig struct {
	LineItems LineItemLister
	Orders    commerce.OrderRepository
	// LineItemLimit caps the lines read per session; values outside
	// 1..100 mean 100. Lines beyond the cap are not recorded.
	LineItemLimit int
	Now           func() time.Time
	Logger        *zap.Logger
}

// NewMaterializer creates a new Materializer
func NewMaterializer(cfg MaterializerConfig) *Materializer {
	m := &Materializer{
		lineItems: cfg.LineItems,
		orders:    cfg.Orders,
		limit:     cfg.LineItemLimit,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
	if m.limit <= 0 || m.limit > payment.MaxLineItemPage {
		m.limit = payment.MaxLineItemPage
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Materialize lists the session's line items and persists a Paid order.
// The order total is the session's amount_total; it is never recomputed
// from the lines.
func (m *Materializer) Materialize(ctx context.Context, session *payment.CompletedSession) (*commerce.Order, error) {
	lines, err := m.lineItems.ListSessionLineItems(ctx, session.ID, m.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s: %w", ErrUpstreamFetch, session.ID, err)
	}
	if len(lines) >= m.limit {
		m.logger.Warn("Checkout session may have more line items than recorded",
			zap.String("session_id", session.ID),
			zap.Int("limit", m.limit))
	}

	items := make([]commerce.LineItem, 0, len(lines))
	for _, line := range lines {
		item, err := toLineItem(line)
		if err != nil {
			return nil, fmt.Errorf("%w: session %s: %w", ErrUpstreamFetch, session.ID, err)
		}
		items = append(items, item)
	}

	order, err := commerce.NewPaidOrder(commerce.PaidOrderInput{
		StripeSessionID: session.ID,
		PaymentIntentID: session.PaymentIntentID,
		CustomerEmail:   session.CustomerEmail,
		CustomerName:    session.CustomerName,
		Total:           minorToMajor(session.AmountTotal),
		Items:           items,
		ShippingAddress: normalizeAddress(session),
	}, m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := m.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: session %s: %w", ErrPersistence, session.ID, err)
	}

	m.logger.Info("Order created from checkout session",
		zap.String("order_id", order.ID),
		zap.String("session_id", session.ID),
		zap.Int("line_items", len(items)),
		zap.String("total", order.Total.StringFixed(2)))
	return order, nil
}

// toLineItem derives the unit price from the amount actually paid for the
// line, so discounts are reflected per unit.
func toLineItem(line payment.SessionLineItem) (commerce.LineItem, error) {
	quantity := line.Quantity
	if quantity < 1 {
		quantity = 1
	}
	unit := decimal.NewFromInt(line.AmountTotal).
		Div(decimal.NewFromInt(quantity)).
		Shift(-2)
	return commerce.NewLineItem(line.Description, quantity, unit)
}

func minorToMajor(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-2)
}

// normalizeAddress prefers the shipping address, then the customer address
func normalizeAddress(session *payment.CompletedSession) commerce.ShippingAddress {
	addr := session.ShippingAddress
	if addr == nil {
		addr = session.CustomerAddress
	}
	if addr == nil {
		return commerce.ShippingAddress{}
	}
	return commerce.ShippingAddress{
		Line1:      addr.Line1,
		City:       addr.City,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}
