package persistence

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/domain/content"
)

// Ensure DocumentOrderRepository implements commerce.OrderRepository
var _ commerce.OrderRepository = (*DocumentOrderRepository)(nil)

// DocumentOrderRepository stores orders as "order" documents
type DocumentOrderRepository struct {
	store content.Store
}

// NewDocumentOrderRepository creates a new DocumentOrderRepository
func NewDocumentOrderRepository(store content.Store) *DocumentOrderRepository {
	return &DocumentOrderRepository{store: store}
}

// Create persists the order and fills in its ID and creation time
func (r *DocumentOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	created, err := r.store.Create(ctx, orderToDocument(order))
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = created.ID()
	order.CreatedAt = created.CreatedAt()
	return nil
}

// FindByID finds an order by its ID
func (r *DocumentOrderRepository) FindByID(ctx context.Context, id string) (*commerce.Order, error) {
	doc, err := loadTyped(ctx, r.store, id, DocTypeOrder)
	if err != nil {
		return nil, err
	}
	return documentToOrder(doc), nil
}

// AttachReceipt links the order to a file asset
func (r *DocumentOrderRepository) AttachReceipt(ctx context.Context, orderID, assetID string) error {
	_, err := r.store.Patch(orderID).
		Set(map[string]any{"receipt": content.FileReference(assetID)}).
		Commit(ctx)
	if err != nil {
		return patchError("order", orderID, err)
	}
	return nil
}

func orderToDocument(o *commerce.Order) content.Document {
	items := make([]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"productName": item.ProductName,
			"quantity":    item.Quantity,
			"price":       item.Price.InexactFloat64(),
		})
	}

	doc := content.Document{
		content.FieldType: DocTypeOrder,
		"customerEmail":   o.CustomerEmail,
		"customerName":    o.CustomerName,
		"total":           o.Total.InexactFloat64(),
		"items":           items,
		"shippingAddress": map[string]any{
			"line1":      o.ShippingAddress.Line1,
			"city":       o.ShippingAddress.City,
			"postalCode": o.ShippingAddress.PostalCode,
			"country":    o.ShippingAddress.Country,
		},
		"status":          string(o.Status),
		"stripeSessionId": o.StripeSessionID,
		"paymentIntentId": stringOrNil(o.PaymentIntentID),
	}
	if !o.CreatedAt.IsZero() {
		doc[content.FieldCreatedAt] = content.FormatTime(o.CreatedAt)
	}
	if o.HasReceipt() {
		doc["receipt"] = content.FileReference(o.Receipt.AssetID)
	}
	return doc
}

func documentToOrder(doc content.Document) *commerce.Order {
	o := &commerce.Order{
		CustomerEmail:   doc.String("customerEmail"),
		CustomerName:    doc.String("customerName"),
		Total:           decimalOf(doc["total"]),
		Status:          commerce.OrderStatus(doc.String("status")),
		StripeSessionID: doc.String("stripeSessionId"),
		PaymentIntentID: optionalString(doc, "paymentIntentId"),
		Items:           []commerce.LineItem{},
	}
	o.ID = doc.ID()
	o.CreatedAt = doc.CreatedAt()

	if raw, ok := doc["items"].([]any); ok {
		for _, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			item := content.Document(m)
			o.Items = append(o.Items, commerce.LineItem{
				ProductName: item.String("productName"),
				Quantity:    int64Of(item["quantity"]),
				Price:       decimalOf(item["price"]),
			})
		}
	}
	if addr, ok := doc["shippingAddress"].(map[string]any); ok {
		a := content.Document(addr)
		o.ShippingAddress = commerce.ShippingAddress{
			Line1:      a.String("line1"),
			City:       a.String("city"),
			PostalCode: a.String("postalCode"),
			Country:    a.String("country"),
		}
	}
	if assetID := content.AssetRefOf(doc["receipt"]); assetID != "" {
		o.Receipt = &commerce.ReceiptReference{AssetID: assetID}
	}
	return o
}
