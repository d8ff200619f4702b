package commerce

import "context"

// OrderRepository defines the interface for persisting orders
type OrderRepository interface {
	// Create persists a new order and assigns its ID.
	// No uniqueness check is made on the checkout session ID.
	Create(ctx context.Context, order *Order) error

	// FindByID retrieves an order by its ID. Returns shared.ErrNotFound when missing.
	FindByID(ctx context.Context, id string) (*Order, error)

	// AttachReceipt patches the order's receipt reference
	AttachReceipt(ctx context.Context, orderID, assetID string) error
}
