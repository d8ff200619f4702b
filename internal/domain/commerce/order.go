package commerce

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// DefaultProductName is used when the gateway omits a line item description.
const DefaultProductName = "generic product name"

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known order status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// LineItem is one priced product and quantity within an order
type LineItem struct {
	ProductName string
	Quantity    int64
	Price       decimal.Decimal
}

// NewLineItem creates a line item, applying the product name default.
func NewLineItem(productName string, quantity int64, price decimal.Decimal) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if price.IsNegative() {
		return LineItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if strings.TrimSpace(productName) == "" {
		productName = DefaultProductName
	}
	return LineItem{
		ProductName: productName,
		Quantity:    quantity,
		Price:       price.Round(2),
	}, nil
}

// Subtotal returns price × quantity
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// ShippingAddress holds the purchaser's delivery address. Absent fields are "".
type ShippingAddress struct {
	Line1      string
	City       string
	PostalCode string
	Country    string
}

// IsEmpty reports whether no address field was provided
func (a ShippingAddress) IsEmpty() bool {
	return a == ShippingAddress{}
}

// ReceiptReference links an order to its published receipt asset
type ReceiptReference struct {
	AssetID string
}

// Order is a paid storefront purchase
type Order struct {
	shared.BaseEntity
	CustomerEmail   string
	CustomerName    string
	Total           decimal.Decimal
	Items           []LineItem
	ShippingAddress ShippingAddress
	Status          OrderStatus
	StripeSessionID string
	PaymentIntentID *string
	Receipt         *ReceiptReference
}

// PaidOrderInput carries the checkout data an order is materialized from
type PaidOrderInput struct {
	StripeSessionID string
	PaymentIntentID string
	CustomerEmail   string
	CustomerName    string
	Total           decimal.Decimal
	Items           []LineItem
	ShippingAddress ShippingAddress
}

// NewPaidOrder creates an order in the Paid status. The total is kept exactly
// as reported by the gateway.
func NewPaidOrder(input PaidOrderInput, now time.Time) (*Order, error) {
	if input.StripeSessionID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Checkout session ID is required")
	}
	if input.Total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Order total cannot be negative")
	}

	items := input.Items
	if items == nil {
		items = []LineItem{}
	}

	order := &Order{
		BaseEntity:      shared.NewBaseEntity(now),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		CustomerName:    input.CustomerName,
		Total:           input.Total.Round(2),
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		Status:          OrderStatusPaid,
		StripeSessionID: input.StripeSessionID,
	}
	if input.PaymentIntentID != "" {
		pi := input.PaymentIntentID
		order.PaymentIntentID = &pi
	}
	return order, nil
}

// HasPurchaserEmail reports whether a receipt can be emailed
func (o *Order) HasPurchaserEmail() bool {
	return o.CustomerEmail != ""
}

// HasReceipt reports whether a receipt asset has been linked
func (o *Order) HasReceipt() bool {
	return o.Receipt != nil && o.Receipt.AssetID != ""
}

// AttachReceipt links a published receipt asset to the order
func (o *Order) AttachReceipt(assetID string) error {
	if assetID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Receipt asset ID is required")
	}
	o.Receipt = &ReceiptReference{AssetID: assetID}
	return nil
}

// ItemCount returns the total number of units across all line items
func (o *Order) ItemCount() int64 {
	var n int64
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
