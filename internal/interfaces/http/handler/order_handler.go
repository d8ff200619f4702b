package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderFinder loads stored orders
type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*commerce.Order, error)
}

// OrderHandler serves read-only order lookups for staff
type OrderHandler struct {
	BaseHandler
	orders OrderFinder
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderFinder) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// OrderLineItemResponse is one line of an order
type OrderLineItemResponse struct {
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// AddressResponse is a shipping address
type AddressResponse struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID              string                  `json:"id"`
	Status          string                  `json:"status"`
	CustomerEmail   string                  `json:"customer_email,omitempty"`
	CustomerName    string                  `json:"customer_name,omitempty"`
	Total           decimal.Decimal         `json:"total"`
	Items           []OrderLineItemResponse `json:"items"`
	ShippingAddress *AddressResponse        `json:"shipping_address,omitempty"`
	StripeSessionID string                  `json:"stripe_session_id"`
	PaymentIntentID *string                 `json:"payment_intent_id,omitempty"`
	ReceiptAssetID  string                  `json:"receipt_asset_id,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

func toOrderResponse(o *commerce.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Status:          o.Status.String(),
		CustomerEmail:   o.CustomerEmail,
		CustomerName:    o.CustomerName,
		Total:           o.Total,
		Items:           make([]OrderLineItemResponse, 0, len(o.Items)),
		StripeSessionID: o.StripeSessionID,
		PaymentIntentID: o.PaymentIntentID,
		CreatedAt:       o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderLineItemResponse{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		})
	}
	if !o.ShippingAddress.IsEmpty() {
		a := o.ShippingAddress
		resp.ShippingAddress = &AddressResponse{Line1: a.Line1, City: a.City, PostalCode: a.PostalCode, Country: a.Country}
	}
	if o.HasReceipt() {
		resp.ReceiptAssetID = o.Receipt.AssetID
	}
	return resp
}

// GetOrder handles GET /admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orders.FindByID(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}
