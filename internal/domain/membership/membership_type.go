package membership

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// MembershipType is a purchasable membership tier
type MembershipType struct {
	ID    string
	Title string
	Price decimal.Decimal
}

// ValidatePrice returns INVALID_PRICE unless the price is positive
func (t *MembershipType) ValidatePrice() error {
	if !t.Price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Membership price must be a positive amount")
	}
	return nil
}

// DisplayTitle returns the title used on checkout line items
func (t *MembershipType) DisplayTitle() string {
	if t.Title == "" {
		return "Membership"
	}
	return t.Title + " Membership"
}
