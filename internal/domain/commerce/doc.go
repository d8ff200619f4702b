// Package commerce provides domain models for storefront orders.
//
// An Order is materialized once per completed checkout session. The payment
// gateway is authoritative for the amount paid, so Order.Total is taken from
// the session and never recomputed from the line items.
//
// Key Aggregates:
//   - Order: a paid storefront purchase with its line items and receipt link
//
// Value Objects:
//   - LineItem: product name, quantity and unit price
//   - ShippingAddress: four free-text fields, each defaulting to ""
//   - ReceiptReference: the asset id of the published PDF receipt
package commerce
