// Package fulfillment turns completed checkout sessions into stored orders
// and delivers their receipts.
package fulfillment

import "errors"

var (
	// ErrUpstreamFetch wraps failures reading session data from the gateway
	ErrUpstreamFetch = errors.New("fulfillment: failed to fetch checkout data")

	// ErrPersistence wraps failures storing the order
	ErrPersistence = errors.New("fulfillment: failed to persist order")

	// ErrNoPurchaserEmail means the order has no address to notify
	ErrNoPurchaserEmail = errors.New("fulfillment: order has no purchaser email")
)
