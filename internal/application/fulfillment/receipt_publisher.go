package fulfillment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/domain/content"
	"go.uber.org/zap"
)

// ReceiptContentType is the MIME type of uploaded receipts
const ReceiptContentType = "application/pdf"

// ReceiptPublisher uploads a receipt PDF as a durable file asset and links
// it to the order
type ReceiptPublisher struct {
	assets content.AssetStore
	orders commerce.OrderRepository
	logger *zap.Logger
}

// NewReceiptPublisher creates a new ReceiptPublisher
func NewReceiptPublisher(assets content.AssetStore, orders commerce.OrderRepository, logger *zap.Logger) *ReceiptPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptPublisher{assets: assets, orders: orders, logger: logger}
}

// Publish uploads the file at path and records the asset on the order.
// On failure the order is left untouched.
func (p *ReceiptPublisher) Publish(ctx context.Context, order *commerce.Order, path string) (*content.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}

	asset, err := p.assets.Upload(ctx, content.AssetKindFile, data, content.UploadOptions{
		Filename:    filepath.Base(path),
		ContentType: ReceiptContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	if err := p.orders.AttachReceipt(ctx, order.ID, asset.ID); err != nil {
		return asset, fmt.Errorf("failed to link receipt %s to order: %w", asset.ID, err)
	}
	if err := order.AttachReceipt(asset.ID); err != nil {
		return asset, err
	}

	p.logger.Info("Receipt published",
		zap.String("order_id", order.ID),
		zap.String("asset_id", asset.ID),
		zap.Int64("size", asset.Size))
	return asset, nil
}
