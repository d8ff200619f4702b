package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// receiptTimeFormat is the yyyyMMdd-HHmmss stamp in receipt filenames
const receiptTimeFormat = "20060102-150405"

// ReceiptFilename is the local file name of an order's receipt PDF
func ReceiptFilename(order *commerce.Order) string {
	return fmt.Sprintf("receipt-%s-%s.pdf", order.CreatedAt.UTC().Format(receiptTimeFormat), order.ID)
}

// ReceiptRenderer renders an order invoice to a PDF file in a temp directory
type ReceiptRenderer struct {
	pdf       printing.PDFRenderer
	tempDir   string
	storeName string
	tmpl      *template.Template
	logger    *zap.Logger
}

// ReceiptRendererConfig contains configuration for ReceiptRenderer
type ReceiptRendererConfig struct {
	PDF       printing.PDFRenderer
	TempDir   string
	StoreName string
	// Currency is an ISO 4217 code used for amounts; defaults to USD
	Currency string
	Logger   *zap.Logger
}

// NewReceiptRenderer creates a new ReceiptRenderer
func NewReceiptRenderer(cfg ReceiptRendererConfig) (*ReceiptRenderer, error) {
	if cfg.PDF == nil {
		return nil, errors.New("receipt renderer: PDF renderer is required")
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("receipt renderer: failed to create temp dir: %w", err)
	}

	tmpl, err := template.New("receipt").
		Funcs(templateFuncs(newMoneyFormatter(cfg.Currency))).
		Parse("<style>" + receiptStyle + "</style>\n" + receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("receipt renderer: invalid template: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptRenderer{
		pdf:       cfg.PDF,
		tempDir:   tempDir,
		storeName: cfg.StoreName,
		tmpl:      tmpl,
		logger:    logger,
	}, nil
}

type receiptView struct {
	StoreName string
	Order     *commerce.Order
}

// RenderHTML returns the invoice markup for the order
func (r *ReceiptRenderer) RenderHTML(order *commerce.Order) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, receiptView{StoreName: r.storeName, Order: order}); err != nil {
		return "", fmt.Errorf("failed to render receipt template: %w", err)
	}
	return buf.String(), nil
}

// Render writes the order's receipt PDF and returns its path
func (r *ReceiptRenderer) Render(ctx context.Context, order *commerce.Order) (string, error) {
	html, err := r.RenderHTML(order)
	if err != nil {
		return "", err
	}

	result, err := r.pdf.Render(ctx, &printing.RenderRequest{
		HTML:      html,
		Title:     "Receipt " + order.ID,
		PaperSize: printing.PaperSizeA4,
		Margins:   printing.DefaultMargins(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render receipt PDF: %w", err)
	}

	path := filepath.Join(r.tempDir, ReceiptFilename(order))
	if err := os.WriteFile(path, result.PDFData, 0o600); err != nil {
		return "", fmt.Errorf("failed to write receipt PDF: %w", err)
	}

	r.logger.Debug("Receipt rendered",
		zap.String("order_id", order.ID),
		zap.String("path", path),
		zap.Int("pages", result.PageCount),
		zap.Duration("render_duration", result.RenderDuration))
	return path, nil
}
