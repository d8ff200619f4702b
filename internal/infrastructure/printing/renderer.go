package printing

import (
	"bytes"
	"context"
	"time"
)

// PaperSize names a supported page format
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"
	PaperSizeLetter PaperSize = "LETTER"
)

// paperMM holds width and height in millimeters, portrait
var paperMM = map[PaperSize][2]float64{
	PaperSizeA4:     {210, 297},
	PaperSizeLetter: {215.9, 279.4},
}

func (p PaperSize) IsValid() bool {
	_, ok := paperMM[p]
	return ok
}

// Dimensions returns width and height in millimeters. Unknown sizes are A4.
func (p PaperSize) Dimensions() (width, height float64) {
	d, ok := paperMM[p]
	if !ok {
		d = paperMM[PaperSizeA4]
	}
	return d[0], d[1]
}

// Margins are page margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins is 10mm on every side, which receipts use
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// RenderRequest describes one HTML document to print. HTML may be a
// fragment; it is wrapped in a document titled Title.
type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	Landscape bool
	Margins   Margins
	Timeout   time.Duration // zero uses the renderer default
}

type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// Render failure codes
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeRendererClosed   = "RENDERER_CLOSED"
)

// RenderError carries a render failure code and the underlying cause
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }

var (
	pageMarker  = []byte("/Type /Page")
	pagesMarker = []byte("/Type /Pages")
)

// CountPages estimates the page count from the PDF's page objects. The
// result is at least 1.
func CountPages(pdfData []byte) int {
	n := bytes.Count(pdfData, pageMarker) - bytes.Count(pdfData, pagesMarker)
	return max(n, 1)
}
