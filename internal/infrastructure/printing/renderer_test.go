package printing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperSize(t *testing.T) {
	assert.True(t, PaperSizeA4.IsValid())
	assert.True(t, PaperSizeLetter.IsValid())
	assert.False(t, PaperSize("A5").IsValid())

	w, h := PaperSize("unknown").Dimensions()
	assert.Equal(t, 210.0, w, "unknown sizes fall back to A4")
	assert.Equal(t, 297.0, h)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("chrome crashed")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.Equal(t, "chromedp execution failed: chrome crashed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "empty", NewRenderError(ErrCodeInvalidHTML, "empty", nil).Error())
}

func TestCountPages(t *testing.T) {
	tests := []struct {
		name string
		pdf  string
		want int
	}{
		{"empty", "", 1},
		{"single page", "<< /Type /Pages /Kids [3 0 R] >> << /Type /Page >>", 1},
		{"three pages", "<< /Type /Pages >> /Type /Page /Type /Page /Type /Page", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountPages([]byte(tt.pdf)))
		})
	}
}
