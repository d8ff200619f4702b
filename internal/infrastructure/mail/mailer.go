// Package mail delivers transactional email.
package mail

import (
	"context"
	"errors"
)

// ErrMailerDisabled is returned by Send when no SMTP credentials are
// configured. Callers treat it as a skipped delivery, not a failure.
var ErrMailerDisabled = errors.New("mail: sending disabled, SMTP credentials not configured")

// ErrNoRecipient is returned for a message without a recipient
var ErrNoRecipient = errors.New("mail: message has no recipient")

// Mailer sends a single message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is an HTML email with optional file attachments
type Message struct {
	// From overrides the configured sender when set
	From        string
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Attachment is a file on local disk
type Attachment struct {
	Path string
	// Filename shown to the recipient. Defaults to the base name of Path.
	Filename string
}
