package fulfillment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, mailer mail.Mailer) *NotificationDispatcher {
	t.Helper()
	d, err := NewNotificationDispatcher(NotificationDispatcherConfig{
		Mailer:       mailer,
		StoreName:    "Corner Shop",
		SupportEmail: "help@example.com",
		Currency:     "usd",
	})
	require.NoError(t, err)
	return d
}

func TestNotificationDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("sends email with receipt attached", func(t *testing.T) {
		mailer := &recordingMailer{}
		path := writeReceipt(t)

		require.NoError(t, newTestDispatcher(t, mailer).Dispatch(ctx, mugOrder(t), path))

		sent := mailer.messages()
		require.Len(t, sent, 1)
		msg := sent[0]
		assert.Equal(t, "buyer@example.com", msg.To)
		assert.Equal(t, "Corner Shop: your order receipt", msg.Subject)
		assert.Contains(t, msg.HTML, "Mug")
		assert.Contains(t, msg.HTML, "24.00")
		assert.Contains(t, msg.HTML, "Your receipt is attached")
		assert.Contains(t, msg.HTML, "help@example.com")
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, path, msg.Attachments[0].Path)
	})

	t.Run("missing file is sent without attachment", func(t *testing.T) {
		mailer := &recordingMailer{}
		gone := filepath.Join(t.TempDir(), "gone.pdf")

		require.NoError(t, newTestDispatcher(t, mailer).Dispatch(ctx, mugOrder(t), gone))

		sent := mailer.messages()
		require.Len(t, sent, 1)
		assert.Empty(t, sent[0].Attachments)
		assert.NotContains(t, sent[0].HTML, "Your receipt is attached")
	})

	t.Run("no purchaser email is skipped", func(t *testing.T) {
		mailer := &recordingMailer{}
		order := mugOrder(t)
		order.CustomerEmail = ""

		err := newTestDispatcher(t, mailer).Dispatch(ctx, order, "")
		assert.ErrorIs(t, err, ErrNoPurchaserEmail)
		assert.Empty(t, mailer.messages())
	})

	t.Run("mailer error is returned", func(t *testing.T) {
		mailer := &recordingMailer{err: mail.ErrMailerDisabled}
		err := newTestDispatcher(t, mailer).Dispatch(ctx, mugOrder(t), "")
		assert.ErrorIs(t, err, mail.ErrMailerDisabled)
	})
}

func TestNewNotificationDispatcher_RequiresMailer(t *testing.T) {
	_, err := NewNotificationDispatcher(NotificationDispatcherConfig{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, mail.ErrMailerDisabled))
}
