package membership

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T, now time.Time) *Application {
	t.Helper()
	app, err := NewApplication(SubmissionInput{
		Name:             "Ada Lovelace",
		Email:            "ada@example.com",
		MembershipTypeID: "type-1",
	}, now)
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates pending unpaid application", func(t *testing.T) {
		app := newTestApplication(t, now)
		assert.Equal(t, StatusPending, app.Status)
		assert.False(t, app.Paid)
		assert.Nil(t, app.PaidAt)
		assert.Nil(t, app.StripeSessionID)
		assert.False(t, app.HasPaymentSession())
		assert.Equal(t, now, app.CreatedAt)
	})

	t.Run("requires name", func(t *testing.T) {
		_, err := NewApplication(SubmissionInput{Email: "a@example.com"}, now)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("requires valid email", func(t *testing.T) {
		_, err := NewApplication(SubmissionInput{Name: "A", Email: "not-an-email"}, now)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestParseApplicationStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    ApplicationStatus
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"Approved", StatusApproved, false},
		{" rejected ", StatusRejected, false},
		{"archived", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseApplicationStatus(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplication_SetStatus(t *testing.T) {
	now := time.Now()

	t.Run("any status may follow any other", func(t *testing.T) {
		app := newTestApplication(t, now)
		for _, s := range []ApplicationStatus{StatusApproved, StatusRejected, StatusApproved, StatusPending, StatusRejected, StatusPending} {
			require.NoError(t, app.SetStatus(s))
			assert.Equal(t, s, app.Status)
		}
	})

	t.Run("paid application can be rejected", func(t *testing.T) {
		app := newTestApplication(t, now)
		app.MarkPaid("pi_1", now)
		assert.False(t, app.NeedsRefund())

		require.NoError(t, app.SetStatus(StatusRejected))
		assert.Equal(t, StatusRejected, app.Status)
		assert.True(t, app.Paid)
		assert.True(t, app.NeedsRefund())

		require.NoError(t, app.SetStatus(StatusApproved))
		assert.False(t, app.NeedsRefund())
	})

	t.Run("unknown status is invalid input", func(t *testing.T) {
		app := newTestApplication(t, now)
		assert.ErrorIs(t, app.SetStatus("archived"), shared.ErrInvalidInput)
	})
}

func TestApplication_CanIssuePaymentLink(t *testing.T) {
	now := time.Now()

	t.Run("pending and approved are allowed", func(t *testing.T) {
		app := newTestApplication(t, now)
		assert.NoError(t, app.CanIssuePaymentLink())
		require.NoError(t, app.SetStatus(StatusApproved))
		assert.NoError(t, app.CanIssuePaymentLink())
	})

	t.Run("rejected is invalid state", func(t *testing.T) {
		app := newTestApplication(t, now)
		require.NoError(t, app.SetStatus(StatusRejected))
		assert.ErrorIs(t, app.CanIssuePaymentLink(), shared.ErrInvalidState)
	})

	t.Run("missing membership type", func(t *testing.T) {
		app := newTestApplication(t, now)
		app.MembershipTypeID = ""
		assert.ErrorIs(t, app.CanIssuePaymentLink(), shared.ErrMissingReference)
	})
}

func TestApplication_RecordPaymentSession(t *testing.T) {
	app := newTestApplication(t, time.Now())
	app.RecordPaymentSession("cs_first")
	app.RecordPaymentSession("cs_second")

	require.True(t, app.HasPaymentSession())
	assert.Equal(t, "cs_second", *app.StripeSessionID)
}

func TestApplication_MarkPaid(t *testing.T) {
	paidAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("records payment", func(t *testing.T) {
		app := newTestApplication(t, paidAt.Add(-time.Hour))
		app.MarkPaid("pi_42", paidAt)
		assert.True(t, app.Paid)
		require.NotNil(t, app.PaidAt)
		assert.Equal(t, paidAt, *app.PaidAt)
		require.NotNil(t, app.PaymentIntentID)
		assert.Equal(t, "pi_42", *app.PaymentIntentID)
	})

	t.Run("rejected application is still recorded as paid", func(t *testing.T) {
		app := newTestApplication(t, paidAt.Add(-48*time.Hour))
		app.RecordPaymentSession("cs_1")
		require.NoError(t, app.SetStatus(StatusRejected))

		app.MarkPaid("pi_42", paidAt)

		assert.True(t, app.Paid)
		assert.True(t, app.NeedsRefund())
		assert.False(t, app.IsAbandoned(paidAt), "paid applications are never reaped")
	})
}

func TestApplication_IsAbandoned(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	old := now.Add(-25 * time.Hour)
	recent := now.Add(-23 * time.Hour)

	tests := []struct {
		name      string
		createdAt time.Time
		session   bool
		paid      bool
		want      bool
	}{
		{"old unpaid with session", old, true, false, true},
		{"old paid with session", old, true, true, false},
		{"old unpaid without session", old, false, false, false},
		{"recent unpaid with session", recent, true, false, false},
		{"very old paid without session", now.AddDate(-1, 0, 0), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t, tt.createdAt)
			if tt.session {
				app.RecordPaymentSession("cs_x")
			}
			if tt.paid {
				app.MarkPaid("", tt.createdAt)
			}
			assert.Equal(t, tt.want, app.IsAbandoned(now))
		})
	}
}

func TestMembershipType_ValidatePrice(t *testing.T) {
	tests := []struct {
		price   string
		wantErr bool
	}{
		{"25.00", false},
		{"0.01", false},
		{"0", true},
		{"-5", true},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			mt := &MembershipType{ID: "t", Title: "Gold", Price: decimal.RequireFromString(tt.price)}
			err := mt.ValidatePrice()
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidPrice)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMembershipType_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Gold Membership", (&MembershipType{Title: "Gold"}).DisplayTitle())
	assert.Equal(t, "Membership", (&MembershipType{}).DisplayTitle())
}
