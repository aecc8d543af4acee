package billing

import (
	"errors"
	"testing"
	"time"

	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
)

type fakeSubs struct {
	sub *models.Subscription
	err error
}

func (f *fakeSubs) GetByOrg(orgID string) (*models.Subscription, error) {
	return f.sub, f.err
}

func ts(t time.Time) *int64 {
	u := t.Unix()
	return &u
}

func TestCheckAccess(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := ts(now.Add(-24 * time.Hour))
	future := ts(now.Add(24 * time.Hour))

	tests := []struct {
		name        string
		sub         *models.Subscription
		err         error
		failMode    config.FailMode
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "Trial Active",
			sub:         &models.Subscription{Status: models.SubscriptionStatusTrial, TrialEnd: future},
			wantAllowed: true,
		},
		{
			name:        "Trial Expired",
			sub:         &models.Subscription{Status: models.SubscriptionStatusTrial, TrialEnd: past},
			wantAllowed: false,
			wantReason:  ReasonTrialExpired,
		},
		{
			name:        "Trial Without End Date",
			sub:         &models.Subscription{Status: models.SubscriptionStatusTrial},
			wantAllowed: true,
		},
		{
			name:        "Active Ignores Trial End",
			sub:         &models.Subscription{Status: models.SubscriptionStatusActive, TrialEnd: past},
			wantAllowed: true,
		},
		{
			name:        "Past Due",
			sub:         &models.Subscription{Status: models.SubscriptionStatusPastDue},
			wantAllowed: false,
			wantReason:  ReasonInactive,
		},
		{
			name:        "Canceled",
			sub:         &models.Subscription{Status: models.SubscriptionStatusCanceled},
			wantAllowed: false,
			wantReason:  ReasonInactive,
		},
		{
			name:        "No Subscription Row",
			wantAllowed: true,
		},
		{
			name:        "Read Error Fails Open",
			err:         errors.New("store unavailable"),
			wantAllowed: true,
		},
		{
			name:        "Read Error Fails Closed",
			err:         errors.New("store unavailable"),
			failMode:    config.FailClosed,
			wantAllowed: false,
			wantReason:  ReasonLookupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(&fakeSubs{sub: tt.sub, err: tt.err}, tt.failMode)
			gate.now = func() time.Time { return now }

			got := gate.CheckAccess("org_1")
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestCheckAccessEmptyOrg(t *testing.T) {
	gate := NewGate(&fakeSubs{}, config.FailOpen)
	if !gate.CheckAccess("").Allowed {
		t.Error("Expected allow when no org id is known")
	}
}
