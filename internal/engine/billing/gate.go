// Package billing gates application access on the organization's
// trial/subscription state.
package billing

import (
	"time"

	"github.com/rs/zerolog/log"

	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
)

type SubscriptionReader interface {
	GetByOrg(orgID string) (*models.Subscription, error)
}

const (
	ReasonTrialExpired = "trial_expired"
	ReasonInactive     = "subscription_inactive"
	ReasonLookupFailed = "subscription_lookup_failed"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type Gate struct {
	subs     SubscriptionReader
	failMode config.FailMode
	now      func() time.Time
}

func NewGate(subs SubscriptionReader, failMode config.FailMode) *Gate {
	if failMode == "" {
		failMode = config.FailOpen
	}
	return &Gate{subs: subs, failMode: failMode, now: time.Now}
}

// CheckAccess decides whether the organization may keep using the
// application. An organization with no subscription row is allowed:
// legacy organizations predate subscription records and must not be
// locked out. Trial expiry is computed here, not read from the status
// column.
func (g *Gate) CheckAccess(orgID string) Decision {
	if orgID == "" {
		return Decision{Allowed: true}
	}

	sub, err := g.subs.GetByOrg(orgID)
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("subscription gate: read failed")
		if g.failMode == config.FailClosed {
			return Decision{Allowed: false, Reason: ReasonLookupFailed}
		}
		return Decision{Allowed: true}
	}
	if sub == nil {
		return Decision{Allowed: true}
	}

	trialExpired := sub.Status == models.SubscriptionStatusTrial &&
		sub.TrialEnd != nil && g.now().Unix() > *sub.TrialEnd

	inactive := sub.Status != models.SubscriptionStatusActive &&
		sub.Status != models.SubscriptionStatusTrial

	switch {
	case trialExpired:
		return Decision{Allowed: false, Reason: ReasonTrialExpired}
	case inactive:
		return Decision{Allowed: false, Reason: ReasonInactive}
	}
	return Decision{Allowed: true}
}
