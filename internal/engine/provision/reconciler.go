package provision

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
)

type GapLister interface {
	ListOrgsWithout(related string, limit int) ([]string, error)
}

type OrganizationReader interface {
	GetByID(id string) (*models.Organization, error)
}

type MembershipLister interface {
	ListByOrg(orgID string) ([]*models.Membership, error)
}

// Reconciler repairs organizations left partially configured by a
// non-critical step failing during sequential provisioning: a missing
// subscription, business profile, or onboarding state row. It runs from
// the background worker, not the request path.
type Reconciler struct {
	gaps             GapLister
	orgs             OrganizationReader
	memberships      MembershipLister
	businessProfiles BusinessProfileStore
	subscriptions    SubscriptionStore
	onboarding       OnboardingStateStore
	billing          config.BillingConfig

	now   func() time.Time
	newID func(prefix string) string
}

const reconcileBatchSize = 100

func NewReconciler(
	gaps GapLister,
	orgs OrganizationReader,
	memberships MembershipLister,
	businessProfiles BusinessProfileStore,
	subscriptions SubscriptionStore,
	onboarding OnboardingStateStore,
	billing config.BillingConfig,
) *Reconciler {
	return &Reconciler{
		gaps:             gaps,
		orgs:             orgs,
		memberships:      memberships,
		businessProfiles: businessProfiles,
		subscriptions:    subscriptions,
		onboarding:       onboarding,
		billing:          billing,
		now:              time.Now,
		newID:            func(prefix string) string { return prefix + uuid.NewString() },
	}
}

func (r *Reconciler) Run() {
	r.repairSubscriptions()
	r.repairBusinessProfiles()
	r.repairOnboardingState()
}

func (r *Reconciler) repairSubscriptions() {
	orgIDs, err := r.gaps.ListOrgsWithout("subscriptions", reconcileBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconciler: listing orgs without subscriptions failed")
		return
	}

	for _, orgID := range orgIDs {
		org, err := r.orgs.GetByID(orgID)
		if err != nil || org == nil {
			continue
		}

		// Anchor the trial to the organization's creation time so a
		// late repair does not extend the trial window.
		trialDays := r.billing.TrialDays
		if trialDays <= 0 {
			trialDays = 30
		}
		trialStart := org.CreatedAt
		trialEnd := trialStart + int64(trialDays)*86400
		now := r.now().Unix()

		sub := &models.Subscription{
			ID:                 r.newID("sub_"),
			OrgID:              org.ID,
			PlanType:           "starter",
			BillingPeriod:      "monthly",
			Status:             models.SubscriptionStatusTrial,
			TrialStart:         &trialStart,
			TrialEnd:           &trialEnd,
			CurrentPeriodStart: trialStart,
			CurrentPeriodEnd:   trialEnd,
			Amount:             r.billing.PlanAmounts["starter"],
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := r.subscriptions.Create(sub); err != nil {
			log.Error().Err(err).Str("org_id", org.ID).Msg("reconciler: subscription repair failed")
			continue
		}
		log.Info().Str("org_id", org.ID).Msg("reconciler: created missing trial subscription")
	}
}

func (r *Reconciler) repairBusinessProfiles() {
	orgIDs, err := r.gaps.ListOrgsWithout("business_profiles", reconcileBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconciler: listing orgs without business profiles failed")
		return
	}

	for _, orgID := range orgIDs {
		org, err := r.orgs.GetByID(orgID)
		if err != nil || org == nil {
			continue
		}

		now := r.now().Unix()
		bp := &models.BusinessProfile{
			ID:        r.newID("biz_"),
			OrgID:     org.ID,
			Name:      org.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.businessProfiles.Create(bp); err != nil {
			log.Error().Err(err).Str("org_id", org.ID).Msg("reconciler: business profile repair failed")
			continue
		}
		log.Info().Str("org_id", org.ID).Msg("reconciler: created missing business profile")
	}
}

func (r *Reconciler) repairOnboardingState() {
	orgIDs, err := r.gaps.ListOrgsWithout("onboarding_state", reconcileBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconciler: listing orgs without onboarding state failed")
		return
	}

	for _, orgID := range orgIDs {
		memberships, err := r.memberships.ListByOrg(orgID)
		if err != nil || len(memberships) == 0 {
			continue
		}

		// The earliest membership belongs to the provisioning principal.
		owner := memberships[0]
		now := r.now().Unix()
		st := &models.OnboardingState{
			ID:             r.newID("onb_"),
			UserID:         owner.UserID,
			OrgID:          orgID,
			CurrentStep:    1,
			CompletedSteps: []string{"organization_created"},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.onboarding.Create(st); err != nil {
			log.Error().Err(err).Str("org_id", orgID).Msg("reconciler: onboarding state repair failed")
			continue
		}
		log.Info().Str("org_id", orgID).Str("user_id", owner.UserID).Msg("reconciler: created missing onboarding state")
	}
}
