// Package provision creates an organization and its satellite records
// for a newly onboarding principal.
package provision

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
)

// EntryPoint selects the role granted to the provisioning principal.
type EntryPoint string

const (
	EntrySelfServe EntryPoint = "self_serve" // signup flow, role owner
	EntryAdmin     EntryPoint = "admin"      // back-office flow, role admin
)

type BusinessInfo struct {
	Name          string `json:"name"`
	ContactEmail  string `json:"contact_email"`
	Phone         string `json:"phone"`
	Plan          string `json:"plan"`
	BillingPeriod string `json:"billing_period"`
}

type OrganizationStore interface {
	BeginTx() (*sql.Tx, error)
	Create(org *models.Organization) error
	CreateTx(tx *sql.Tx, org *models.Organization) error
}

type MembershipStore interface {
	Create(m *models.Membership) error
	CreateTx(tx *sql.Tx, m *models.Membership) error
}

type BusinessProfileStore interface {
	Create(bp *models.BusinessProfile) error
	CreateTx(tx *sql.Tx, bp *models.BusinessProfile) error
}

type SubscriptionStore interface {
	Create(s *models.Subscription) error
	CreateTx(tx *sql.Tx, s *models.Subscription) error
}

type ProfileStore interface {
	Upsert(p *models.Profile) error
	UpsertTx(tx *sql.Tx, p *models.Profile) error
}

type OnboardingStateStore interface {
	Create(st *models.OnboardingState) error
	CreateTx(tx *sql.Tx, st *models.OnboardingState) error
}

type Result struct {
	Organization    *models.Organization    `json:"organization"`
	Membership      *models.Membership      `json:"membership"`
	BusinessProfile *models.BusinessProfile `json:"business_profile,omitempty"`
	Subscription    *models.Subscription    `json:"subscription,omitempty"`
	OnboardingState *models.OnboardingState `json:"onboarding_state,omitempty"`
}

type Workflow struct {
	orgs             OrganizationStore
	memberships      MembershipStore
	businessProfiles BusinessProfileStore
	subscriptions    SubscriptionStore
	profiles         ProfileStore
	onboarding       OnboardingStateStore
	billing          config.BillingConfig
	entry            EntryPoint

	now   func() time.Time
	newID func(prefix string) string
}

func NewWorkflow(
	orgs OrganizationStore,
	memberships MembershipStore,
	businessProfiles BusinessProfileStore,
	subscriptions SubscriptionStore,
	profiles ProfileStore,
	onboarding OnboardingStateStore,
	billing config.BillingConfig,
	entry EntryPoint,
) *Workflow {
	return &Workflow{
		orgs:             orgs,
		memberships:      memberships,
		businessProfiles: businessProfiles,
		subscriptions:    subscriptions,
		profiles:         profiles,
		onboarding:       onboarding,
		billing:          billing,
		entry:            entry,
		now:              time.Now,
		newID:            func(prefix string) string { return prefix + uuid.NewString() },
	}
}

// Provision creates the organization, membership, business profile,
// trial subscription, profile pointer, and onboarding state for the
// principal. The transactional path is attempted first; if the store
// cannot run it, the sequential path reproduces the step-by-step
// semantics: organization and membership failures abort, later steps
// are logged and skipped.
//
// Provision is not idempotent. Calling it twice for the same principal
// creates two organizations; the onboarding gate is the caller's guard
// against double invocation.
func (w *Workflow) Provision(principal *models.Principal, info BusinessInfo) (*Result, error) {
	if principal == nil || principal.ID == "" {
		return nil, newError(CodeUnauthenticated, "validate", nil)
	}

	info.Name = strings.TrimSpace(info.Name)
	if info.Name == "" {
		return nil, newError(CodeInvalidInput, "validate", nil)
	}

	records := w.buildRecords(principal, info)

	if res, err := w.provisionAtomic(records); err == nil {
		return res, nil
	} else {
		log.Warn().Err(err).Str("user_id", principal.ID).Msg("atomic provisioning unavailable, falling back to sequential steps")
	}

	return w.provisionSequential(principal, records)
}

type records struct {
	org             *models.Organization
	membership      *models.Membership
	businessProfile *models.BusinessProfile
	subscription    *models.Subscription
	profile         *models.Profile
	onboardingState *models.OnboardingState
}

func (w *Workflow) buildRecords(principal *models.Principal, info BusinessInfo) *records {
	now := w.now().Unix()

	role := "owner"
	if w.entry == EntryAdmin {
		role = "admin"
	}

	plan := info.Plan
	amount, ok := w.billing.PlanAmounts[plan]
	if !ok {
		plan = "starter"
		amount = w.billing.PlanAmounts[plan]
	}
	period := info.BillingPeriod
	if period == "" {
		period = "monthly"
	}

	trialDays := w.billing.TrialDays
	if trialDays <= 0 {
		trialDays = 30
	}
	trialEnd := now + int64(trialDays)*86400

	org := &models.Organization{
		ID:        w.newID("org_"),
		Name:      info.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return &records{
		org: org,
		membership: &models.Membership{
			ID:        w.newID("mem_"),
			UserID:    principal.ID,
			OrgID:     org.ID,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		businessProfile: &models.BusinessProfile{
			ID:           w.newID("biz_"),
			OrgID:        org.ID,
			Name:         info.Name,
			ContactEmail: info.ContactEmail,
			Phone:        info.Phone,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		subscription: &models.Subscription{
			ID:                 w.newID("sub_"),
			OrgID:              org.ID,
			PlanType:           plan,
			BillingPeriod:      period,
			Status:             models.SubscriptionStatusTrial,
			TrialStart:         &now,
			TrialEnd:           &trialEnd,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   trialEnd,
			Amount:             amount,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		profile: &models.Profile{
			ID:         principal.ID,
			Email:      principal.Email,
			FullName:   principal.FullName,
			Role:       role,
			DefaultOrg: org.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		onboardingState: &models.OnboardingState{
			ID:             w.newID("onb_"),
			UserID:         principal.ID,
			OrgID:          org.ID,
			CurrentStep:    1,
			CompletedSteps: []string{"organization_created"},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func (w *Workflow) provisionAtomic(rec *records) (*Result, error) {
	tx, err := w.orgs.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := w.orgs.CreateTx(tx, rec.org); err != nil {
		return nil, err
	}
	if err := w.memberships.CreateTx(tx, rec.membership); err != nil {
		return nil, err
	}
	if err := w.businessProfiles.CreateTx(tx, rec.businessProfile); err != nil {
		return nil, err
	}
	if err := w.subscriptions.CreateTx(tx, rec.subscription); err != nil {
		return nil, err
	}
	if err := w.profiles.UpsertTx(tx, rec.profile); err != nil {
		return nil, err
	}
	if err := w.onboarding.CreateTx(tx, rec.onboardingState); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return rec.result(), nil
}

func (w *Workflow) provisionSequential(principal *models.Principal, rec *records) (*Result, error) {
	if err := w.orgs.Create(rec.org); err != nil {
		return nil, newError(CodeOrganizationCreateFailed, "organization", err)
	}

	if err := w.memberships.Create(rec.membership); err != nil {
		// The organization row from the previous step is now orphaned.
		// The reconciliation worker picks it up; see Reconciler.
		return nil, newError(CodeMembershipCreateFailed, "membership", err)
	}

	res := &Result{Organization: rec.org, Membership: rec.membership}

	if err := w.businessProfiles.Create(rec.businessProfile); err != nil {
		log.Error().Err(err).Str("org_id", rec.org.ID).Msg("provision: business profile create failed, continuing")
	} else {
		res.BusinessProfile = rec.businessProfile
	}

	if err := w.subscriptions.Create(rec.subscription); err != nil {
		log.Error().Err(err).Str("org_id", rec.org.ID).Msg("provision: subscription create failed, continuing")
	} else {
		res.Subscription = rec.subscription
	}

	if err := w.profiles.Upsert(rec.profile); err != nil {
		log.Error().Err(err).Str("user_id", principal.ID).Msg("provision: profile upsert failed, continuing")
	}

	if err := w.onboarding.Create(rec.onboardingState); err != nil {
		log.Error().Err(err).Str("org_id", rec.org.ID).Msg("provision: onboarding state create failed, continuing")
	} else {
		res.OnboardingState = rec.onboardingState
	}

	return res, nil
}

func (r *records) result() *Result {
	return &Result{
		Organization:    r.org,
		Membership:      r.membership,
		BusinessProfile: r.businessProfile,
		Subscription:    r.subscription,
		OnboardingState: r.onboardingState,
	}
}
