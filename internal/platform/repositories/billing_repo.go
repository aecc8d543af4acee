package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"fieldcrm/internal/platform/models"
)

type BusinessProfileRepository struct {
	db *sql.DB
}

func NewBusinessProfileRepository(db *sql.DB) *BusinessProfileRepository {
	return &BusinessProfileRepository{db: db}
}

func (r *BusinessProfileRepository) CreateTx(tx *sql.Tx, bp *models.BusinessProfile) error {
	_, err := tx.Exec(`
		INSERT INTO business_profiles (id, org_id, name, contact_email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, bp.ID, bp.OrgID, bp.Name, bp.ContactEmail, bp.Phone, bp.CreatedAt, bp.UpdatedAt)
	return err
}

func (r *BusinessProfileRepository) Create(bp *models.BusinessProfile) error {
	_, err := r.db.Exec(`
		INSERT INTO business_profiles (id, org_id, name, contact_email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, bp.ID, bp.OrgID, bp.Name, bp.ContactEmail, bp.Phone, bp.CreatedAt, bp.UpdatedAt)
	return err
}

func (r *BusinessProfileRepository) GetByOrg(orgID string) (*models.BusinessProfile, error) {
	bp := &models.BusinessProfile{}
	err := r.db.QueryRow(`
		SELECT id, org_id, name, contact_email, phone, created_at, updated_at
		FROM business_profiles WHERE org_id = ?
	`, orgID).Scan(&bp.ID, &bp.OrgID, &bp.Name, &bp.ContactEmail, &bp.Phone, &bp.CreatedAt, &bp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return bp, nil
}

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) CreateTx(tx *sql.Tx, s *models.Subscription) error {
	_, err := tx.Exec(`
		INSERT INTO subscriptions (id, org_id, plan_type, billing_period, status, trial_start, trial_end, current_period_start, current_period_end, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.OrgID, s.PlanType, s.BillingPeriod, s.Status, s.TrialStart, s.TrialEnd, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.Amount, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *SubscriptionRepository) Create(s *models.Subscription) error {
	_, err := r.db.Exec(`
		INSERT INTO subscriptions (id, org_id, plan_type, billing_period, status, trial_start, trial_end, current_period_start, current_period_end, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.OrgID, s.PlanType, s.BillingPeriod, s.Status, s.TrialStart, s.TrialEnd, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.Amount, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *SubscriptionRepository) GetByOrg(orgID string) (*models.Subscription, error) {
	s := &models.Subscription{}
	err := r.db.QueryRow(`
		SELECT id, org_id, plan_type, billing_period, status, trial_start, trial_end, current_period_start, current_period_end, amount, created_at, updated_at
		FROM subscriptions WHERE org_id = ?
	`, orgID).Scan(&s.ID, &s.OrgID, &s.PlanType, &s.BillingPeriod, &s.Status, &s.TrialStart, &s.TrialEnd, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.Amount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListOrgsWithout returns ids of organizations that have no row in the
// given related table. Used by the reconciliation worker to find
// organizations left partially configured by a failed provisioning step.
// The table name is restricted to a known set to keep this out of
// injection territory.
func (r *SubscriptionRepository) ListOrgsWithout(related string, limit int) ([]string, error) {
	switch related {
	case "subscriptions", "business_profiles", "onboarding_state":
	default:
		return nil, fmt.Errorf("unknown related table %q", related)
	}

	rows, err := r.db.Query(`
		SELECT o.id FROM organizations o
		LEFT JOIN `+related+` t ON t.org_id = o.id
		WHERE t.id IS NULL
		ORDER BY o.created_at ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type OnboardingStateRepository struct {
	db *sql.DB
}

func NewOnboardingStateRepository(db *sql.DB) *OnboardingStateRepository {
	return &OnboardingStateRepository{db: db}
}

func (r *OnboardingStateRepository) CreateTx(tx *sql.Tx, st *models.OnboardingState) error {
	steps, err := json.Marshal(st.CompletedSteps)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO onboarding_state (id, user_id, org_id, current_step, completed_steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, st.ID, st.UserID, st.OrgID, st.CurrentStep, string(steps), st.CreatedAt, st.UpdatedAt)
	return err
}

func (r *OnboardingStateRepository) Create(st *models.OnboardingState) error {
	steps, err := json.Marshal(st.CompletedSteps)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO onboarding_state (id, user_id, org_id, current_step, completed_steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, st.ID, st.UserID, st.OrgID, st.CurrentStep, string(steps), st.CreatedAt, st.UpdatedAt)
	return err
}

func (r *OnboardingStateRepository) GetByUser(userID string) (*models.OnboardingState, error) {
	st := &models.OnboardingState{}
	var steps string
	err := r.db.QueryRow(`
		SELECT id, user_id, org_id, current_step, completed_steps, created_at, updated_at
		FROM onboarding_state WHERE user_id = ?
	`, userID).Scan(&st.ID, &st.UserID, &st.OrgID, &st.CurrentStep, &steps, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if steps != "" {
		if err := json.Unmarshal([]byte(steps), &st.CompletedSteps); err != nil {
			return nil, err
		}
	}
	return st, nil
}
