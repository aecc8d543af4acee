package models

// Principal is the authenticated identity resolved from a session token.
// It is read-only to this service; the source of truth is the auth layer.
type Principal struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	FullName string            `json:"full_name,omitempty"`
	Role     string            `json:"role,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Membership struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	OrgID     string `json:"org_id"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type BusinessProfile struct {
	ID           string `json:"id"`
	OrgID        string `json:"org_id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Subscription statuses form a closed set. Trial expiry is computed from
// trial_end at read time, never stored as its own status.
const (
	SubscriptionStatusTrial    = "trial"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

type Subscription struct {
	ID                 string `json:"id"`
	OrgID              string `json:"org_id"`
	PlanType           string `json:"plan_type"`
	BillingPeriod      string `json:"billing_period"`
	Status             string `json:"status"`
	TrialStart         *int64 `json:"trial_start,omitempty"`
	TrialEnd           *int64 `json:"trial_end,omitempty"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Amount             int    `json:"amount"`
	CreatedAt          int64  `json:"created_at"`
	UpdatedAt          int64  `json:"updated_at"`
}

// Profile is the application-level record for a principal. DefaultOrg
// must point at an active membership's org when set by this service.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	DefaultOrg   string `json:"default_org,omitempty"`
	Metadata     string `json:"metadata,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type OnboardingState struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	OrgID          string   `json:"org_id"`
	CurrentStep    int      `json:"current_step"`
	CompletedSteps []string `json:"completed_steps"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

type Invite struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id"`
	Code        string `json:"code"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	InvitedBy   string `json:"invited_by"`
	Status      string `json:"status"`
	MaxUses     int    `json:"max_uses"`
	CurrentUses int    `json:"current_uses"`
	ExpiresAt   int64  `json:"expires_at"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}
