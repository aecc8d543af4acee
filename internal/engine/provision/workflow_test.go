package provision

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
	"fieldcrm/internal/platform/repositories"
)

var testBilling = config.BillingConfig{
	TrialDays: 30,
	PlanAmounts: map[string]int{
		"starter":      29,
		"professional": 79,
		"enterprise":   199,
	},
}

func newTestWorkflow(t *testing.T) (*Workflow, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	w := NewWorkflow(
		repositories.NewOrganizationRepository(db),
		repositories.NewMembershipRepository(db),
		repositories.NewBusinessProfileRepository(db),
		repositories.NewSubscriptionRepository(db),
		repositories.NewProfileRepository(db),
		repositories.NewOnboardingStateRepository(db),
		testBilling,
		EntrySelfServe,
	)

	w.now = func() time.Time { return time.Unix(1764000000, 0) }
	seq := 0
	w.newID = func(prefix string) string {
		seq++
		return fmt.Sprintf("%s%d", prefix, seq)
	}

	return w, mock
}

func expectAtomicInserts(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organizations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO memberships").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO business_profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO subscriptions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO onboarding_state").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestProvisionAtomicPath(t *testing.T) {
	w, mock := newTestWorkflow(t)
	expectAtomicInserts(mock)

	principal := &models.Principal{ID: "usr_1", Email: "owner@brightlights.test", FullName: "Pat Winters"}
	res, err := w.Provision(principal, BusinessInfo{Name: "Bright Lights Co", Plan: "professional"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Organization.Name != "Bright Lights Co" {
		t.Errorf("Organization name = %q", res.Organization.Name)
	}
	if res.Membership.Role != "owner" {
		t.Errorf("Membership role = %q, want owner", res.Membership.Role)
	}
	if !res.Membership.IsActive {
		t.Error("Expected active membership")
	}
	if res.Subscription.Status != models.SubscriptionStatusTrial {
		t.Errorf("Subscription status = %q, want trial", res.Subscription.Status)
	}
	if res.Subscription.Amount != 79 {
		t.Errorf("Subscription amount = %d, want 79", res.Subscription.Amount)
	}
	if got := *res.Subscription.TrialEnd - *res.Subscription.TrialStart; got != 30*86400 {
		t.Errorf("Trial length = %d seconds, want 30 days", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestProvisionAdminEntryPoint(t *testing.T) {
	w, mock := newTestWorkflow(t)
	w.entry = EntryAdmin
	expectAtomicInserts(mock)

	res, err := w.Provision(&models.Principal{ID: "usr_1", Email: "a@b.test"}, BusinessInfo{Name: "Evergreen Irrigation"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Membership.Role != "admin" {
		t.Errorf("Membership role = %q, want admin", res.Membership.Role)
	}
}

func TestProvisionValidation(t *testing.T) {
	tests := []struct {
		name      string
		principal *models.Principal
		info      BusinessInfo
		wantCode  Code
	}{
		{"Nil Principal", nil, BusinessInfo{Name: "X"}, CodeUnauthenticated},
		{"Empty Principal ID", &models.Principal{}, BusinessInfo{Name: "X"}, CodeUnauthenticated},
		{"Empty Name", &models.Principal{ID: "usr_1"}, BusinessInfo{}, CodeInvalidInput},
		{"Whitespace Name", &models.Principal{ID: "usr_1"}, BusinessInfo{Name: "   \t"}, CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, mock := newTestWorkflow(t)
			// No store calls expected: validation failures create zero rows.

			_, err := w.Provision(tt.principal, tt.info)
			if !IsCode(err, tt.wantCode) {
				t.Errorf("Expected code %s, got %v", tt.wantCode, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unexpected store calls: %v", err)
			}
		})
	}
}

func TestProvisionSequentialFallback(t *testing.T) {
	w, mock := newTestWorkflow(t)

	mock.ExpectBegin().WillReturnError(errors.New("transactions unavailable"))
	mock.ExpectExec("INSERT INTO organizations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO memberships").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO business_profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO subscriptions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO onboarding_state").WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := w.Provision(&models.Principal{ID: "usr_1", Email: "a@b.test"}, BusinessInfo{Name: "Cascade Landscaping"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Organization == nil || res.Subscription == nil {
		t.Error("Expected full result from sequential path")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestProvisionOrganizationFailure(t *testing.T) {
	w, mock := newTestWorkflow(t)

	mock.ExpectBegin().WillReturnError(errors.New("transactions unavailable"))
	mock.ExpectExec("INSERT INTO organizations").WillReturnError(errors.New("constraint violation"))

	_, err := w.Provision(&models.Principal{ID: "usr_1"}, BusinessInfo{Name: "X"})
	if !IsCode(err, CodeOrganizationCreateFailed) {
		t.Errorf("Expected organization_create_failed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Expected no further steps after organization failure: %v", err)
	}
}

func TestProvisionMembershipFailureOrphansOrganization(t *testing.T) {
	w, mock := newTestWorkflow(t)

	mock.ExpectBegin().WillReturnError(errors.New("transactions unavailable"))
	mock.ExpectExec("INSERT INTO organizations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO memberships").WillReturnError(errors.New("constraint violation"))

	_, err := w.Provision(&models.Principal{ID: "usr_1"}, BusinessInfo{Name: "X"})
	if !IsCode(err, CodeMembershipCreateFailed) {
		t.Errorf("Expected membership_create_failed, got %v", err)
	}

	// No compensating delete: the organization row stays behind for the
	// reconciliation worker.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestProvisionNonCriticalFailuresContinue(t *testing.T) {
	w, mock := newTestWorkflow(t)

	mock.ExpectBegin().WillReturnError(errors.New("transactions unavailable"))
	mock.ExpectExec("INSERT INTO organizations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO memberships").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO business_profiles").WillReturnError(errors.New("disk full"))
	mock.ExpectExec("INSERT INTO subscriptions").WillReturnError(errors.New("disk full"))
	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO onboarding_state").WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := w.Provision(&models.Principal{ID: "usr_1"}, BusinessInfo{Name: "X"})
	if err != nil {
		t.Fatalf("Non-critical failures must not abort: %v", err)
	}
	if res.BusinessProfile != nil {
		t.Error("Expected no business profile in result after failed insert")
	}
	if res.Subscription != nil {
		t.Error("Expected no subscription in result after failed insert")
	}
	if res.Organization == nil || res.Membership == nil {
		t.Error("Expected organization and membership in result")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// Provisioning is intentionally not idempotent: the onboarding gate is
// the only guard against double invocation, and two calls create two
// organizations. This pins the chosen behavior.
func TestProvisionIsNotIdempotent(t *testing.T) {
	w, mock := newTestWorkflow(t)
	expectAtomicInserts(mock)
	expectAtomicInserts(mock)

	principal := &models.Principal{ID: "usr_1", Email: "a@b.test"}

	first, err := w.Provision(principal, BusinessInfo{Name: "Twice Co"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := w.Provision(principal, BusinessInfo{Name: "Twice Co"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.Organization.ID == second.Organization.ID {
		t.Error("Expected two distinct organizations")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
