package provision

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fieldcrm/internal/platform/repositories"
)

func newTestReconciler(t *testing.T) (*Reconciler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	subs := repositories.NewSubscriptionRepository(db)
	r := NewReconciler(
		subs,
		repositories.NewOrganizationRepository(db),
		repositories.NewMembershipRepository(db),
		repositories.NewBusinessProfileRepository(db),
		subs,
		repositories.NewOnboardingStateRepository(db),
		testBilling,
	)
	r.now = func() time.Time { return time.Unix(1764000000, 0) }
	seq := 0
	r.newID = func(prefix string) string {
		seq++
		return fmt.Sprintf("%s%d", prefix, seq)
	}

	return r, mock
}

func emptyGapRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

func TestReconcilerRepairsMissingSubscription(t *testing.T) {
	r, mock := newTestReconciler(t)

	mock.ExpectQuery("SELECT o.id FROM organizations o").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("org_1"))
	mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
		WithArgs("org_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("org_1", "Bright Lights Co", int64(1760000000), int64(1760000000)))
	mock.ExpectExec("INSERT INTO subscriptions").WillReturnResult(sqlmock.NewResult(1, 1))

	// Nothing to repair in the remaining sweeps.
	mock.ExpectQuery("SELECT o.id FROM organizations o").WillReturnRows(emptyGapRows())
	mock.ExpectQuery("SELECT o.id FROM organizations o").WillReturnRows(emptyGapRows())

	r.Run()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestReconcilerRepairsOnboardingStateFromFirstMembership(t *testing.T) {
	r, mock := newTestReconciler(t)

	mock.ExpectQuery("SELECT o.id FROM organizations o").WillReturnRows(emptyGapRows())
	mock.ExpectQuery("SELECT o.id FROM organizations o").WillReturnRows(emptyGapRows())

	mock.ExpectQuery("SELECT o.id FROM organizations o").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("org_2"))
	mock.ExpectQuery("SELECT (.+) FROM memberships WHERE org_id = ?").
		WithArgs("org_2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "org_id", "role", "is_active", "created_at", "updated_at"}).
			AddRow("mem_1", "usr_9", "org_2", "owner", true, int64(1760000000), int64(1760000000)))
	mock.ExpectExec("INSERT INTO onboarding_state").WillReturnResult(sqlmock.NewResult(1, 1))

	r.Run()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
