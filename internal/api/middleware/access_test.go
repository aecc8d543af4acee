package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"fieldcrm/internal/engine/billing"
	"fieldcrm/internal/engine/onboarding"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/models"
)

type stubProfiles struct {
	profile *models.Profile
	err     error
}

func (s *stubProfiles) GetByID(id string) (*models.Profile, error) {
	return s.profile, s.err
}

type stubMemberships struct {
	memberships []*models.Membership
	err         error
}

func (s *stubMemberships) ListActiveByUser(userID string) ([]*models.Membership, error) {
	return s.memberships, s.err
}

type stubSubs struct {
	sub *models.Subscription
	err error
}

func (s *stubSubs) GetByOrg(orgID string) (*models.Subscription, error) {
	return s.sub, s.err
}

var testAccessConfig = config.AccessConfig{
	ProtectedPrefixes: []string{"/dashboard", "/api/v1"},
	PublicPaths:       []string{"/api/v1/health"},
	PublicPrefixes:    []string{"/api/v1/auth/", "/auth/"},
	LoginPath:          "/login",
	OnboardingPath:     "/onboarding",
	TrialExpiredPath:   "/trial-expired",
	OnboardingExempt:   []string{"/api/v1/onboarding"},
	TrialExpiredExempt: []string{"/api/v1/billing"},
	GateFailMode:       config.FailOpen,
}

func newAccessMiddleware(profiles onboarding.ProfileReader, memberships onboarding.MembershipReader, subs billing.SubscriptionReader) (*AccessMiddleware, *auth.TokenService) {
	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	sessions := auth.NewSessionAccessor(tokenSvc)
	onboardingGate := onboarding.NewGate(profiles, memberships, config.FailOpen)
	billingGate := billing.NewGate(subs, config.FailOpen)
	return NewAccessMiddleware(sessions, onboardingGate, billingGate, testAccessConfig), tokenSvc
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authedRequest(t *testing.T, tokenSvc *auth.TokenService, path string) *http.Request {
	t.Helper()
	token, err := tokenSvc.GenerateAccessToken("usr_1", "owner@brightlights.test", "Pat Winters", "owner", nil)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func assertRedirect(t *testing.T, rr *httptest.ResponseRecorder, wantPath string) {
	t.Helper()
	if rr.Code != http.StatusFound {
		t.Fatalf("Status = %d, want %d", rr.Code, http.StatusFound)
	}
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Bad Location header: %v", err)
	}
	if loc.Path != wantPath {
		t.Errorf("Redirect path = %q, want %q", loc.Path, wantPath)
	}
}

func TestAccessUnauthenticatedRedirectsToLogin(t *testing.T) {
	m, _ := newAccessMiddleware(&stubProfiles{}, &stubMemberships{}, &stubSubs{})
	handler := m.Handle(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/dashboard", nil))

	assertRedirect(t, rr, "/login")
	loc, _ := url.Parse(rr.Header().Get("Location"))
	if got := loc.Query().Get("redirectedFrom"); got != "/dashboard" {
		t.Errorf("redirectedFrom = %q, want /dashboard", got)
	}
}

func TestAccessPublicPathsSkipChecks(t *testing.T) {
	m, _ := newAccessMiddleware(&stubProfiles{}, &stubMemberships{}, &stubSubs{})
	handler := m.Handle(okHandler())

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/health", "/pricing"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("Path %s: status = %d, want 200", path, rr.Code)
		}
	}
}

func TestAccessRedirectsToOnboarding(t *testing.T) {
	// Authenticated but no membership and no default org.
	m, tokenSvc := newAccessMiddleware(&stubProfiles{profile: &models.Profile{ID: "usr_1"}}, &stubMemberships{}, &stubSubs{})
	handler := m.Handle(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/dashboard"))

	assertRedirect(t, rr, "/onboarding")
}

func TestAccessOnboardingPageDoesNotLoop(t *testing.T) {
	m, tokenSvc := newAccessMiddleware(&stubProfiles{profile: &models.Profile{ID: "usr_1"}}, &stubMemberships{}, &stubSubs{})
	handler := m.Handle(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/onboarding"))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200 (no redirect loop)", rr.Code)
	}

	// The provisioning API must stay reachable while onboarding is
	// pending, or nobody could ever finish it.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/api/v1/onboarding/provision"))
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200 for onboarding API", rr.Code)
	}
}

func onboardedStubs(sub *models.Subscription) (*stubProfiles, *stubMemberships, *stubSubs) {
	profiles := &stubProfiles{profile: &models.Profile{ID: "usr_1", DefaultOrg: "org_1"}}
	memberships := &stubMemberships{memberships: []*models.Membership{
		{ID: "mem_1", UserID: "usr_1", OrgID: "org_1", Role: "owner", IsActive: true},
	}}
	return profiles, memberships, &stubSubs{sub: sub}
}

func TestAccessTrialExpiredRedirects(t *testing.T) {
	expired := time.Now().Add(-24 * time.Hour).Unix()
	profiles, memberships, subs := onboardedStubs(&models.Subscription{
		OrgID: "org_1", Status: models.SubscriptionStatusTrial, TrialEnd: &expired,
	})
	m, tokenSvc := newAccessMiddleware(profiles, memberships, subs)
	handler := m.Handle(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/dashboard"))
	assertRedirect(t, rr, "/trial-expired")

	// A second request already at the trial-expired page passes through.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/trial-expired"))
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200 (no redirect loop)", rr.Code)
	}
}

func TestAccessAllowsActiveTrial(t *testing.T) {
	future := time.Now().Add(10 * 24 * time.Hour).Unix()
	profiles, memberships, subs := onboardedStubs(&models.Subscription{
		OrgID: "org_1", Status: models.SubscriptionStatusTrial, TrialEnd: &future,
	})
	m, tokenSvc := newAccessMiddleware(profiles, memberships, subs)
	handler := m.Handle(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/dashboard"))
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}
}

func TestAccessGateErrorsFailOpen(t *testing.T) {
	// Every backing read failing must still admit the request.
	profiles := &stubProfiles{err: errUnavailable}
	memberships := &stubMemberships{err: errUnavailable}
	subs := &stubSubs{err: errUnavailable}
	m, tokenSvc := newAccessMiddleware(profiles, memberships, subs)
	handler := m.Handle(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, tokenSvc, "/dashboard"))
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200 (fail open)", rr.Code)
	}
}

var errUnavailable = errors.New("store unavailable")
