package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/engine/billing"
	"fieldcrm/internal/engine/onboarding"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/config"
)

// AccessMiddleware runs the per-request access decision for protected
// paths: session, onboarding state, subscription state. It only ever
// redirects or passes the request through; it never writes to the store
// and never surfaces an internal error to the client.
type AccessMiddleware struct {
	sessions       *auth.SessionAccessor
	onboardingGate *onboarding.Gate
	billingGate    *billing.Gate
	cfg            config.AccessConfig
}

func NewAccessMiddleware(sessions *auth.SessionAccessor, onboardingGate *onboarding.Gate, billingGate *billing.Gate, cfg config.AccessConfig) *AccessMiddleware {
	return &AccessMiddleware{
		sessions:       sessions,
		onboardingGate: onboardingGate,
		billingGate:    billingGate,
		cfg:            cfg,
	}
}

func (m *AccessMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if !m.isProtected(path) || m.isPublic(path) {
			next.ServeHTTP(w, r)
			return
		}

		claims := m.sessions.Claims(r)
		if claims == nil {
			m.redirectToLogin(w, r)
			return
		}

		principal := m.sessions.Current(r)

		gateRes := m.onboardingGate.Check(principal)
		if gateRes.Needed {
			if path == m.cfg.OnboardingPath || hasAnyPrefix(path, m.cfg.OnboardingExempt) {
				m.pass(next, w, r, claims)
				return
			}
			http.Redirect(w, r, m.cfg.OnboardingPath, http.StatusFound)
			return
		}

		decision := m.billingGate.CheckAccess(gateRes.DefaultOrg)
		if !decision.Allowed {
			if path == m.cfg.TrialExpiredPath || hasAnyPrefix(path, m.cfg.TrialExpiredExempt) {
				m.pass(next, w, r, claims)
				return
			}
			log.Info().
				Str("user_id", claims.UserID).
				Str("org_id", gateRes.DefaultOrg).
				Str("reason", decision.Reason).
				Msg("access denied by subscription gate")
			http.Redirect(w, r, m.cfg.TrialExpiredPath, http.StatusFound)
			return
		}

		m.pass(next, w, r, claims)
	})
}

func (m *AccessMiddleware) pass(next http.Handler, w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (m *AccessMiddleware) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := m.cfg.LoginPath + "?redirectedFrom=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}

func (m *AccessMiddleware) isProtected(path string) bool {
	for _, prefix := range m.cfg.ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// The redirect targets themselves are gated so the loop guards
	// above apply to them.
	return path == m.cfg.OnboardingPath || path == m.cfg.TrialExpiredPath
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *AccessMiddleware) isPublic(path string) bool {
	for _, p := range m.cfg.PublicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range m.cfg.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
