package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/api/handlers"
	"fieldcrm/internal/api/middleware"
	"fieldcrm/internal/engine/permissions"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	OnboardingHandler *handlers.OnboardingHandler
	OrgHandler        *handlers.OrgHandler
	BillingHandler    *handlers.BillingHandler
	UserHandler       *handlers.UserHandler
	InviteHandler     *handlers.InviteHandler
	HealthHandler     *handlers.HealthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	AccessMiddleware  *middleware.AccessMiddleware
}

// NewRouter wires the route table. The access middleware wraps the whole
// router so every protected path goes through the session, onboarding,
// and subscription checks before reaching a handler.
func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	// Authentication
	router.POST("/api/v1/auth/signup", wrap(chainF(deps.AuthHandler.Signup, middleware.RateLimit("auth"))))
	router.POST("/api/v1/auth/join", wrap(chainF(deps.AuthHandler.Join, middleware.RateLimit("auth"))))
	router.POST("/api/v1/auth/login", wrap(chainF(deps.AuthHandler.Login, middleware.RateLimit("auth"))))
	router.POST("/api/v1/auth/refresh", wrap(chainF(deps.AuthHandler.Refresh, middleware.RateLimit("auth"))))
	router.POST("/api/v1/auth/logout", wrap(deps.AuthHandler.Logout))

	authMid := deps.AuthMiddleware

	// Onboarding
	router.GET("/api/v1/onboarding/status",
		chain(deps.OnboardingHandler.Status, authMid.Handle))
	router.POST("/api/v1/onboarding/provision",
		chain(deps.OnboardingHandler.Provision, authMid.Handle, middleware.RateLimit("provision")))

	// Organization
	router.GET("/api/v1/organizations/current",
		chain(deps.OrgHandler.GetCurrent, authMid.Handle, requirePermission(permissions.FeatureOrganization, permissions.ActionView)))
	router.GET("/api/v1/organizations/current/members",
		chain(deps.OrgHandler.ListMembers, authMid.Handle, requirePermission(permissions.FeatureTeam, permissions.ActionView)))

	// Invites
	router.POST("/api/v1/invites",
		chain(deps.InviteHandler.Create, authMid.Handle, requirePermission(permissions.FeatureTeam, permissions.ActionCreate)))
	router.GET("/api/v1/invites",
		chain(deps.InviteHandler.List, authMid.Handle, requirePermission(permissions.FeatureTeam, permissions.ActionView)))

	// Billing
	router.GET("/api/v1/billing/subscription",
		chain(deps.BillingHandler.GetSubscription, authMid.Handle, requirePermission(permissions.FeatureBilling, permissions.ActionView)))

	// Current user
	router.GET("/api/v1/me", chain(deps.UserHandler.Me, authMid.Handle))

	// Health
	router.GET("/api/v1/health", wrap(deps.HealthHandler.Check))

	return deps.AccessMiddleware.Handle(router)
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	return wrap(chainF(handler, middlewares...))
}

func chainF(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requirePermission(feature permissions.Feature, action permissions.Action) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
			if !ok {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Not authenticated", nil)
				return
			}

			role := permissions.Normalize(claims.Role)
			if !permissions.Resolve(role, feature, action) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
