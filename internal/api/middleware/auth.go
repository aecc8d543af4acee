package middleware

import (
	"context"
	"net/http"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/models"
)

type AuthMiddleware struct {
	sessions *auth.SessionAccessor
}

func NewAuthMiddleware(sessions *auth.SessionAccessor) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handle requires a valid session and injects the claims and principal
// into the request context. API routes answer 401 JSON here; redirect
// behavior for page navigation lives in AccessMiddleware.
func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := m.sessions.Claims(r)
		if claims == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing or invalid session token", nil)
			return
		}

		principal := &models.Principal{
			ID:       claims.UserID,
			Email:    claims.Email,
			FullName: claims.FullName,
			Role:     claims.Role,
			Metadata: claims.Metadata,
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		ctx = context.WithValue(ctx, apiContext.Principal, principal)
		next(w, r.WithContext(ctx))
	}
}
