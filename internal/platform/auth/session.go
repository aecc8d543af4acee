package auth

import (
	"net/http"
	"strings"

	"fieldcrm/internal/platform/models"
)

// SessionAccessor resolves the authenticated principal for a request.
// Tokens are read from the Authorization header, falling back to the
// access_token cookie set by the web frontend.
type SessionAccessor struct {
	tokenSvc *TokenService
}

func NewSessionAccessor(tokenSvc *TokenService) *SessionAccessor {
	return &SessionAccessor{tokenSvc: tokenSvc}
}

// Current returns the principal for the request, or nil when the request
// carries no valid session. An invalid or expired token is treated the
// same as no token; callers decide whether that means a redirect or a 401.
func (s *SessionAccessor) Current(r *http.Request) *models.Principal {
	claims := s.Claims(r)
	if claims == nil {
		return nil
	}

	return &models.Principal{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
		Metadata: claims.Metadata,
	}
}

// Claims returns the raw validated token claims, or nil.
func (s *SessionAccessor) Claims(r *http.Request) *Claims {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie("access_token"); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return nil
	}

	claims, err := s.tokenSvc.ValidateToken(token)
	if err != nil {
		return nil
	}
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
