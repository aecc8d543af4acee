package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/engine/permissions"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/models"
	"fieldcrm/internal/platform/repositories"
)

type UserHandler struct {
	profileRepo    *repositories.ProfileRepository
	membershipRepo *repositories.MembershipRepository
}

func NewUserHandler(profileRepo *repositories.ProfileRepository, membershipRepo *repositories.MembershipRepository) *UserHandler {
	return &UserHandler{profileRepo: profileRepo, membershipRepo: membershipRepo}
}

type MeResponse struct {
	Profile     *models.Profile                               `json:"profile"`
	Memberships []*models.Membership                          `json:"memberships"`
	Permissions map[permissions.Feature]permissions.Permission `json:"permissions"`
}

// Me returns the caller's profile, memberships, and the full permission
// grant set for their role so the UI can render feature access in one
// round trip.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Not authenticated", nil)
		return
	}

	profile, err := h.profileRepo.GetByID(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if profile == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Profile not found", nil)
		return
	}

	memberships, err := h.membershipRepo.ListActiveByUser(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	role := profile.Role
	for _, m := range memberships {
		if m.OrgID == profile.DefaultOrg {
			role = m.Role
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MeResponse{
		Profile:     profile,
		Memberships: memberships,
		Permissions: permissions.Grants(permissions.Normalize(role)),
	})
}
