package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/models"
	"fieldcrm/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo        *repositories.OrganizationRepository
	businessRepo   *repositories.BusinessProfileRepository
	membershipRepo *repositories.MembershipRepository
	profileRepo    *repositories.ProfileRepository
}

func NewOrgHandler(orgRepo *repositories.OrganizationRepository, businessRepo *repositories.BusinessProfileRepository, membershipRepo *repositories.MembershipRepository, profileRepo *repositories.ProfileRepository) *OrgHandler {
	return &OrgHandler{
		orgRepo:        orgRepo,
		businessRepo:   businessRepo,
		membershipRepo: membershipRepo,
		profileRepo:    profileRepo,
	}
}

// currentOrgID resolves the caller's organization from their profile
// default_org pointer.
func (h *OrgHandler) currentOrgID(r *http.Request) (string, error) {
	claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
	if !ok {
		return "", nil
	}
	profile, err := h.profileRepo.GetByID(claims.UserID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", nil
	}
	return profile.DefaultOrg, nil
}

type CurrentOrgResponse struct {
	Organization    *models.Organization    `json:"organization"`
	BusinessProfile *models.BusinessProfile `json:"business_profile,omitempty"`
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	orgID, err := h.currentOrgID(r)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if orgID == "" {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeOnboardingRequired, "No organization, complete onboarding first", nil)
		return
	}

	org, err := h.orgRepo.GetByID(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}

	resp := CurrentOrgResponse{Organization: org}
	if bp, err := h.businessRepo.GetByOrg(orgID); err == nil {
		resp.BusinessProfile = bp
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *OrgHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, err := h.currentOrgID(r)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if orgID == "" {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeOnboardingRequired, "No organization, complete onboarding first", nil)
		return
	}

	members, err := h.membershipRepo.ListByOrg(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"members": members})
}
