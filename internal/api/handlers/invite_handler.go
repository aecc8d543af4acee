package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/audit"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/models"
	"fieldcrm/internal/platform/repositories"
)

type InviteHandler struct {
	inviteRepo  *repositories.InviteRepository
	profileRepo *repositories.ProfileRepository
	auditLog    *audit.Logger
}

func NewInviteHandler(inviteRepo *repositories.InviteRepository, profileRepo *repositories.ProfileRepository, auditLog *audit.Logger) *InviteHandler {
	return &InviteHandler{inviteRepo: inviteRepo, profileRepo: profileRepo, auditLog: auditLog}
}

// invitableRoles excludes owner: ownership is established at
// provisioning time, never granted by invite.
var invitableRoles = map[string]bool{
	"admin":   true,
	"manager": true,
	"user":    true,
	"viewer":  true,
}

type CreateInviteRequest struct {
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	MaxUses int    `json:"max_uses"`
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	if profile == nil || profile.DefaultOrg == "" {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeOnboardingRequired, "No organization, complete onboarding first", nil)
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !invitableRoles[req.Role] {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role for invite", nil)
		return
	}
	if req.MaxUses <= 0 {
		req.MaxUses = 1
	}

	code, err := inviteCode()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate invite code", nil)
		return
	}

	now := time.Now().Unix()
	invite := &models.Invite{
		ID:        "inv_" + uuid.NewString(),
		OrgID:     profile.DefaultOrg,
		Code:      code,
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: claims.UserID,
		Status:    "pending",
		MaxUses:   req.MaxUses,
		ExpiresAt: now + 7*86400,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.inviteRepo.Create(invite); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create invite", nil)
		return
	}

	h.auditLog.Record(r, invite.OrgID, "invite.created", "invite", invite.ID, map[string]interface{}{
		"role": invite.Role,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invite)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if profile == nil || profile.DefaultOrg == "" {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeOnboardingRequired, "No organization, complete onboarding first", nil)
		return
	}

	invites, err := h.inviteRepo.ListByOrg(profile.DefaultOrg)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"invites": invites})
}

func inviteCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
