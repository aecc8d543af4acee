package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/pkg/validator"
	"fieldcrm/internal/platform/audit"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/models"
	"fieldcrm/internal/platform/repositories"
)

type AuthHandler struct {
	profileRepo    *repositories.ProfileRepository
	membershipRepo *repositories.MembershipRepository
	inviteRepo     *repositories.InviteRepository
	tokenSvc       *auth.TokenService
	auditLog       *audit.Logger
}

func NewAuthHandler(profileRepo *repositories.ProfileRepository, membershipRepo *repositories.MembershipRepository, inviteRepo *repositories.InviteRepository, tokenSvc *auth.TokenService, auditLog *audit.Logger) *AuthHandler {
	return &AuthHandler{
		profileRepo:    profileRepo,
		membershipRepo: membershipRepo,
		inviteRepo:     inviteRepo,
		tokenSvc:       tokenSvc,
		auditLog:       auditLog,
	}
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	Plan        string `json:"plan"`
}

type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Profile      *models.Profile `json:"profile"`
}

// Signup creates the identity only. The organization comes later: the
// onboarding gate routes the new user into provisioning on first
// navigation. Company name and plan choice are captured as signup
// metadata so the onboarding form can prefill them.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validator.ValidatePlan(req.Plan); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	existing, err := h.profileRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	metadata := map[string]string{}
	if req.CompanyName != "" {
		metadata["company_name"] = req.CompanyName
	}
	if req.Plan != "" {
		metadata["plan"] = req.Plan
	}
	metaJSON, _ := json.Marshal(metadata)

	now := time.Now().Unix()
	profile := &models.Profile{
		ID:           "usr_" + uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Metadata:     string(metaJSON),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.profileRepo.Create(profile); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create profile", nil)
		return
	}

	h.writeTokens(w, http.StatusCreated, profile, metadata)
}

type JoinRequest struct {
	InviteCode string `json:"invite_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
}

// Join signs a user up through a team invite. Unlike Signup, the user
// lands with an active membership and a default org, so the onboarding
// gate waves them straight through.
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	invite, err := h.inviteRepo.GetByCode(req.InviteCode)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if invite == nil || invite.Status != "pending" || invite.CurrentUses >= invite.MaxUses || invite.ExpiresAt < time.Now().Unix() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid or expired invite code", nil)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	existing, err := h.profileRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	now := time.Now().Unix()
	profile := &models.Profile{
		ID:           "usr_" + uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         invite.Role,
		DefaultOrg:   invite.OrgID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.profileRepo.Create(profile); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create profile", nil)
		return
	}

	membership := &models.Membership{
		ID:        "mem_" + uuid.NewString(),
		UserID:    profile.ID,
		OrgID:     invite.OrgID,
		Role:      invite.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.membershipRepo.Create(membership); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create membership", nil)
		return
	}

	if err := h.inviteRepo.IncrementUses(invite.ID); err != nil {
		// Invite bookkeeping only; the signup itself succeeded.
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update invite", nil)
		return
	}

	h.auditLog.Record(r, invite.OrgID, "member.joined", "membership", membership.ID, map[string]interface{}{
		"role":   invite.Role,
		"invite": invite.ID,
	})

	h.writeTokens(w, http.StatusCreated, profile, nil)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	profile, err := h.profileRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if profile == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	h.writeTokens(w, http.StatusOK, profile, decodeMetadata(profile.Metadata))
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	claims, err := h.tokenSvc.ValidateToken(req.RefreshToken)
	if err != nil || claims.Subject == "" {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired refresh token", nil)
		return
	}

	profile, err := h.profileRepo.GetByID(claims.Subject)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if profile == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Unknown user", nil)
		return
	}

	h.writeTokens(w, http.StatusOK, profile, decodeMetadata(profile.Metadata))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, status int, profile *models.Profile, metadata map[string]string) {
	accessToken, err := h.tokenSvc.GenerateAccessToken(profile.ID, profile.Email, profile.FullName, profile.Role, metadata)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	refreshToken, err := h.tokenSvc.GenerateRefreshToken(profile.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profile,
	})
}

func decodeMetadata(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil
	}
	return metadata
}
