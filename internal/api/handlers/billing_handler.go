package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/engine/billing"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/auth"
	"fieldcrm/internal/platform/models"
	"fieldcrm/internal/platform/repositories"
)

type BillingHandler struct {
	subscriptionRepo *repositories.SubscriptionRepository
	profileRepo      *repositories.ProfileRepository
	gate             *billing.Gate
}

func NewBillingHandler(subscriptionRepo *repositories.SubscriptionRepository, profileRepo *repositories.ProfileRepository, gate *billing.Gate) *BillingHandler {
	return &BillingHandler{
		subscriptionRepo: subscriptionRepo,
		profileRepo:      profileRepo,
		gate:             gate,
	}
}

type SubscriptionResponse struct {
	Subscription *models.Subscription `json:"subscription,omitempty"`
	Access       billing.Decision     `json:"access"`
}

func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
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

	sub, err := h.subscriptionRepo.GetByOrg(profile.DefaultOrg)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SubscriptionResponse{
		Subscription: sub,
		Access:       h.gate.CheckAccess(profile.DefaultOrg),
	})
}
