package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "fieldcrm/internal/api/context"
	"fieldcrm/internal/engine/onboarding"
	"fieldcrm/internal/engine/provision"
	"fieldcrm/internal/pkg/errors"
	"fieldcrm/internal/platform/audit"
	"fieldcrm/internal/platform/models"
)

type OnboardingHandler struct {
	gate     *onboarding.Gate
	workflow *provision.Workflow
	auditLog *audit.Logger
}

func NewOnboardingHandler(gate *onboarding.Gate, workflow *provision.Workflow, auditLog *audit.Logger) *OnboardingHandler {
	return &OnboardingHandler{gate: gate, workflow: workflow, auditLog: auditLog}
}

type OnboardingStatusResponse struct {
	NeedsOnboarding bool   `json:"needs_onboarding"`
	DefaultOrg      string `json:"default_org,omitempty"`
}

func (h *OnboardingHandler) Status(w http.ResponseWriter, r *http.Request) {
	principal, _ := r.Context().Value(apiContext.Principal).(*models.Principal)

	res := h.gate.Check(principal)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OnboardingStatusResponse{
		NeedsOnboarding: res.Needed,
		DefaultOrg:      res.DefaultOrg,
	})
}

// Provision runs the organization setup for the authenticated principal.
// The gate check here is the double-submit guard: the workflow itself is
// not idempotent, so an already-onboarded principal gets a conflict
// instead of a second organization.
func (h *OnboardingHandler) Provision(w http.ResponseWriter, r *http.Request) {
	principal, _ := r.Context().Value(apiContext.Principal).(*models.Principal)
	if principal == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Not authenticated", nil)
		return
	}

	if res := h.gate.Check(principal); !res.Needed {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Organization already provisioned", nil)
		return
	}

	var info provision.BusinessInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	// Prefill from signup metadata when the form left fields blank.
	if info.Name == "" {
		info.Name = principal.Metadata["company_name"]
	}
	if info.Plan == "" {
		info.Plan = principal.Metadata["plan"]
	}
	if info.ContactEmail == "" {
		info.ContactEmail = principal.Email
	}

	result, err := h.workflow.Provision(principal, info)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	h.auditLog.Record(r, result.Organization.ID, "organization.provisioned", "organization", result.Organization.ID, map[string]interface{}{
		"name": result.Organization.Name,
		"plan": planOf(result),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func planOf(result *provision.Result) string {
	if result.Subscription == nil {
		return ""
	}
	return result.Subscription.PlanType
}

func writeProvisionError(w http.ResponseWriter, err error) {
	switch {
	case provision.IsCode(err, provision.CodeUnauthenticated):
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Not authenticated", nil)
	case provision.IsCode(err, provision.CodeInvalidInput):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Business name is required", nil)
	case provision.IsCode(err, provision.CodeOrganizationCreateFailed):
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeProvisionFailed, "Failed to create organization, please try again", nil)
	case provision.IsCode(err, provision.CodeMembershipCreateFailed):
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeProvisionFailed, "Failed to finish setup, please try again", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Provisioning failed", nil)
	}
}
