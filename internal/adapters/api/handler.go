// Package api exposes the engine over HTTP for direct callers: manual
// admission checks, profile configuration, dashboards and outcome
// reports that bypass the queue.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/usecase/accounts"
	"outreach-engine/internal/usecase/admission"
	"outreach-engine/internal/usecase/usage"
	"outreach-engine/internal/usecase/variants"
)

// Handler wires the usecases into chi routes.
type Handler struct {
	accounts  *accounts.Service
	admission *admission.Service
	tracker   *usage.Tracker
	variants  *variants.Service
	log       zerolog.Logger
}

// NewHandler creates the handler.
func NewHandler(accts *accounts.Service, adm *admission.Service, tracker *usage.Tracker, vars *variants.Service, logger zerolog.Logger) *Handler {
	return &Handler{accounts: accts, admission: adm, tracker: tracker, variants: vars, log: logger}
}

// Mount attaches all routes to the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/accounts", h.handleEnroll)
	r.Get("/accounts/{accountID}/admission", h.handleAdmission)
	r.Get("/accounts/{accountID}/summary", h.handleSummary)
	r.Patch("/accounts/{accountID}/limits", h.handleUpdateLimits)
	r.Delete("/accounts/{accountID}", h.handleDeactivate)
	r.Post("/accounts/{accountID}/pending-invitations", h.handlePendingInvitations)
	r.Post("/outcomes", h.handleOutcome)
	r.Get("/action-log", h.handleActionLog)
	r.Post("/variant-sets", h.handleCreateVariantSet)
	r.Get("/variant-sets/{setID}/next", h.handleNextVariant)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

type enrollRequest struct {
	AccountID           string             `json:"account_id"`
	WorkspaceID         string             `json:"workspace_id"`
	Tier                domain.AccountTier `json:"tier"`
	ExistingConnections int                `json:"existing_connections"`
	Timezone            string             `json:"timezone"`
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.AccountID == "" || req.WorkspaceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "account_id and workspace_id are required")
		return
	}
	profile, err := h.accounts.Enroll(r.Context(), req.AccountID, req.WorkspaceID, req.Tier, req.ExistingConnections, req.Timezone, time.Now().UTC())
	if err != nil {
		if errors.Is(err, accounts.ErrUnknownTier) {
			writeError(w, http.StatusBadRequest, "unknown_tier", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleAdmission(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	action := domain.ActionType(r.URL.Query().Get("action"))
	if !validAction(action) {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown action type")
		return
	}
	decision, err := h.admission.Check(r.Context(), accountID, action, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	summary, err := h.admission.Summarize(r.Context(), accountID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "no safety profile for account")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type limitsRequest struct {
	Daily                    *domain.DailyCeilings  `json:"daily,omitempty"`
	Weekly                   *domain.WeeklyCeilings `json:"weekly,omitempty"`
	Delay                    *domain.DelayConfig    `json:"delay,omitempty"`
	MinAcceptanceRate        *float64               `json:"min_acceptance_rate,omitempty"`
	PendingInvitationCeiling *int                   `json:"pending_invitation_ceiling,omitempty"`
	Hours                    *domain.WorkingHours   `json:"hours,omitempty"`
	Timezone                 *string                `json:"timezone,omitempty"`
	WarmUpEnabled            *bool                  `json:"warmup_enabled,omitempty"`
	HasLiveSession           *bool                  `json:"has_live_session,omitempty"`
}

func (h *Handler) handleUpdateLimits(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	var req limitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	profile, err := h.accounts.UpdateLimits(r.Context(), accountID, accounts.LimitsUpdate{
		Daily:                    req.Daily,
		Weekly:                   req.Weekly,
		Delay:                    req.Delay,
		MinAcceptanceRate:        req.MinAcceptanceRate,
		PendingInvitationCeiling: req.PendingInvitationCeiling,
		Hours:                    req.Hours,
		Timezone:                 req.Timezone,
		WarmUpEnabled:            req.WarmUpEnabled,
		HasLiveSession:           req.HasLiveSession,
	}, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "no safety profile for account")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := h.accounts.Deactivate(r.Context(), accountID); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "no safety profile for account")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pendingRequest struct {
	Count int `json:"count"`
}

func (h *Handler) handlePendingInvitations(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	var req pendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if err := h.tracker.UpdatePendingInvitations(r.Context(), accountID, req.Count, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "no safety profile for account")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOutcome(w http.ResponseWriter, r *http.Request) {
	var event domain.OutcomeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if event.AccountID == "" || !validAction(event.Action) {
		writeError(w, http.StatusBadRequest, "invalid_request", "account_id and a known action are required")
		return
	}
	now := event.OccurredAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if err := h.tracker.RecordAction(r.Context(), event.AccountID, event.Action, event.Success, event.Error, now); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "no safety profile for account")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if event.ConnectionAccepted {
		if err := h.tracker.RecordConnectionAccepted(r.Context(), event.AccountID, now); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
	}
	if event.PendingInvitations != nil {
		if err := h.tracker.UpdatePendingInvitations(r.Context(), event.AccountID, *event.PendingInvitations, now); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
	}
	if event.VariantSetID != "" && event.VariantOutcome != "" {
		if err := h.variants.RecordOutcome(r.Context(), event.VariantSetID, event.VariantIndex, event.VariantOutcome); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleActionLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, h.tracker.RecentLog(limit))
}

type createVariantSetRequest struct {
	Template string                 `json:"template"`
	Variants []string               `json:"variants"`
	Strategy domain.VariantStrategy `json:"strategy"`
}

func (h *Handler) handleCreateVariantSet(w http.ResponseWriter, r *http.Request) {
	var req createVariantSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	set, err := h.variants.Create(r.Context(), req.Template, req.Variants, req.Strategy)
	if err != nil {
		if errors.Is(err, variants.ErrNoVariants) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

type nextVariantResponse struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

func (h *Handler) handleNextVariant(w http.ResponseWriter, r *http.Request) {
	setID := chi.URLParam(r, "setID")
	text, index, err := h.variants.Next(r.Context(), setID)
	if err != nil {
		if errors.Is(err, domain.ErrVariantSetNotFound) {
			writeError(w, http.StatusNotFound, "variant_set_not_found", "no such variant set")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nextVariantResponse{Text: text, Index: index})
}

func validAction(action domain.ActionType) bool {
	for _, known := range domain.ActionTypes() {
		if action == known {
			return true
		}
	}
	return false
}
