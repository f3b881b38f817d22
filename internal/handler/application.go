package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/service/application"
)

type applicationService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	Events(ctx context.Context, id uuid.UUID) ([]domain.ApplicationEvent, error)
	Artifact(ctx context.Context, ref uuid.UUID) (*domain.Artifact, error)
	Decide(ctx context.Context, id uuid.UUID, decision domain.Decision, reviewerID string) (*domain.Application, error)
}

type ApplicationHandler struct {
	applications applicationService
}

func NewApplicationHandler(svc applicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: svc}
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

type reviewActionRequest struct {
	ActionID string `json:"action_id"`
}

func applicationIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrApplicationNotFound
	}
	return id, nil
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := applicationIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	app, err := h.applications.Get(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("application lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	events, err := h.applications.Events(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("application events lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := toApplicationDTO(app)
	dto.Events = toApplicationEventDTOs(events)
	RespondSuccess(w, http.StatusOK, dto)
}

// Artifact streams the application's latest artifact: the issued card once
// accepted, otherwise the submitted summary.
func (h *ApplicationHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	id, appErr := applicationIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	app, err := h.applications.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	ref := app.ArtifactRef
	if ref == nil {
		ref = app.SubmittedArtifactRef
	}
	if ref == nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	a, err := h.applications.Artifact(r.Context(), *ref)
	if err != nil {
		logging.FromContext(r.Context()).Error("artifact lookup failed", "artifact_id", *ref, "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.Data); err != nil {
		logging.FromContext(r.Context()).Warn("failed to write artifact", "error", err)
	}
}

func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, appErr := applicationIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	h.decide(w, r, id, domain.Decision(req.Decision))
}

// ReviewAction decides from a review-queue action handle such as
// "app_accept:<id>".
func (h *ApplicationHandler) ReviewAction(w http.ResponseWriter, r *http.Request) {
	var req reviewActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.ActionID == "" {
		RespondValidationError(w, []FieldError{{Field: "action_id", Message: "required"}})
		return
	}

	id, decision, err := application.ParseAction(req.ActionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	h.decide(w, r, id, decision)
}

func (h *ApplicationHandler) decide(w http.ResponseWriter, r *http.Request, id uuid.UUID, decision domain.Decision) {
	reviewerID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	app, err := h.applications.Decide(r.Context(), id, decision, reviewerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("decision rejected",
			"application_id", id,
			"decision", decision,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toApplicationDTO(app))
}
