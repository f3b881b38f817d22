package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/service/registration"
)

type registrationService interface {
	Start(ctx context.Context, applicantID string) (*registration.Prompt, error)
	Collect(ctx context.Context, applicantID string, field domain.RegistrationField, value string) (*registration.StepResult, error)
}

type RegistrationHandler struct {
	registration registrationService
}

func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: svc}
}

type registrationStepRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (r registrationStepRequest) Validate() []FieldError {
	if r.Field == "" {
		return []FieldError{{Field: "field", Message: "required"}}
	}
	if !domain.RegistrationField(r.Field).IsValid() {
		return []FieldError{{Field: "field", Message: "must be name, origin, occupation, or salary"}}
	}
	return nil
}

type registrationStepDTO struct {
	Next        *registration.Prompt `json:"next,omitempty"`
	Application *applicationDTO      `json:"application,omitempty"`
}

func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	prompt, err := h.registration.Start(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("registration start failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, registrationStepDTO{Next: prompt})
}

func (h *RegistrationHandler) Step(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req registrationStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.registration.Collect(r.Context(), id, domain.RegistrationField(req.Field), req.Value)
	if err != nil {
		logging.FromContext(r.Context()).Warn("registration step rejected", "field", req.Field, "error", err)
		RespondDomainError(w, err)
		return
	}

	if res.Application != nil {
		dto := toApplicationDTO(res.Application)
		RespondSuccess(w, http.StatusCreated, registrationStepDTO{Application: &dto})
		return
	}
	RespondSuccess(w, http.StatusOK, registrationStepDTO{Next: res.Next})
}
