package handler

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/community-bank/internal/auth"
)

func callerID(r *http.Request) (string, *AppError) {
	id, ok := auth.ParticipantIDFromContext(r.Context())
	if !ok {
		return "", ErrMissingToken
	}
	return id, nil
}

func participantFromPath(r *http.Request) (string, *AppError) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", ErrInvalidParticipant
	}
	return id, nil
}
