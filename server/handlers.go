package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"labelops/apperr"
	"labelops/config"
	"labelops/core/auth"
	"labelops/core/catalog"
	"labelops/core/release"
	"labelops/logger"
	"labelops/model"
	"labelops/repository"

	"go.uber.org/zap"
)

// ReleaseService is the orchestrator surface the HTTP layer depends on.
type ReleaseService interface {
	CreateRelease(ctx context.Context, artistID, stageName string) (*model.Release, error)
	GetRelease(ctx context.Context, releaseID string) (*model.FullRelease, error)
	ListReleases(ctx context.Context, q repository.ReleaseListQuery) (*release.ListResult, error)
	UpdateReleaseFields(ctx context.Context, releaseID string, patch release.ReleasePatch, editorID string) (*model.Release, error)
	SubmitRelease(ctx context.Context, releaseID, editorID string) (*model.FullRelease, error)
	SetStatus(ctx context.Context, releaseID string, label model.StatusLabel, editorID, message string) (*model.Release, error)
	AddTrack(ctx context.Context, releaseID, fileKey string, duration float64) (*model.Track, error)
	UpdateTrack(ctx context.Context, trackID string, patch catalog.TrackPatch) (*model.Track, error)
	DeleteTrack(ctx context.Context, trackID string) error
	ReorderTracks(ctx context.Context, releaseID string, newOrder []string) error
}

// APIHandler serves the label back-office REST API.
type APIHandler struct {
	svc ReleaseService
	cfg *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(svc ReleaseService, cfg *config.Config) *APIHandler {
	return &APIHandler{svc: svc, cfg: cfg}
}

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware validates the bearer token and stores the actor claims in
// the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(h.cfg.JWTSecret, parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// actorFrom returns the authenticated actor claims from the request context.
func actorFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", zap.Error(err))
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError translates the application error taxonomy into HTTP status
// codes. Internal details are logged, never sent to the caller.
func respondError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	switch code {
	case apperr.CodeBadRequest:
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case apperr.CodeNotFound:
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case apperr.CodeConflict:
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logger.Error("internal error", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return nil
}
