package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"labelops/core/auth"
	"labelops/core/release"
	"labelops/model"
	"labelops/repository"

	"github.com/gorilla/mux"
)

type createReleaseRequest struct {
	ArtistID  string `json:"artistId"`
	StageName string `json:"stageName"`
}

// CreateReleaseHandler opens a new draft release. Artists create for
// themselves; managers may create on behalf of an artist.
func (h *APIHandler) CreateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	var req createReleaseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actor := actorFrom(r)
	artistID := req.ArtistID
	if artistID == "" || actor.Role == auth.RoleArtist {
		artistID = actor.ActorID
	}

	created, err := h.svc.CreateRelease(r.Context(), artistID, req.StageName)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetReleaseHandler returns a release populated with its tracks.
func (h *APIHandler) GetReleaseHandler(w http.ResponseWriter, r *http.Request) {
	full, err := h.svc.GetRelease(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, full)
}

// ListReleasesHandler returns one page of releases. Artists only see their
// own; managers see everything and may scope by artist ids.
func (h *APIHandler) ListReleasesHandler(w http.ResponseWriter, r *http.Request) {
	q := repository.ReleaseListQuery{
		Status:        model.StatusLabel(r.URL.Query().Get("status")),
		Search:        r.URL.Query().Get("search"),
		SortName:      r.URL.Query().Get("sort_name"),
		SortStageName: r.URL.Query().Get("sort_stage_name"),
		Page:          intQuery(r, "page", 1),
		Limit:         intQuery(r, "limit", 10),
	}

	actor := actorFrom(r)
	if actor.Role == auth.RoleArtist {
		q.ArtistIDs = []string{actor.ActorID}
	} else if artists := r.URL.Query().Get("artists"); artists != "" {
		q.ArtistIDs = strings.Split(artists, ",")
	}

	result, err := h.svc.ListReleases(r.Context(), q)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type updateReleaseRequest struct {
	Name        *string            `json:"name"`
	Type        *model.ReleaseType `json:"type"`
	Date        *time.Time         `json:"date"`
	CoverKey    *string            `json:"coverKey"`
	Feat        *model.StringList  `json:"feat"`
	Authors     *model.Authors     `json:"authors"`
	CatalogCode *string            `json:"catalogCode"`
}

// UpdateReleaseHandler applies a whitelisted field patch. Any edit reopens
// the release to draft.
func (h *APIHandler) UpdateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	var req updateReleaseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	patch := release.ReleasePatch{
		Name:        req.Name,
		Type:        req.Type,
		Date:        req.Date,
		CoverKey:    req.CoverKey,
		Feat:        req.Feat,
		Authors:     req.Authors,
		CatalogCode: req.CatalogCode,
	}

	updated, err := h.svc.UpdateReleaseFields(r.Context(), mux.Vars(r)["id"], patch, actorFrom(r).ActorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// SubmitReleaseHandler moves a complete draft to pending review.
func (h *APIHandler) SubmitReleaseHandler(w http.ResponseWriter, r *http.Request) {
	full, err := h.svc.SubmitRelease(r.Context(), mux.Vars(r)["id"], actorFrom(r).ActorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, full)
}

type updateStatusRequest struct {
	Status  model.StatusLabel `json:"status"`
	Message string            `json:"message"`
}

// UpdateStatusHandler records a reviewer-facing workflow transition.
func (h *APIHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.svc.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status, actorFrom(r).ActorID, req.Message)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func intQuery(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
