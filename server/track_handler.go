package server

import (
	"net/http"

	"labelops/core/catalog"
	"labelops/model"

	"github.com/gorilla/mux"
)

type addTrackRequest struct {
	FileKey  string  `json:"fileKey"`
	Duration float64 `json:"duration"`
}

// AddTrackHandler appends a track to a draft release.
func (h *APIHandler) AddTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	track, err := h.svc.AddTrack(r.Context(), mux.Vars(r)["id"], req.FileKey, req.Duration)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, track)
}

type updateTrackRequest struct {
	Name     *string           `json:"name"`
	Feat     *model.StringList `json:"feat"`
	Authors  *model.Authors    `json:"authors"`
	Lyrics   *model.Lyrics     `json:"lyrics"`
	Explicit *bool             `json:"explicit"`
	ISRC     *string           `json:"isrc"`
}

// UpdateTrackHandler applies a whitelisted patch to a track.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req updateTrackRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	patch := catalog.TrackPatch{
		Name:     req.Name,
		Feat:     req.Feat,
		Authors:  req.Authors,
		Lyrics:   req.Lyrics,
		Explicit: req.Explicit,
		ISRC:     req.ISRC,
	}

	track, err := h.svc.UpdateTrack(r.Context(), mux.Vars(r)["trackId"], patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// DeleteTrackHandler removes a track; siblings are renumbered and the audio
// object is cleaned up after commit.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTrack(r.Context(), mux.Vars(r)["trackId"]); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "track deleted"})
}

type reorderTracksRequest struct {
	NewOrder []string `json:"newOrder"`
}

// ReorderTracksHandler replaces the running order of a draft release.
func (h *APIHandler) ReorderTracksHandler(w http.ResponseWriter, r *http.Request) {
	var req reorderTracksRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.svc.ReorderTracks(r.Context(), mux.Vars(r)["id"], req.NewOrder); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "track order updated"})
}
