package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"labelops/apperr"
	"labelops/config"
	"labelops/core/auth"
	"labelops/core/catalog"
	"labelops/core/release"
	"labelops/model"
	"labelops/repository"

	"github.com/gorilla/mux"
)

// mockService is a test double for ReleaseService.
type mockService struct {
	createReleaseFn func(ctx context.Context, artistID, stageName string) (*model.Release, error)
	getReleaseFn    func(ctx context.Context, releaseID string) (*model.FullRelease, error)
	listReleasesFn  func(ctx context.Context, q repository.ReleaseListQuery) (*release.ListResult, error)
	setStatusFn     func(ctx context.Context, releaseID string, label model.StatusLabel, editorID, message string) (*model.Release, error)
	deleteTrackFn   func(ctx context.Context, trackID string) error
}

func (m *mockService) CreateRelease(ctx context.Context, artistID, stageName string) (*model.Release, error) {
	return m.createReleaseFn(ctx, artistID, stageName)
}

func (m *mockService) GetRelease(ctx context.Context, releaseID string) (*model.FullRelease, error) {
	return m.getReleaseFn(ctx, releaseID)
}

func (m *mockService) ListReleases(ctx context.Context, q repository.ReleaseListQuery) (*release.ListResult, error) {
	return m.listReleasesFn(ctx, q)
}

func (m *mockService) UpdateReleaseFields(ctx context.Context, releaseID string, patch release.ReleasePatch, editorID string) (*model.Release, error) {
	return nil, errors.New("not implemented")
}

func (m *mockService) SubmitRelease(ctx context.Context, releaseID, editorID string) (*model.FullRelease, error) {
	return nil, errors.New("not implemented")
}

func (m *mockService) SetStatus(ctx context.Context, releaseID string, label model.StatusLabel, editorID, message string) (*model.Release, error) {
	return m.setStatusFn(ctx, releaseID, label, editorID, message)
}

func (m *mockService) AddTrack(ctx context.Context, releaseID, fileKey string, duration float64) (*model.Track, error) {
	return nil, errors.New("not implemented")
}

func (m *mockService) UpdateTrack(ctx context.Context, trackID string, patch catalog.TrackPatch) (*model.Track, error) {
	return nil, errors.New("not implemented")
}

func (m *mockService) DeleteTrack(ctx context.Context, trackID string) error {
	return m.deleteTrackFn(ctx, trackID)
}

func (m *mockService) ReorderTracks(ctx context.Context, releaseID string, newOrder []string) error {
	return errors.New("not implemented")
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret"}
}

func bearerFor(t *testing.T, cfg *config.Config, actorID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(cfg.JWTSecret, actorID, role, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	h := NewAPIHandler(&mockService{}, cfg)
	next := func(w http.ResponseWriter, r *http.Request) {
		claims := actorFrom(r)
		if claims == nil || claims.ActorID != "artist-1" {
			t.Errorf("expected claims in context, got %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	}

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/releases", nil)
		rec := httptest.NewRecorder()
		h.AuthMiddleware(next)(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/releases", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		h.AuthMiddleware(next)(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/releases", nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, "artist-1", auth.RoleArtist))
		rec := httptest.NewRecorder()
		h.AuthMiddleware(next)(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestCreateReleaseHandler(t *testing.T) {
	cfg := testConfig()

	t.Run("artist creates for self", func(t *testing.T) {
		svc := &mockService{
			createReleaseFn: func(ctx context.Context, artistID, stageName string) (*model.Release, error) {
				if artistID != "artist-1" {
					t.Errorf("artist role must create for self, got %q", artistID)
				}
				return &model.Release{ID: "rel-1", ArtistID: artistID, StageName: stageName, Status: model.NewDraftStatus()}, nil
			},
		}
		h := NewAPIHandler(svc, cfg)

		body := strings.NewReader(`{"artistId":"someone-else","stageName":"MC Test"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/releases", body)
		req.Header.Set("Authorization", bearerFor(t, cfg, "artist-1", auth.RoleArtist))
		rec := httptest.NewRecorder()
		h.AuthMiddleware(h.CreateReleaseHandler)(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var created model.Release
		if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if created.ID != "rel-1" {
			t.Errorf("unexpected release: %+v", created)
		}
	})

	t.Run("duplicate draft maps to 400", func(t *testing.T) {
		svc := &mockService{
			createReleaseFn: func(ctx context.Context, artistID, stageName string) (*model.Release, error) {
				return nil, apperr.BadRequest("a draft release already exists")
			},
		}
		h := NewAPIHandler(svc, cfg)

		req := httptest.NewRequest(http.MethodPost, "/api/releases", strings.NewReader(`{}`))
		req.Header.Set("Authorization", bearerFor(t, cfg, "artist-1", auth.RoleArtist))
		rec := httptest.NewRecorder()
		h.AuthMiddleware(h.CreateReleaseHandler)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound("release not found"), http.StatusNotFound},
		{"conflict", apperr.Conflict("catalog code taken"), http.StatusConflict},
		{"bad request", apperr.BadRequest("nope"), http.StatusBadRequest},
		{"internal", errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{
				getReleaseFn: func(ctx context.Context, releaseID string) (*model.FullRelease, error) {
					return nil, tc.err
				},
			}
			h := NewAPIHandler(svc, cfg)

			req := httptest.NewRequest(http.MethodGet, "/api/releases/rel-1", nil)
			req = mux.SetURLVars(req, map[string]string{"id": "rel-1"})
			req.Header.Set("Authorization", bearerFor(t, cfg, "manager-1", auth.RoleManager))
			rec := httptest.NewRecorder()
			h.AuthMiddleware(h.GetReleaseHandler)(rec, req)

			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "exploded") {
				t.Error("internal details must not leak to the caller")
			}
		})
	}
}

func TestListReleasesHandlerScoping(t *testing.T) {
	cfg := testConfig()

	t.Run("artist is scoped to own releases", func(t *testing.T) {
		svc := &mockService{
			listReleasesFn: func(ctx context.Context, q repository.ReleaseListQuery) (*release.ListResult, error) {
				if len(q.ArtistIDs) != 1 || q.ArtistIDs[0] != "artist-1" {
					t.Errorf("expected artist scope, got %v", q.ArtistIDs)
				}
				return &release.ListResult{Data: []*model.Release{}}, nil
			},
		}
		h := NewAPIHandler(svc, cfg)

		req := httptest.NewRequest(http.MethodGet, "/api/releases?artists=a,b", nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, "artist-1", auth.RoleArtist))
		rec := httptest.NewRecorder()
		h.AuthMiddleware(h.ListReleasesHandler)(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("manager may scope by artist ids", func(t *testing.T) {
		svc := &mockService{
			listReleasesFn: func(ctx context.Context, q repository.ReleaseListQuery) (*release.ListResult, error) {
				if len(q.ArtistIDs) != 2 {
					t.Errorf("expected two artist ids, got %v", q.ArtistIDs)
				}
				if q.Page != 2 || q.Limit != 5 {
					t.Errorf("pagination not parsed: page=%d limit=%d", q.Page, q.Limit)
				}
				return &release.ListResult{Data: []*model.Release{}}, nil
			},
		}
		h := NewAPIHandler(svc, cfg)

		req := httptest.NewRequest(http.MethodGet, "/api/releases?artists=a,b&page=2&limit=5", nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, "manager-1", auth.RoleManager))
		rec := httptest.NewRecorder()
		h.AuthMiddleware(h.ListReleasesHandler)(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestUpdateStatusHandler(t *testing.T) {
	cfg := testConfig()
	svc := &mockService{
		setStatusFn: func(ctx context.Context, releaseID string, label model.StatusLabel, editorID, message string) (*model.Release, error) {
			if releaseID != "rel-1" || label != model.StatusApproved || editorID != "manager-1" || message != "ok" {
				t.Errorf("unexpected args: %s %s %s %s", releaseID, label, editorID, message)
			}
			return &model.Release{ID: releaseID}, nil
		},
	}
	h := NewAPIHandler(svc, cfg)

	body := strings.NewReader(`{"status":"approved","message":"ok"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/releases/rel-1/status", body)
	req = mux.SetURLVars(req, map[string]string{"id": "rel-1"})
	req.Header.Set("Authorization", bearerFor(t, cfg, "manager-1", auth.RoleManager))
	rec := httptest.NewRecorder()
	h.AuthMiddleware(h.UpdateStatusHandler)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTrackHandler(t *testing.T) {
	cfg := testConfig()
	svc := &mockService{
		deleteTrackFn: func(ctx context.Context, trackID string) error {
			if trackID != "trk-1" {
				t.Errorf("unexpected track id %q", trackID)
			}
			return nil
		},
	}
	h := NewAPIHandler(svc, cfg)

	req := httptest.NewRequest(http.MethodDelete, "/api/tracks/trk-1", nil)
	req = mux.SetURLVars(req, map[string]string{"trackId": "trk-1"})
	req.Header.Set("Authorization", bearerFor(t, cfg, "artist-1", auth.RoleArtist))
	rec := httptest.NewRecorder()
	h.AuthMiddleware(h.DeleteTrackHandler)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
