package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/auth"
	"github.com/example/media-catalog/services/catalog/internal/engagement"
)

// RecordPlay counts one play. The user is optional: anonymous plays
// count too, they just carry no user id in the emitted event.
func RecordPlay(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := strings.TrimSpace(chi.URLParam(r, "track_id"))
		if trackID == "" {
			api.BadRequest(w, "MISSING_ID", "track_id is required", requestID(r), nil)
			return
		}
		userID, _ := auth.UserIDFromContext(r.Context())

		if err := e.RecordPlay(r.Context(), trackID, userID); err != nil {
			writeEngineError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type toggleLikeResponse struct {
	TrackID string `json:"track_id"`
	Liked   bool   `json:"liked"`
}

// ToggleLike flips the caller's like state for a track.
func ToggleLike(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "authentication required", requestID(r))
			return
		}
		trackID := strings.TrimSpace(chi.URLParam(r, "track_id"))
		if trackID == "" {
			api.BadRequest(w, "MISSING_ID", "track_id is required", requestID(r), nil)
			return
		}

		liked, err := e.ToggleLike(r.Context(), trackID, userID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, toggleLikeResponse{TrackID: trackID, Liked: liked})
	}
}
