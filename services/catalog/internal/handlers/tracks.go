package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/auth"
	"github.com/example/media-catalog/internal/platform/httpserver"
	"github.com/example/media-catalog/services/catalog/internal/engagement"
	"github.com/example/media-catalog/services/catalog/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultLimit    = 10
	maxLimit        = 50
)

type trackRequest struct {
	Title           string `json:"title"`
	AlbumID         string `json:"album_id"`
	Genre           string `json:"genre"`
	DurationSeconds int    `json:"duration_seconds"`
}

// GetTrack returns a single track by id.
func GetTrack(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := strings.TrimSpace(chi.URLParam(r, "track_id"))
		if trackID == "" {
			api.BadRequest(w, "MISSING_ID", "track_id is required", requestID(r), nil)
			return
		}
		t, err := e.GetTrack(r.Context(), trackID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, t)
	}
}

// ListTracks returns a page of active tracks, newest first.
func ListTracks(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size := pageParams(r)
		tracks, err := e.ListTracks(r.Context(), page, size)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// SearchTracks matches title or genre against the q parameter.
func SearchTracks(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			api.BadRequest(w, "MISSING_QUERY", "q is required", requestID(r), nil)
			return
		}
		page, size := pageParams(r)
		tracks, err := e.SearchTracks(r.Context(), q, page, size)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// TrendingTracks returns the most played tracks of the trending window.
func TrendingTracks(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracks, err := e.TrendingTracks(r.Context(), limitParam(r))
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// TopTracks returns the all-time most played tracks, optionally per genre.
func TopTracks(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genre := strings.TrimSpace(r.URL.Query().Get("genre"))
		tracks, err := e.TopTracks(r.Context(), genre, limitParam(r))
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// TracksByArtist lists an artist's active tracks.
func TracksByArtist(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artistID := strings.TrimSpace(chi.URLParam(r, "artist_id"))
		if artistID == "" {
			api.BadRequest(w, "MISSING_ID", "artist_id is required", requestID(r), nil)
			return
		}
		page, size := pageParams(r)
		tracks, err := e.TracksByArtist(r.Context(), artistID, page, size)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// TracksByAlbum lists an album's active tracks in album order.
func TracksByAlbum(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID := strings.TrimSpace(chi.URLParam(r, "album_id"))
		if albumID == "" {
			api.BadRequest(w, "MISSING_ID", "album_id is required", requestID(r), nil)
			return
		}
		tracks, err := e.TracksByAlbum(r.Context(), albumID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// TracksByGenre lists a genre's active tracks by play count.
func TracksByGenre(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genre := strings.TrimSpace(chi.URLParam(r, "genre"))
		if genre == "" {
			api.BadRequest(w, "MISSING_ID", "genre is required", requestID(r), nil)
			return
		}
		page, size := pageParams(r)
		tracks, err := e.TracksByGenre(r.Context(), genre, page, size)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeTracks(w, tracks)
	}
}

// CreateTrack creates a track owned by the authenticated user as artist.
func CreateTrack(e *engagement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "authentication required", requestID(r))
			return
		}

		var req trackRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", requestID(r), nil)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "MISSING_TITLE", "title is required", requestID(r), nil)
			return
		}

		t, err := e.CreateTrack(r.Context(), store.TrackInput{
			Title:           strings.TrimSpace(req.Title),
			ArtistID:        userID,
			AlbumID:         strings.TrimSpace(req.AlbumID),
			Genre:           strings.TrimSpace(req.Genre),
			DurationSeconds: req.DurationSeconds,
		})
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, t)
	}
}

// UpdateTrack replaces a track's mutable metadata.
func UpdateTrack(e *engagement.Engine) http.HandlerFunc {
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

		var req trackRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", requestID(r), nil)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "MISSING_TITLE", "title is required", requestID(r), nil)
			return
		}

		t, err := e.UpdateTrack(r.Context(), trackID, userID, store.TrackUpdate{
			Title:           strings.TrimSpace(req.Title),
			AlbumID:         strings.TrimSpace(req.AlbumID),
			Genre:           strings.TrimSpace(req.Genre),
			DurationSeconds: req.DurationSeconds,
		})
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, t)
	}
}

// DeleteTrack soft-deletes a track.
func DeleteTrack(e *engagement.Engine) http.HandlerFunc {
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
		if err := e.DeleteTrack(r.Context(), trackID, userID); err != nil {
			writeEngineError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeTracks(w http.ResponseWriter, tracks []store.Track) {
	if tracks == nil {
		tracks = []store.Track{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, engagement.ErrNotFound) {
		api.NotFound(w, "TRACK_NOT_FOUND", "track not found", requestID(r))
		return
	}
	api.Internal(w, requestID(r))
}

func requestID(r *http.Request) string {
	return httpserver.RequestIDFromContext(r.Context())
}

func pageParams(r *http.Request) (page, size int) {
	page = intQuery(r, "page", 0, 0, 1<<20)
	size = intQuery(r, "size", defaultPageSize, 1, maxPageSize)
	return page, size
}

func limitParam(r *http.Request) int {
	return intQuery(r, "limit", defaultLimit, 1, maxLimit)
}

func intQuery(r *http.Request, name string, fallback, min, max int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return fallback
	}
	return n
}
