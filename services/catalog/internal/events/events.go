// Package events publishes track domain events to NATS JetStream for
// asynchronous consumers (analytics, recommendations). Delivery is
// at-least-once and best-effort: a failed publish is retried a bounded
// number of times, then logged and dropped. The counter mutation that
// already committed is never rolled back because of a publish failure.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a track domain event.
type Kind string

const (
	KindPlayRecorded Kind = "PlayRecorded"
	KindLikeToggled  Kind = "LikeToggled"
	KindTrackCreated Kind = "TrackCreated"
	KindTrackUpdated Kind = "TrackUpdated"
	KindTrackDeleted Kind = "TrackDeleted"
)

// Subjects under the TRACK_EVENTS stream, one per event kind.
const (
	SubjectPlays   = "tracks.plays"
	SubjectLikes   = "tracks.likes"
	SubjectCreated = "tracks.created"
	SubjectUpdated = "tracks.updated"
	SubjectDeleted = "tracks.deleted"
)

// Event is the immutable envelope published for every committed mutation.
type Event struct {
	EventID    string         `json:"event_id"`
	Kind       Kind           `json:"kind"`
	TrackID    string         `json:"track_id"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// New builds an event with a fresh id and UTC timestamp.
func New(kind Kind, trackID, userID string, extra map[string]any) Event {
	return Event{
		EventID:    uuid.NewString(),
		Kind:       kind,
		TrackID:    trackID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Extra:      extra,
	}
}

// SubjectFor maps an event kind to its stream subject.
func SubjectFor(kind Kind) string {
	switch kind {
	case KindPlayRecorded:
		return SubjectPlays
	case KindLikeToggled:
		return SubjectLikes
	case KindTrackCreated:
		return SubjectCreated
	case KindTrackUpdated:
		return SubjectUpdated
	case KindTrackDeleted:
		return SubjectDeleted
	}
	return ""
}

// Publisher delivers domain events to the stream.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
