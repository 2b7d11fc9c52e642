package model

import (
	"database/sql"
	"time"
)

// Track moderation statuses. Every track starts out pending and only
// becomes publicly visible once an admin approves it.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Track types.
const (
	TrackTypeOriginal = "original"
	TrackTypeCover    = "cover"
)

// Track represents an uploaded audio work awaiting or past moderation.
type Track struct {
	ID            int64          `json:"id"`
	AuthorID      int64          `json:"authorId"`
	Title         string         `json:"title"`
	Description   sql.NullString `json:"description,omitempty"`
	Tags          string         `json:"tags"`                    // normalized, space separated, e.g. "#pop #love"
	TrackType     string         `json:"trackType"`               // original, cover
	OriginalTitle sql.NullString `json:"originalTitle,omitempty"` // set iff trackType == cover
	FileURL       string         `json:"fileUrl"`
	FileSize      int64          `json:"fileSize"`
	CoverURL      sql.NullString `json:"coverUrl,omitempty"`
	Lyrics        sql.NullString `json:"lyrics,omitempty"`
	Status        string         `json:"status"` // pending, approved, rejected
	PlaysCount    int64          `json:"playsCount"`
	ReviewsCount  int64          `json:"reviewsCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// Author profile fields joined on read paths, not columns of tracks.
	AuthorName     string `json:"authorName,omitempty"`
	AuthorLevelRef int    `json:"authorLevel,omitempty"`
}

// ValidStatus reports whether s is a known moderation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// statusTransitions is the explicit moderation state machine. The product
// keeps re-transition permissive: an admin may move a track between any two
// statuses, including back to pending for a fresh review cycle.
var statusTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected, StatusPending},
	StatusRejected: {StatusApproved, StatusPending},
}

// CanTransitionStatus reports whether the moderation gate allows moving a
// track from one status to another. Same-state transitions are rejected so
// a stray double submit does not register as a change.
func CanTransitionStatus(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VisibleTo reports whether the track may be shown to the given viewer.
// Approved tracks are public; owners and admins always see their own.
func (t *Track) VisibleTo(viewerID int64, isAdmin bool) bool {
	if t.Status == StatusApproved {
		return true
	}
	return isAdmin || viewerID == t.AuthorID
}
