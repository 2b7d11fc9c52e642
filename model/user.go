package model

import (
	"database/sql"
	"time"
)

// Account types control which sides of the platform a user can act on.
const (
	AccountTypeAuthor   = "author"
	AccountTypeReviewer = "reviewer"
	AccountTypeBoth     = "both"
)

// XP rewards for the two contribution paths.
const (
	UploadXPReward = 10
	ReviewXPReward = 5
)

// User represents a member of the community. Profile counters
// (levels, XP, totals) live on the same row as the credentials,
// mirroring the profiles table of the original service.
type User struct {
	ID            int64          `json:"id"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`           // Not exposed in API responses
	AccountType   string         `json:"accountType"` // author, reviewer, both
	AuthorLevel   int            `json:"authorLevel"`
	AuthorXP      int            `json:"authorXp"`
	ReviewerLevel int            `json:"reviewerLevel"`
	ReviewerXP    int            `json:"reviewerXp"`
	TotalTracks   int            `json:"totalTracks"`
	TotalReviews  int            `json:"totalReviews"`
	SmuleVerified bool           `json:"smuleVerified"`
	SmuleURL      sql.NullString `json:"smuleUrl,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// CanUpload reports whether the account type permits uploading tracks.
func (u *User) CanUpload() bool {
	return u.AccountType != AccountTypeReviewer
}

// LevelForXP derives a level from accumulated XP. Levels are never stored
// authoritatively; the columns are a denormalized snapshot of this function.
// 100 XP per level, starting at level 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/100 + 1
}

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t string) bool {
	switch t {
	case AccountTypeAuthor, AccountTypeReviewer, AccountTypeBoth:
		return true
	}
	return false
}
