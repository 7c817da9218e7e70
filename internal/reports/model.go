// Package reports provides the civic report bounded context: creation,
// listing, status tracking, and the community leaderboard.
package reports

import (
	"time"

	"github.com/google/uuid"
)

// Report statuses. The history trail only ever contains these values.
const (
	StatusSubmitted  = "Submitted"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
)

// AnonymousReporter is the stand-in identity for unauthenticated web
// submissions. Hotline reports always carry the sender's phone number.
const AnonymousReporter = "whatsapp-user"

// HistoryEntry is one step in a report's append-only status trail.
type HistoryEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// Report is a citizen-submitted civic issue.
type Report struct {
	ID               uuid.UUID      `json:"id"`
	ReporterIdentity string         `json:"reporterIdentity"`
	ReporterUserID   *uuid.UUID     `json:"reporterUserId,omitempty"`
	Description      string         `json:"description"`
	PhotoURL         string         `json:"photoUrl,omitempty"`
	Latitude         float64        `json:"lat"`
	Longitude        float64        `json:"lng"`
	IconName         string         `json:"iconName"`
	Status           string         `json:"status"`
	History          []HistoryEntry `json:"history"`
	PhotoHint        string         `json:"photoHint,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// LeaderboardEntry is one row of the community leaderboard.
type LeaderboardEntry struct {
	ReporterIdentity string `json:"reporterIdentity"`
	ReportCount      int    `json:"reportCount"`
	Score            int    `json:"score"`
}

// ValidStatus reports whether s is one of the known report statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusSubmitted, StatusInProgress, StatusResolved:
		return true
	}
	return false
}
