package models

import (
	"time"
)

// FeedSyncError records a failure syncing a single feed, with enough
// context to diagnose which property/platform combination broke.
type FeedSyncError struct {
	PropertyID string   `json:"property_id"`
	Platform   Platform `json:"platform"`
	FeedURL    string   `json:"feed_url,omitempty"`
	Message    string   `json:"message"`
}

// SyncResult contains the outcome of reconciling one property's feeds.
type SyncResult struct {
	PropertyID   string          `json:"property_id"`
	PropertyName string          `json:"property_name"`
	Processed    int             `json:"processed"`
	Created      int             `json:"created"`
	Updated      int             `json:"updated"`
	Skipped      int             `json:"skipped"`
	Removed      int             `json:"removed"`
	Degraded     bool            `json:"degraded,omitempty"`
	Errors       []FeedSyncError `json:"errors"`
	SyncedAt     time.Time       `json:"synced_at"`
}

// Merge folds other's counters into r.
func (r *SyncResult) Merge(other SyncResult) {
	r.Processed += other.Processed
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Removed += other.Removed
	r.Degraded = r.Degraded || other.Degraded
	r.Errors = append(r.Errors, other.Errors...)
}

// Sync trigger sources.
const (
	SyncTriggerScheduled = "scheduled"
	SyncTriggerManual    = "manual"
	SyncTriggerImport    = "import"
)

// SyncRun is one persisted reconciliation run across properties.
type SyncRun struct {
	ID          string     `json:"id"`
	Trigger     string     `json:"trigger"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Properties  int        `json:"properties"`
	Processed   int        `json:"processed"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Removed     int        `json:"removed"`
	ErrorCount  int        `json:"error_count"`
	ErrorDetail *string    `json:"error_detail,omitempty"`
}
