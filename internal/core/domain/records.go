package domain

import "time"

// DraftRecord is the single autosave slot.
type DraftRecord struct {
	Payload AssistantPayload `json:"payload"`
	SavedAt time.Time        `json:"saved_at"`
}

// PendingWrite is a create that has not been acknowledged by the remote service yet.
type PendingWrite struct {
	TempID        string           `json:"temp_id"`
	Payload       AssistantPayload `json:"payload"`
	RetryCount    int              `json:"retry_count"`
	LastError     string           `json:"last_error,omitempty"`
	EnqueuedAt    time.Time        `json:"enqueued_at"`
	LastAttemptAt time.Time        `json:"last_attempt_at,omitzero"`
}

// PresetCacheID is the fixed slot id of the preset cache.
const PresetCacheID = "assistant-presets"

// CachedPreset is the single preset cache slot. CachedAt <= LastCheckedAt.
type CachedPreset struct {
	ID            string    `json:"id"`
	Data          []Preset  `json:"data"`
	CachedAt      time.Time `json:"cached_at"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// SyncStatus is the outcome of one entry in a drain cycle.
type SyncStatus string

const (
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusExhausted SyncStatus = "exhausted"
)

// SyncResult reports what happened to a single pending write during a drain cycle.
type SyncResult struct {
	TempID     string           `json:"temp_id"`
	Status     SyncStatus       `json:"status"`
	ServerID   string           `json:"server_id,omitempty"`
	Error      *ClassifiedError `json:"error,omitempty"`
	RetryCount int              `json:"retry_count"`
}
