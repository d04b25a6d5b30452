package models

import "time"

// SyncStatus is the outcome of pushing a mutation to the remote store.
type SyncStatus string

const (
	SyncStatusOK       SyncStatus = "ok"
	SyncStatusFailed   SyncStatus = "failed"
	SyncStatusTimeout  SyncStatus = "timeout"
	SyncStatusQueued   SyncStatus = "queued"
	SyncStatusDisabled SyncStatus = "disabled"
)

// SyncPolicy decides what happens when a push fails.
type SyncPolicy string

const (
	// SyncPolicyRetry enqueues failed pushes for background retries.
	SyncPolicyRetry SyncPolicy = "retry"
	// SyncPolicySurface reports failures back to the caller.
	SyncPolicySurface SyncPolicy = "surface"
	// SyncPolicyBestEffort logs failures and reports success to the caller.
	SyncPolicyBestEffort SyncPolicy = "best_effort"
)

// SyncResult describes what happened to a mutation after the local state changed.
type SyncResult struct {
	Action   MutationName  `json:"action"`
	Status   SyncStatus    `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Failed reports whether the push did not reach the remote store.
func (r SyncResult) Failed() bool {
	return r.Status == SyncStatusFailed || r.Status == SyncStatusTimeout
}
