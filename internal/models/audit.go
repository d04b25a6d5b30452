package models

import "time"

// AuditEntry is one successful write recorded in the audit log.
type AuditEntry struct {
	Action     string     `json:"action"`
	ViewerKind ViewerKind `json:"viewer_kind,omitempty"`
	ViewerID   string     `json:"viewer_id,omitempty"`
	ResourceID string     `json:"resource_id,omitempty"`
	Method     string     `json:"method"`
	Path       string     `json:"path"`
	Status     int        `json:"status"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
}
