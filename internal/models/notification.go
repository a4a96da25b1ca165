package models

import "time"

// Notification severities
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Dismiss reasons
const (
	DismissTimeout   = "timeout"
	DismissExplicit  = "explicit"
	DismissClickaway = "clickaway"
)

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
}

func IsValidSeverity(s string) bool {
	return s == SeveritySuccess || s == SeverityInfo || s == SeverityWarning || s == SeverityError
}
