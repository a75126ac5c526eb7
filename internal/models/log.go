package models

import (
	"fmt"
	"time"
)

type LogAction string

const (
	ActionCreate        LogAction = "create"
	ActionAssign        LogAction = "assign"
	ActionMarkCompleted LogAction = "mark_completed"
	ActionMarkFailed    LogAction = "mark_failed"
	ActionApprove       LogAction = "approve"
	ActionReject        LogAction = "reject"
	ActionComment       LogAction = "comment"
	ActionUpdate        LogAction = "update"
)

// ActionForStatus maps a requested status transition to the log action
// recorded for it. Total over the five statuses; anything else is an error.
// Note the pairing with TaskStatus.StoredStatus: a rejected request stores
// pending but still logs a reject.
func ActionForStatus(s TaskStatus) (LogAction, error) {
	switch s {
	case StatusCompleted:
		return ActionMarkCompleted, nil
	case StatusFailed:
		return ActionMarkFailed, nil
	case StatusApproved:
		return ActionApprove, nil
	case StatusRejected:
		return ActionReject, nil
	case StatusPending:
		return ActionUpdate, nil
	}
	return "", fmt.Errorf("no log action for status %q", s)
}

// LogEdit is one entry of a log entry's own comment history, holding the
// comment and images as they were before the edit. This is separate from
// the task-level content history and stays separate.
type LogEdit struct {
	Comment   string    `json:"comment,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LogEntry struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Action    LogAction `json:"action"`
	Comment   string    `json:"comment,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Edits     []LogEdit `json:"edits,omitempty"`
}

// LogDetail is a log entry enriched with the acting user and resolved
// image URLs for the timeline view.
type LogDetail struct {
	LogEntry
	User      *User    `json:"user,omitempty"`
	ImageURLs []string `json:"image_urls"`
}
