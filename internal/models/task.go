package models

import "time"

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusApproved  TaskStatus = "approved"
	StatusRejected  TaskStatus = "rejected"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// StoredStatus maps a requested status to the status actually persisted.
// A rejected task goes back into the pending pool; the rejection itself
// survives only in the task's log timeline.
func (s TaskStatus) StoredStatus() TaskStatus {
	if s == StatusRejected {
		return StatusPending
	}
	return s
}

// InAssignedBucket reports whether the status falls into the named filter
// bucket of the assignee view. Unknown filters (including "all") match
// everything.
func (s TaskStatus) InAssignedBucket(filter string) bool {
	switch filter {
	case "completed":
		return s == StatusCompleted || s == StatusApproved
	case "incomplete":
		return s == StatusPending || s == StatusFailed || s == StatusRejected
	}
	return true
}

// InCreatedBucket reports whether the status falls into the named filter
// bucket of the creator view. The buckets deliberately differ from the
// assignee view: "completed" here means approved only, and tasks waiting
// on the creator sit in "review".
func (s TaskStatus) InCreatedBucket(filter string) bool {
	switch filter {
	case "review":
		return s == StatusCompleted || s == StatusFailed
	case "incomplete":
		return s == StatusPending || s == StatusRejected
	case "completed":
		return s == StatusApproved
	}
	return true
}

// ContentEdit is one entry of a task's content history. It holds the
// content as it was before the edit that produced it.
type ContentEdit struct {
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	EditorID  int64     `json:"editor_id"`
}

type Task struct {
	ID                int64         `json:"id"`
	Content           string        `json:"content"`
	Images            []string      `json:"images,omitempty"`
	CreatorID         int64         `json:"creator_id"`
	AssigneeEmail     string        `json:"assignee_email"`
	AssigneeID        *int64        `json:"assignee_id,omitempty"`
	Status            TaskStatus    `json:"status"`
	ParentID          *int64        `json:"parent_id,omitempty"`
	LastComment       string        `json:"last_comment,omitempty"`
	LastCommentImages []string      `json:"last_comment_images,omitempty"`
	CreationTime      time.Time     `json:"creation_time"`
	ContentEdits      []ContentEdit `json:"content_edits,omitempty"`
}

// TaskDetail is a task enriched for display: joined users and resolved
// image URLs. Joined users may be nil when the referenced record is gone.
type TaskDetail struct {
	Task
	Creator   *User    `json:"creator,omitempty"`
	Assignee  *User    `json:"assignee,omitempty"`
	ImageURLs []string `json:"image_urls"`
}
