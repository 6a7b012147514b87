package models

import (
	"strings"
	"time"
)

// WorkItemStatus is the lifecycle state of a work item.
type WorkItemStatus string

const (
	StatusNew        WorkItemStatus = "New"
	StatusInProgress WorkItemStatus = "InProgress"
	StatusCompleted  WorkItemStatus = "Completed"
	StatusCancelled  WorkItemStatus = "Cancelled"
)

// WorkItemStatuses lists every accepted status in canonical casing.
var WorkItemStatuses = []WorkItemStatus{StatusNew, StatusInProgress, StatusCompleted, StatusCancelled}

// ParseWorkItemStatus matches s case-insensitively against the known
// statuses and returns the canonical value.
func ParseWorkItemStatus(s string) (WorkItemStatus, bool) {
	for _, st := range WorkItemStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// StatusList renders the allowed statuses for error messages.
func StatusList() string {
	names := make([]string, len(WorkItemStatuses))
	for i, st := range WorkItemStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

type WorkItem struct {
	ID                string
	Title             string
	Description       string
	Status            WorkItemStatus
	CreatedAt         time.Time
	CreatedByID       string
	CreatedByUsername string
	Version           int64
}
