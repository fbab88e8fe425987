// Package audit records who did what to which resource. Recording is
// best-effort from the core's perspective: a failed insert is logged and
// never fails the primary operation.
package audit

import (
	"context"

	"github.com/google/uuid"
)

const (
	ActionCreate       = "CREATE"
	ActionStatusChange = "STATUS_CHANGE"
	ActionCheckIn      = "CHECK_IN"
	ActionClinicalEdit = "CLINICAL_EDIT"
)

type Event struct {
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}
