package allocator

import (
	"errors"
	"fmt"

	"hms/src/models"
)

var (
	// ErrNotFound covers lookups of beds, stays, theatres, surgeries,
	// units and requests alike. Handlers map it to 404.
	ErrNotFound = errors.New("resource not found")

	// ErrResourceUnavailable is returned whenever a conditional status
	// update matched zero rows, meaning another writer got there first or
	// the resource was never in the required state.
	ErrResourceUnavailable = errors.New("resource unavailable")
)

// ScheduleConflictError carries the booking that already occupies the
// requested window so the client can show staff what is in the way.
type ScheduleConflictError struct {
	Conflict *models.Surgery
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("theatre already booked from %s to %s by %s", e.Conflict.StartTime, e.Conflict.EndTime, e.Conflict.SurgeryID)
}

type InsufficientInventoryError struct {
	Available uint
	Required  uint
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory: %d of %d units available", e.Available, e.Required)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
