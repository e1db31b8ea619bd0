package allocator

import (
	"hms/src/types"

	"github.com/google/uuid"
)

const (
	ModuleBeds      = "beds"
	ModuleTheatres  = "ot"
	ModuleBloodBank = "bloodbank"
)

const (
	EventBedUpdate        = "bed:update"
	EventBedAlert         = "bed:alert"
	EventSurgeryUpdate    = "surgery:update"
	EventSurgeryPostponed = "surgery:postponed"
	EventBloodRequest     = "blood:request"
	EventBloodIssued      = "blood:issued"
)

// Event is a committed state change. Events are only constructed after the
// enclosing transaction succeeded, so publishing one never lies.
type Event struct {
	ID      uuid.UUID   `json:"id"`
	Module  string      `json:"module"`
	Name    string      `json:"name"`
	Payload types.JSONB `json:"payload"`
}

func NewEvent(module, name string, payload types.JSONB) Event {
	return Event{
		ID:      uuid.New(),
		Module:  module,
		Name:    name,
		Payload: payload,
	}
}

// EventPublisher fans committed events out to whatever transports the
// process has configured. Implementations must not block request handling
// on broker availability.
type EventPublisher interface {
	Publish(event Event)
}
