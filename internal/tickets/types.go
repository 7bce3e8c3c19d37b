package tickets

import "time"

// Status is the ticket lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Priority is the operator-assigned ticket priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Ticket is one maintenance work ticket. MachineID carries the machine's
// external product id in API payloads, matching the legacy wire format.
type Ticket struct {
	ID          string    `json:"id"`
	MachineID   string    `json:"machine_id"`
	Title       string    `json:"title"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest is the payload for creating a ticket.
type CreateRequest struct {
	MachineID   string   `json:"machineId"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority"`
	Description string   `json:"description"`
}

func validPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func validStatus(s Status) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusDone
}
