package interaction

import (
	"errors"
	"time"
)

type Type string

const (
	TypeCall    Type = "call"
	TypeEmail   Type = "email"
	TypeMessage Type = "message"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeCall, TypeEmail, TypeMessage:
		return true
	}
	return false
}

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

func (d Direction) IsValid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusDone
}

var ErrNotFound = errors.New("interaction not found")

type Interaction struct {
	ID         int64     `json:"id"`
	EngineerID int64     `json:"engineer_id"`
	ClientID   int64     `json:"client_id"`
	Type       Type      `json:"interaction_type"`
	Direction  Direction `json:"direction"`
	Summary    string    `json:"summary"`
	Status     Status    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// View is the serialized form with the related names resolved at read time.
type View struct {
	Interaction
	EngineerName string `json:"engineer_name"`
	ClientName   string `json:"client_name"`
}

// with pointers if optional, it will be nil
type Filter struct {
	ClientID   *int64
	EngineerID *int64
}

type CreateInteractionRequest struct {
	ClientName string    `json:"client_name" binding:"max=100"`
	Type       Type      `json:"interaction_type" binding:"required,oneof=call email message"`
	Direction  Direction `json:"direction" binding:"required,oneof=incoming outgoing"`
	Summary    string    `json:"summary" binding:"required,max=5000"`
	Status     Status    `json:"status" binding:"omitempty,oneof=pending done"`
}

// CreateInput carries a validated request plus the acting engineer into the store.
type CreateInput struct {
	EngineerID int64
	ClientName string
	Type       Type
	Direction  Direction
	Summary    string
	Status     Status
}

func NewFromCreateInput(in CreateInput, clientID int64) Interaction {
	status := in.Status
	if status == "" {
		status = StatusPending
	}

	return Interaction{
		EngineerID: in.EngineerID,
		ClientID:   clientID,
		Type:       in.Type,
		Direction:  in.Direction,
		Summary:    in.Summary,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

type ReassignRequest struct {
	EngineerID int64 `json:"engineer_id"`
}
