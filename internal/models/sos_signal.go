package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SignalStatus string
type SignalPriority string
type SOSLevel string

const (
	SignalStatusPending      SignalStatus = "pending"
	SignalStatusAcknowledged SignalStatus = "acknowledged"
	SignalStatusResponding   SignalStatus = "responding"
	SignalStatusResolved     SignalStatus = "resolved"
	SignalStatusFalseAlarm   SignalStatus = "false_alarm"

	SignalPriorityLow      SignalPriority = "low"
	SignalPriorityMedium   SignalPriority = "medium"
	SignalPriorityHigh     SignalPriority = "high"
	SignalPriorityCritical SignalPriority = "critical"

	SOSLevel1 SOSLevel = "level_1"
	SOSLevel2 SOSLevel = "level_2"
	SOSLevel3 SOSLevel = "level_3"

	MaxEscalationLevel = 2
)

// VictimStatusUpdate is an append-only entry on a signal, used both as a
// timeline and as the victim-visible chat transcript.
type VictimStatusUpdate struct {
	Type      string    `json:"type" bson:"type"`
	Message   string    `json:"message" bson:"message"`
	AuthorID  string    `json:"author_id,omitempty" bson:"author_id,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// VictimSafeConfirmation is the victim's terminal self-report. Once set the
// signal lifecycle is short-circuited regardless of responder state.
type VictimSafeConfirmation struct {
	IsSafe      bool       `json:"is_safe" bson:"is_safe"`
	ConfirmedAt *time.Time `json:"confirmed_at" bson:"confirmed_at"`
	Location    *Location  `json:"location,omitempty" bson:"location,omitempty"`
}

type SosSignal struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID            string             `json:"user_id" bson:"user_id" validate:"required"`
	IncidentNumber    string             `json:"incident_number" bson:"incident_number"`
	Location          Location           `json:"location" bson:"location" validate:"required"`
	Message           string             `json:"message" bson:"message"`
	ContactPhone      string             `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
	Priority          SignalPriority     `json:"priority" bson:"priority" default:"medium"`
	Status            SignalStatus       `json:"status" bson:"status" default:"pending"`
	SOSLevel          SOSLevel           `json:"sos_level" bson:"sos_level" validate:"required"`
	AssignedResponder *primitive.ObjectID `json:"assigned_responder" bson:"assigned_responder"`
	ActiveResponseID  *primitive.ObjectID `json:"active_response_id" bson:"active_response_id"`
	ResponseTime      *time.Time         `json:"response_time" bson:"response_time"`
	EscalationLevel   int                `json:"escalation_level" bson:"escalation_level"`
	AutoEscalatedAt   *time.Time         `json:"auto_escalated_at" bson:"auto_escalated_at"`
	StatusUpdates     []VictimStatusUpdate    `json:"victim_status_updates" bson:"victim_status_updates"`
	SafeConfirmation  *VictimSafeConfirmation `json:"victim_safe_confirmation" bson:"victim_safe_confirmation"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
	ResolvedAt        *time.Time         `json:"resolved_at" bson:"resolved_at"`
}

// IsOpen reports whether the signal still accepts responder activity.
func (s *SosSignal) IsOpen() bool {
	if s.SafeConfirmation != nil && s.SafeConfirmation.IsSafe {
		return false
	}
	switch s.Status {
	case SignalStatusPending, SignalStatusAcknowledged, SignalStatusResponding:
		return true
	}
	return false
}

// PriorityRank orders priorities for the nearby listing sort.
func (p SignalPriority) Rank() int {
	switch p {
	case SignalPriorityCritical:
		return 4
	case SignalPriorityHigh:
		return 3
	case SignalPriorityMedium:
		return 2
	case SignalPriorityLow:
		return 1
	}
	return 0
}

func (l SOSLevel) Valid() bool {
	switch l {
	case SOSLevel1, SOSLevel2, SOSLevel3:
		return true
	}
	return false
}

func (p SignalPriority) Valid() bool {
	switch p {
	case SignalPriorityLow, SignalPriorityMedium, SignalPriorityHigh, SignalPriorityCritical:
		return true
	}
	return false
}
