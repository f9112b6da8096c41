package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponseStatus string
type ResponderType string
type RescueOutcome string

const (
	ResponseStatusAssigned  ResponseStatus = "assigned"
	ResponseStatusEnRoute   ResponseStatus = "en_route"
	ResponseStatusArrived   ResponseStatus = "arrived"
	ResponseStatusAssisting ResponseStatus = "assisting"
	ResponseStatusCompleted ResponseStatus = "completed"
	ResponseStatusCancelled ResponseStatus = "cancelled"
	ResponseStatusFailed    ResponseStatus = "failed"

	ResponderTypeOfficial  ResponderType = "official"
	ResponderTypeCivilian  ResponderType = "civilian"
	ResponderTypeVolunteer ResponderType = "volunteer"

	OutcomeRescued           RescueOutcome = "rescued"
	OutcomeTransportedToCamp RescueOutcome = "transported_to_camp"
	OutcomeVictimSafeAlready RescueOutcome = "victim_safe_already"
	OutcomeVictimNotFound    RescueOutcome = "victim_not_found"
	OutcomeMedicalReferral   RescueOutcome = "medical_referral"
)

type ChatMessage struct {
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	SenderRole string    `json:"sender_role" bson:"sender_role"` // victim, responder, admin
	Message    string    `json:"message" bson:"message"`
	SentAt     time.Time `json:"sent_at" bson:"sent_at"`
}

// SosResponse is one responder's assignment record against a signal. A signal
// may carry several of these (multi-responder support); only the one
// referenced by the signal's active_response_id is primary.
type SosResponse struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SosSignalID        primitive.ObjectID  `json:"sos_signal_id" bson:"sos_signal_id" validate:"required"`
	ResponderID        primitive.ObjectID  `json:"responder_id" bson:"responder_id" validate:"required"`
	ResponderUserID    string              `json:"responder_user_id" bson:"responder_user_id"`
	ResponderType      ResponderType       `json:"responder_type" bson:"responder_type"`
	Status             ResponseStatus      `json:"status" bson:"status" default:"assigned"`
	AssignedAt         time.Time           `json:"assigned_at" bson:"assigned_at"`
	EnRouteAt          *time.Time          `json:"en_route_at" bson:"en_route_at"`
	ArrivedAt          *time.Time          `json:"arrived_at" bson:"arrived_at"`
	CompletedAt        *time.Time          `json:"completed_at" bson:"completed_at"`
	ResponderLocation  *Location           `json:"responder_location" bson:"responder_location"`
	DistanceToVictimKM float64             `json:"distance_to_victim_km" bson:"distance_to_victim_km"`
	ChatMessages       []ChatMessage       `json:"chat_messages" bson:"chat_messages"`
	RescueOutcome      RescueOutcome       `json:"rescue_outcome,omitempty" bson:"rescue_outcome,omitempty"`
	VictimStatus       string              `json:"victim_status,omitempty" bson:"victim_status,omitempty"`
	MissingPersonID    *primitive.ObjectID `json:"missing_person_id" bson:"missing_person_id"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

func (r *SosResponse) IsActive() bool {
	switch r.Status {
	case ResponseStatusCompleted, ResponseStatusCancelled, ResponseStatusFailed:
		return false
	}
	return true
}

// TimelineField returns the bson field stamped for a recognized status
// transition, or "" when the status carries no timeline timestamp.
func (s ResponseStatus) TimelineField() string {
	switch s {
	case ResponseStatusEnRoute:
		return "en_route_at"
	case ResponseStatusArrived:
		return "arrived_at"
	case ResponseStatusCompleted:
		return "completed_at"
	}
	return ""
}
