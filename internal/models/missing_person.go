package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MissingPersonStatus string

const (
	MissingPersonStatusMissing MissingPersonStatus = "missing"
	MissingPersonStatusFound   MissingPersonStatus = "found"
	MissingPersonStatusAtCamp  MissingPersonStatus = "at_camp"
)

type MissingPerson struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name               string              `json:"name" bson:"name" validate:"required"`
	Age                int                 `json:"age,omitempty" bson:"age,omitempty"`
	Description        string              `json:"description" bson:"description"`
	LastSeenLocation   Location            `json:"last_seen_location" bson:"last_seen_location"`
	ReportedBy         string              `json:"reported_by" bson:"reported_by"`
	Status             MissingPersonStatus `json:"status" bson:"status" default:"missing"`
	VerificationStatus VerificationStatus  `json:"verification_status" bson:"verification_status" default:"pending"`
	VerifiedBy         string              `json:"verified_by,omitempty" bson:"verified_by,omitempty"`
	CampName           string              `json:"camp_name,omitempty" bson:"camp_name,omitempty"`
	SourceResponseID   *primitive.ObjectID `json:"source_response_id" bson:"source_response_id"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}
