package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VerificationStatus string
type CertificationType string

const (
	VerificationStatusPending   VerificationStatus = "pending"
	VerificationStatusVerified  VerificationStatus = "verified"
	VerificationStatusRejected  VerificationStatus = "rejected"
	VerificationStatusSuspended VerificationStatus = "suspended"

	CertificationFirstAid            CertificationType = "first_aid"
	CertificationMedicalProfessional CertificationType = "medical_professional"
	CertificationLifeSaving          CertificationType = "life_saving"
	CertificationSearchRescue        CertificationType = "search_rescue"
)

func (t CertificationType) Valid() bool {
	switch t {
	case CertificationFirstAid, CertificationMedicalProfessional, CertificationLifeSaving, CertificationSearchRescue:
		return true
	}
	return false
}

type Certification struct {
	Type       CertificationType `json:"type" bson:"type"`
	IssuedBy   string            `json:"issued_by" bson:"issued_by"`
	Verified   bool              `json:"verified" bson:"verified"`
	VerifiedBy string            `json:"verified_by,omitempty" bson:"verified_by,omitempty"`
	VerifiedAt *time.Time        `json:"verified_at" bson:"verified_at"`
}

// CivilianResponder is one per civilian who registers to respond to SOS
// signals. Certification-gated levels control which signals they may accept.
type CivilianResponder struct {
	ID                  primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID              string              `json:"user_id" bson:"user_id" validate:"required"`
	Name                string              `json:"name" bson:"name"`
	Phone               string              `json:"phone" bson:"phone"`
	VerificationStatus  VerificationStatus  `json:"verification_status" bson:"verification_status" default:"pending"`
	Certifications      []Certification     `json:"certifications" bson:"certifications"`
	AllowedSOSLevels    []SOSLevel          `json:"allowed_sos_levels" bson:"allowed_sos_levels"`
	Available           bool                `json:"available" bson:"available"`
	AssignedSOSID       *primitive.ObjectID `json:"assigned_sos_id" bson:"assigned_sos_id"`
	TotalResponses      int64               `json:"total_responses" bson:"total_responses"`
	SuccessfulResponses int64               `json:"successful_responses" bson:"successful_responses"`
	Rating              float64             `json:"rating" bson:"rating"`
	CreatedAt           time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" bson:"updated_at"`
}

// RecomputeAllowedLevels derives the responder's capability tiers from the
// union of verified certification types. Every civilian holds level_1.
func (r *CivilianResponder) RecomputeAllowedLevels() {
	levels := map[SOSLevel]bool{SOSLevel1: true}

	for _, cert := range r.Certifications {
		if !cert.Verified {
			continue
		}
		switch cert.Type {
		case CertificationMedicalProfessional:
			levels[SOSLevel2] = true
		case CertificationLifeSaving:
			levels[SOSLevel2] = true
			levels[SOSLevel3] = true
		case CertificationSearchRescue:
			levels[SOSLevel2] = true
		}
	}

	// Stable order keeps the stored document deterministic.
	ordered := []SOSLevel{SOSLevel1, SOSLevel2, SOSLevel3}
	result := make([]SOSLevel, 0, len(levels))
	for _, l := range ordered {
		if levels[l] {
			result = append(result, l)
		}
	}
	r.AllowedSOSLevels = result
}

func (r *CivilianResponder) HasLevel(level SOSLevel) bool {
	for _, l := range r.AllowedSOSLevels {
		if l == level {
			return true
		}
	}
	return false
}

func (r *CivilianResponder) IsVerified() bool {
	return r.VerificationStatus == VerificationStatusVerified
}
