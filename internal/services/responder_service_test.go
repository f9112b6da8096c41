package services

import (
	"context"
	"testing"

	"resqlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponderFixture(t *testing.T) (ResponderService, *mockResponderRepo) {
	repo := newMockResponderRepo()
	return NewResponderService(repo, testLogger(t)), repo
}

func TestRegisterStartsPendingWithBaseLevel(t *testing.T) {
	service, _ := newResponderFixture(t)

	responder, err := service.Register(context.Background(), &RegisterResponderRequest{
		UserID: "user-1",
		Name:   "Asha",
		Phone:  "+91 98470 12345",
		Certifications: []CertificationDeclaration{
			{Type: models.CertificationLifeSaving, IssuedBy: "Rashtriya Life Saving Society"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerificationStatusPending, responder.VerificationStatus)
	assert.False(t, responder.Available)
	assert.Equal(t, "+919847012345", responder.Phone)
	require.Len(t, responder.Certifications, 1)
	assert.False(t, responder.Certifications[0].Verified)
	assert.Equal(t, []models.SOSLevel{models.SOSLevel1}, responder.AllowedSOSLevels,
		"declared but unverified certifications grant nothing beyond the base level")
}

func TestRegisterRejectsDuplicateAndBadInput(t *testing.T) {
	service, repo := newResponderFixture(t)
	repo.add(&models.CivilianResponder{UserID: "user-1"})

	_, err := service.Register(context.Background(), &RegisterResponderRequest{UserID: "user-1", Name: "A", Phone: "+919847012345"})
	assert.ErrorIs(t, err, ErrResponderExists)

	_, err = service.Register(context.Background(), &RegisterResponderRequest{UserID: "user-2", Name: "B", Phone: "not-a-phone"})
	assert.ErrorIs(t, err, ErrInvalidPhoneNumber)

	_, err = service.Register(context.Background(), &RegisterResponderRequest{
		UserID: "user-3",
		Name:   "C",
		Phone:  "+919847012346",
		Certifications: []CertificationDeclaration{
			{Type: models.CertificationType("scuba")},
		},
	})
	assert.ErrorIs(t, err, ErrCertificationInvalid)
}

func TestVerifyCertificationWidensLevelsAndVerifiesProfile(t *testing.T) {
	service, repo := newResponderFixture(t)
	responder := repo.add(&models.CivilianResponder{
		UserID:             "user-1",
		VerificationStatus: models.VerificationStatusPending,
		Certifications: []models.Certification{
			{Type: models.CertificationLifeSaving},
		},
		AllowedSOSLevels: []models.SOSLevel{models.SOSLevel1},
	})

	updated, err := service.VerifyCertification(context.Background(), responder.ID, 0, "admin-1", true)
	require.NoError(t, err)

	assert.Equal(t, models.VerificationStatusVerified, updated.VerificationStatus)
	assert.Equal(t, []models.SOSLevel{models.SOSLevel1, models.SOSLevel2, models.SOSLevel3}, updated.AllowedSOSLevels)
	assert.True(t, updated.Certifications[0].Verified)
	assert.Equal(t, "admin-1", updated.Certifications[0].VerifiedBy)
	require.NotNil(t, updated.Certifications[0].VerifiedAt)
}

func TestVerifyCertificationRejectKeepsBaseLevel(t *testing.T) {
	service, repo := newResponderFixture(t)
	responder := repo.add(&models.CivilianResponder{
		UserID:             "user-1",
		VerificationStatus: models.VerificationStatusPending,
		Certifications: []models.Certification{
			{Type: models.CertificationMedicalProfessional},
		},
	})

	updated, err := service.VerifyCertification(context.Background(), responder.ID, 0, "admin-1", false)
	require.NoError(t, err)

	assert.Equal(t, models.VerificationStatusPending, updated.VerificationStatus)
	assert.Equal(t, []models.SOSLevel{models.SOSLevel1}, updated.AllowedSOSLevels)
}

func TestVerifyCertificationBadIndex(t *testing.T) {
	service, repo := newResponderFixture(t)
	responder := repo.add(&models.CivilianResponder{UserID: "user-1"})

	_, err := service.VerifyCertification(context.Background(), responder.ID, 3, "admin-1", true)
	assert.ErrorIs(t, err, ErrCertificationInvalid)
}

func TestSetAvailabilityRequiresVerifiedProfile(t *testing.T) {
	service, repo := newResponderFixture(t)
	responder := repo.add(&models.CivilianResponder{
		UserID:             "user-1",
		VerificationStatus: models.VerificationStatusPending,
	})

	_, err := service.SetAvailability(context.Background(), "user-1", true)
	assert.ErrorIs(t, err, ErrResponderNotVerified)

	responder.VerificationStatus = models.VerificationStatusVerified
	_, err = service.SetAvailability(context.Background(), "user-1", true)
	require.NoError(t, err)

	_, err = service.SetAvailability(context.Background(), "user-1", false)
	require.NoError(t, err)
}
