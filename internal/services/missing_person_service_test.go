package services

import (
	"context"
	"testing"

	"resqlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMissingFixture(t *testing.T) (MissingPersonService, *mockMissingRepo) {
	repo := newMockMissingRepo()
	return NewMissingPersonService(repo, testLogger(t)), repo
}

func TestReportCreatesPendingEntry(t *testing.T) {
	service, repo := newMissingFixture(t)

	result, err := service.Report(context.Background(), &ReportMissingPersonRequest{
		ReportedBy: "user-1",
		Name:       "Ravi",
		Age:        54,
		Lat:        9.93,
		Lng:        76.27,
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, models.MissingPersonStatusMissing, result.Report.Status)
	assert.Equal(t, models.VerificationStatusPending, result.Report.VerificationStatus)
	assert.Empty(t, result.PossibleDuplicates)
}

func TestReportFlagsNearbyDuplicatesByName(t *testing.T) {
	service, repo := newMissingFixture(t)
	repo.nearby = []*models.MissingPerson{
		{Name: "ravi"},
		{Name: "Anita"},
	}

	result, err := service.Report(context.Background(), &ReportMissingPersonRequest{
		ReportedBy: "user-1",
		Name:       "Ravi",
		Lat:        9.93,
		Lng:        76.27,
	})
	require.NoError(t, err)

	require.Len(t, result.PossibleDuplicates, 1, "name match is case-insensitive")
	assert.Equal(t, "ravi", result.PossibleDuplicates[0].Name)
	assert.Len(t, repo.created, 1, "duplicates warn but never block the report")
}

func TestVerifyApproveAndReject(t *testing.T) {
	service, repo := newMissingFixture(t)
	person := &models.MissingPerson{Name: "Ravi"}
	require.NoError(t, repo.Create(context.Background(), person))

	_, err := service.Verify(context.Background(), person.ID, "admin-1", true)
	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, models.VerificationStatusVerified, repo.updates[0].Fields["verification_status"])
	assert.Equal(t, "admin-1", repo.updates[0].Fields["verified_by"])

	_, err = service.Verify(context.Background(), person.ID, "admin-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusRejected, repo.updates[1].Fields["verification_status"])
}

func TestUpdateStatusToCamp(t *testing.T) {
	service, repo := newMissingFixture(t)
	person := &models.MissingPerson{Name: "Ravi", Status: models.MissingPersonStatusMissing}
	require.NoError(t, repo.Create(context.Background(), person))

	_, err := service.UpdateStatus(context.Background(), person.ID, &UpdateMissingPersonRequest{
		Status:   models.MissingPersonStatusAtCamp,
		CampName: "St. Mary's relief camp",
	})
	require.NoError(t, err)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, models.MissingPersonStatusAtCamp, repo.updates[0].Fields["status"])
	assert.Equal(t, "St. Mary's relief camp", repo.updates[0].Fields["camp_name"])
}
