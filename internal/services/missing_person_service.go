package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/repositories/interfaces"
	"resqlink/internal/utils"
	"resqlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrMissingPersonNotFound = errors.New("missing person report not found")

type ReportMissingPersonRequest struct {
	ReportedBy  string  `json:"-"`
	Name        string  `json:"name" binding:"required"`
	Age         int     `json:"age"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat" binding:"required"`
	Lng         float64 `json:"lng" binding:"required"`
	Address     string  `json:"address"`
}

type ReportResult struct {
	Report             *models.MissingPerson   `json:"report"`
	PossibleDuplicates []*models.MissingPerson `json:"possible_duplicates,omitempty"`
}

type UpdateMissingPersonRequest struct {
	Status   models.MissingPersonStatus `json:"status"`
	CampName string                     `json:"camp_name"`
}

type MissingPersonService interface {
	Report(ctx context.Context, req *ReportMissingPersonRequest) (*ReportResult, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.MissingPerson, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, req *UpdateMissingPersonRequest) (*models.MissingPerson, error)
	Verify(ctx context.Context, id primitive.ObjectID, adminID string, approve bool) (*models.MissingPerson, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.MissingPerson, int64, error)
}

type missingPersonService struct {
	missing interfaces.MissingPersonRepository
	logger  *logger.Logger
}

func NewMissingPersonService(missing interfaces.MissingPersonRepository, log *logger.Logger) MissingPersonService {
	return &missingPersonService{
		missing: missing,
		logger:  log,
	}
}

// Report creates a citizen-submitted missing person report in unverified
// state. Nearby recent reports with a matching name are surfaced as
// possible duplicates but never block the submission.
func (s *missingPersonService) Report(ctx context.Context, req *ReportMissingPersonRequest) (*ReportResult, error) {
	person := &models.MissingPerson{
		Name:               req.Name,
		Age:                req.Age,
		Description:        req.Description,
		LastSeenLocation:   models.NewLocation(req.Lat, req.Lng, req.Address),
		ReportedBy:         req.ReportedBy,
		Status:             models.MissingPersonStatusMissing,
		VerificationStatus: models.VerificationStatusPending,
	}

	var duplicates []*models.MissingPerson
	since := time.Now().Add(-utils.DuplicateReportWindow)
	if nearby, err := s.missing.FindNearbyRecent(ctx, req.Lat, req.Lng, utils.DuplicateReportRadiusKM, since); err == nil {
		for _, candidate := range nearby {
			if strings.EqualFold(candidate.Name, req.Name) {
				duplicates = append(duplicates, candidate)
			}
		}
	}

	if err := s.missing.Create(ctx, person); err != nil {
		return nil, err
	}

	s.logger.WithField("missing_person_id", person.ID.Hex()).Info("Missing person reported")

	return &ReportResult{
		Report:             person,
		PossibleDuplicates: duplicates,
	}, nil
}

func (s *missingPersonService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MissingPerson, error) {
	person, err := s.missing.GetByID(ctx, id)
	if err != nil {
		return nil, ErrMissingPersonNotFound
	}
	return person, nil
}

func (s *missingPersonService) UpdateStatus(ctx context.Context, id primitive.ObjectID, req *UpdateMissingPersonRequest) (*models.MissingPerson, error) {
	if _, err := s.missing.GetByID(ctx, id); err != nil {
		return nil, ErrMissingPersonNotFound
	}

	updates := map[string]interface{}{
		"status": req.Status,
	}
	if req.CampName != "" {
		updates["camp_name"] = req.CampName
	}

	if err := s.missing.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	return s.missing.GetByID(ctx, id)
}

func (s *missingPersonService) Verify(ctx context.Context, id primitive.ObjectID, adminID string, approve bool) (*models.MissingPerson, error) {
	if _, err := s.missing.GetByID(ctx, id); err != nil {
		return nil, ErrMissingPersonNotFound
	}

	status := models.VerificationStatusVerified
	if !approve {
		status = models.VerificationStatusRejected
	}

	if err := s.missing.Update(ctx, id, map[string]interface{}{
		"verification_status": status,
		"verified_by":         adminID,
	}); err != nil {
		return nil, err
	}

	return s.missing.GetByID(ctx, id)
}

func (s *missingPersonService) List(ctx context.Context, params *utils.PaginationParams) ([]*models.MissingPerson, int64, error) {
	return s.missing.List(ctx, params)
}
