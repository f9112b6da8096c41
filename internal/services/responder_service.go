package services

import (
	"context"
	"errors"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/repositories/interfaces"
	"resqlink/internal/utils"
	"resqlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrResponderExists      = errors.New("responder profile already exists")
	ErrCertificationInvalid = errors.New("invalid certification")
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
)

type RegisterResponderRequest struct {
	UserID         string                     `json:"-"`
	Name           string                     `json:"name" binding:"required"`
	Phone          string                     `json:"phone" binding:"required"`
	Certifications []CertificationDeclaration `json:"certifications"`
}

type CertificationDeclaration struct {
	Type     models.CertificationType `json:"type" binding:"required"`
	IssuedBy string                   `json:"issued_by"`
}

type VerifyCertificationRequest struct {
	Approve bool `json:"approve"`
}

type ResponderService interface {
	Register(ctx context.Context, req *RegisterResponderRequest) (*models.CivilianResponder, error)
	GetProfile(ctx context.Context, userID string) (*models.CivilianResponder, error)
	SetAvailability(ctx context.Context, userID string, available bool) (*models.CivilianResponder, error)
	AddCertification(ctx context.Context, userID string, decl *CertificationDeclaration) (*models.CivilianResponder, error)
	VerifyCertification(ctx context.Context, responderID primitive.ObjectID, index int, adminID string, approve bool) (*models.CivilianResponder, error)
	SetVerificationStatus(ctx context.Context, responderID primitive.ObjectID, status models.VerificationStatus) (*models.CivilianResponder, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.CivilianResponder, int64, error)
}

type responderService struct {
	responders interfaces.ResponderRepository
	logger     *logger.Logger
}

func NewResponderService(responders interfaces.ResponderRepository, log *logger.Logger) ResponderService {
	return &responderService{
		responders: responders,
		logger:     log,
	}
}

// Register creates a responder profile in pending verification state.
// Declared certifications are stored unverified and do not widen the
// allowed levels until an admin verifies them.
func (s *responderService) Register(ctx context.Context, req *RegisterResponderRequest) (*models.CivilianResponder, error) {
	if existing, err := s.responders.GetByUserID(ctx, req.UserID); err == nil && existing != nil {
		return nil, ErrResponderExists
	}

	if !utils.IsValidPhone(req.Phone) {
		return nil, ErrInvalidPhoneNumber
	}

	certifications := make([]models.Certification, 0, len(req.Certifications))
	for _, decl := range req.Certifications {
		if !decl.Type.Valid() {
			return nil, ErrCertificationInvalid
		}
		certifications = append(certifications, models.Certification{
			Type:     decl.Type,
			IssuedBy: decl.IssuedBy,
			Verified: false,
		})
	}

	responder := &models.CivilianResponder{
		UserID:             req.UserID,
		Name:               req.Name,
		Phone:              utils.NormalizePhone(req.Phone),
		VerificationStatus: models.VerificationStatusPending,
		Certifications:     certifications,
		Available:          false,
	}
	responder.RecomputeAllowedLevels()

	if err := s.responders.Create(ctx, responder); err != nil {
		return nil, err
	}

	s.logger.WithUserID(req.UserID).Info("Responder registered")

	return responder, nil
}

func (s *responderService) GetProfile(ctx context.Context, userID string) (*models.CivilianResponder, error) {
	responder, err := s.responders.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrResponderNotFound
	}
	return responder, nil
}

// SetAvailability toggles the responder on or off duty. Going unavailable
// does not abandon an active assignment.
func (s *responderService) SetAvailability(ctx context.Context, userID string, available bool) (*models.CivilianResponder, error) {
	responder, err := s.responders.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrResponderNotFound
	}

	if available && !responder.IsVerified() {
		return nil, ErrResponderNotVerified
	}

	if err := s.responders.Update(ctx, responder.ID, map[string]interface{}{
		"available": available,
	}); err != nil {
		return nil, err
	}

	return s.responders.GetByUserID(ctx, userID)
}

func (s *responderService) AddCertification(ctx context.Context, userID string, decl *CertificationDeclaration) (*models.CivilianResponder, error) {
	responder, err := s.responders.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrResponderNotFound
	}

	if !decl.Type.Valid() {
		return nil, ErrCertificationInvalid
	}

	responder.Certifications = append(responder.Certifications, models.Certification{
		Type:     decl.Type,
		IssuedBy: decl.IssuedBy,
		Verified: false,
	})

	if err := s.responders.Update(ctx, responder.ID, map[string]interface{}{
		"certifications": responder.Certifications,
	}); err != nil {
		return nil, err
	}

	return responder, nil
}

// VerifyCertification marks one certification verified or rejected and
// recomputes the responder's allowed levels from the verified set.
func (s *responderService) VerifyCertification(ctx context.Context, responderID primitive.ObjectID, index int, adminID string, approve bool) (*models.CivilianResponder, error) {
	responder, err := s.responders.GetByID(ctx, responderID)
	if err != nil {
		return nil, ErrResponderNotFound
	}

	if index < 0 || index >= len(responder.Certifications) {
		return nil, ErrCertificationInvalid
	}

	now := time.Now()
	responder.Certifications[index].Verified = approve
	responder.Certifications[index].VerifiedBy = adminID
	responder.Certifications[index].VerifiedAt = &now
	responder.RecomputeAllowedLevels()

	updates := map[string]interface{}{
		"certifications":     responder.Certifications,
		"allowed_sos_levels": responder.AllowedSOSLevels,
	}
	if approve && responder.VerificationStatus == models.VerificationStatusPending {
		// First verified certification also verifies the profile.
		responder.VerificationStatus = models.VerificationStatusVerified
		updates["verification_status"] = models.VerificationStatusVerified
	}

	if err := s.responders.Update(ctx, responderID, updates); err != nil {
		return nil, err
	}

	s.logger.WithResponderID(responderID).WithField("admin_id", adminID).Info("Certification reviewed")

	return responder, nil
}

func (s *responderService) SetVerificationStatus(ctx context.Context, responderID primitive.ObjectID, status models.VerificationStatus) (*models.CivilianResponder, error) {
	responder, err := s.responders.GetByID(ctx, responderID)
	if err != nil {
		return nil, ErrResponderNotFound
	}

	updates := map[string]interface{}{
		"verification_status": status,
	}
	if status == models.VerificationStatusSuspended || status == models.VerificationStatusRejected {
		updates["available"] = false
	}

	if err := s.responders.Update(ctx, responder.ID, updates); err != nil {
		return nil, err
	}

	return s.responders.GetByID(ctx, responderID)
}

func (s *responderService) List(ctx context.Context, params *utils.PaginationParams) ([]*models.CivilianResponder, int64, error) {
	return s.responders.List(ctx, params)
}
