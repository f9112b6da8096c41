package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"resqlink/internal/config"
	"resqlink/internal/models"
	"resqlink/internal/repositories/interfaces"
	"resqlink/internal/utils"
	"resqlink/pkg/logger"
	"resqlink/pkg/maps"
	"resqlink/pkg/sms"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrSignalNotFound       = errors.New("signal not found")
	ErrSignalClosed         = errors.New("signal is no longer active")
	ErrResponseNotFound     = errors.New("response not found")
	ErrResponderNotFound    = errors.New("responder profile not found")
	ErrResponderNotVerified = errors.New("responder is not verified")
	ErrResponderUnavailable = errors.New("responder is not available")
	ErrAlreadyAssigned      = errors.New("responder already has an active assignment")
	ErrLevelNotAllowed      = errors.New("responder not certified for this signal level")
	ErrNotOwner             = errors.New("caller does not own this resource")
	ErrNotAuthorized        = errors.New("caller is not authorized for this resource")
)

type SubmitSignalRequest struct {
	UserID   string                `json:"-"`
	Phone    string                `json:"phone"`
	Lat      float64               `json:"lat" binding:"required"`
	Lng      float64               `json:"lng" binding:"required"`
	Address  string                `json:"address"`
	Message  string                `json:"message"`
	Priority models.SignalPriority `json:"priority"`
	SOSLevel models.SOSLevel       `json:"sos_level"`
}

type NearbyQuery struct {
	Lat      *float64
	Lng      *float64
	RadiusKM float64
	UserID   string
	UserType string
}

type SignalWithDistance struct {
	*models.SosSignal
	DistanceKM *float64 `json:"distance_km,omitempty"`
}

type UpdateResponseStatusRequest struct {
	Status models.ResponseStatus `json:"status" binding:"required"`
	Lat    *float64              `json:"lat"`
	Lng    *float64              `json:"lng"`
	Note   string                `json:"note"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type MarkSafeRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

type MissingPersonDetails struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Description string `json:"description"`
	CampName    string `json:"camp_name"`
}

type CompleteResponseRequest struct {
	Outcome                  models.RescueOutcome  `json:"outcome" binding:"required"`
	VictimStatus             string                `json:"victim_status"`
	CreateMissingPersonEntry bool                  `json:"create_missing_person_entry"`
	MissingPerson            *MissingPersonDetails `json:"missing_person"`
}

type SignalStatusView struct {
	Signal         *models.SosSignal   `json:"signal"`
	ActiveResponse *models.SosResponse `json:"active_response,omitempty"`
}

type SignalStats struct {
	StatusCounts map[string]int64 `json:"status_counts"`
	Total        int64            `json:"total"`
}

type SOSService interface {
	SubmitSignal(ctx context.Context, req *SubmitSignalRequest) (*models.SosSignal, error)
	GetNearbySignals(ctx context.Context, query *NearbyQuery) ([]*SignalWithDistance, error)
	AcceptSignal(ctx context.Context, signalID primitive.ObjectID, userID string) (*models.SosResponse, error)
	UpdateResponseStatus(ctx context.Context, responseID primitive.ObjectID, userID string, req *UpdateResponseStatusRequest) (*models.SosResponse, error)
	AddResponseChat(ctx context.Context, responseID primitive.ObjectID, userID, userType string, req *ChatRequest) error
	AddSignalChat(ctx context.Context, signalID primitive.ObjectID, userID, userType string, req *ChatRequest) error
	MarkSafe(ctx context.Context, signalID primitive.ObjectID, userID string, req *MarkSafeRequest) (*models.SosSignal, error)
	CompleteResponse(ctx context.Context, responseID primitive.ObjectID, userID string, req *CompleteResponseRequest) (*models.SosResponse, error)
	GetSignalStatus(ctx context.Context, signalID primitive.ObjectID, userID, userType string) (*SignalStatusView, error)
	ListSignals(ctx context.Context, params *utils.PaginationParams) ([]*models.SosSignal, int64, error)
	GetSignalStats(ctx context.Context) (*SignalStats, error)
}

type sosService struct {
	signals    interfaces.SignalRepository
	responses  interfaces.ResponseRepository
	responders interfaces.ResponderRepository
	missing    interfaces.MissingPersonRepository
	relay      SignalRelay
	geocoder   maps.Geocoder
	smsSender  sms.SMSProvider
	smsFrom    string
	logger     *logger.Logger
}

func NewSOSService(
	signals interfaces.SignalRepository,
	responses interfaces.ResponseRepository,
	responders interfaces.ResponderRepository,
	missing interfaces.MissingPersonRepository,
	relay SignalRelay,
	geocoder maps.Geocoder,
	smsSender sms.SMSProvider,
	cfg *config.Config,
	log *logger.Logger,
) SOSService {
	smsFrom := ""
	if cfg != nil && cfg.SMS != nil {
		smsFrom = cfg.SMS.DefaultFrom
	}

	return &sosService{
		signals:    signals,
		responses:  responses,
		responders: responders,
		missing:    missing,
		relay:      relay,
		geocoder:   geocoder,
		smsSender:  smsSender,
		smsFrom:    smsFrom,
		logger:     log,
	}
}

// SubmitSignal persists a new emergency report. Identity resolution order:
// authenticated user, shadow account keyed by phone, one-off anonymous id.
func (s *sosService) SubmitSignal(ctx context.Context, req *SubmitSignalRequest) (*models.SosSignal, error) {
	userID := req.UserID
	if userID == "" {
		if req.Phone != "" && utils.IsValidPhone(req.Phone) {
			userID = utils.ShadowUserID(req.Phone)
		} else {
			userID = "anon:" + uuid.NewString()
		}
	}

	priority := req.Priority
	if !priority.Valid() {
		priority = models.SignalPriorityMedium
	}

	level := req.SOSLevel
	if !level.Valid() {
		level = models.SOSLevel1
	}

	location := models.NewLocation(req.Lat, req.Lng, req.Address)
	if location.Address == "" && s.geocoder != nil {
		// Best-effort annotation; intake never fails on geocoding.
		if result, err := s.geocoder.ReverseGeocode(ctx, req.Lat, req.Lng); err == nil {
			location.Address = result.Address
		}
	}

	signal := &models.SosSignal{
		UserID:         userID,
		IncidentNumber: uuid.NewString(),
		Location:       location,
		Message:        req.Message,
		ContactPhone:   req.Phone,
		Priority:       priority,
		Status:         models.SignalStatusPending,
		SOSLevel:       level,
		StatusUpdates: []models.VictimStatusUpdate{
			{
				Type:      "created",
				Message:   "SOS signal received",
				Timestamp: time.Now(),
			},
		},
	}

	if err := s.signals.Create(ctx, signal); err != nil {
		return nil, err
	}

	s.logger.LogSignalEvent(signal.ID, "submitted", map[string]interface{}{
		"priority":  string(signal.Priority),
		"sos_level": string(signal.SOSLevel),
	})

	return signal, nil
}

// GetNearbySignals returns all open signals, optionally annotated with the
// caller's distance and filtered to a radius. Civilian responders only see
// signals whose level they hold; officials and admins see everything.
func (s *sosService) GetNearbySignals(ctx context.Context, query *NearbyQuery) ([]*SignalWithDistance, error) {
	signals, err := s.signals.GetOpenSignals(ctx)
	if err != nil {
		return nil, err
	}

	var allowed map[models.SOSLevel]bool
	if query.UserType == "responder" {
		allowed = map[models.SOSLevel]bool{models.SOSLevel1: true}
		if responder, err := s.responders.GetByUserID(ctx, query.UserID); err == nil {
			for _, l := range responder.AllowedSOSLevels {
				allowed[l] = true
			}
		}
	}

	hasLocation := query.Lat != nil && query.Lng != nil
	radius := query.RadiusKM
	if radius <= 0 || radius > utils.MaxNearbyRadiusKM {
		radius = utils.DefaultNearbyRadiusKM
	}

	results := make([]*SignalWithDistance, 0, len(signals))
	for _, signal := range signals {
		if allowed != nil && !allowed[signal.SOSLevel] {
			continue
		}

		entry := &SignalWithDistance{SosSignal: signal}
		if hasLocation {
			dist := utils.CalculateDistance(*query.Lat, *query.Lng, signal.Location.Latitude(), signal.Location.Longitude())
			if dist > radius {
				continue
			}
			entry.DistanceKM = &dist
		}
		results = append(results, entry)
	}

	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := results[i].Priority.Rank(), results[j].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		if hasLocation {
			return *results[i].DistanceKM < *results[j].DistanceKM
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results, nil
}

// AcceptSignal creates a response for the calling responder. Only the first
// accept wins the signal's assigned_responder field; later accepts become
// additional, non-primary helpers. The check is read-then-write: two
// simultaneous accepts can both observe an unassigned signal.
func (s *sosService) AcceptSignal(ctx context.Context, signalID primitive.ObjectID, userID string) (*models.SosResponse, error) {
	responder, err := s.responders.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrResponderNotFound
	}

	if !responder.IsVerified() {
		return nil, ErrResponderNotVerified
	}
	if !responder.Available {
		return nil, ErrResponderUnavailable
	}
	if responder.AssignedSOSID != nil {
		return nil, ErrAlreadyAssigned
	}

	signal, err := s.signals.GetByID(ctx, signalID)
	if err != nil {
		return nil, ErrSignalNotFound
	}
	if !signal.IsOpen() {
		return nil, ErrSignalClosed
	}
	if !responder.HasLevel(signal.SOSLevel) {
		return nil, ErrLevelNotAllowed
	}

	now := time.Now()
	response := &models.SosResponse{
		SosSignalID:     signal.ID,
		ResponderID:     responder.ID,
		ResponderUserID: userID,
		ResponderType:   models.ResponderTypeCivilian,
		Status:          models.ResponseStatusAssigned,
		AssignedAt:      now,
	}

	if err := s.responses.Create(ctx, response); err != nil {
		return nil, err
	}

	if err := s.responders.Update(ctx, responder.ID, map[string]interface{}{
		"assigned_sos_id": signal.ID,
	}); err != nil {
		return nil, err
	}

	if signal.AssignedResponder == nil {
		// First accept wins the primary slot.
		if err := s.signals.Update(ctx, signal.ID, map[string]interface{}{
			"assigned_responder": responder.ID,
			"active_response_id": response.ID,
			"response_time":      now,
			"status":             models.SignalStatusResponding,
		}); err != nil {
			return nil, err
		}
	}

	s.signals.AppendStatusUpdate(ctx, signal.ID, models.VictimStatusUpdate{
		Type:      "responder_assigned",
		Message:   fmt.Sprintf("Responder %s accepted your SOS", responder.Name),
		AuthorID:  userID,
		Timestamp: now,
	})

	s.publish(signal.ID, EventResponderUpdate, map[string]interface{}{
		"response_id":  response.ID.Hex(),
		"responder_id": responder.ID.Hex(),
		"status":       string(models.ResponseStatusAssigned),
	})

	s.logger.WithSignalID(signal.ID).WithResponderID(responder.ID).Info("Responder accepted signal")

	return response, nil
}

// UpdateResponseStatus writes the target status as-is. Transitions are
// client-driven and not validated against the current status.
func (s *sosService) UpdateResponseStatus(ctx context.Context, responseID primitive.ObjectID, userID string, req *UpdateResponseStatusRequest) (*models.SosResponse, error) {
	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, ErrResponseNotFound
	}
	if response.ResponderUserID != userID {
		return nil, ErrNotOwner
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status": req.Status,
	}
	if field := req.Status.TimelineField(); field != "" {
		updates[field] = now
	}

	var location *models.Location
	if req.Lat != nil && req.Lng != nil {
		loc := models.NewLocation(*req.Lat, *req.Lng, "")
		location = &loc
		updates["responder_location"] = loc

		if signal, err := s.signals.GetByID(ctx, response.SosSignalID); err == nil {
			updates["distance_to_victim_km"] = utils.CalculateDistance(
				*req.Lat, *req.Lng, signal.Location.Latitude(), signal.Location.Longitude())
		}
	}

	if err := s.responses.Update(ctx, responseID, updates); err != nil {
		return nil, err
	}

	note := req.Note
	if note == "" {
		note = fmt.Sprintf("Responder status changed to %s", req.Status)
	}
	s.signals.AppendStatusUpdate(ctx, response.SosSignalID, models.VictimStatusUpdate{
		Type:      "responder_status",
		Message:   note,
		AuthorID:  userID,
		Timestamp: now,
	})

	s.publish(response.SosSignalID, EventResponderUpdate, map[string]interface{}{
		"response_id": responseID.Hex(),
		"status":      string(req.Status),
	})
	if location != nil {
		s.publish(response.SosSignalID, EventLocationUpdate, map[string]interface{}{
			"response_id": responseID.Hex(),
			"lat":         location.Latitude(),
			"lng":         location.Longitude(),
		})
	}

	return s.responses.GetByID(ctx, responseID)
}

// AddResponseChat appends to the response's chat log. Authorization is
// re-derived per request from ownership and role, not from a session.
func (s *sosService) AddResponseChat(ctx context.Context, responseID primitive.ObjectID, userID, userType string, req *ChatRequest) error {
	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return ErrResponseNotFound
	}

	signal, err := s.signals.GetByID(ctx, response.SosSignalID)
	if err != nil {
		return ErrSignalNotFound
	}

	role, err := chatRole(signal, response, userID, userType)
	if err != nil {
		return err
	}

	message := models.ChatMessage{
		SenderID:   userID,
		SenderRole: role,
		Message:    truncateMessage(req.Message),
		SentAt:     time.Now(),
	}

	if err := s.responses.AppendChatMessage(ctx, responseID, message); err != nil {
		return err
	}

	s.publish(signal.ID, EventNewMessage, map[string]interface{}{
		"response_id": responseID.Hex(),
		"sender_id":   userID,
		"sender_role": role,
		"message":     message.Message,
	})

	return nil
}

// AddSignalChat appends to the signal's update log, which doubles as the
// victim-visible transcript.
func (s *sosService) AddSignalChat(ctx context.Context, signalID primitive.ObjectID, userID, userType string, req *ChatRequest) error {
	signal, err := s.signals.GetByID(ctx, signalID)
	if err != nil {
		return ErrSignalNotFound
	}

	role := ""
	switch {
	case signal.UserID == userID:
		role = "victim"
	case userType == "admin" || userType == "official":
		role = userType
	case userType == "responder":
		role = "responder"
	default:
		return ErrNotAuthorized
	}

	update := models.VictimStatusUpdate{
		Type:      "chat",
		Message:   truncateMessage(req.Message),
		AuthorID:  userID,
		Timestamp: time.Now(),
	}

	if err := s.signals.AppendStatusUpdate(ctx, signalID, update); err != nil {
		return err
	}

	s.publish(signalID, EventNewMessage, map[string]interface{}{
		"sender_id":   userID,
		"sender_role": role,
		"message":     update.Message,
	})

	return nil
}

// MarkSafe is the victim's terminal self-resolution. Three separate writes
// (signal, response, responder) with no shared transaction; a crash
// mid-sequence leaves the remaining documents untouched.
func (s *sosService) MarkSafe(ctx context.Context, signalID primitive.ObjectID, userID string, req *MarkSafeRequest) (*models.SosSignal, error) {
	signal, err := s.signals.GetByID(ctx, signalID)
	if err != nil {
		return nil, ErrSignalNotFound
	}
	if signal.UserID != userID {
		return nil, ErrNotOwner
	}

	now := time.Now()
	confirmation := &models.VictimSafeConfirmation{
		IsSafe:      true,
		ConfirmedAt: &now,
	}
	if req != nil && req.Lat != nil && req.Lng != nil {
		loc := models.NewLocation(*req.Lat, *req.Lng, req.Address)
		confirmation.Location = &loc
	}

	if err := s.signals.Update(ctx, signalID, map[string]interface{}{
		"victim_safe_confirmation": confirmation,
		"status":                   models.SignalStatusResolved,
		"resolved_at":              now,
	}); err != nil {
		return nil, err
	}

	if signal.ActiveResponseID != nil {
		if response, err := s.responses.GetByID(ctx, *signal.ActiveResponseID); err == nil && response.IsActive() {
			s.responses.Update(ctx, response.ID, map[string]interface{}{
				"status":         models.ResponseStatusCancelled,
				"rescue_outcome": models.OutcomeVictimSafeAlready,
			})
			s.responders.Update(ctx, response.ResponderID, map[string]interface{}{
				"assigned_sos_id": nil,
			})
		}
	}

	s.publish(signalID, EventResponderUpdate, map[string]interface{}{
		"status": "victim_safe",
	})

	s.logger.LogSignalEvent(signalID, "marked_safe", nil)

	return s.signals.GetByID(ctx, signalID)
}

// CompleteResponse is the responder's terminal write sequence: response,
// signal, responder counters, and optionally a new MissingPerson document.
// Four independent writes; partial completion is possible on failure.
func (s *sosService) CompleteResponse(ctx context.Context, responseID primitive.ObjectID, userID string, req *CompleteResponseRequest) (*models.SosResponse, error) {
	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, ErrResponseNotFound
	}
	if response.ResponderUserID != userID {
		return nil, ErrNotOwner
	}

	signal, err := s.signals.GetByID(ctx, response.SosSignalID)
	if err != nil {
		return nil, ErrSignalNotFound
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.ResponseStatusCompleted,
		"completed_at":   now,
		"rescue_outcome": req.Outcome,
	}
	if req.VictimStatus != "" {
		updates["victim_status"] = req.VictimStatus
	}

	if req.CreateMissingPersonEntry && req.Outcome == models.OutcomeTransportedToCamp && req.MissingPerson != nil {
		lastSeen := signal.Location
		if response.ResponderLocation != nil {
			lastSeen = *response.ResponderLocation
		}

		person := &models.MissingPerson{
			Name:               req.MissingPerson.Name,
			Age:                req.MissingPerson.Age,
			Description:        req.MissingPerson.Description,
			LastSeenLocation:   lastSeen,
			ReportedBy:         userID,
			Status:             models.MissingPersonStatusAtCamp,
			VerificationStatus: models.VerificationStatusVerified,
			CampName:           req.MissingPerson.CampName,
			SourceResponseID:   &response.ID,
		}

		if err := s.missing.Create(ctx, person); err != nil {
			return nil, fmt.Errorf("failed to create missing person entry: %w", err)
		}
		updates["missing_person_id"] = person.ID
	}

	if err := s.responses.Update(ctx, responseID, updates); err != nil {
		return nil, err
	}

	s.signals.Update(ctx, signal.ID, map[string]interface{}{
		"status":      models.SignalStatusResolved,
		"resolved_at": now,
	})
	s.signals.AppendStatusUpdate(ctx, signal.ID, models.VictimStatusUpdate{
		Type:      "completed",
		Message:   fmt.Sprintf("Response completed: %s", req.Outcome),
		AuthorID:  userID,
		Timestamp: now,
	})

	s.responders.Update(ctx, response.ResponderID, map[string]interface{}{
		"assigned_sos_id": nil,
	})
	s.responders.IncrementCounters(ctx, response.ResponderID, isSuccessfulOutcome(req.Outcome))

	if signal.ContactPhone != "" && s.smsSender != nil {
		// Best-effort; completion never fails on SMS delivery.
		s.smsSender.SendSMS(ctx, &sms.SMSRequest{
			To:      signal.ContactPhone,
			From:    s.smsFrom,
			Message: fmt.Sprintf("Your SOS %s has been resolved (%s).", signal.IncidentNumber, req.Outcome),
			Type:    "status",
		})
	}

	s.publish(signal.ID, EventResponderUpdate, map[string]interface{}{
		"response_id": responseID.Hex(),
		"status":      string(models.ResponseStatusCompleted),
		"outcome":     string(req.Outcome),
	})

	s.logger.WithSignalID(signal.ID).WithResponseID(responseID).Info("Response completed")

	return s.responses.GetByID(ctx, responseID)
}

// GetSignalStatus is the composite victim-facing poll: signal plus the
// active response, if any.
func (s *sosService) GetSignalStatus(ctx context.Context, signalID primitive.ObjectID, userID, userType string) (*SignalStatusView, error) {
	signal, err := s.signals.GetByID(ctx, signalID)
	if err != nil {
		return nil, ErrSignalNotFound
	}

	if signal.UserID != userID && userType == "citizen" {
		return nil, ErrNotAuthorized
	}

	view := &SignalStatusView{Signal: signal}
	if signal.ActiveResponseID != nil {
		if response, err := s.responses.GetByID(ctx, *signal.ActiveResponseID); err == nil {
			view.ActiveResponse = response
		}
	}

	return view, nil
}

func (s *sosService) ListSignals(ctx context.Context, params *utils.PaginationParams) ([]*models.SosSignal, int64, error) {
	return s.signals.List(ctx, params)
}

func (s *sosService) GetSignalStats(ctx context.Context) (*SignalStats, error) {
	counts, err := s.signals.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range counts {
		total += count
	}

	return &SignalStats{
		StatusCounts: counts,
		Total:        total,
	}, nil
}

func (s *sosService) publish(signalID primitive.ObjectID, event string, data map[string]interface{}) {
	if s.relay != nil {
		s.relay.PublishToSignal(signalID, event, data)
	}
}

func chatRole(signal *models.SosSignal, response *models.SosResponse, userID, userType string) (string, error) {
	switch {
	case response.ResponderUserID == userID:
		return "responder", nil
	case signal.UserID == userID:
		return "victim", nil
	case userType == "admin" || userType == "official":
		return userType, nil
	}
	return "", ErrNotAuthorized
}

func isSuccessfulOutcome(outcome models.RescueOutcome) bool {
	switch outcome {
	case models.OutcomeRescued, models.OutcomeTransportedToCamp, models.OutcomeMedicalReferral:
		return true
	}
	return false
}

func truncateMessage(message string) string {
	if len(message) > utils.MaxChatMessageLength {
		return message[:utils.MaxChatMessageLength]
	}
	return message
}
