package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"resqlink/internal/models"
	"resqlink/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	require.NoError(t, err)
	return log
}

type sosFixture struct {
	service    SOSService
	signals    *mockSignalRepo
	responses  *mockResponseRepo
	responders *mockResponderRepo
	missing    *mockMissingRepo
	relay      *mockRelay
	sms        *mockSMSProvider
}

func newSOSFixture(t *testing.T) *sosFixture {
	f := &sosFixture{
		signals:    newMockSignalRepo(),
		responses:  newMockResponseRepo(),
		responders: newMockResponderRepo(),
		missing:    newMockMissingRepo(),
		relay:      &mockRelay{},
		sms:        &mockSMSProvider{},
	}
	f.service = NewSOSService(f.signals, f.responses, f.responders, f.missing, f.relay, nil, f.sms, nil, testLogger(t))
	return f
}

func verifiedResponder(userID string, levels ...models.SOSLevel) *models.CivilianResponder {
	if len(levels) == 0 {
		levels = []models.SOSLevel{models.SOSLevel1}
	}
	return &models.CivilianResponder{
		UserID:             userID,
		Name:               "Asha",
		VerificationStatus: models.VerificationStatusVerified,
		AllowedSOSLevels:   levels,
		Available:          true,
	}
}

func openSignal(userID string, level models.SOSLevel) *models.SosSignal {
	return &models.SosSignal{
		UserID:    userID,
		Location:  models.NewLocation(9.93, 76.27, ""),
		Status:    models.SignalStatusPending,
		Priority:  models.SignalPriorityHigh,
		SOSLevel:  level,
		CreatedAt: time.Now(),
	}
}

func TestSubmitSignalShadowIdentity(t *testing.T) {
	f := newSOSFixture(t)

	signal, err := f.service.SubmitSignal(context.Background(), &SubmitSignalRequest{
		Phone: "+91 98470 12345",
		Lat:   9.93,
		Lng:   76.27,
	})
	require.NoError(t, err)

	assert.Equal(t, "phone:+919847012345", signal.UserID)
	assert.Equal(t, models.SignalStatusPending, signal.Status)
	assert.Equal(t, models.SignalPriorityMedium, signal.Priority)
	assert.Equal(t, models.SOSLevel1, signal.SOSLevel)
	assert.NotEmpty(t, signal.IncidentNumber)
}

func TestSubmitSignalAnonymous(t *testing.T) {
	f := newSOSFixture(t)

	signal, err := f.service.SubmitSignal(context.Background(), &SubmitSignalRequest{
		Lat: 9.93,
		Lng: 76.27,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(signal.UserID, "anon:"))
}

func TestAcceptSignalUnverifiedResponder(t *testing.T) {
	f := newSOSFixture(t)
	responder := verifiedResponder("user-1")
	responder.VerificationStatus = models.VerificationStatusPending
	f.responders.add(responder)
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))

	_, err := f.service.AcceptSignal(context.Background(), signal.ID, "user-1")

	assert.ErrorIs(t, err, ErrResponderNotVerified)
	assert.Empty(t, f.responses.responses)
}

func TestAcceptSignalLevelGating(t *testing.T) {
	f := newSOSFixture(t)
	f.responders.add(verifiedResponder("user-1", models.SOSLevel1))
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel2))

	_, err := f.service.AcceptSignal(context.Background(), signal.ID, "user-1")

	assert.ErrorIs(t, err, ErrLevelNotAllowed)
	assert.Empty(t, f.responses.responses)
}

func TestAcceptSignalClosed(t *testing.T) {
	f := newSOSFixture(t)
	f.responders.add(verifiedResponder("user-1"))
	signal := openSignal("victim-1", models.SOSLevel1)
	signal.Status = models.SignalStatusResolved
	f.signals.add(signal)

	_, err := f.service.AcceptSignal(context.Background(), signal.ID, "user-1")

	assert.ErrorIs(t, err, ErrSignalClosed)
}

func TestAcceptSignalFirstAcceptAssigns(t *testing.T) {
	f := newSOSFixture(t)
	responder := f.responders.add(verifiedResponder("user-1"))
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))

	response, err := f.service.AcceptSignal(context.Background(), signal.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.ResponseStatusAssigned, response.Status)
	assert.Equal(t, signal.ID, response.SosSignalID)
	assert.Equal(t, responder.ID, response.ResponderID)

	updates := f.signals.updatesFor(signal.ID)
	require.Len(t, updates, 1)
	assert.Equal(t, responder.ID, updates[0]["assigned_responder"])
	assert.Equal(t, response.ID, updates[0]["active_response_id"])
	assert.Equal(t, models.SignalStatusResponding, updates[0]["status"])

	events := f.relay.eventsNamed(EventResponderUpdate)
	require.Len(t, events, 1)
	assert.Equal(t, signal.ID, events[0].SignalID)
}

func TestAcceptSignalSecondAcceptDoesNotReassign(t *testing.T) {
	f := newSOSFixture(t)
	first := primitive.NewObjectID()
	signal := openSignal("victim-1", models.SOSLevel1)
	signal.AssignedResponder = &first
	f.signals.add(signal)
	f.responders.add(verifiedResponder("user-2"))

	response, err := f.service.AcceptSignal(context.Background(), signal.ID, "user-2")
	require.NoError(t, err)

	assert.NotNil(t, response)
	assert.Empty(t, f.signals.updatesFor(signal.ID), "second accept must not rewrite assignment")
}

func TestUpdateResponseStatusOwnerOnly(t *testing.T) {
	f := newSOSFixture(t)
	response := f.responses.add(&models.SosResponse{
		ResponderUserID: "user-1",
		Status:          models.ResponseStatusAssigned,
	})

	_, err := f.service.UpdateResponseStatus(context.Background(), response.ID, "user-2", &UpdateResponseStatusRequest{
		Status: models.ResponseStatusEnRoute,
	})

	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateResponseStatusStampsTimelineAndDistance(t *testing.T) {
	f := newSOSFixture(t)
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))
	response := f.responses.add(&models.SosResponse{
		SosSignalID:     signal.ID,
		ResponderUserID: "user-1",
		Status:          models.ResponseStatusAssigned,
	})

	lat, lng := 9.94, 76.28
	_, err := f.service.UpdateResponseStatus(context.Background(), response.ID, "user-1", &UpdateResponseStatusRequest{
		Status: models.ResponseStatusEnRoute,
		Lat:    &lat,
		Lng:    &lng,
	})
	require.NoError(t, err)

	require.Len(t, f.responses.updates, 1)
	fields := f.responses.updates[0].Fields
	assert.Equal(t, models.ResponseStatusEnRoute, fields["status"])
	assert.Contains(t, fields, "en_route_at")
	assert.Greater(t, fields["distance_to_victim_km"].(float64), 0.0)

	assert.Len(t, f.relay.eventsNamed(EventResponderUpdate), 1)
	assert.Len(t, f.relay.eventsNamed(EventLocationUpdate), 1)
}

func TestMarkSafeOwnerOnly(t *testing.T) {
	f := newSOSFixture(t)
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))

	_, err := f.service.MarkSafe(context.Background(), signal.ID, "someone-else", nil)

	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Empty(t, f.signals.updates)
}

func TestMarkSafeResolvesSignalAndReleasesResponder(t *testing.T) {
	f := newSOSFixture(t)
	responder := f.responders.add(verifiedResponder("user-1"))
	signal := openSignal("victim-1", models.SOSLevel1)
	f.signals.add(signal)
	response := f.responses.add(&models.SosResponse{
		SosSignalID:     signal.ID,
		ResponderID:     responder.ID,
		ResponderUserID: "user-1",
		Status:          models.ResponseStatusEnRoute,
	})
	signal.ActiveResponseID = &response.ID

	_, err := f.service.MarkSafe(context.Background(), signal.ID, "victim-1", &MarkSafeRequest{})
	require.NoError(t, err)

	signalUpdates := f.signals.updatesFor(signal.ID)
	require.Len(t, signalUpdates, 1)
	assert.Equal(t, models.SignalStatusResolved, signalUpdates[0]["status"])
	confirmation := signalUpdates[0]["victim_safe_confirmation"].(*models.VictimSafeConfirmation)
	assert.True(t, confirmation.IsSafe)

	require.Len(t, f.responses.updates, 1)
	assert.Equal(t, models.ResponseStatusCancelled, f.responses.updates[0].Fields["status"])
	assert.Equal(t, models.OutcomeVictimSafeAlready, f.responses.updates[0].Fields["rescue_outcome"])

	require.Len(t, f.responders.updates, 1)
	assert.Nil(t, f.responders.updates[0].Fields["assigned_sos_id"])
}

func TestCompleteResponseNotOwner(t *testing.T) {
	f := newSOSFixture(t)
	response := f.responses.add(&models.SosResponse{ResponderUserID: "user-1"})

	_, err := f.service.CompleteResponse(context.Background(), response.ID, "user-2", &CompleteResponseRequest{
		Outcome: models.OutcomeRescued,
	})

	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCompleteResponseCreatesLinkedMissingPerson(t *testing.T) {
	f := newSOSFixture(t)
	responder := f.responders.add(verifiedResponder("user-1"))
	signal := openSignal("victim-1", models.SOSLevel1)
	signal.ContactPhone = "+919847012345"
	f.signals.add(signal)
	response := f.responses.add(&models.SosResponse{
		SosSignalID:     signal.ID,
		ResponderID:     responder.ID,
		ResponderUserID: "user-1",
		Status:          models.ResponseStatusAssisting,
	})

	_, err := f.service.CompleteResponse(context.Background(), response.ID, "user-1", &CompleteResponseRequest{
		Outcome:                  models.OutcomeTransportedToCamp,
		CreateMissingPersonEntry: true,
		MissingPerson: &MissingPersonDetails{
			Name:     "Ravi",
			Age:      54,
			CampName: "St. Mary's relief camp",
		},
	})
	require.NoError(t, err)

	require.Len(t, f.missing.created, 1)
	person := f.missing.created[0]
	assert.Equal(t, models.MissingPersonStatusAtCamp, person.Status)
	assert.Equal(t, models.VerificationStatusVerified, person.VerificationStatus)
	require.NotNil(t, person.SourceResponseID)
	assert.Equal(t, response.ID, *person.SourceResponseID)

	require.Len(t, f.responses.updates, 1)
	fields := f.responses.updates[0].Fields
	assert.Equal(t, models.ResponseStatusCompleted, fields["status"])
	assert.Equal(t, person.ID, fields["missing_person_id"])

	require.Len(t, f.responders.bumps, 1)
	assert.True(t, f.responders.bumps[0].Successful)

	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, signal.ContactPhone, f.sms.sent[0].To)
}

func TestCompleteResponseVictimNotFoundIsUnsuccessful(t *testing.T) {
	f := newSOSFixture(t)
	responder := f.responders.add(verifiedResponder("user-1"))
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))
	response := f.responses.add(&models.SosResponse{
		SosSignalID:     signal.ID,
		ResponderID:     responder.ID,
		ResponderUserID: "user-1",
		Status:          models.ResponseStatusArrived,
	})

	_, err := f.service.CompleteResponse(context.Background(), response.ID, "user-1", &CompleteResponseRequest{
		Outcome: models.OutcomeVictimNotFound,
	})
	require.NoError(t, err)

	require.Len(t, f.responders.bumps, 1)
	assert.False(t, f.responders.bumps[0].Successful)
	assert.Empty(t, f.missing.created)
}

func TestNearbyFiltersByResponderLevel(t *testing.T) {
	f := newSOSFixture(t)
	f.responders.add(verifiedResponder("user-1", models.SOSLevel1))
	f.signals.add(openSignal("victim-1", models.SOSLevel1))
	f.signals.add(openSignal("victim-2", models.SOSLevel2))

	results, err := f.service.GetNearbySignals(context.Background(), &NearbyQuery{
		UserID:   "user-1",
		UserType: "responder",
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, models.SOSLevel1, results[0].SOSLevel)
}

func TestNearbyRadiusAndOrdering(t *testing.T) {
	f := newSOSFixture(t)

	near := openSignal("victim-1", models.SOSLevel1)
	near.Priority = models.SignalPriorityLow
	near.Location = models.NewLocation(9.93, 76.27, "")
	f.signals.add(near)

	farCritical := openSignal("victim-2", models.SOSLevel1)
	farCritical.Priority = models.SignalPriorityCritical
	farCritical.Location = models.NewLocation(9.99, 76.35, "")
	f.signals.add(farCritical)

	veryFar := openSignal("victim-3", models.SOSLevel1)
	veryFar.Location = models.NewLocation(12.97, 77.59, "")
	f.signals.add(veryFar)

	lat, lng := 9.93, 76.27
	results, err := f.service.GetNearbySignals(context.Background(), &NearbyQuery{
		Lat:      &lat,
		Lng:      &lng,
		RadiusKM: 25,
	})
	require.NoError(t, err)

	require.Len(t, results, 2, "signal outside the radius must be dropped")
	assert.Equal(t, models.SignalPriorityCritical, results[0].Priority, "higher priority sorts first")
	require.NotNil(t, results[1].DistanceKM)
	assert.InDelta(t, 0, *results[1].DistanceKM, 0.001)
}

func TestSignalChatAuthorization(t *testing.T) {
	f := newSOSFixture(t)
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))

	err := f.service.AddSignalChat(context.Background(), signal.ID, "stranger", "citizen", &ChatRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = f.service.AddSignalChat(context.Background(), signal.ID, "victim-1", "citizen", &ChatRequest{Message: "I hear a boat"})
	require.NoError(t, err)

	require.Len(t, f.signals.statusUpdates, 1)
	assert.Equal(t, "chat", f.signals.statusUpdates[0].Type)
	assert.Len(t, f.relay.eventsNamed(EventNewMessage), 1)
}

func TestResponseChatRoles(t *testing.T) {
	f := newSOSFixture(t)
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))
	response := f.responses.add(&models.SosResponse{
		SosSignalID:     signal.ID,
		ResponderUserID: "user-1",
		Status:          models.ResponseStatusEnRoute,
	})

	require.NoError(t, f.service.AddResponseChat(context.Background(), response.ID, "user-1", "responder", &ChatRequest{Message: "5 minutes out"}))
	require.NoError(t, f.service.AddResponseChat(context.Background(), response.ID, "victim-1", "citizen", &ChatRequest{Message: "water is rising"}))
	assert.ErrorIs(t, f.service.AddResponseChat(context.Background(), response.ID, "stranger", "citizen", &ChatRequest{Message: "hi"}), ErrNotAuthorized)

	require.Len(t, f.responses.chats, 2)
	assert.Equal(t, "responder", f.responses.chats[0].SenderRole)
	assert.Equal(t, "victim", f.responses.chats[1].SenderRole)
}

func TestGetSignalStatusHidesOtherCitizens(t *testing.T) {
	f := newSOSFixture(t)
	signal := f.signals.add(openSignal("victim-1", models.SOSLevel1))

	_, err := f.service.GetSignalStatus(context.Background(), signal.ID, "other", "citizen")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	view, err := f.service.GetSignalStatus(context.Background(), signal.ID, "victim-1", "citizen")
	require.NoError(t, err)
	assert.Equal(t, signal.ID, view.Signal.ID)
}
