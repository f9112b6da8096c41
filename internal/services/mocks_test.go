package services

import (
	"context"
	"errors"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/utils"
	"resqlink/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNotFound = errors.New("not found")

type recordedUpdate struct {
	ID     primitive.ObjectID
	Fields map[string]interface{}
}

// mockSignalRepo is an in-memory SignalRepository. Updates are recorded
// rather than applied so tests can assert exactly what was written.
type mockSignalRepo struct {
	signals       map[primitive.ObjectID]*models.SosSignal
	pending       []*models.SosSignal
	updates       []recordedUpdate
	statusUpdates []models.VictimStatusUpdate
	lastMaxLevel  int
}

func newMockSignalRepo() *mockSignalRepo {
	return &mockSignalRepo{signals: make(map[primitive.ObjectID]*models.SosSignal)}
}

func (m *mockSignalRepo) add(signal *models.SosSignal) *models.SosSignal {
	if signal.ID.IsZero() {
		signal.ID = primitive.NewObjectID()
	}
	m.signals[signal.ID] = signal
	return signal
}

func (m *mockSignalRepo) Create(ctx context.Context, signal *models.SosSignal) error {
	signal.ID = primitive.NewObjectID()
	signal.CreatedAt = time.Now()
	signal.UpdatedAt = signal.CreatedAt
	m.signals[signal.ID] = signal
	return nil
}

func (m *mockSignalRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SosSignal, error) {
	signal, ok := m.signals[id]
	if !ok {
		return nil, errNotFound
	}
	return signal, nil
}

func (m *mockSignalRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if _, ok := m.signals[id]; !ok {
		return errNotFound
	}
	m.updates = append(m.updates, recordedUpdate{ID: id, Fields: updates})
	return nil
}

func (m *mockSignalRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.signals, id)
	return nil
}

func (m *mockSignalRepo) GetOpenSignals(ctx context.Context) ([]*models.SosSignal, error) {
	var open []*models.SosSignal
	for _, signal := range m.signals {
		if signal.IsOpen() {
			open = append(open, signal)
		}
	}
	return open, nil
}

func (m *mockSignalRepo) GetByUserID(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.SosSignal, int64, error) {
	var result []*models.SosSignal
	for _, signal := range m.signals {
		if signal.UserID == userID {
			result = append(result, signal)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockSignalRepo) GetPendingOlderThan(ctx context.Context, cutoff time.Time, maxLevel int) ([]*models.SosSignal, error) {
	m.lastMaxLevel = maxLevel
	return m.pending, nil
}

func (m *mockSignalRepo) AppendStatusUpdate(ctx context.Context, id primitive.ObjectID, update models.VictimStatusUpdate) error {
	m.statusUpdates = append(m.statusUpdates, update)
	return nil
}

func (m *mockSignalRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.SosSignal, int64, error) {
	var result []*models.SosSignal
	for _, signal := range m.signals {
		result = append(result, signal)
	}
	return result, int64(len(result)), nil
}

func (m *mockSignalRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, signal := range m.signals {
		counts[string(signal.Status)]++
	}
	return counts, nil
}

func (m *mockSignalRepo) updatesFor(id primitive.ObjectID) []map[string]interface{} {
	var result []map[string]interface{}
	for _, u := range m.updates {
		if u.ID == id {
			result = append(result, u.Fields)
		}
	}
	return result
}

type mockResponseRepo struct {
	responses map[primitive.ObjectID]*models.SosResponse
	updates   []recordedUpdate
	chats     []models.ChatMessage
}

func newMockResponseRepo() *mockResponseRepo {
	return &mockResponseRepo{responses: make(map[primitive.ObjectID]*models.SosResponse)}
}

func (m *mockResponseRepo) add(response *models.SosResponse) *models.SosResponse {
	if response.ID.IsZero() {
		response.ID = primitive.NewObjectID()
	}
	m.responses[response.ID] = response
	return response
}

func (m *mockResponseRepo) Create(ctx context.Context, response *models.SosResponse) error {
	response.ID = primitive.NewObjectID()
	response.CreatedAt = time.Now()
	m.responses[response.ID] = response
	return nil
}

func (m *mockResponseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SosResponse, error) {
	response, ok := m.responses[id]
	if !ok {
		return nil, errNotFound
	}
	return response, nil
}

func (m *mockResponseRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if _, ok := m.responses[id]; !ok {
		return errNotFound
	}
	m.updates = append(m.updates, recordedUpdate{ID: id, Fields: updates})
	return nil
}

func (m *mockResponseRepo) GetBySignalID(ctx context.Context, signalID primitive.ObjectID) ([]*models.SosResponse, error) {
	var result []*models.SosResponse
	for _, response := range m.responses {
		if response.SosSignalID == signalID {
			result = append(result, response)
		}
	}
	return result, nil
}

func (m *mockResponseRepo) GetActiveByResponderID(ctx context.Context, responderID primitive.ObjectID) (*models.SosResponse, error) {
	for _, response := range m.responses {
		if response.ResponderID == responderID && response.IsActive() {
			return response, nil
		}
	}
	return nil, nil
}

func (m *mockResponseRepo) AppendChatMessage(ctx context.Context, id primitive.ObjectID, message models.ChatMessage) error {
	m.chats = append(m.chats, message)
	return nil
}

type counterBump struct {
	ID         primitive.ObjectID
	Successful bool
}

type mockResponderRepo struct {
	byID    map[primitive.ObjectID]*models.CivilianResponder
	updates []recordedUpdate
	bumps   []counterBump
}

func newMockResponderRepo() *mockResponderRepo {
	return &mockResponderRepo{byID: make(map[primitive.ObjectID]*models.CivilianResponder)}
}

func (m *mockResponderRepo) add(responder *models.CivilianResponder) *models.CivilianResponder {
	if responder.ID.IsZero() {
		responder.ID = primitive.NewObjectID()
	}
	m.byID[responder.ID] = responder
	return responder
}

func (m *mockResponderRepo) Create(ctx context.Context, responder *models.CivilianResponder) error {
	responder.ID = primitive.NewObjectID()
	responder.CreatedAt = time.Now()
	m.byID[responder.ID] = responder
	return nil
}

func (m *mockResponderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CivilianResponder, error) {
	responder, ok := m.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return responder, nil
}

func (m *mockResponderRepo) GetByUserID(ctx context.Context, userID string) (*models.CivilianResponder, error) {
	for _, responder := range m.byID {
		if responder.UserID == userID {
			return responder, nil
		}
	}
	return nil, errNotFound
}

func (m *mockResponderRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if _, ok := m.byID[id]; !ok {
		return errNotFound
	}
	m.updates = append(m.updates, recordedUpdate{ID: id, Fields: updates})
	return nil
}

func (m *mockResponderRepo) IncrementCounters(ctx context.Context, id primitive.ObjectID, successful bool) error {
	m.bumps = append(m.bumps, counterBump{ID: id, Successful: successful})
	return nil
}

func (m *mockResponderRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.CivilianResponder, int64, error) {
	var result []*models.CivilianResponder
	for _, responder := range m.byID {
		result = append(result, responder)
	}
	return result, int64(len(result)), nil
}

type mockMissingRepo struct {
	created []*models.MissingPerson
	byID    map[primitive.ObjectID]*models.MissingPerson
	nearby  []*models.MissingPerson
	updates []recordedUpdate
}

func newMockMissingRepo() *mockMissingRepo {
	return &mockMissingRepo{byID: make(map[primitive.ObjectID]*models.MissingPerson)}
}

func (m *mockMissingRepo) Create(ctx context.Context, person *models.MissingPerson) error {
	person.ID = primitive.NewObjectID()
	person.CreatedAt = time.Now()
	m.created = append(m.created, person)
	m.byID[person.ID] = person
	return nil
}

func (m *mockMissingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MissingPerson, error) {
	person, ok := m.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return person, nil
}

func (m *mockMissingRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if _, ok := m.byID[id]; !ok {
		return errNotFound
	}
	m.updates = append(m.updates, recordedUpdate{ID: id, Fields: updates})
	return nil
}

func (m *mockMissingRepo) FindNearbyRecent(ctx context.Context, lat, lng, radiusKM float64, since time.Time) ([]*models.MissingPerson, error) {
	return m.nearby, nil
}

func (m *mockMissingRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.MissingPerson, int64, error) {
	var result []*models.MissingPerson
	for _, person := range m.byID {
		result = append(result, person)
	}
	return result, int64(len(result)), nil
}

type relayEvent struct {
	SignalID primitive.ObjectID
	Event    string
	Data     map[string]interface{}
}

type mockRelay struct {
	events []relayEvent
}

func (m *mockRelay) PublishToSignal(signalID primitive.ObjectID, event string, data map[string]interface{}) {
	m.events = append(m.events, relayEvent{SignalID: signalID, Event: event, Data: data})
}

func (m *mockRelay) eventsNamed(name string) []relayEvent {
	var result []relayEvent
	for _, e := range m.events {
		if e.Event == name {
			result = append(result, e)
		}
	}
	return result
}

type mockSMSProvider struct {
	sent []*sms.SMSRequest
	err  error
}

func (m *mockSMSProvider) SendSMS(ctx context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, request)
	return &sms.SMSResponse{MessageID: "mock", Status: "sent"}, nil
}

func (m *mockSMSProvider) SendBulkSMS(ctx context.Context, requests []*sms.SMSRequest) ([]*sms.SMSResponse, error) {
	responses := make([]*sms.SMSResponse, 0, len(requests))
	for _, request := range requests {
		response, err := m.SendSMS(ctx, request)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}
