package services

import (
	"context"
	"testing"
	"time"

	"resqlink/internal/config"
	"resqlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newEscalationFixture(t *testing.T) (*EscalationService, *mockSignalRepo, *mockSMSProvider) {
	signals := newMockSignalRepo()
	smsProvider := &mockSMSProvider{}

	cfg := &config.Config{
		SMS: &config.SMSConfig{DefaultFrom: "ResQLink"},
		Escalation: &config.EscalationConfig{
			Enabled:          true,
			Interval:         time.Minute,
			PendingThreshold: 15 * time.Minute,
			DispatchNumber:   "+911234567890",
		},
	}

	return NewEscalationService(signals, smsProvider, cfg, testLogger(t)), signals, smsProvider
}

func stalePendingSignal(level int) *models.SosSignal {
	return &models.SosSignal{
		UserID:          "victim-1",
		IncidentNumber:  "inc-1",
		Location:        models.NewLocation(9.93, 76.27, ""),
		Status:          models.SignalStatusPending,
		Priority:        models.SignalPriorityHigh,
		SOSLevel:        models.SOSLevel1,
		EscalationLevel: level,
		CreatedAt:       time.Now().Add(-time.Hour),
	}
}

func TestSweepEscalatesPendingSignalByOneLevel(t *testing.T) {
	service, signals, smsProvider := newEscalationFixture(t)
	signal := signals.add(stalePendingSignal(0))
	signals.pending = []*models.SosSignal{signal}

	require.NoError(t, service.Sweep(context.Background()))

	updates := signals.updatesFor(signal.ID)
	require.Len(t, updates, 1, "one sweep bumps exactly once")
	assert.Equal(t, 1, updates[0]["escalation_level"])
	assert.Contains(t, updates[0], "auto_escalated_at")

	assert.Empty(t, smsProvider.sent, "below top level no dispatch alert goes out")

	require.Len(t, signals.statusUpdates, 1)
	assert.Equal(t, "escalated", signals.statusUpdates[0].Type)
}

func TestSweepTopLevelAlertsDispatch(t *testing.T) {
	service, signals, smsProvider := newEscalationFixture(t)
	signal := signals.add(stalePendingSignal(models.MaxEscalationLevel - 1))
	signals.pending = []*models.SosSignal{signal}

	require.NoError(t, service.Sweep(context.Background()))

	updates := signals.updatesFor(signal.ID)
	require.Len(t, updates, 1)
	assert.Equal(t, models.MaxEscalationLevel, updates[0]["escalation_level"])

	require.Len(t, smsProvider.sent, 1)
	assert.Equal(t, "+911234567890", smsProvider.sent[0].To)
	assert.Equal(t, "alert", smsProvider.sent[0].Type)
}

func TestSweepQueriesBelowMaxLevelOnly(t *testing.T) {
	service, signals, _ := newEscalationFixture(t)

	require.NoError(t, service.Sweep(context.Background()))

	assert.Equal(t, models.MaxEscalationLevel, signals.lastMaxLevel)
	assert.Empty(t, signals.updates)
}

func TestSweepContinuesPastFailedUpdate(t *testing.T) {
	service, signals, _ := newEscalationFixture(t)
	// Not stored in the repo, so the update fails.
	orphan := stalePendingSignal(0)
	orphan.ID = primitive.NewObjectID()
	stored := signals.add(stalePendingSignal(0))
	signals.pending = []*models.SosSignal{orphan, stored}

	require.NoError(t, service.Sweep(context.Background()))

	updates := signals.updatesFor(stored.ID)
	require.Len(t, updates, 1, "failure on one signal must not stop the sweep")
}
