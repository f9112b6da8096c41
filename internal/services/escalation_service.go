package services

import (
	"context"
	"fmt"
	"time"

	"resqlink/internal/config"
	"resqlink/internal/models"
	"resqlink/internal/repositories/interfaces"
	"resqlink/pkg/logger"
	"resqlink/pkg/sms"
)

// EscalationService periodically raises the escalation level of signals
// that have sat unacknowledged past the pending threshold. Each sweep
// bumps a qualifying signal by exactly one level; a signal that reaches
// the top level triggers a dispatch SMS and is not swept again.
type EscalationService struct {
	signals   interfaces.SignalRepository
	smsSender sms.SMSProvider
	cfg       *config.EscalationConfig
	smsFrom   string
	logger    *logger.Logger
	stop      chan struct{}
}

func NewEscalationService(
	signals interfaces.SignalRepository,
	smsSender sms.SMSProvider,
	cfg *config.Config,
	log *logger.Logger,
) *EscalationService {
	smsFrom := ""
	if cfg.SMS != nil {
		smsFrom = cfg.SMS.DefaultFrom
	}

	return &EscalationService{
		signals:   signals,
		smsSender: smsSender,
		cfg:       cfg.Escalation,
		smsFrom:   smsFrom,
		logger:    log,
		stop:      make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called. Call in a goroutine.
func (s *EscalationService) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("Escalation sweep disabled")
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Infof("Escalation sweep started (interval=%s threshold=%s)", s.cfg.Interval, s.cfg.PendingThreshold)

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.Sweep(ctx); err != nil {
				s.logger.WithError(err).Error("Escalation sweep failed")
			}
			cancel()
		case <-s.stop:
			s.logger.Info("Escalation sweep stopped")
			return
		}
	}
}

func (s *EscalationService) Stop() {
	close(s.stop)
}

// Sweep escalates every pending signal created before the threshold that
// has not yet reached the top level.
func (s *EscalationService) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.PendingThreshold)

	stale, err := s.signals.GetPendingOlderThan(ctx, cutoff, models.MaxEscalationLevel)
	if err != nil {
		return err
	}

	for _, signal := range stale {
		newLevel := signal.EscalationLevel + 1
		now := time.Now()

		updates := map[string]interface{}{
			"escalation_level":  newLevel,
			"auto_escalated_at": now,
		}

		if err := s.signals.Update(ctx, signal.ID, updates); err != nil {
			s.logger.WithError(err).WithSignalID(signal.ID).Error("Failed to escalate signal")
			continue
		}

		s.signals.AppendStatusUpdate(ctx, signal.ID, models.VictimStatusUpdate{
			Type:      "escalated",
			Message:   fmt.Sprintf("Signal escalated to level %d", newLevel),
			Timestamp: now,
		})

		s.logger.LogEscalation(signal.ID, signal.EscalationLevel, newLevel)

		if newLevel >= models.MaxEscalationLevel {
			s.notifyDispatch(ctx, signal)
		}
	}

	return nil
}

func (s *EscalationService) notifyDispatch(ctx context.Context, signal *models.SosSignal) {
	if s.smsSender == nil || s.cfg.DispatchNumber == "" {
		return
	}

	message := fmt.Sprintf(
		"ESCALATED SOS %s: priority=%s level=%s at (%.5f, %.5f). No responder after %s.",
		signal.IncidentNumber,
		signal.Priority,
		signal.SOSLevel,
		signal.Location.Latitude(),
		signal.Location.Longitude(),
		s.cfg.PendingThreshold,
	)

	if _, err := s.smsSender.SendSMS(ctx, &sms.SMSRequest{
		To:      s.cfg.DispatchNumber,
		From:    s.smsFrom,
		Message: message,
		Type:    "alert",
	}); err != nil {
		s.logger.WithError(err).WithSignalID(signal.ID).Error("Failed to send dispatch alert")
	}
}
