// Package slamonitor implements the SLAMonitor: a single-writer background
// task that periodically sweeps open transitions for SLA breaches,
// classifies severity, and routes them to the EscalationService (spec.md
// §4.3). Grounded on the teacher's EscalationService.ProcessPendingEscalations
// polling query and original_source's sla_monitor.py severity thresholds,
// re-expressed with the ticker+context idiom of
// tejasva-vardhan-AI-netaa/worker/escalation_worker.go rather than the
// teacher's own time.Sleep loop or the source's asyncio.sleep loop.
package slamonitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/escalation"
	"workflowengine/internal/workflow/store"
)

// Config holds the monitor's timing and severity-classification parameters
// (spec.md §6 configuration).
type Config struct {
	ScanInterval             time.Duration
	ScanBackoffOnError       time.Duration
	SeverityWarningCapHours  float64
	SeverityCriticalCapHours float64
}

// DefaultConfig returns the spec's defaults: 5 minute scan interval, 1
// minute backoff, warning < 24h, critical < 72h.
func DefaultConfig() Config {
	return Config{
		ScanInterval:             5 * time.Minute,
		ScanBackoffOnError:       1 * time.Minute,
		SeverityWarningCapHours:  24,
		SeverityCriticalCapHours: 72,
	}
}

// SLAMonitor is the single long-lived background task per process that
// scans for breached open transitions (spec.md §9 "Background task
// lifetime" design note: do not spawn per-request).
type SLAMonitor struct {
	store      store.Store
	clock      clock.Clock
	escalation *escalation.EscalationService
	cfg        Config
	log        *logrus.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSLAMonitor constructs an SLAMonitor.
func NewSLAMonitor(s store.Store, c clock.Clock, esc *escalation.EscalationService, cfg Config, log *logrus.Logger) *SLAMonitor {
	return &SLAMonitor{
		store:      s,
		clock:      c,
		escalation: esc,
		cfg:        cfg,
		log:        log,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the monitor's loop in its own goroutine. Call Stop to
// request cooperative shutdown.
func (m *SLAMonitor) Start(ctx context.Context) {
	go m.run(ctx)
}

// Stop signals the loop to exit after finishing its current scan item
// (spec.md §4.3 cancellation: "an in-progress scan completes its current
// item and then returns").
func (m *SLAMonitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *SLAMonitor) run(ctx context.Context) {
	defer close(m.doneCh)

	interval := m.cfg.ScanInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.scanOnce(ctx); err != nil {
				m.log.WithError(err).Warn("sla monitor scan failed, backing off")
				ticker.Reset(m.cfg.ScanBackoffOnError)
				continue
			}
			ticker.Reset(interval)
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		}
	}
}

// CheckOverdue returns the currently-open overdue transitions without
// escalating them — the read-only "check_overdue" exposed operation
// (spec.md §6), distinct from the monitor's own escalating scan.
func (m *SLAMonitor) CheckOverdue(ctx context.Context) ([]models.StageTransition, error) {
	return m.store.ListOpenOverdue(ctx, m.clock.Now())
}

// scanOnce performs one sweep: list_open_overdue, classify, escalate
// (spec.md §4.3 steps 2-3).
func (m *SLAMonitor) scanOnce(ctx context.Context) error {
	now := m.clock.Now()
	overdue, err := m.store.ListOpenOverdue(ctx, now)
	if err != nil {
		return err
	}

	for _, t := range overdue {
		select {
		case <-m.stopCh:
			return nil
		default:
		}

		severity := classifySeverity(now, t.SLADeadline, m.cfg)
		reason := "SLA deadline exceeded"
		if _, err := m.escalation.Escalate(ctx, t.ID, severity, reason); err != nil {
			m.log.WithError(err).WithField("transition_id", t.ID).Warn("failed to escalate overdue transition")
			continue
		}
	}
	return nil
}

// classifySeverity implements spec.md §4.3's thresholds: warning if
// overdue_hours < 24; critical if 24 <= overdue_hours < 72; overdue
// otherwise.
func classifySeverity(now, slaDeadline time.Time, cfg Config) models.EscalationSeverity {
	overdueHours := now.Sub(slaDeadline).Hours()
	switch {
	case overdueHours < cfg.SeverityWarningCapHours:
		return models.SeverityWarning
	case overdueHours < cfg.SeverityCriticalCapHours:
		return models.SeverityCritical
	default:
		return models.SeverityOverdue
	}
}
