package enforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"streamwatch/internal/config"
	"streamwatch/internal/logging"
	"streamwatch/internal/notifications"
	"streamwatch/internal/services"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
)

// ActionNotice is the action recorded for DMCA notice deliveries.
const ActionNotice = "dmca_notice"

// Gate issues takedown notices for approved detections. It refuses to act
// on any detection whose decision is not approve.
type Gate struct {
	store     *store.Store
	cfg       *config.Config
	logger    *slog.Logger
	transport Transport
	notifier  notifications.Service
	now       func() time.Time
}

// NewGate constructs the enforcement handler using default dependencies.
// Live delivery uses SMTP; in dry-run mode no transport is needed.
func NewGate(cfg *config.Config, st *store.Store, logger *slog.Logger) *Gate {
	var transport Transport
	if !cfg.Enforcement.DryRun {
		transport = NewSMTPTransport(cfg.Enforcement)
	}
	return NewGateWithDependencies(cfg, st, logger, transport, notifications.NewService(cfg))
}

// NewGateWithDependencies allows injecting all collaborators (used in tests).
func NewGateWithDependencies(cfg *config.Config, st *store.Store, logger *slog.Logger, transport Transport, notifier notifications.Service) *Gate {
	return &Gate{
		store:     st,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "enforce"),
		transport: transport,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (g *Gate) Prepare(ctx context.Context, detection *store.Detection) error {
	logger := logging.WithContext(ctx, g.logger)
	detection.ErrorMessage = ""
	logger.Info(
		"starting enforcement",
		logging.Int64(logging.FieldDetectionID, detection.ID),
		logging.String(logging.FieldPlatform, detection.Platform),
		logging.Bool("dry_run", g.cfg.Enforcement.DryRun),
	)
	return nil
}

func (g *Gate) Execute(ctx context.Context, detection *store.Detection) error {
	logger := logging.WithContext(ctx, g.logger).With(
		logging.Int64(logging.FieldDetectionID, detection.ID))

	if detection.Decision != store.DecisionApprove {
		return services.Wrap(
			services.ErrValidation, "enforce", "gate check",
			fmt.Sprintf("decision %q does not permit enforcement", detection.Decision), nil)
	}

	evidence, err := stage.LoadEvidence(ctx, g.store, detection.ID)
	if err != nil {
		return err
	}
	bestMatch, err := g.store.BestMatch(ctx, detection.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "enforce", "load best match", "", err)
	}
	if bestMatch == nil {
		return services.Wrap(
			services.ErrValidation, "enforce", "gate check",
			"no stored match backs this detection; rerun matching", nil)
	}

	recipients := RecipientsFor(detection.Platform)
	body := RenderNotice(g.cfg.Enforcement, NoticeInput{
		Detection: detection,
		Evidence:  evidence,
		BestMatch: bestMatch,
		Now:       g.now(),
	})

	record := &store.Enforcement{
		DetectionID: detection.ID,
		Action:      ActionNotice,
		Recipients:  strings.Join(recipients, ", "),
		NoticeBody:  body,
		DryRun:      g.cfg.Enforcement.DryRun,
	}

	if g.cfg.Enforcement.DryRun {
		record.MessageID = fmt.Sprintf("dry-run-%d-%d", detection.ID, g.now().Unix())
		logger.Info(
			"dry-run notice rendered",
			logging.String("recipients", record.Recipients),
			logging.Int("notice_length", len(body)),
		)
	} else {
		if g.transport == nil {
			return services.Wrap(
				services.ErrConfiguration, "enforce", "send notice",
				"live enforcement requires a delivery transport", nil)
		}
		messageID, sendErr := g.transport.Send(ctx, Message{
			DetectionID: detection.ID,
			Recipients:  recipients,
			Subject:     fmt.Sprintf("DMCA Takedown Notice - Detection %d", detection.ID),
			Body:        body,
		})
		if sendErr != nil {
			// Record the failed attempt before surfacing the error so the
			// history shows what was tried.
			if _, recordErr := g.store.InsertEnforcement(ctx, record); recordErr != nil {
				logger.Error("failed to record enforcement attempt", logging.Error(recordErr))
			}
			return services.Wrap(services.ErrExternalTool, "enforce", "send notice", "", sendErr)
		}
		record.Sent = true
		record.MessageID = messageID
	}

	stored, err := g.store.InsertEnforcement(ctx, record)
	if err != nil {
		return services.Wrap(services.ErrTransient, "enforce", "record enforcement", "", err)
	}

	logger.Info(
		"enforcement recorded",
		logging.Int64("enforcement_id", stored.ID),
		logging.Bool("sent", stored.Sent),
		logging.Bool("dry_run", stored.DryRun),
	)
	if g.notifier != nil {
		if err := g.notifier.NotifyEnforcementSent(ctx, detection.Platform, detection.Title, len(recipients)); err != nil {
			logger.Warn("failed to send enforcement notification", logging.Error(err))
		}
	}
	return nil
}

func (g *Gate) HealthCheck(ctx context.Context) stage.Health {
	if g.cfg.Enforcement.DryRun {
		return stage.Health{Name: "enforce", Ready: true, Detail: "dry-run mode"}
	}
	if g.transport == nil {
		return stage.Unhealthy("enforce", "no delivery transport configured")
	}
	return stage.Healthy("enforce")
}
