package match

import (
	"context"

	"log/slog"

	"streamwatch/internal/config"
	"streamwatch/internal/logging"
	"streamwatch/internal/notifications"
	"streamwatch/internal/services/llm"
	"streamwatch/internal/stage"
	"streamwatch/internal/store"
)

// Handler adapts the match engine to the pipeline stage contract.
type Handler struct {
	engine     *Engine
	store      *store.Store
	cfg        *config.Config
	logger     *slog.Logger
	notifier   notifications.Service
	classifier Classifier
}

// NewHandler constructs the matching handler using default dependencies.
// The risk-classification assistant is attached only when an API key is
// configured.
func NewHandler(cfg *config.Config, st *store.Store, logger *slog.Logger) *Handler {
	var classifier Classifier
	if cfg.LLM.APIKey != "" {
		classifier = llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}
	return NewHandlerWithDependencies(cfg, st, logger, classifier, notifications.NewService(cfg))
}

// NewHandlerWithDependencies allows injecting all collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, st *store.Store, logger *slog.Logger, classifier Classifier, notifier notifications.Service) *Handler {
	return &Handler{
		engine:     NewEngine(st, cfg, classifier, logger),
		store:      st,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "match"),
		notifier:   notifier,
		classifier: classifier,
	}
}

func (h *Handler) Prepare(ctx context.Context, detection *store.Detection) error {
	logger := logging.WithContext(ctx, h.logger)
	detection.ErrorMessage = ""
	logger.Info(
		"starting match pass",
		logging.Int64(logging.FieldDetectionID, detection.ID),
		logging.String(logging.FieldPlatform, detection.Platform),
	)
	return nil
}

func (h *Handler) Execute(ctx context.Context, detection *store.Detection) error {
	logger := logging.WithContext(ctx, h.logger).With(
		logging.Int64(logging.FieldDetectionID, detection.ID))

	outcome, err := h.engine.Run(ctx, detection)
	if err != nil {
		return err
	}

	logger.Info(
		"match pass complete",
		logging.Int("compared", outcome.Compared),
		logging.Int("stored", outcome.Stored),
		logging.Float64("best_confidence", outcome.BestConfidence),
		logging.Float64("risk_score", outcome.RiskScore),
		logging.String("decision", string(outcome.Decision)),
	)

	if h.notifier != nil {
		if err := h.notifier.NotifyMatchDecision(ctx, detection.Title, string(outcome.Decision), outcome.BestConfidence); err != nil {
			logger.Warn("failed to send match notification", logging.Error(err))
		}
		if outcome.Decision == store.DecisionReview {
			if err := h.notifier.NotifyReviewNeeded(ctx, detection.Title, outcome.RiskScore); err != nil {
				logger.Warn("failed to send review notification", logging.Error(err))
			}
		}
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.classifier == nil {
		return stage.Health{Name: "match", Ready: true, Detail: "classifier disabled; heuristics only"}
	}
	if client, ok := h.classifier.(*llm.Client); ok {
		if err := client.HealthCheck(ctx); err != nil {
			return stage.Health{Name: "match", Ready: true, Detail: "classifier unreachable; heuristics only"}
		}
	}
	return stage.Healthy("match")
}
