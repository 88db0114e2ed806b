package match

import (
	"context"
	"log/slog"

	"streamwatch/internal/config"
	"streamwatch/internal/fingerprint"
	"streamwatch/internal/logging"
	"streamwatch/internal/services"
	"streamwatch/internal/services/llm"
	"streamwatch/internal/store"
)

// Classifier is the optional LLM advisory signal consulted for ambiguous
// candidates. *llm.Client satisfies it.
type Classifier interface {
	ClassifyCandidate(ctx context.Context, platform, streamURL, title string) (llm.Classification, error)
}

// Engine compares a detection's evidence against the reference catalog
// and records matches and the resulting decision.
type Engine struct {
	store       *store.Store
	thresholds  Thresholds
	llmMinScore float64
	classifier  Classifier
	logger      *slog.Logger
}

// Outcome reports what a match pass produced.
type Outcome struct {
	Compared       int
	Stored         int
	BestConfidence float64
	RiskScore      float64
	Decision       store.Decision
	Recommendation string
	Analysis       ContentAnalysis
}

// ThresholdsFromConfig extracts both scoring tiers from configuration.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		Match:   cfg.Matching.MatchThreshold,
		Likely:  cfg.Matching.LikelyThreshold,
		Store:   cfg.Matching.StoreThreshold,
		Video:   cfg.Matching.VideoThreshold,
		Audio:   cfg.Matching.AudioThreshold,
		Approve: cfg.Risk.ApproveThreshold,
		Review:  cfg.Risk.ReviewThreshold,
	}
}

// NewEngine builds a matching engine. The classifier may be nil, in which
// case decisions rest on fingerprints and lexical heuristics alone.
func NewEngine(st *store.Store, cfg *config.Config, classifier Classifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:       st,
		thresholds:  ThresholdsFromConfig(cfg),
		llmMinScore: cfg.Risk.LLMMinScore,
		classifier:  classifier,
		logger:      logging.NewComponentLogger(logger, "match-engine"),
	}
}

// Run executes one match pass for a fingerprinted detection: compares its
// evidence against a snapshot of the catalog, persists comparisons above
// the store threshold, and records the risk score and decision on the
// detection row.
func (e *Engine) Run(ctx context.Context, detection *store.Detection) (Outcome, error) {
	var outcome Outcome
	if detection == nil {
		return outcome, services.Wrap(services.ErrValidation, "match", "run", "detection is nil", nil)
	}

	evidence, err := e.store.EvidenceForDetection(ctx, detection.ID)
	if err != nil {
		return outcome, services.Wrap(services.ErrTransient, "match", "load evidence", "", err)
	}
	if evidence == nil {
		return outcome, services.Wrap(services.ErrNotFound, "match", "load evidence", "no evidence captured for detection", nil)
	}

	var (
		videoFP  fingerprint.Fingerprint
		audioFP  fingerprint.Fingerprint
		hasVideo bool
		hasAudio bool
	)
	if evidence.VideoFingerprint != "" {
		if videoFP, err = fingerprint.Decode(evidence.VideoFingerprint); err != nil {
			return outcome, services.Wrap(services.ErrValidation, "match", "decode video fingerprint", "", err)
		}
		hasVideo = true
	}
	if evidence.AudioFingerprint != "" {
		if audioFP, err = fingerprint.Decode(evidence.AudioFingerprint); err != nil {
			return outcome, services.Wrap(services.ErrValidation, "match", "decode audio fingerprint", "", err)
		}
		hasAudio = true
	}
	if !hasVideo && !hasAudio {
		return outcome, services.Wrap(services.ErrValidation, "match", "run", "evidence carries no fingerprints", nil)
	}

	// The catalog snapshot is taken once; references added mid-pass wait
	// for the next pass.
	references, err := e.store.ListReferences(ctx, "")
	if err != nil {
		return outcome, services.Wrap(services.ErrTransient, "match", "list references", "", err)
	}

	log := e.logger.With(logging.Int64(logging.FieldDetectionID, detection.ID))
	for _, reference := range references {
		videoSim, audioSim := 0.0, 0.0
		if hasVideo && reference.VideoFingerprint != "" {
			refVideo, decodeErr := fingerprint.Decode(reference.VideoFingerprint)
			if decodeErr == nil {
				videoSim = fingerprint.VideoSimilarity(videoFP.Hash, refVideo.Hash)
			}
		}
		if hasAudio && reference.AudioFingerprint != "" {
			refAudio, decodeErr := fingerprint.Decode(reference.AudioFingerprint)
			if decodeErr == nil {
				audioSim = fingerprint.AudioSimilarity(audioFP, refAudio)
			}
		}
		outcome.Compared++

		confidence := CombineModalities(videoSim, audioSim)
		if confidence > outcome.BestConfidence {
			outcome.BestConfidence = confidence
		}
		if confidence < e.thresholds.Store {
			continue
		}

		category := e.thresholds.Categorize(confidence)
		if err := e.store.UpsertMatch(ctx, &store.Match{
			DetectionID:    detection.ID,
			ReferenceID:    reference.ID,
			VideoScore:     videoSim,
			AudioScore:     audioSim,
			Confidence:     confidence,
			Category:       category,
			VideoThreshold: e.thresholds.Video,
			AudioThreshold: e.thresholds.Audio,
		}); err != nil {
			return outcome, services.Wrap(services.ErrTransient, "match", "store match", "", err)
		}
		outcome.Stored++
		log.Info("match recorded",
			logging.Int64("reference_id", reference.ID),
			logging.Float64("confidence", confidence),
			logging.String("category", string(category)))
	}

	outcome.Analysis = AnalyzeContent(detection.URL, detection.Title, detection.Platform)
	outcome.RiskScore = RiskScore(outcome.BestConfidence, outcome.Analysis)

	if e.classifier != nil && outcome.RiskScore < e.thresholds.Approve {
		classification, classifyErr := e.classifier.ClassifyCandidate(ctx, detection.Platform, detection.URL, detection.Title)
		if classifyErr != nil {
			log.Warn("classifier unavailable, continuing on heuristics", logging.Error(classifyErr))
		} else if classification.RiskScore >= e.llmMinScore {
			outcome.RiskScore = BlendClassifierScore(outcome.RiskScore, classification.RiskScore)
			log.Info("classifier signal blended",
				logging.Float64("classifier_score", classification.RiskScore),
				logging.String("label", classification.Label))
		}
	}

	outcome.Decision = e.thresholds.Decide(outcome.RiskScore)
	outcome.Recommendation = Recommendation(outcome.Decision, outcome.RiskScore)

	detection.Confidence = outcome.BestConfidence
	detection.RiskScore = outcome.RiskScore
	detection.Decision = outcome.Decision
	if err := e.store.Update(ctx, detection); err != nil {
		return outcome, services.Wrap(services.ErrTransient, "match", "record decision", "", err)
	}

	log.Info("match pass complete",
		logging.Int("references", outcome.Compared),
		logging.Int("stored", outcome.Stored),
		logging.Float64("best_confidence", outcome.BestConfidence),
		logging.Float64("risk_score", outcome.RiskScore),
		logging.String("decision", string(outcome.Decision)))
	return outcome, nil
}
