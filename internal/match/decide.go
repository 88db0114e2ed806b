package match

import "streamwatch/internal/store"

// Thresholds holds the cut points for both scoring tiers.
type Thresholds struct {
	// Category tier: per-reference fingerprint confidence.
	Match  float64
	Likely float64
	Store  float64
	// Per-modality thresholds recorded on match rows for audit.
	Video float64
	Audio float64
	// Decision tier: combined risk score.
	Approve float64
	Review  float64
}

// Categorize maps a fingerprint confidence onto a match category.
func (t Thresholds) Categorize(confidence float64) store.MatchCategory {
	switch {
	case confidence >= t.Match:
		return store.CategoryMatch
	case confidence >= t.Likely:
		return store.CategoryLikely
	default:
		return store.CategoryNone
	}
}

// Decide maps a combined risk score onto an enforcement decision.
func (t Thresholds) Decide(riskScore float64) store.Decision {
	switch {
	case riskScore >= t.Approve:
		return store.DecisionApprove
	case riskScore >= t.Review:
		return store.DecisionReview
	default:
		return store.DecisionReject
	}
}

// CombineModalities folds per-modality similarities into one confidence.
// When both modalities produced a signal the confidence is their mean;
// otherwise the stronger modality stands alone.
func CombineModalities(videoSimilarity, audioSimilarity float64) float64 {
	if videoSimilarity > 0 && audioSimilarity > 0 {
		return (videoSimilarity + audioSimilarity) / 2
	}
	if videoSimilarity > audioSimilarity {
		return videoSimilarity
	}
	return audioSimilarity
}

// Recommendation renders the human-facing guidance for a decision.
func Recommendation(decision store.Decision, riskScore float64) string {
	switch decision {
	case store.DecisionApprove:
		return "High confidence match. Proceed with takedown request."
	case store.DecisionReview:
		if riskScore >= 0.6 {
			return "Moderate confidence. Manual review recommended before action."
		}
		return "Low confidence. Additional analysis needed."
	default:
		return "No action required. Content appears legitimate."
	}
}
