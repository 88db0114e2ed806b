package match

import "math"

// Risk score composition. The fingerprint match dominates; lexical
// signals are capped so keyword stuffing alone can never approve a
// takedown.
const (
	matchWeight           = 0.6
	suspiciousWeight      = 0.1
	suspiciousCap         = 0.3
	riskIndicatorWeight   = 0.05
	riskIndicatorCap      = 0.2
	liveStreamingBonus    = 0.1
	classifierBlendWeight = 0.5
)

// RiskScore combines the best fingerprint confidence with lexical content
// signals into a score in [0, 1]. A zero bestConfidence means no match
// row was recorded.
func RiskScore(bestConfidence float64, analysis ContentAnalysis) float64 {
	score := bestConfidence * matchWeight
	score += math.Min(float64(len(analysis.SuspiciousPatterns))*suspiciousWeight, suspiciousCap)
	score += math.Min(float64(len(analysis.RiskIndicators))*riskIndicatorWeight, riskIndicatorCap)
	if analysis.ContentType == ContentLiveStreaming {
		score += liveStreamingBonus
	}
	return math.Min(1.0, math.Max(0, score))
}

// BlendClassifierScore folds an advisory classifier score into the
// heuristic risk. The blend can raise the score toward the classifier's
// judgment but never lower an already high heuristic score.
func BlendClassifierScore(heuristic, classifier float64) float64 {
	blended := heuristic*(1-classifierBlendWeight) + classifier*classifierBlendWeight
	return math.Min(1.0, math.Max(heuristic, blended))
}
