package match

import (
	"strings"
	"unicode"
)

// ContentAnalysis summarizes lexical piracy signals found in a candidate's
// title and URL.
type ContentAnalysis struct {
	SuspiciousPatterns []string
	Language           string
	ContentType        string
	RiskIndicators     []string
}

// Content type labels produced by AnalyzeContent.
const (
	ContentLiveStreaming = "live_streaming"
	ContentSports        = "sports_content"
	ContentFull          = "full_content"
	ContentUnknown       = "unknown"
)

var suspiciousKeywords = []string{
	"free", "download", "stream", "watch", "online", "hd", "full",
	"live", "cricket", "football", "match", "game", "sports",
}

// Platforms whose reach alone raises the stakes of a confirmed restream.
var highReachPlatforms = map[string]struct{}{
	"youtube":  {},
	"telegram": {},
}

// AnalyzeContent scans the candidate title and URL for piracy markers.
// The analysis is purely lexical; fingerprint evidence is scored separately.
func AnalyzeContent(streamURL, title, platform string) ContentAnalysis {
	analysis := ContentAnalysis{
		Language:    "unknown",
		ContentType: ContentUnknown,
	}

	titleLower := strings.ToLower(title)
	urlLower := strings.ToLower(streamURL)

	for _, keyword := range suspiciousKeywords {
		if strings.Contains(titleLower, keyword) || strings.Contains(urlLower, keyword) {
			analysis.SuspiciousPatterns = append(analysis.SuspiciousPatterns, keyword)
		}
	}

	switch {
	case containsBengali(title):
		analysis.Language = "bengali"
	case containsAny(titleLower, "cricket", "football", "sports"):
		analysis.Language = "english"
	default:
		analysis.Language = "mixed"
	}

	switch {
	case containsAny(titleLower, "live", "stream"):
		analysis.ContentType = ContentLiveStreaming
	case containsAny(titleLower, "match", "game", "sports"):
		analysis.ContentType = ContentSports
	case containsAny(titleLower, "full", "complete"):
		analysis.ContentType = ContentFull
	}

	if strings.Contains(titleLower, "free") {
		analysis.RiskIndicators = append(analysis.RiskIndicators, "free_content")
	}
	if strings.Contains(titleLower, "download") {
		analysis.RiskIndicators = append(analysis.RiskIndicators, "downloadable")
	}
	if strings.Contains(titleLower, "stream") {
		analysis.RiskIndicators = append(analysis.RiskIndicators, "streaming")
	}
	if _, ok := highReachPlatforms[strings.ToLower(platform)]; ok {
		analysis.RiskIndicators = append(analysis.RiskIndicators, "popular_platform")
	}

	return analysis
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func containsBengali(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Bengali, r) {
			return true
		}
	}
	return false
}
