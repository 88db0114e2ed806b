package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a detection.
type Status string

const (
	StatusFound         Status = "found"
	StatusCapturing     Status = "capturing"
	StatusCaptured      Status = "captured"
	StatusFingerprinted Status = "fingerprinted"
	StatusMatching      Status = "matching"
	StatusMatched       Status = "matched"
	StatusEnforcing     Status = "enforcing"
	StatusEnforced      Status = "enforced"
	StatusReview        Status = "review"
	StatusError         Status = "error"
)

var allStatuses = []Status{
	StatusFound,
	StatusCapturing,
	StatusCaptured,
	StatusFingerprinted,
	StatusMatching,
	StatusMatched,
	StatusEnforcing,
	StatusEnforced,
	StatusReview,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusCapturing: {},
	StatusMatching:  {},
	StatusEnforcing: {},
}

// capturedStatuses are the states a detection can only hold once evidence
// has been stored.
var capturedStatuses = map[Status]struct{}{
	StatusCaptured:      {},
	StatusFingerprinted: {},
	StatusMatching:      {},
	StatusMatched:       {},
	StatusEnforcing:     {},
	StatusEnforced:      {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map each in-flight status back to the stable
// status a detection is returned to when its worker dies or fails.
var stageRollbackTransitions = []statusTransition{
	{from: StatusCapturing, to: StatusFound},
	{from: StatusMatching, to: StatusFingerprinted},
	{from: StatusEnforcing, to: StatusMatched},
}

// Decision is the outcome recorded by the decision engine.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReview  Decision = "review"
	DecisionReject  Decision = "reject"
)

// MatchCategory classifies a single reference comparison.
type MatchCategory string

const (
	CategoryMatch  MatchCategory = "match"
	CategoryLikely MatchCategory = "likely"
	CategoryNone   MatchCategory = "none"
)

// Detection is a suspected pirated stream persisted in SQLite.
type Detection struct {
	ID             int64
	Platform       string
	URL            string
	Title          string
	Status         Status
	LastGoodStatus Status
	Decision       Decision
	RiskScore      float64
	Confidence     float64
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastHeartbeat  *time.Time
}

// Evidence is the captured artifact and fingerprints for a detection.
// At most one evidence row exists per detection.
type Evidence struct {
	ID               int64
	DetectionID      int64
	StorageKey       string
	VideoFingerprint string
	AudioFingerprint string
	VideoNote        string
	AudioNote        string
	Source           string
	DurationSeconds  float64
	CreatedAt        time.Time
}

// EvidenceSource values recorded on evidence rows.
const (
	SourceExtracted = "extracted"
	SourceFallback  = "fallback"
)

// FingerprintsReady reports whether every modality either carries a
// fingerprint or has been explicitly declared unavailable.
func (e *Evidence) FingerprintsReady() bool {
	if e == nil {
		return false
	}
	video := e.VideoFingerprint != "" || e.VideoNote != ""
	audio := e.AudioFingerprint != "" || e.AudioNote != ""
	return video && audio
}

// Match records one detection/reference comparison above the store threshold.
type Match struct {
	ID             int64
	DetectionID    int64
	ReferenceID    int64
	VideoScore     float64
	AudioScore     float64
	Confidence     float64
	Category       MatchCategory
	VideoThreshold float64
	AudioThreshold float64
	CreatedAt      time.Time
}

// Enforcement is an append-only record of a takedown attempt.
type Enforcement struct {
	ID          int64
	DetectionID int64
	Action      string
	Recipients  string
	NoticeBody  string
	Sent        bool
	DryRun      bool
	MessageID   string
	CreatedAt   time.Time
}

// Reference is a protected broadcast in the catalog that detections are
// compared against.
type Reference struct {
	ID               int64
	Title            string
	Platform         string
	ContentType      string
	VideoFingerprint string
	AudioFingerprint string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HealthSummary describes aggregated detection counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Found      int
	Processing int
	Review     int
	Errored    int
	Enforced   int
}

// DatabaseHealth captures diagnostic information about the detection database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalDetections  int
	Error            string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (d Detection) IsProcessing() bool {
	_, ok := processingStatuses[d.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsCapturedStatus reports whether a status implies evidence acquisition
// already completed.
func IsCapturedStatus(status Status) bool {
	_, ok := capturedStatuses[status]
	return ok
}

// RollbackTarget returns the stable status an in-flight status falls back
// to when its stage is abandoned. Stable statuses map to themselves.
func RollbackTarget(status Status) Status {
	for _, transition := range stageRollbackTransitions {
		if transition.from == status {
			return transition.to
		}
	}
	return status
}

// ParseDecision converts a string into a known Decision.
func ParseDecision(value string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(value))) {
	case DecisionApprove:
		return DecisionApprove, true
	case DecisionReview:
		return DecisionReview, true
	case DecisionReject:
		return DecisionReject, true
	}
	return "", false
}
