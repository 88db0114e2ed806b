package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Detection describes a detection in a transport-friendly format.
type Detection struct {
	ID             int64   `json:"id"`
	Platform       string  `json:"platform"`
	URL            string  `json:"url"`
	Title          string  `json:"title,omitempty"`
	Status         string  `json:"status"`
	LastGoodStatus string  `json:"lastGoodStatus,omitempty"`
	Decision       string  `json:"decision,omitempty"`
	RiskScore      float64 `json:"riskScore"`
	Confidence     float64 `json:"confidence"`
	ErrorMessage   string  `json:"errorMessage,omitempty"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
}

// Evidence describes the captured sample backing a detection.
type Evidence struct {
	ID               int64   `json:"id"`
	DetectionID      int64   `json:"detectionId"`
	StorageKey       string  `json:"storageKey,omitempty"`
	VideoFingerprint string  `json:"videoFingerprint,omitempty"`
	AudioFingerprint string  `json:"audioFingerprint,omitempty"`
	VideoNote        string  `json:"videoNote,omitempty"`
	AudioNote        string  `json:"audioNote,omitempty"`
	Source           string  `json:"source"`
	DurationSeconds  float64 `json:"durationSeconds"`
	CreatedAt        string  `json:"createdAt,omitempty"`
}

// Match describes one detection/reference comparison above the store
// threshold.
type Match struct {
	ID             int64   `json:"id"`
	DetectionID    int64   `json:"detectionId"`
	ReferenceID    int64   `json:"referenceId"`
	VideoScore     float64 `json:"videoScore"`
	AudioScore     float64 `json:"audioScore"`
	Confidence     float64 `json:"confidence"`
	Category       string  `json:"category"`
	VideoThreshold float64 `json:"videoThreshold"`
	AudioThreshold float64 `json:"audioThreshold"`
	CreatedAt      string  `json:"createdAt,omitempty"`
}

// Enforcement describes a recorded takedown attempt.
type Enforcement struct {
	ID          int64  `json:"id"`
	DetectionID int64  `json:"detectionId"`
	Action      string `json:"action"`
	Recipients  string `json:"recipients"`
	Sent        bool   `json:"sent"`
	DryRun      bool   `json:"dryRun"`
	MessageID   string `json:"messageId,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Reference describes a protected broadcast in the catalog.
type Reference struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Platform         string `json:"platform"`
	ContentType      string `json:"contentType,omitempty"`
	VideoFingerprint string `json:"videoFingerprint,omitempty"`
	AudioFingerprint string `json:"audioFingerprint,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

// DetectionDetail bundles a detection with its captured artifacts.
type DetectionDetail struct {
	Detection    Detection     `json:"detection"`
	Evidence     *Evidence     `json:"evidence,omitempty"`
	Matches      []Match       `json:"matches,omitempty"`
	Enforcements []Enforcement `json:"enforcements,omitempty"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running       bool           `json:"running"`
	Stats         map[string]int `json:"detectionStats"`
	LastError     string         `json:"lastError,omitempty"`
	LastDetection *Detection     `json:"lastDetection,omitempty"`
	StageHealth   []StageHealth  `json:"stageHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running         bool           `json:"running"`
	PID             int            `json:"pid"`
	DetectionDBPath string         `json:"detectionDbPath"`
	LockFilePath    string         `json:"lockFilePath"`
	Pipeline        PipelineStatus `json:"pipeline"`
}

// HealthSummary provides aggregate detection counts.
type HealthSummary struct {
	Total      int `json:"total"`
	Found      int `json:"found"`
	Processing int `json:"processing"`
	Review     int `json:"review"`
	Errored    int `json:"errored"`
	Enforced   int `json:"enforced"`
}

// DatabaseHealth captures diagnostic information about the detection
// database.
type DatabaseHealth struct {
	DBPath           string   `json:"dbPath"`
	DatabaseExists   bool     `json:"databaseExists"`
	DatabaseReadable bool     `json:"databaseReadable"`
	SchemaVersion    string   `json:"schemaVersion,omitempty"`
	TableExists      bool     `json:"tableExists"`
	MissingColumns   []string `json:"missingColumns,omitempty"`
	IntegrityCheck   bool     `json:"integrityCheck"`
	TotalDetections  int      `json:"totalDetections"`
	Error            string   `json:"error,omitempty"`
}

// HealthResponse combines aggregate and database diagnostics.
type HealthResponse struct {
	Summary  HealthSummary  `json:"summary"`
	Database DatabaseHealth `json:"database"`
}

// CandidateRequest is the payload for enqueueing a suspected stream.
type CandidateRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
}

// CandidateResponse reports the enqueue outcome. Created is false when the
// platform/url pair was already tracked.
type CandidateResponse struct {
	Detection Detection `json:"detection"`
	Created   bool      `json:"created"`
}

// ReferenceRequest is the payload for loading a catalog entry.
type ReferenceRequest struct {
	Title            string `json:"title"`
	Platform         string `json:"platform"`
	ContentType      string `json:"contentType,omitempty"`
	VideoFingerprint string `json:"videoFingerprint,omitempty"`
	AudioFingerprint string `json:"audioFingerprint,omitempty"`
}

// ClearResponse reports how many detections a bulk removal deleted.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// TestNotificationResponse reports the outcome of a notification probe.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}

// RemoveResponse reports a single-row removal.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// DetectionListResponse wraps a collection of detections.
type DetectionListResponse struct {
	Items []Detection `json:"items"`
}

// DetectionResponse wraps a single detection with its artifacts.
type DetectionResponse struct {
	Item DetectionDetail `json:"item"`
}

// ReferenceListResponse wraps a collection of catalog entries.
type ReferenceListResponse struct {
	Items []Reference `json:"items"`
}

// ReferenceResponse wraps a single catalog entry.
type ReferenceResponse struct {
	Item Reference `json:"item"`
}
