package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Matching contains fingerprint comparison thresholds. The category tier
// (match/likely) operates on pure fingerprint confidence; the per-modality
// thresholds are recorded on match rows for audit.
type Matching struct {
	MatchThreshold  float64 `toml:"match_threshold"`
	LikelyThreshold float64 `toml:"likely_threshold"`
	StoreThreshold  float64 `toml:"store_threshold"`
	VideoThreshold  float64 `toml:"video_threshold"`
	AudioThreshold  float64 `toml:"audio_threshold"`
}

// Risk contains thresholds for the combined fingerprint+heuristic decision
// tier. These are deliberately separate from the Matching thresholds even
// though the default constants overlap.
type Risk struct {
	ApproveThreshold float64 `toml:"approve_threshold"`
	ReviewThreshold  float64 `toml:"review_threshold"`
	LLMMinScore      float64 `toml:"llm_min_score"`
}

// Capture contains acquisition retry and timeout settings. ExtractorCommand
// names the external tool that samples a stream and emits fingerprints as
// JSON; when empty the capture stage falls back to deterministic URL-derived
// fingerprints.
type Capture struct {
	ExtractorCommand string `toml:"extractor_command"`
	MaxAttempts      int    `toml:"max_attempts"`
	AttemptTimeout   int    `toml:"attempt_timeout"`
	RetryBaseDelay   int    `toml:"retry_base_delay"`
}

// Enforcement contains takedown notice settings. SMTP credentials are only
// required when dry_run is disabled.
type Enforcement struct {
	DryRun       bool   `toml:"dry_run"`
	AutoEnforce  bool   `toml:"auto_enforce"`
	SenderName   string `toml:"sender_name"`
	SenderEmail  string `toml:"sender_email"`
	Organization string `toml:"organization"`
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUser     string `toml:"smtp_user"`
	SMTPPass     string `toml:"smtp_pass"`
}

// LLM contains settings for the optional risk-classification assistant.
// When APIKey is empty the assistant is disabled and the decision engine
// relies on lexical heuristics alone.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Candidates     bool   `toml:"candidates"`
	Matches        bool   `toml:"matches"`
	Enforcement    bool   `toml:"enforcement"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for streamwatch.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Matching: fingerprint similarity thresholds (category tier)
//   - Risk: combined decision thresholds (decision tier)
//   - Capture: acquisition retries and timeouts
//   - Enforcement: dry-run flag and notice sender identity
//   - LLM: optional risk-classification assistant
//   - Workflow: daemon polling intervals and heartbeats
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Matching      Matching      `toml:"matching"`
	Risk          Risk          `toml:"risk"`
	Capture       Capture       `toml:"capture"`
	Enforcement   Enforcement   `toml:"enforcement"`
	LLM           LLM           `toml:"llm"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/streamwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
