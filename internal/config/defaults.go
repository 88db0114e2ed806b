package config

const (
	defaultDataDir   = "~/.local/share/streamwatch"
	defaultLogDir    = "~/.local/share/streamwatch/logs"
	defaultAPIBind   = "127.0.0.1:7519"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultMatchThreshold  = 0.8
	defaultLikelyThreshold = 0.6
	defaultStoreThreshold  = 0.3
	defaultVideoThreshold  = 0.18
	defaultAudioThreshold  = 0.72

	defaultApproveThreshold = 0.8
	defaultReviewThreshold  = 0.4
	defaultLLMMinScore      = 0.3

	defaultCaptureMaxAttempts    = 3
	defaultCaptureAttemptTimeout = 120
	defaultCaptureRetryBaseDelay = 4

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds = 30

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Matching: Matching{
			MatchThreshold:  defaultMatchThreshold,
			LikelyThreshold: defaultLikelyThreshold,
			StoreThreshold:  defaultStoreThreshold,
			VideoThreshold:  defaultVideoThreshold,
			AudioThreshold:  defaultAudioThreshold,
		},
		Risk: Risk{
			ApproveThreshold: defaultApproveThreshold,
			ReviewThreshold:  defaultReviewThreshold,
			LLMMinScore:      defaultLLMMinScore,
		},
		Capture: Capture{
			MaxAttempts:    defaultCaptureMaxAttempts,
			AttemptTimeout: defaultCaptureAttemptTimeout,
			RetryBaseDelay: defaultCaptureRetryBaseDelay,
		},
		Enforcement: Enforcement{
			DryRun:       true,
			SenderName:   "Anti-Piracy Team",
			SenderEmail:  "abuse-reports@localhost",
			Organization: "Rights Holder",
			SMTPPort:     587,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Candidates:     true,
			Matches:        true,
			Enforcement:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
