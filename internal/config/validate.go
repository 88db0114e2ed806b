package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRisk(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateEnforcement(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	for name, value := range map[string]float64{
		"matching.match_threshold":  c.Matching.MatchThreshold,
		"matching.likely_threshold": c.Matching.LikelyThreshold,
		"matching.store_threshold":  c.Matching.StoreThreshold,
		"matching.video_threshold":  c.Matching.VideoThreshold,
		"matching.audio_threshold":  c.Matching.AudioThreshold,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Matching.LikelyThreshold > c.Matching.MatchThreshold {
		return errors.New("matching.likely_threshold must not exceed matching.match_threshold")
	}
	return nil
}

func (c *Config) validateRisk() error {
	for name, value := range map[string]float64{
		"risk.approve_threshold": c.Risk.ApproveThreshold,
		"risk.review_threshold":  c.Risk.ReviewThreshold,
		"risk.llm_min_score":     c.Risk.LLMMinScore,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Risk.ReviewThreshold > c.Risk.ApproveThreshold {
		return errors.New("risk.review_threshold must not exceed risk.approve_threshold")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.MaxAttempts < 1 {
		return errors.New("capture.max_attempts must be at least 1")
	}
	if c.Capture.AttemptTimeout < 1 {
		return errors.New("capture.attempt_timeout must be at least 1 second")
	}
	if c.Capture.RetryBaseDelay < 0 {
		return errors.New("capture.retry_base_delay must not be negative")
	}
	return nil
}

func (c *Config) validateEnforcement() error {
	if c.Enforcement.DryRun {
		return nil
	}
	if c.Enforcement.SenderEmail == "" {
		return errors.New("enforcement.sender_email must be set when enforcement.dry_run is false")
	}
	if c.Enforcement.SMTPHost == "" {
		return errors.New("enforcement.smtp_host must be set when enforcement.dry_run is false")
	}
	if c.Enforcement.SMTPPort < 1 || c.Enforcement.SMTPPort > 65535 {
		return errors.New("enforcement.smtp_port must be a valid port when enforcement.dry_run is false")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval < 1 {
		return errors.New("workflow.queue_poll_interval must be at least 1 second")
	}
	if c.Workflow.HeartbeatInterval < 1 {
		return errors.New("workflow.heartbeat_interval must be at least 1 second")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}
