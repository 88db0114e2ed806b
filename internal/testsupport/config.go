package testsupport

import (
	"path/filepath"
	"testing"

	"streamwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Enforcement.SenderName = "Test Sender"
	cfgVal.Enforcement.SenderEmail = "enforcement@example.com"
	cfgVal.Enforcement.Organization = "Example Rights Holder"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMKey sets the risk-classification assistant API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithAutoEnforce enables automatic enforcement of approved matches.
func WithAutoEnforce() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enforcement.AutoEnforce = true
	}
}

// WithLiveEnforcement disables the enforcement dry-run flag.
func WithLiveEnforcement() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enforcement.DryRun = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
