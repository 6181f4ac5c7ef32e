package nqcrypt

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hengadev/errsx"

	"github.com/hengadev/nqcrypt/internal/config"
	"github.com/hengadev/nqcrypt/internal/monitoring"
)

// Config holds everything needed to build a Pipeline and its surroundings.
//
// This struct contains only data. It can be filled from the environment
// (LoadConfigFromEnvironment), a YAML file (LoadConfigFile) or code, and is
// passed explicitly to NewPipelineFromConfig.
//
// Optional fields get defaults in Validate:
//   - FeedbackMode: asymmetric
//   - Codec: binary
//   - LogLevel / LogFormat: info / json
//   - Store.Driver: memory
//   - Store.SQLitePath: <project root>/.nqcrypt/containers.db
//   - Vault.Mount: secret
//
// Example usage:
//
//	cfg := nqcrypt.Config{
//	    MasterKey:    "8f3a...",
//	    FeedbackMode: "symmetric",
//	    Store:        nqcrypt.StoreConfig{Driver: nqcrypt.StoreDriverSQLite},
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	p, err := nqcrypt.NewPipelineFromConfig(ctx, cfg)
type Config struct {
	// MasterKey is the hex-encoded master key. When empty and Vault.Path is
	// also empty, a random key is generated per Pipeline.
	MasterKey string `yaml:"master_key,omitempty"`

	// FeedbackMode is "asymmetric" or "symmetric".
	FeedbackMode string `yaml:"feedback_mode,omitempty"`

	// Codec is the container encoding used by stores and the CLI: "binary"
	// or "json".
	Codec string `yaml:"codec,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`

	Store StoreConfig `yaml:"store"`
	Vault VaultConfig `yaml:"vault"`
}

// StoreConfig selects and configures the ContainerStore.
type StoreConfig struct {
	// Driver is one of memory, sqlite or s3.
	Driver string `yaml:"driver,omitempty"`

	// SQLitePath is the database file for the sqlite driver. A relative
	// path is resolved against the project root.
	SQLitePath string `yaml:"sqlite_path,omitempty"`

	// S3Bucket is required by the s3 driver.
	S3Bucket string `yaml:"s3_bucket,omitempty"`
	S3Prefix string `yaml:"s3_prefix,omitempty"`
}

// VaultConfig locates a master key stored in Vault KV v2. VAULT_ADDR and
// VAULT_TOKEN are read by the Vault client.
type VaultConfig struct {
	Mount string `yaml:"mount,omitempty"`
	Path  string `yaml:"path,omitempty"`
}

// Validate checks every field, collecting all problems, and applies defaults
// to optional fields.
func (c *Config) Validate() error {
	errs := errsx.Map{}

	c.MasterKey = strings.TrimSpace(c.MasterKey)
	if c.MasterKey != "" {
		if _, err := hex.DecodeString(c.MasterKey); err != nil {
			errs.Set("master_key", "must be hex encoded")
		}
		if c.Vault.Path != "" {
			errs.Set("vault.path", "cannot be combined with master_key")
		}
	}

	if c.FeedbackMode == "" {
		c.FeedbackMode = DefaultFeedbackMode
	}
	if _, err := ParseFeedbackMode(c.FeedbackMode); err != nil {
		errs.Set("feedback_mode", fmt.Sprintf("unknown mode %q", c.FeedbackMode))
	}

	if c.Codec == "" {
		c.Codec = DefaultCodec
	}
	if _, err := CodecByName(c.Codec); err != nil {
		errs.Set("codec", fmt.Sprintf("unknown codec %q", c.Codec))
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if _, err := monitoring.ParseLogLevel(c.LogLevel); err != nil {
		errs.Set("log_level", err)
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if _, err := monitoring.ParseLogFormat(c.LogFormat); err != nil {
		errs.Set("log_format", err)
	}

	c.validateStore(errs)

	if c.Vault.Mount == "" {
		c.Vault.Mount = DefaultVaultMount
	}

	if err := errs.AsError(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func (c *Config) validateStore(errs errsx.Map) {
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			c.Store.SQLitePath = defaultSQLitePath()
		}
	case StoreDriverS3:
		if strings.TrimSpace(c.Store.S3Bucket) == "" {
			errs.Set("store.s3_bucket", "is required for the s3 driver")
		}
	default:
		errs.Set("store.driver", fmt.Sprintf("unknown driver %q", c.Store.Driver))
	}
}

func defaultSQLitePath() string {
	dir := DefaultDataDir
	if cwd, err := os.Getwd(); err == nil {
		dir = config.ResolveDataDir(cwd, DefaultDataDir)
	}
	return filepath.Join(dir, DefaultSQLiteFilename)
}

// KeySource returns the key source described by MasterKey, or nil when the
// key must come from elsewhere (Vault, or a random key).
func (c Config) KeySource() KeySource {
	if c.MasterKey == "" {
		return nil
	}
	return HexKeySource(c.MasterKey)
}

// Logger builds a StructuredLogger writing to w from LogLevel and LogFormat.
// Unknown values fall back to info and json.
func (c Config) Logger(w io.Writer, component string) *StructuredLogger {
	level, _ := monitoring.ParseLogLevel(c.LogLevel)
	format, _ := monitoring.ParseLogFormat(c.LogFormat)

	return NewStructuredLogger(LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    w,
		Component: component,
	})
}

// PipelineOptions converts the configuration into Pipeline options. Options
// in extra are applied after, so they take precedence.
func (c Config) PipelineOptions(extra ...PipelineOption) ([]PipelineOption, error) {
	mode, err := ParseFeedbackMode(c.FeedbackMode)
	if err != nil {
		return nil, err
	}
	return append([]PipelineOption{WithFeedbackMode(mode)}, extra...), nil
}

// NewPipelineFromConfig validates cfg and builds a Pipeline. The master key is
// taken from cfg.MasterKey; when that is empty a random key is generated.
// Keys held in Vault are loaded by the hashicorp provider and passed through
// NewPipelineFromKeySource.
func NewPipelineFromConfig(ctx context.Context, cfg Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pipelineOpts, err := cfg.PipelineOptions(opts...)
	if err != nil {
		return nil, err
	}

	if src := cfg.KeySource(); src != nil {
		return NewPipelineFromKeySource(ctx, src, pipelineOpts...)
	}
	return New(nil, pipelineOpts...)
}
