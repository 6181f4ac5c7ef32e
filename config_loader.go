package nqcrypt

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfigFromEnvironment reads NQC_* variables and returns a validated
// Config.
//
// Each file in envFiles is loaded with godotenv first. Variables already set
// in the process environment win over values from the files.
//
// Recognised variables:
//   - NQC_MASTER_KEY: hex master key
//   - NQC_FEEDBACK_MODE: asymmetric (default) or symmetric
//   - NQC_CODEC: binary (default) or json
//   - NQC_LOG_LEVEL, NQC_LOG_FORMAT
//   - NQC_STORE_DRIVER: memory (default), sqlite or s3
//   - NQC_SQLITE_PATH, NQC_S3_BUCKET, NQC_S3_PREFIX
//   - NQC_VAULT_MOUNT, NQC_VAULT_PATH
//
// Example usage:
//
//	cfg, err := nqcrypt.LoadConfigFromEnvironment(".env")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnvironment(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, fmt.Errorf("%w: load env files: %w", ErrInvalidConfiguration, err)
		}
	}

	cfg := Config{
		MasterKey:    os.Getenv(EnvMasterKey),
		FeedbackMode: getEnvOrDefault(EnvFeedbackMode, DefaultFeedbackMode),
		Codec:        getEnvOrDefault(EnvCodec, DefaultCodec),
		LogLevel:     getEnvOrDefault(EnvLogLevel, DefaultLogLevel),
		LogFormat:    getEnvOrDefault(EnvLogFormat, DefaultLogFormat),
		Store: StoreConfig{
			Driver:     getEnvOrDefault(EnvStoreDriver, DefaultStoreDriver),
			SQLitePath: os.Getenv(EnvSQLitePath),
			S3Bucket:   os.Getenv(EnvS3Bucket),
			S3Prefix:   os.Getenv(EnvS3Prefix),
		},
		Vault: VaultConfig{
			Mount: getEnvOrDefault(EnvVaultMount, DefaultVaultMount),
			Path:  os.Getenv(EnvVaultPath),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file and validates it.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, NewNotFoundError("config file", path)
		}
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfiguration, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// SaveConfigFile writes cfg as YAML with owner-only permissions, since it may
// carry the master key.
func SaveConfigFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// getEnvOrDefault returns the value of key, or defaultValue when it is unset
// or empty.
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
