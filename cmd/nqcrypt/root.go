package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
	vaultkeys "github.com/hengadev/nqcrypt/providers/keys/hashicorp"
	s3store "github.com/hengadev/nqcrypt/providers/store/s3"
	"github.com/hengadev/nqcrypt/providers/store/sqlite"
)

// Vault reads are retried while the server is unreachable.
const (
	vaultAttempts   = 3
	vaultRetryDelay = 200 * time.Millisecond
)

// app carries the resolved configuration and I/O streams shared by every
// subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	envFiles   []string
	key        string
	mode       string
	codec      string
	logLevel   string
	logFormat  string

	cfg    nqcrypt.Config
	logger *nqcrypt.StructuredLogger
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "nqcrypt [flags] command [flags]",
		Short: "Protect payloads and additive integer fields",
		Long: `Protect a payload together with named integer fields under one master key.
The master key comes from --key, NQC_MASTER_KEY, a config file or Vault KV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(nqcrypt.ContextWithRequestID(cmd.Context(), uuid.NewString()))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file (default: read NQC_* environment variables)")
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "Load environment variables from these files first")
	flags.StringVarP(&a.key, "key", "k", "", "Master key, hex-encoded")
	flags.StringVarP(&a.mode, "mode", "m", "", "Feedback mode: asymmetric or symmetric")
	flags.StringVar(&a.codec, "codec", "", "Container encoding: binary or json")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: json, text or console")

	root.AddCommand(
		newKeygenCommand(a),
		newProtectCommand(a),
		newRecoverCommand(a),
		newFieldsCommand(a),
		newBenchCommand(a),
		newConsistencyCommand(a),
		newHealthCommand(a),
		newVersionCommand(a),
	)

	return root
}

// loadConfig reads the config file or environment, then applies flag
// overrides.
func (a *app) loadConfig() error {
	var (
		cfg nqcrypt.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = nqcrypt.LoadConfigFile(a.configPath)
	} else {
		cfg, err = nqcrypt.LoadConfigFromEnvironment(a.envFiles...)
	}
	if err != nil {
		return err
	}

	overrides := []struct {
		flag  string
		field *string
	}{
		{a.key, &cfg.MasterKey},
		{a.mode, &cfg.FeedbackMode},
		{a.codec, &cfg.Codec},
		{a.logLevel, &cfg.LogLevel},
		{a.logFormat, &cfg.LogFormat},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.field = o.flag
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger(a.stderr, "cli")
	return nil
}

func (a *app) keySource() (nqcrypt.KeySource, error) {
	if src := a.cfg.KeySource(); src != nil {
		return src, nil
	}
	if a.cfg.Vault.Path != "" {
		src, err := vaultkeys.NewKVKeySource(a.cfg.Vault.Mount, a.cfg.Vault.Path)
		if err != nil {
			return nil, err
		}
		return nqcrypt.NewRetryingKeySource(src, vaultAttempts, vaultRetryDelay, a.logger), nil
	}
	return nil, fmt.Errorf("%w: no master key configured (set --key, %s or vault.path)",
		nqcrypt.ErrInvalidConfiguration, nqcrypt.EnvMasterKey)
}

func (a *app) pipelineOptions() ([]nqcrypt.PipelineOption, error) {
	return a.cfg.PipelineOptions(
		nqcrypt.WithLogger(a.logger),
		nqcrypt.WithObservabilityHook(nqcrypt.NewLoggingObservabilityHook(a.logger)),
	)
}

func (a *app) pipeline(ctx context.Context) (*nqcrypt.Pipeline, error) {
	src, err := a.keySource()
	if err != nil {
		return nil, err
	}
	opts, err := a.pipelineOptions()
	if err != nil {
		return nil, err
	}
	return nqcrypt.NewPipelineFromKeySource(ctx, src, opts...)
}

func (a *app) containerCodec() nqcrypt.Codec {
	codec, err := nqcrypt.CodecByName(a.cfg.Codec)
	if err != nil {
		return nqcrypt.BinaryCodec{}
	}
	return codec
}

// openStore returns the configured store and a function releasing it.
func (a *app) openStore(ctx context.Context) (nqcrypt.ContainerStore, func() error, error) {
	codec := a.containerCodec()

	switch a.cfg.Store.Driver {
	case nqcrypt.StoreDriverSQLite:
		s, err := sqlite.Open(ctx, a.cfg.Store.SQLitePath, sqlite.WithCodec(codec))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case nqcrypt.StoreDriverS3:
		s, err := s3store.NewFromEnvironment(ctx, a.cfg.Store.S3Bucket,
			s3store.WithPrefix(a.cfg.Store.S3Prefix), s3store.WithCodec(codec))
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return nqcrypt.NewMemoryStore(), func() error { return nil }, nil
	}
}

// readInput reads path, or stdin when path is "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout when path is "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (a *app) readContainer(path string) (*nqcrypt.Container, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}

	// Accept either encoding regardless of the configured codec.
	primary := a.containerCodec()
	c, err := primary.Unmarshal(data)
	if err == nil {
		return c, nil
	}
	for _, codec := range []nqcrypt.Codec{nqcrypt.BinaryCodec{}, nqcrypt.JSONCodec{}} {
		if codec.Name() == primary.Name() {
			continue
		}
		if c, cerr := codec.Unmarshal(data); cerr == nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("read container %s: %w", path, err)
}

func (a *app) writeContainer(path string, c *nqcrypt.Container) error {
	data, err := a.containerCodec().Marshal(c)
	if err != nil {
		return err
	}
	return a.writeOutput(path, data)
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintln(a.stdout, nqcrypt.VersionInfo())
			return err
		},
	}
}
