package nqcrypt

// Key and block sizes
const (
	// MasterKeySize is the length of generated master keys.
	MasterKeySize = 32

	// BlockSize is the block size written to every container header.
	BlockSize = 32

	// SaltSize is the length of the salt drawn per protect call.
	SaltSize = 32

	// EncodedFieldSize is the width of an encoded homomorphic field.
	EncodedFieldSize = 8
)

// Environment variable names
const (
	// EnvMasterKey holds the master key as hex.
	EnvMasterKey = "NQC_MASTER_KEY"

	// EnvFeedbackMode selects "asymmetric" (default) or "symmetric" feedback.
	EnvFeedbackMode = "NQC_FEEDBACK_MODE"

	EnvLogLevel  = "NQC_LOG_LEVEL"
	EnvLogFormat = "NQC_LOG_FORMAT"

	// EnvStoreDriver selects the container store: memory, sqlite or s3.
	EnvStoreDriver = "NQC_STORE_DRIVER"
	EnvSQLitePath  = "NQC_SQLITE_PATH"
	EnvS3Bucket    = "NQC_S3_BUCKET"
	EnvS3Prefix    = "NQC_S3_PREFIX"

	// EnvVaultPath is the KV v2 path holding the master key. VAULT_ADDR and
	// VAULT_TOKEN are read by the Vault client itself.
	EnvVaultPath  = "NQC_VAULT_PATH"
	EnvVaultMount = "NQC_VAULT_MOUNT"

	// EnvCodec selects the container codec: binary or json.
	EnvCodec = "NQC_CODEC"
)

// Default values
const (
	DefaultFeedbackMode = "asymmetric"
	DefaultStoreDriver  = StoreDriverMemory
	DefaultCodec        = "binary"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"

	// DefaultDataDir is created under the project root for the SQLite store.
	DefaultDataDir = ".nqcrypt"

	// DefaultSQLiteFilename is the SQLite database filename.
	DefaultSQLiteFilename = "containers.db"

	DefaultVaultMount = "secret"
)

// Store drivers
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
	StoreDriverS3     = "s3"
)
