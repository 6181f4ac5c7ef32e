package nqcrypt

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/hengadev/errsx"

	"github.com/hengadev/nqcrypt/internal/additive"
	"github.com/hengadev/nqcrypt/internal/kem"
	"github.com/hengadev/nqcrypt/internal/monitoring"
	"github.com/hengadev/nqcrypt/internal/nqcerr"
	"github.com/hengadev/nqcrypt/internal/streamcipher"
)

// Pipeline protects payloads with one master key.
//
// Recover replaces the cipher used by later Protect calls with one built from
// the unwrapped key. The swap is guarded by a mutex, so a Pipeline can be
// shared between goroutines, but the result of Protect then depends on the
// order of calls. Use one Pipeline per logical stream when that matters.
type Pipeline struct {
	masterKey []byte
	mode      FeedbackMode
	random    io.Reader
	kem       *kem.Encapsulator
	encoder   additive.Encoder

	logger  *StructuredLogger
	hook    ObservabilityHook
	metrics MetricsCollector

	mu     sync.Mutex
	cipher *streamcipher.Cipher
}

// New creates a Pipeline for masterKey. A nil or empty key is replaced by
// MasterKeySize random bytes. The key is copied.
func New(masterKey []byte, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		mode:    FeedbackAsymmetric,
		random:  rand.Reader,
		logger:  monitoring.NewDiscardLogger(),
		hook:    &NoOpObservabilityHook{},
		metrics: &NoOpMetricsCollector{},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("apply pipeline option: %w", err)
		}
	}

	if len(masterKey) == 0 {
		key, err := GenerateMasterKey(p.random)
		if err != nil {
			return nil, err
		}
		masterKey = key
	} else {
		masterKey = bytes.Clone(masterKey)
	}

	p.masterKey = masterKey
	p.kem = kem.New(kem.WithRandom(p.random))
	p.encoder = additive.New(masterKey)
	p.cipher = streamcipher.NewFromKey(masterKey, streamcipher.WithFeedbackMode(p.mode))

	return p, nil
}

// GenerateMasterKey reads MasterKeySize bytes from r, or from crypto/rand
// when r is nil.
func GenerateMasterKey(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	key := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("%w: generate master key: %w", ErrRandomSource, err)
	}
	return key, nil
}

// MasterKey returns a copy of the master key.
func (p *Pipeline) MasterKey() []byte {
	return bytes.Clone(p.masterKey)
}

// Mode returns the feedback mode of the cipher Protect currently uses.
func (p *Pipeline) Mode() FeedbackMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cipher.Mode()
}

// Protect encrypts payload and encodes fields. Field names are recorded in
// lexical order.
func (p *Pipeline) Protect(ctx context.Context, payload []byte, fields map[string]int64) (*Container, error) {
	ordered := make([]Field, 0, len(fields))
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		ordered = append(ordered, Field{Name: name, Value: fields[name]})
	}
	return p.ProtectFields(ctx, payload, ordered)
}

// ProtectFields is Protect with caller-ordered fields.
func (p *Pipeline) ProtectFields(ctx context.Context, payload []byte, fields []Field) (c *Container, err error) {
	start := time.Now()
	metadata := map[string]any{
		"data_size":   len(payload),
		"field_count": len(fields),
	}
	p.hook.OnProcessStart(ctx, "protect", metadata)
	defer func() {
		p.finish(ctx, protectMetrics, start, len(payload), err, metadata)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	encapsulated, salt, err := p.kem.Wrap(kem.OriginalKey(p.masterKey))
	if err != nil {
		return nil, nqcerr.NewRandomSourceError(nqcerr.Wrap, err)
	}
	p.hook.OnKeyOperation(ctx, "wrap", len(encapsulated), nil)

	p.mu.Lock()
	cipher := p.cipher
	p.mu.Unlock()

	names := make([]string, 0, len(fields))
	encoded := make(map[string][]byte, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
		encoded[f.Name] = p.encoder.Encode(f.Value).Bytes()
	}

	return &Container{
		Header: Header{
			EncapsulatedKey: encapsulated,
			Salt:            salt,
			DataSize:        uint64(len(payload)),
			BlockSize:       uint32(cipher.BlockSize()),
			FieldNames:      names,
			FeedbackMode:    cipher.Mode(),
		},
		EncryptedData:   cipher.Encrypt(payload),
		HomomorphicData: encoded,
	}, nil
}

func validateFields(fields []Field) error {
	errs := errsx.Map{}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			errs.Set(fmt.Sprintf("field %d", i), "field name is empty")
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errs.Set(fmt.Sprintf("field '%s'", f.Name), "field name is duplicated")
		}
		seen[f.Name] = struct{}{}
	}

	if err := errs.AsError(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return nil
}

// Recover unwraps the header key with fallbackKey, or the master key when
// fallbackKey is empty, and decrypts the payload with a cipher built from the
// unwrapped key. The unwrap re-derives from the encapsulated bytes and does
// not yield the master key, so the result generally differs from the
// protected payload. A cipher built from the unwrapped key, with the
// Pipeline's own block size and feedback mode, replaces the one used by
// Protect.
func (p *Pipeline) Recover(ctx context.Context, c *Container, fallbackKey []byte) (plaintext []byte, err error) {
	start := time.Now()
	metadata := map[string]any{}
	p.hook.OnProcessStart(ctx, "recover", metadata)
	defer func() {
		p.finish(ctx, recoverMetrics, start, len(plaintext), err, metadata)
	}()

	if err := p.checkContainer(ctx, c); err != nil {
		return nil, err
	}
	metadata["data_size"] = c.Header.DataSize

	fallback := fallbackKey
	if len(fallback) == 0 {
		fallback = p.masterKey
	}

	derived := p.kem.Unwrap(c.Header.EncapsulatedKey, fallback, c.Header.Salt)
	p.hook.OnKeyOperation(ctx, "unwrap", derived.Len(), map[string]any{"fallback": derived.FromFallback()})
	if derived.FromFallback() {
		p.metrics.IncrementCounter(MetricUnwrapFallback, nil)
		p.logger.WithContext(ctx).Warn("key derivation failed, substituting fallback key")
	}

	key := derived.Bytes()

	// Later Protect calls keep the default block size and the configured mode.
	p.mu.Lock()
	p.cipher = streamcipher.NewFromKey(key, streamcipher.WithFeedbackMode(p.mode))
	p.mu.Unlock()

	return decryptPayload(cipherFor(key, c.Header), c), nil
}

// RecoverWithMasterKey decrypts the payload with the master key itself and
// leaves the Pipeline state untouched. With FeedbackSymmetric containers this
// returns the protected payload exactly.
func (p *Pipeline) RecoverWithMasterKey(ctx context.Context, c *Container) (plaintext []byte, err error) {
	start := time.Now()
	metadata := map[string]any{"direct": true}
	p.hook.OnProcessStart(ctx, "recover", metadata)
	defer func() {
		p.finish(ctx, recoverMetrics, start, len(plaintext), err, metadata)
	}()

	if err := p.checkContainer(ctx, c); err != nil {
		return nil, err
	}
	metadata["data_size"] = c.Header.DataSize

	return decryptPayload(cipherFor(p.masterKey, c.Header), c), nil
}

func (p *Pipeline) checkContainer(ctx context.Context, c *Container) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return nqcerr.NewInvalidContainerError("container is nil")
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContainer, err)
	}
	return nil
}

func cipherFor(key []byte, h Header) *streamcipher.Cipher {
	return streamcipher.NewFromKey(key,
		streamcipher.WithFeedbackMode(h.FeedbackMode),
		streamcipher.WithBlockSize(int(h.BlockSize)),
	)
}

// decryptPayload decrypts the whole ciphertext and truncates to DataSize.
func decryptPayload(cipher *streamcipher.Cipher, c *Container) []byte {
	return cipher.Decrypt(c.EncryptedData)[:c.Header.DataSize]
}

// DecodeField decodes the named field with the master key.
func (p *Pipeline) DecodeField(c *Container, name string) (int64, error) {
	if c == nil {
		return 0, nqcerr.NewInvalidContainerError("container is nil")
	}
	value, ok := c.Field(name)
	if !ok {
		return 0, nqcerr.NewFieldNotFoundError(name, nqcerr.Decode)
	}
	e, err := EncodedFromBytes(value)
	if err != nil {
		return 0, fmt.Errorf("%w: field '%s': %w", ErrInvalidContainer, name, err)
	}
	return p.encoder.Decode(e), nil
}

// DecodeFields decodes every field listed in the header.
func (p *Pipeline) DecodeFields(c *Container) (map[string]int64, error) {
	if c == nil {
		return nil, nqcerr.NewInvalidContainerError("container is nil")
	}
	errs := errsx.Map{}
	out := make(map[string]int64, len(c.Header.FieldNames))
	for _, name := range c.Header.FieldNames {
		v, err := p.DecodeField(c, name)
		if err != nil {
			errs.Set(name, err)
			continue
		}
		out[name] = v
	}
	if err := errs.AsError(); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeField encodes v with the master key's noise.
func (p *Pipeline) EncodeField(v int64) Encoded {
	return p.encoder.Encode(v)
}

type operationMetrics struct {
	name     string
	count    string
	bytes    string
	duration string
}

var (
	protectMetrics = operationMetrics{"protect", MetricProtectCount, MetricProtectBytes, MetricProtectDuration}
	recoverMetrics = operationMetrics{"recover", MetricRecoverCount, MetricRecoverBytes, MetricRecoverDuration}
)

// finish reports the outcome of one operation to the hook, metrics and logger.
func (p *Pipeline) finish(ctx context.Context, op operationMetrics, start time.Time, size int, err error, metadata map[string]any) {
	duration := time.Since(start)

	tags := map[string]string{"status": "success"}
	if err != nil {
		tags["status"] = "error"
		p.hook.OnError(ctx, op.name, err, metadata)
	} else {
		p.metrics.IncrementCounterBy(op.bytes, int64(size), nil)
	}
	p.metrics.IncrementCounter(op.count, tags)
	p.metrics.RecordTiming(op.duration, duration, tags)

	p.hook.OnProcessComplete(ctx, op.name, duration, err, metadata)
	p.logger.LogCryptoOperation(ctx, op.name, duration, err, metadata)
}
