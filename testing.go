package nqcrypt

// Test helpers for packages and examples built on nqcrypt.

import (
	"bytes"
	"sync"
	"testing"
)

// ZeroKey returns an n-byte key of zeros. Its additive noise is 0, so
// encoded values are plain two's complement multiples of 1000.
func ZeroKey(n int) []byte {
	return make([]byte, n)
}

// DeterministicReader yields a repeating byte counter starting at seed. It
// makes salts and generated keys reproducible in tests. Safe for concurrent
// use.
type DeterministicReader struct {
	mu   sync.Mutex
	next byte
}

// NewDeterministicReader creates a DeterministicReader starting at seed.
func NewDeterministicReader(seed byte) *DeterministicReader {
	return &DeterministicReader{next: seed}
}

func (r *DeterministicReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

// NewTestPipeline creates a Pipeline with a fixed master key, deterministic
// salts and an in-memory metrics collector. Extra options are applied last.
func NewTestPipeline(t testing.TB, opts ...PipelineOption) (*Pipeline, *InMemoryMetricsCollector) {
	t.Helper()

	metrics := NewInMemoryMetricsCollector()
	all := append([]PipelineOption{
		WithRandom(NewDeterministicReader(0)),
		WithMetricsCollector(metrics),
	}, opts...)

	p, err := New(bytes.Repeat([]byte{0x42}, MasterKeySize), all...)
	if err != nil {
		t.Fatalf("failed to create test pipeline: %v", err)
	}
	return p, metrics
}
