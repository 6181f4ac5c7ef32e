package hashicorp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/nqcrypt"
)

// mockVaultServer serves a KV v2 engine mounted at "secret" from memory.
type mockVaultServer struct {
	*httptest.Server

	mu      sync.Mutex
	secrets map[string]map[string]interface{}
	tokens  []string
}

func newMockVaultServer(t *testing.T) *mockVaultServer {
	t.Helper()

	m := &mockVaultServer{secrets: make(map[string]map[string]interface{})}
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/auth/approle/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"auth": {"client_token": "approle-token"}}`))
	})

	mux.HandleFunc("/v1/secret/data/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/v1/secret/data/")

		m.mu.Lock()
		defer m.mu.Unlock()
		m.tokens = append(m.tokens, r.Header.Get("X-Vault-Token"))

		switch r.Method {
		case http.MethodGet:
			data, ok := m.secrets[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"errors": []}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"data":     data,
					"metadata": map[string]interface{}{"version": 1},
				},
			})
		case http.MethodPut, http.MethodPost:
			var body struct {
				Data map[string]interface{} `json:"data"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			m.secrets[path] = body.Data
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/v1/broken/data/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errors": ["internal error"]}`))
	})

	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Close)
	return m
}

func (m *mockVaultServer) put(path string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = data
}

func newTestClient(t *testing.T, addr string) *api.Client {
	t.Helper()

	config := api.DefaultConfig()
	config.Address = addr
	config.MaxRetries = 0

	client, err := api.NewClient(config)
	require.NoError(t, err)
	client.SetToken("test-token")
	return client
}

func TestKVKeySource_StoreAndLoad(t *testing.T) {
	ctx := context.Background()
	server := newMockVaultServer(t)

	src, err := NewKVKeySourceWithClient(newTestClient(t, server.URL), "secret", "nqcrypt/master")
	require.NoError(t, err)
	assert.Equal(t, "secret/data/nqcrypt/master", src.StoragePath())

	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	key := bytes.Repeat([]byte{0x42}, 32)
	require.NoError(t, src.StoreMasterKey(ctx, key))

	got, err := src.MasterKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	exists, err = src.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestKVKeySource_BuildsPipeline(t *testing.T) {
	ctx := context.Background()
	server := newMockVaultServer(t)
	key := bytes.Repeat([]byte{0x07}, 32)
	server.put("nqcrypt/master", map[string]interface{}{"value": base64.StdEncoding.EncodeToString(key)})

	src, err := NewKVKeySourceWithClient(newTestClient(t, server.URL), "", "/nqcrypt/master/")
	require.NoError(t, err)

	p, err := nqcrypt.NewPipelineFromKeySource(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, key, p.MasterKey())
}

func TestKVKeySource_MasterKeyErrors(t *testing.T) {
	ctx := context.Background()
	server := newMockVaultServer(t)
	client := newTestClient(t, server.URL)

	server.put("no-value", map[string]interface{}{"other": "x"})
	server.put("not-base64", map[string]interface{}{"value": "***"})
	server.put("empty", map[string]interface{}{"value": ""})

	tests := []struct {
		name    string
		mount   string
		path    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:  "missing secret",
			mount: "secret",
			path:  "absent",
			checkFn: func(t *testing.T, err error) {
				assert.True(t, nqcrypt.IsNotFoundError(err))
			},
		},
		{
			name:  "no value field",
			mount: "secret",
			path:  "no-value",
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, nqcrypt.ErrInvalidFormat)
			},
		},
		{
			name:  "value not base64",
			mount: "secret",
			path:  "not-base64",
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, nqcrypt.ErrInvalidFormat)
			},
		},
		{
			name:  "empty value",
			mount: "secret",
			path:  "empty",
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, nqcrypt.ErrInvalidFormat)
			},
		},
		{
			name:  "server error",
			mount: "broken",
			path:  "master",
			checkFn: func(t *testing.T, err error) {
				assert.True(t, nqcrypt.IsRetryableError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewKVKeySourceWithClient(client, tt.mount, tt.path)
			require.NoError(t, err)

			_, err = src.MasterKey(ctx)
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestKVKeySource_StoreErrors(t *testing.T) {
	ctx := context.Background()
	server := newMockVaultServer(t)
	client := newTestClient(t, server.URL)

	src, err := NewKVKeySourceWithClient(client, "secret", "k")
	require.NoError(t, err)
	assert.ErrorIs(t, src.StoreMasterKey(ctx, nil), nqcrypt.ErrInvalidConfiguration)

	broken, err := NewKVKeySourceWithClient(client, "broken", "k")
	require.NoError(t, err)
	assert.ErrorIs(t, broken.StoreMasterKey(ctx, []byte{1}), nqcrypt.ErrKeySourceUnavailable)
}

func TestNewKVKeySourceWithClient_Validation(t *testing.T) {
	_, err := NewKVKeySourceWithClient(nil, "secret", "k")
	assert.ErrorIs(t, err, nqcrypt.ErrInvalidConfiguration)

	_, err = NewKVKeySourceWithClient(&api.Client{}, "secret", " / ")
	assert.Error(t, err)

	_, err = NewKVKeySourceWithClient(&api.Client{}, "secret", "")
	assert.ErrorIs(t, err, nqcrypt.ErrInvalidConfiguration)
}

func TestNewKVKeySource_FromEnvironment(t *testing.T) {
	server := newMockVaultServer(t)

	t.Run("token", func(t *testing.T) {
		t.Setenv("VAULT_ADDR", server.URL)
		t.Setenv("VAULT_TOKEN", "env-token")
		t.Setenv("VAULT_NAMESPACE", "admin/test")

		src, err := NewKVKeySource("secret", "nqcrypt/master")
		require.NoError(t, err)
		assert.NotNil(t, src.client)
		assert.Equal(t, "env-token", src.client.Token())
	})

	t.Run("approle", func(t *testing.T) {
		t.Setenv("VAULT_ADDR", server.URL)
		t.Setenv("VAULT_TOKEN", "")
		t.Setenv("VAULT_ROLE_ID", "role")
		t.Setenv("VAULT_SECRET_ID", "secret")

		src, err := NewKVKeySource("secret", "nqcrypt/master")
		require.NoError(t, err)
		assert.Equal(t, "approle-token", src.client.Token())
	})

	t.Run("no auth", func(t *testing.T) {
		t.Setenv("VAULT_ADDR", server.URL)
		t.Setenv("VAULT_TOKEN", "")
		t.Setenv("VAULT_ROLE_ID", "")
		t.Setenv("VAULT_SECRET_ID", "")

		_, err := NewKVKeySource("secret", "nqcrypt/master")
		assert.ErrorIs(t, err, nqcrypt.ErrInvalidConfiguration)
	})
}
