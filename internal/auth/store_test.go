package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/core"
)

func TestKeyStore_AddAndValidate(t *testing.T) {
	t.Parallel()
	store := NewKeyStore()
	key := "sk-1234567890123456"
	store.AddKey(key, core.ApiKeyId("test-key"), core.AuthWrite)

	id, err := store.ValidateKey(key)
	require.NoError(t, err)
	assert.Equal(t, core.ApiKeyId("test-key"), id)
}

func TestKeyStore_ValidateKey_NotFound(t *testing.T) {
	t.Parallel()
	store := NewKeyStore()

	_, err := store.ValidateKey("sk-1234567890123456")
	assert.Error(t, err)
}

func TestKeyStore_ValidateKey_BadFormat(t *testing.T) {
	t.Parallel()
	store := NewKeyStore()

	_, err := store.ValidateKey("too-short")
	var formatErr *core.InvalidAPIKeyFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestKeyStore_AuthLevel(t *testing.T) {
	t.Parallel()
	store := NewKeyStore()
	key := "sk-1234567890123456"
	store.AddKey(key, core.ApiKeyId("test-key"), core.AuthAdmin)

	level, ok := store.AuthLevel(key)
	require.True(t, ok)
	assert.Equal(t, core.AuthAdmin, level)

	_, ok = store.AuthLevel("unknown-key-value")
	assert.False(t, ok)
}

func TestKeyStore_LoadFromEnv(t *testing.T) {
	t.Setenv("SENTINEL_API_KEY_VENDOR1", "sk-1234567890123456:write")
	t.Setenv("SENTINEL_API_KEY_BADLEVEL", "sk-1234567890123456:bogus")
	t.Setenv("SENTINEL_API_KEY_BADSHAPE", "no-colon-here")
	t.Setenv("SENTINEL_API_KEY_SHORT", "short:read")
	os.Unsetenv("UNRELATED_VAR")

	store := NewKeyStore()
	count := store.LoadFromEnv()
	assert.Equal(t, 1, count)

	level, ok := store.AuthLevel("sk-1234567890123456")
	require.True(t, ok)
	assert.Equal(t, core.AuthWrite, level)
}

func TestExtractAPIKey(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer sk-1234567890123456")
	key, ok := extractAPIKey(req)
	require.True(t, ok)
	assert.Equal(t, "sk-1234567890123456", key)

	req = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "ApiKey sk-1234567890123456")
	key, ok = extractAPIKey(req)
	require.True(t, ok)
	assert.Equal(t, "sk-1234567890123456", key)

	req = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	_, ok = extractAPIKey(req)
	assert.False(t, ok)
}

func TestRequireLevel(t *testing.T) {
	t.Parallel()
	store := NewKeyStore()
	store.AddKey("sk-1234567890123456", core.ApiKeyId("reader"), core.AuthRead)

	handler := RequireLevel(store, core.AuthWrite)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing_authorization")
	})

	t.Run("invalid key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer sk-0000000000000000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_api_key")
	})

	t.Run("insufficient permissions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer sk-1234567890123456")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient_permissions")
	})

	t.Run("authorized", func(t *testing.T) {
		writeHandler := RequireLevel(store, core.AuthRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := InfoFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, core.ApiKeyId("reader"), info.KeyID)
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer sk-1234567890123456")
		rec := httptest.NewRecorder()
		writeHandler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
