// Package auth implements the flat API-key store and HTTP middleware that
// guard the gateway.
package auth

import (
	"os"
	"strings"
	"sync"

	"sentinel/internal/core"
	"sentinel/internal/observability"
)

// envKeyPrefix is the environment variable prefix LoadFromEnv scans for:
// SENTINEL_API_KEY_<ID>=<key>:<level>.
const envKeyPrefix = "SENTINEL_API_KEY_"

type storedKey struct {
	id    core.ApiKeyId
	level core.AuthLevel
}

// KeyStore is an in-memory, concurrency-safe map of API key value to its
// id and authorization level.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]storedKey
}

// NewKeyStore constructs an empty KeyStore.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]storedKey)}
}

// AddKey registers key under id with the given level.
func (s *KeyStore) AddKey(key string, id core.ApiKeyId, level core.AuthLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = storedKey{id: id, level: level}
}

// ValidateKey checks key's format, then looks it up. It returns the key's
// id on success, or an error describing why authentication failed.
func (s *KeyStore) ValidateKey(key string) (core.ApiKeyId, error) {
	if err := core.ApiKey(key).ValidateFormat(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	sk, ok := s.keys[key]
	if !ok {
		return "", &core.AuthenticationFailedError{Reason: "API key not found"}
	}
	return sk.id, nil
}

// AuthLevel returns the level registered for key, or AuthRead and false if
// key is not registered.
func (s *KeyStore) AuthLevel(key string) (core.AuthLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sk, ok := s.keys[key]
	if !ok {
		return core.AuthRead, false
	}
	return sk.level, true
}

// LoadFromEnv scans the process environment for SENTINEL_API_KEY_<ID>
// variables in the form "<key>:<level>" and registers each valid one.
// Malformed entries (wrong part count, unrecognized level, or a key that
// fails format validation) are logged and skipped rather than aborting
// the whole load. It returns the number of keys successfully loaded.
func (s *KeyStore) LoadFromEnv() int {
	log := observability.Logger
	count := 0

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envKeyPrefix) {
			continue
		}
		idStr := strings.TrimPrefix(name, envKeyPrefix)

		parts := strings.SplitN(value, ":", 2)
		if len(parts) != 2 {
			log.Warn().Str("env", name).Msg("invalid API key format: expected <key>:<level>")
			continue
		}
		key, levelStr := parts[0], strings.ToLower(parts[1])

		var level core.AuthLevel
		switch levelStr {
		case "read":
			level = core.AuthRead
		case "write":
			level = core.AuthWrite
		case "admin":
			level = core.AuthAdmin
		default:
			log.Warn().Str("env", name).Str("level", levelStr).Msg("invalid auth level")
			continue
		}

		if err := core.ApiKey(key).ValidateFormat(); err != nil {
			log.Warn().Str("env", name).Msg("invalid API key format")
			continue
		}

		s.AddKey(key, core.ApiKeyId(idStr), level)
		count++
		log.Info().Str("key_id", idStr).Msg("loaded API key")
	}

	return count
}
