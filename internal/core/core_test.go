package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, uint64(0), ApproxTokens(""))
	assert.Equal(t, uint64(0), ApproxTokens("abc"))
	assert.Equal(t, uint64(1), ApproxTokens("abcd"))
	assert.Equal(t, uint64(2), ApproxTokens("abcdefgh"))
	// multi-byte runes count as one rune each, not one byte each.
	assert.Equal(t, uint64(1), ApproxTokens("日本語日"))
}

func TestAgentId_RoundTrip(t *testing.T) {
	id := NewAgentId()
	parsed, err := ParseAgentId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	text, err := id.MarshalText()
	require.NoError(t, err)

	var id2 AgentId
	require.NoError(t, id2.UnmarshalText(text))
	assert.Equal(t, id, id2)
}

func TestAgentId_ParseInvalid(t *testing.T) {
	_, err := ParseAgentId("not-a-uuid")
	assert.Error(t, err)
}

func TestMessageId_RoundTrip(t *testing.T) {
	id := NewMessageId()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var id2 MessageId
	require.NoError(t, id2.UnmarshalText(text))
	assert.Equal(t, id, id2)
}

func TestNewCanonicalMessage(t *testing.T) {
	msg := NewCanonicalMessage(RoleUser, "hello")
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Content)
	assert.WithinDuration(t, time.Now().UTC(), msg.Timestamp, time.Second)
	assert.Nil(t, msg.Metadata)
}

func TestNewCanonicalMessageWithMetadata(t *testing.T) {
	msg := NewCanonicalMessageWithMetadata(RoleAssistant, "hi", map[string]string{"k": "v"})
	assert.Equal(t, "v", msg.Metadata["k"])
}

func TestApiKeyId_Validate(t *testing.T) {
	assert.NoError(t, ApiKeyId("agent-01_ok").Validate())
	assert.Error(t, ApiKeyId("").Validate())
	assert.Error(t, ApiKeyId("has a space").Validate())

	var longID string
	for i := 0; i < 256; i++ {
		longID += "a"
	}
	assert.Error(t, ApiKeyId(longID).Validate())
}

func TestApiKey_ValidateFormat(t *testing.T) {
	assert.Error(t, ApiKey("").ValidateFormat())
	assert.Error(t, ApiKey("short").ValidateFormat())
	assert.NoError(t, ApiKey("0123456789abcdef").ValidateFormat())
}

func TestAuthLevel_Satisfies(t *testing.T) {
	assert.True(t, AuthAdmin.Satisfies(AuthRead))
	assert.True(t, AuthAdmin.Satisfies(AuthWrite))
	assert.True(t, AuthAdmin.Satisfies(AuthAdmin))
	assert.True(t, AuthWrite.Satisfies(AuthRead))
	assert.False(t, AuthWrite.Satisfies(AuthAdmin))
	assert.False(t, AuthRead.Satisfies(AuthWrite))
	assert.True(t, AuthRead.Satisfies(AuthRead))
}

func TestAuthLevel_String(t *testing.T) {
	assert.Equal(t, "read", AuthRead.String())
	assert.Equal(t, "write", AuthWrite.String())
	assert.Equal(t, "admin", AuthAdmin.String())
}

func TestErrors_Messages(t *testing.T) {
	assert.Contains(t, (&InvalidStateTransitionError{From: StateIdle, To: StateReflecting}).Error(), "idle")
	assert.Contains(t, (&InvalidMessageError{Reason: "empty content"}).Error(), "empty content")
	assert.Contains(t, (&DomainViolationError{Rule: "no self-reply"}).Error(), "no self-reply")
	assert.Contains(t, (&AuthenticationFailedError{Reason: "bad key"}).Error(), "bad key")
	assert.Contains(t, (&AuthorizationFailedError{Required: AuthAdmin, Actual: AuthRead}).Error(), "admin")
	assert.Contains(t, (&InvalidAPIKeyFormatError{Reason: "too short"}).Error(), "too short")
}
