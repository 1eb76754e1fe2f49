package core

import "github.com/google/uuid"

// MessageId uniquely identifies a CanonicalMessage. It serializes as a bare
// UUID string, never as a wrapped object.
type MessageId uuid.UUID

// NewMessageId generates a fresh, random MessageId.
func NewMessageId() MessageId {
	return MessageId(uuid.New())
}

func (id MessageId) String() string {
	return uuid.UUID(id).String()
}

func (id MessageId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *MessageId) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = MessageId(u)
	return nil
}

// ParseMessageId parses a bare UUID string into a MessageId.
func ParseMessageId(s string) (MessageId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return MessageId{}, err
	}
	return MessageId(u), nil
}

// AgentId uniquely identifies an agent/actor. It serializes as a bare UUID
// string, never as a wrapped object.
type AgentId uuid.UUID

// NewAgentId generates a fresh, random AgentId.
func NewAgentId() AgentId {
	return AgentId(uuid.New())
}

func (id AgentId) String() string {
	return uuid.UUID(id).String()
}

func (id AgentId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AgentId) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AgentId(u)
	return nil
}

// ParseAgentId parses a bare UUID string into an AgentId.
func ParseAgentId(s string) (AgentId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AgentId{}, err
	}
	return AgentId(u), nil
}
