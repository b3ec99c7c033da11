// Package domain contains core concepts of the direct-message chat system.
// This file defines Message values and conversation identity rules.
// Messages are immutable once created.
package domain

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ParticipantID is an opaque identifier assigned by the identity system.
// The chat core owns no participant attributes beyond it.
type ParticipantID string

// SessionID identifies one live transport connection. A participant may
// reconnect under a new SessionID at any time.
type SessionID string

// Message represents an immutable direct message between two participants.
type Message struct {
	ID        uuid.UUID // unique identifier
	Sender    ParticipantID
	Receiver  ParticipantID
	Content   string
	CreatedAt time.Time
}

// Conversation returns the key of the unordered pair this message belongs to.
func (m Message) Conversation() ConversationKey {
	return Conversation(m.Sender, m.Receiver)
}

// ConversationKey identifies the unordered pair of participants of a 1:1
// conversation. Conversation(a, b) == Conversation(b, a).
type ConversationKey string

// Conversation builds the key of an unordered pair. Participant IDs are
// opaque and may contain any byte, so each side is percent-escaped before
// joining; the separator and the ":" used by store key layouts can never
// appear unescaped inside a segment, keeping distinct pairs distinct.
func Conversation(a, b ParticipantID) ConversationKey {
	if b < a {
		a, b = b, a
	}
	return ConversationKey(url.QueryEscape(string(a)) + "|" + url.QueryEscape(string(b)))
}
