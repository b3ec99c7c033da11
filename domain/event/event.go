package event

import (
	"time"

	"github.com/google/uuid"

	"alumnet/domain"
)

type DomainEvent interface {
	Kind() string
}

// MessageReceived is pushed to the receiver's live session after the
// message has been durably persisted.
type MessageReceived struct {
	ID       uuid.UUID
	Sender   domain.ParticipantID
	Receiver domain.ParticipantID
	Content  string
	At       time.Time
}

func (MessageReceived) Kind() string { return "receive_message" }

// PresenceSnapshot carries the full list of online participants. Broadcast
// best-effort to every connected session on join and disconnect.
type PresenceSnapshot struct {
	Online []domain.ParticipantID
	At     time.Time
}

func (PresenceSnapshot) Kind() string { return "online_users" }
