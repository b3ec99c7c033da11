package ws

import (
	"time"

	"github.com/samber/lo"

	"alumnet/domain"
	"alumnet/domain/event"
)

// Inbound frame kinds.
const (
	frameJoin = "join"
	frameSend = "send_message"
)

// Outbound frame kinds.
const (
	frameReceive  = "receive_message"
	framePresence = "online_users"
	frameError    = "error"
)

// inboundFrame is what clients write on the socket. Join carries nothing:
// the participant identity comes from the verified handshake token, not
// from the client.
type inboundFrame struct {
	Type     string `json:"type" validate:"required,oneof=join send_message"`
	Receiver string `json:"receiver,omitempty"`
	Content  string `json:"content,omitempty"`
}

// sendPayload is the validated shape of a send_message frame.
type sendPayload struct {
	Receiver string `validate:"required"`
	Content  string `validate:"required"`
}

type outboundFrame struct {
	Type    string       `json:"type"`
	Message *messageBody `json:"message,omitempty"`
	Online  []string     `json:"online,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type messageBody struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender_id"`
	Receiver  string    `json:"receiver_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// sendFailure is a transport-local event: it rides the session's event
// channel so the write pump stays the only writer on the connection.
type sendFailure struct {
	Reason string
}

func (sendFailure) Kind() string { return frameError }

func toFrame(e event.DomainEvent) outboundFrame {
	switch evt := e.(type) {
	case event.MessageReceived:
		return outboundFrame{
			Type: frameReceive,
			Message: &messageBody{
				ID:        evt.ID.String(),
				Sender:    string(evt.Sender),
				Receiver:  string(evt.Receiver),
				Content:   evt.Content,
				CreatedAt: evt.At,
			},
		}
	case event.PresenceSnapshot:
		return outboundFrame{
			Type: framePresence,
			Online: lo.Map(evt.Online, func(p domain.ParticipantID, _ int) string {
				return string(p)
			}),
		}
	case sendFailure:
		return outboundFrame{Type: frameError, Error: evt.Reason}
	default:
		return outboundFrame{Type: e.Kind()}
	}
}
