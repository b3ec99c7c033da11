// Package ws is the live transport: one websocket connection per session,
// carrying join/send frames inbound and message/presence frames outbound.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"alumnet/domain"
	"alumnet/domain/event"
)

// Session is one live connection. It is the recipient side of the
// delivery path: the router and the presence broadcaster hand events to
// Consume, and the write pump drains them onto the wire.
//
// A session moves through three states: connected (anonymous), joined
// (bound to its verified participant), disconnected. Only a joined
// session owns a presence entry.
type Session struct {
	ID          domain.SessionID
	Participant domain.ParticipantID

	conn   *websocket.Conn
	events chan event.DomainEvent
	done   chan struct{}
	log    *slog.Logger
}

func NewSession(log *slog.Logger, conn *websocket.Conn,
	participant domain.ParticipantID, bufferSize int) *Session {
	return &Session{
		ID:          domain.SessionID(uuid.NewString()),
		Participant: participant,
		conn:        conn,
		events:      make(chan event.DomainEvent, bufferSize),
		done:        make(chan struct{}),
		log:         log,
	}
}

// Consume is called by the router and the broadcaster.
// It hands the event to the session's write pump without ever blocking:
// a full buffer drops the event, durable state already lives in the store.
func (s *Session) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s closed", s.ID)
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("session buffer full, event dropped",
			"session", string(s.ID), "kind", e.Kind())
		return nil
	}
}

// Notify hands a failure signal to the write pump. Unlike Consume it
// waits for buffer room up to the timeout: a sender must never mistake
// a dropped error frame for a delivered message.
func (s *Session) Notify(e event.DomainEvent, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.events <- e:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s closed", s.ID)
	case <-timer.C:
		return fmt.Errorf("session %s backlogged, signal not delivered", s.ID)
	}
}

// writePump is the only goroutine writing to the connection.
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case evt := <-s.events:
			if err := s.conn.WriteJSON(toFrame(evt)); err != nil {
				s.log.Debug("write failed, closing session",
					"session", string(s.ID), "error", err)
				_ = s.conn.Close()
				return
			}
		}
	}
}

// close releases the write pump. Safe to call once, from the read loop.
func (s *Session) close() {
	close(s.done)
}
