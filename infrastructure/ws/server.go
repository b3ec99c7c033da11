package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"alumnet/auth"
	"alumnet/contract"
	"alumnet/domain"
	"alumnet/services"
)

// rejectTimeout bounds how long the read loop waits to queue an error
// frame for a backlogged session.
const rejectTimeout = 2 * time.Second

// Server upgrades HTTP requests to websocket sessions and drives each
// session's lifecycle: connected on upgrade, joined after the join frame,
// disconnected on transport closure.
type Server struct {
	log      *slog.Logger
	chat     services.IChatService
	verifier auth.Verifier
	upgrader websocket.Upgrader
	validate *validator.Validate

	bufferSize int

	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func NewServer(log *slog.Logger, chat services.IChatService, verifier auth.Verifier,
	allowedOrigins []string, bufferSize int) *Server {
	return &Server{
		log:        log,
		chat:       chat,
		verifier:   verifier,
		upgrader:   newUpgrader(allowedOrigins),
		validate:   validator.New(),
		bufferSize: bufferSize,
		sessions:   make(map[domain.SessionID]*Session),
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin; the token check is what
			// gates them.
			return origin == "" || allowed[origin]
		},
	}
}

// ActiveSinks exposes every open session, joined or not, so presence
// broadcasts reach all of them.
func (s *Server) ActiveSinks() []contract.EventSink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sinks := make([]contract.EventSink, 0, len(s.sessions))
	for _, session := range s.sessions {
		sinks = append(sinks, session)
	}
	return sinks
}

// ServeHTTP handles GET /ws. The handshake token is verified before the
// upgrade: the chat core never sees an unauthenticated participant.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerFromRequest(r)
	if err != nil {
		http.Error(w, "missing token", http.StatusForbidden)
		return
	}
	participant, err := s.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := NewSession(s.log, conn, participant, s.bufferSize)
	s.track(session)
	s.log.Info("session connected",
		"session", string(session.ID), "participant", string(participant))

	go session.writePump()
	s.readLoop(session)
}

// readLoop decodes inbound frames until the transport closes, then runs
// the disconnect path exactly once for this session.
func (s *Server) readLoop(session *Session) {
	joined := false
	defer func() {
		if joined {
			s.chat.Leave(session.Participant, session.ID)
		}
		s.untrack(session)
		session.close()
		_ = session.conn.Close()
		s.log.Info("session disconnected",
			"session", string(session.ID), "joined", joined)
	}()

	for {
		var frame inboundFrame
		if err := session.conn.ReadJSON(&frame); err != nil {
			return
		}
		if err := s.validate.Struct(frame); err != nil {
			s.reject(session, "unknown frame")
			continue
		}

		switch frame.Type {
		case frameJoin:
			if joined {
				continue
			}
			s.chat.Join(session.Participant, session.ID, session)
			joined = true
		case frameSend:
			if !joined {
				s.reject(session, "join first")
				continue
			}
			s.handleSend(session, frame)
		}
	}
}

func (s *Server) handleSend(session *Session, frame inboundFrame) {
	payload := sendPayload{Receiver: frame.Receiver, Content: frame.Content}
	if err := s.validate.Struct(payload); err != nil {
		s.reject(session, "receiver and content are required")
		return
	}

	_, err := s.chat.Send(context.Background(), domain.SendMessageCommand{
		Sender:   session.Participant,
		Receiver: domain.ParticipantID(frame.Receiver),
		Content:  frame.Content,
	})
	if err != nil {
		// Persistence failed: the sender must see a "not sent" signal.
		s.log.Error("send failed",
			"session", string(session.ID), "error", err)
		s.reject(session, "message not sent")
	}
}

func (s *Server) reject(session *Session, reason string) {
	if err := session.Notify(sendFailure{Reason: reason}, rejectTimeout); err != nil {
		s.log.Warn("reject not delivered",
			"session", string(session.ID), "error", err)
	}
}

func (s *Server) track(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *Server) untrack(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session.ID)
}
