package services

import (
	"context"
	"log/slog"
	"time"

	"alumnet/contract"
	"alumnet/domain"
	"alumnet/domain/event"
	"alumnet/errors"
	"alumnet/runtime"
)

// IChatService is the facade both transports (websocket and REST) talk to.
type IChatService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	History(q domain.HistoryQuery) ([]domain.Message, error)
	Join(p domain.ParticipantID, s domain.SessionID, sink contract.EventSink)
	Leave(p domain.ParticipantID, s domain.SessionID)
}

type ChatService struct {
	log              *slog.Logger
	router           *runtime.Router
	registry         contract.Registry
	broadcaster      *runtime.PresenceBroadcaster
	maxContentLength int
}

func NewChatService(log *slog.Logger, router *runtime.Router, registry contract.Registry,
	broadcaster *runtime.PresenceBroadcaster, maxContentLength int) *ChatService {
	return &ChatService{
		log:              log,
		router:           router,
		registry:         registry,
		broadcaster:      broadcaster,
		maxContentLength: maxContentLength,
	}
}

func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if cmd.Content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if s.maxContentLength > 0 && len(cmd.Content) > s.maxContentLength {
		return domain.Message{}, errors.ErrContentTooLong
	}
	return s.router.Send(ctx, cmd)
}

func (s *ChatService) History(q domain.HistoryQuery) ([]domain.Message, error) {
	return s.router.History(q)
}

// Join registers the session as the participant's live presence and
// announces the updated roster to everyone connected.
func (s *ChatService) Join(p domain.ParticipantID, sid domain.SessionID, sink contract.EventSink) {
	s.registry.Register(p, sid, sink)
	s.log.Info("participant joined", "participant", string(p), "session", string(sid))
	s.announce()
}

// Leave drops the presence entry, but only when it still belongs to this
// session: a disconnect racing a reconnect must not evict the newer
// session. The roster is re-announced only when something actually changed.
func (s *ChatService) Leave(p domain.ParticipantID, sid domain.SessionID) {
	if !s.registry.Unregister(p, sid) {
		return
	}
	s.log.Info("participant left", "participant", string(p), "session", string(sid))
	s.announce()
}

func (s *ChatService) announce() {
	s.broadcaster.Announce(event.PresenceSnapshot{
		Online: s.registry.Snapshot(),
		At:     time.Now().UTC(),
	})
}
