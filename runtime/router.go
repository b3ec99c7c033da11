// Package runtime wires presence, delivery, and background broadcast work.
// It orchestrates the chat core without containing transport or storage
// details.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"alumnet/contract"
	"alumnet/domain"
	"alumnet/domain/event"
	"alumnet/repositories"
)

// Router is the delivery path for outgoing messages: persist first, then
// push to the receiver's live session when one exists. The push is
// fire-and-forget; delivery correctness relies on persistence plus the
// history fetch, never on the push succeeding.
type Router struct {
	log      *slog.Logger
	store    repositories.IMessageRepository
	registry contract.Registry

	mu    sync.Mutex
	pairs map[domain.ConversationKey]*sync.Mutex
}

func NewRouter(log *slog.Logger, store repositories.IMessageRepository, registry contract.Registry) *Router {
	return &Router{
		log:      log,
		store:    store,
		registry: registry,
		pairs:    make(map[domain.ConversationKey]*sync.Mutex),
	}
}

// Send builds the message, persists it, and pushes it to the receiver if
// they are online. A persistence failure aborts the whole operation: no
// push is attempted and the error reaches the transport layer, which must
// surface "not sent" to the sender. A recipient without a live session is
// the normal offline case; the message will appear on their next history
// fetch.
//
// Persistence and push run under a per-conversation lock so the order
// visible in history matches the order live pushes were made for a pair.
func (r *Router) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	message := domain.Message{
		ID:        uuid.New(),
		Sender:    cmd.Sender,
		Receiver:  cmd.Receiver,
		Content:   cmd.Content,
		CreatedAt: time.Now().UTC(),
	}

	lock := r.conversationLock(message.Conversation())
	lock.Lock()
	defer lock.Unlock()

	if err := r.store.Append(message); err != nil {
		return domain.Message{}, err
	}

	sink, online := r.registry.Lookup(cmd.Receiver)
	if !online {
		r.log.Debug("receiver offline, stored only",
			"sender", string(cmd.Sender), "receiver", string(cmd.Receiver))
		return message, nil
	}

	err := sink.Consume(ctx, event.MessageReceived{
		ID:       message.ID,
		Sender:   message.Sender,
		Receiver: message.Receiver,
		Content:  message.Content,
		At:       message.CreatedAt,
	})
	if err != nil {
		// Best-effort push: the message is already durable, the receiver
		// will catch up via history.
		r.log.Warn("live push failed",
			"receiver", string(cmd.Receiver), "error", err)
	}
	return message, nil
}

// History reads through to the store on every call; no caching, so the
// result is exact after every send.
func (r *Router) History(q domain.HistoryQuery) ([]domain.Message, error) {
	return r.store.History(q.A, q.B)
}

func (r *Router) conversationLock(key domain.ConversationKey) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.pairs[key]
	if !ok {
		lock = &sync.Mutex{}
		r.pairs[key] = lock
	}
	return lock
}
