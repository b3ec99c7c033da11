package runtime

import (
	"log/slog"
	"sort"
	"sync"

	"alumnet/contract"
	"alumnet/domain"
)

type presence struct {
	session domain.SessionID
	sink    contract.EventSink
}

// Registry is the process-local presence map. One instance is injected into
// the components that need it; it is rebuilt from empty on every restart.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	sessions map[domain.ParticipantID]presence
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[domain.ParticipantID]presence),
	}
}

// Register associates a session with a participant. An existing association
// is replaced: the newest session wins, matching the single-session
// contract for multi-device clients.
func (r *Registry) Register(p domain.ParticipantID, s domain.SessionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[p] = presence{session: s, sink: sink}
}

// Lookup resolves a participant to their live sink. Absence means offline,
// which is a normal branch for the delivery path, not an error.
func (r *Registry) Lookup(p domain.ParticipantID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[p]
	if !ok {
		return nil, false
	}
	return entry.sink, true
}

// Unregister removes the participant's mapping only if the stored session
// still equals s. A disconnect event for a session that has already been
// superseded by a reconnect must not evict the newer session; that stale
// case is a no-op, logged for observability only.
func (r *Registry) Unregister(p domain.ParticipantID, s domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[p]
	if !ok {
		return false
	}
	if entry.session != s {
		r.log.Debug("stale disconnect ignored",
			"participant", string(p),
			"stale_session", string(s),
			"current_session", string(entry.session))
		return false
	}
	delete(r.sessions, p)
	return true
}

// Snapshot lists the participants currently online, sorted for stable
// presence broadcasts.
func (r *Registry) Snapshot() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online := make([]domain.ParticipantID, 0, len(r.sessions))
	for p := range r.sessions {
		online = append(online, p)
	}
	sort.Slice(online, func(i, j int) bool { return online[i] < online[j] })
	return online
}
