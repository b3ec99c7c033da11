package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alumnet/domain"
	"alumnet/domain/event"
)

type stubSink struct {
	name string
}

func (s stubSink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	participant := domain.ParticipantID(uuid.NewString())
	session := domain.SessionID(uuid.NewString())
	sink := stubSink{name: "first"}

	// Given nobody is connected
	_, online := registry.Lookup(participant)
	req.False(online)
	req.Empty(registry.Snapshot())

	// When the participant registers a session
	registry.Register(participant, session, sink)

	// Then lookup resolves to their sink
	resolved, online := registry.Lookup(participant)
	req.True(online)
	req.Equal(sink, resolved)
	req.Equal([]domain.ParticipantID{participant}, registry.Snapshot())
}

func TestRegistry_Lookup_Absent_Is_Not_An_Error(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	// Absence is the normal offline branch
	sink, online := registry.Lookup("nobody")
	req.False(online)
	req.Nil(sink)
}

func TestRegistry_Register_Replaces_Previous_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	participant := domain.ParticipantID(uuid.NewString())
	first := stubSink{name: "first"}
	second := stubSink{name: "second"}

	// Given a participant connected on one session
	registry.Register(participant, "s1", first)

	// When they register a second session (new tab, new device)
	registry.Register(participant, "s2", second)

	// Then last writer wins and the roster holds them once
	resolved, online := registry.Lookup(participant)
	req.True(online)
	req.Equal(second, resolved)
	req.Len(registry.Snapshot(), 1)
}

func TestRegistry_Unregister_Removes_Own_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	participant := domain.ParticipantID(uuid.NewString())

	registry.Register(participant, "s1", stubSink{})

	// When the owning session unregisters
	removed := registry.Unregister(participant, "s1")

	// Then the participant is offline
	req.True(removed)
	_, online := registry.Lookup(participant)
	req.False(online)
	req.Empty(registry.Snapshot())
}

func TestRegistry_Stale_Disconnect_Keeps_Newer_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	participant := domain.ParticipantID(uuid.NewString())
	newer := stubSink{name: "newer"}

	// Given S1 registered, then S2 replaced it before S1's disconnect
	// event was processed
	registry.Register(participant, "s1", stubSink{name: "older"})
	registry.Register(participant, "s2", newer)

	// When the stale disconnect for S1 arrives
	removed := registry.Unregister(participant, "s1")

	// Then it is a no-op and S2's mapping stays intact
	req.False(removed)
	resolved, online := registry.Lookup(participant)
	req.True(online)
	req.Equal(newer, resolved)
}

func TestRegistry_Unregister_Unknown_Participant_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	req.False(registry.Unregister("ghost", "s1"))
}

func TestRegistry_Snapshot_Is_Sorted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	registry.Register("carol", "s3", stubSink{})
	registry.Register("alice", "s1", stubSink{})
	registry.Register("bob", "s2", stubSink{})

	req.Equal([]domain.ParticipantID{"alice", "bob", "carol"}, registry.Snapshot())
}
