//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"alumnet/domain"
	"alumnet/domain/event"
)

// EventSink is one live session's inbox. Consume must never block on I/O;
// transport implementations buffer and drop rather than stall the caller.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Registry tracks which participants currently hold a live session.
// All operations are in-memory, total, and safe for concurrent use.
// Absence is a normal lookup result, not a failure.
type Registry interface {
	// Register associates the session with the participant, replacing any
	// previous association (single-session-wins).
	Register(p domain.ParticipantID, s domain.SessionID, sink EventSink)
	// Lookup resolves a participant to their live sink, if any.
	Lookup(p domain.ParticipantID) (EventSink, bool)
	// Unregister removes the mapping only if the stored session still
	// equals s. Returns false when a newer session has superseded it.
	Unregister(p domain.ParticipantID, s domain.SessionID) bool
	// Snapshot lists the participants currently online.
	Snapshot() []domain.ParticipantID
}

// SinkDirectory exposes every connected session's sink, joined or not,
// for best-effort broadcasts.
type SinkDirectory interface {
	ActiveSinks() []EventSink
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type WorkerName string

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
