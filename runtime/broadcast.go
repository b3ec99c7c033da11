package runtime

import (
	"context"
	"log/slog"
	"time"

	"alumnet/contract"
	"alumnet/domain/event"
)

// PresenceBroadcaster fans presence snapshots out to every connected
// session.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. It is informational only: a lost
// snapshot is corrected by the next one.
type PresenceBroadcaster struct {
	Log       *slog.Logger
	Events    chan event.DomainEvent
	directory contract.SinkDirectory
	timeout   time.Duration
}

func NewPresenceBroadcaster(log *slog.Logger, bufferSize int, timeout time.Duration) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		Log:     log,
		Events:  make(chan event.DomainEvent, bufferSize),
		timeout: timeout,
	}
}

// Attach sets the directory of live sessions. Called once during wiring,
// before Run; the transport that owns the sessions is built after the
// broadcaster.
func (w *PresenceBroadcaster) Attach(directory contract.SinkDirectory) {
	w.directory = directory
}

// Announce queues an event for broadcast without blocking the caller.
// When the buffer is full the event is dropped; presence is self-healing.
func (w *PresenceBroadcaster) Announce(e event.DomainEvent) {
	select {
	case w.Events <- e:
	default:
		w.Log.Warn("presence event dropped, broadcast buffer full")
	}
}

func (w *PresenceBroadcaster) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.Events:
			w.fanout(ctx, evt)
		case <-ctx.Done():
			w.Log.Debug("context done, stopping presence broadcast")
			return nil
		}
	}
}

// fanout one Consume per sink, each bounded by the sink timeout so a slow
// session cannot stall the broadcast loop.
func (w *PresenceBroadcaster) fanout(ctx context.Context, evt event.DomainEvent) {
	if w.directory == nil {
		return
	}
	for _, sink := range w.directory.ActiveSinks() {
		sinkCtx, cancel := context.WithTimeout(ctx, w.timeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.Log.Debug("presence broadcast skipped a session", "error", err)
		}
		cancel()
	}
}
