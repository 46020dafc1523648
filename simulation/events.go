package simulation

import "sync"

// EventName tags the kind of notification carried by an Event, mirroring
// the teacher's simulation.Event / sendEvent convention used to feed the
// server's audit log and metrics aggregator without coupling the engine to
// either.
type EventName string

const (
	TrainSpawnedEvent         EventName = "trainSpawned"
	TrainDespawnedEvent       EventName = "trainDespawned"
	TrainDwellStartedEvent    EventName = "trainDwellStarted"
	TrainDwellEndedEvent      EventName = "trainDwellEnded"
	TrainStuckEvent           EventName = "trainStuck"
	TrainReplannedEvent       EventName = "trainReplanned"
	TrainDeniedEvent          EventName = "trainDenied"
	ConnectionToggledEvent    EventName = "connectionToggled"
	SpawnRejectedEvent        EventName = "spawnRejected"
	SwitchRejectedEvent       EventName = "switchRejected"
	SuggestionsUpdatedEvent   EventName = "suggestionsUpdated"
	TickCompletedEvent        EventName = "tickCompleted"
	InvariantViolationEvent   EventName = "invariantViolation"
)

// Event is a single notification emitted by the Simulation as it runs.
// Object carries an event-specific payload (e.g. *Train,
// *SetConnectionActiveCommand, error, *Snapshot); a
// subscriber type-switches on Name to know what Object holds.
type Event struct {
	Name   EventName
	Object interface{}
}

// EventSink receives Events emitted by a Simulation. Together with the
// snapshot feed (SubscribeSnapshots, LatestSnapshotForMetrics), subscribing
// is how code outside the simulation package observes engine activity
// without module-level mutable state (spec.md §5, §9).
type EventSink func(*Event)

type eventBus struct {
	mu   sync.RWMutex
	subs []EventSink
}

// Subscribe registers a sink that receives every Event from this point on.
// The subscriber list is mutex-guarded, so it may be called while the tick
// loop runs; it is normally wired at startup.
func (b *eventBus) Subscribe(sink EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sink)
}

func (b *eventBus) emit(e *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s(e)
	}
}
