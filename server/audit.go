package server

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tracktitans/railstation/simulation"
)

// AuditEntry represents a single audit log item sent to FE.
type AuditEntry struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Event     string                 `json:"event"`
	Category  string                 `json:"category"`
	Severity  string                 `json:"severity"`
	Object    map[string]interface{} `json:"object"`
	Details   map[string]interface{} `json:"details"`
}

type auditState struct {
	mu          sync.RWMutex
	entries     []AuditEntry
	capacity    int
	nextID      int64
	subscribers map[chan AuditEntry]bool
}

var audits = &auditState{}

func init() {
	// default capacity for audit ring buffer
	audits.capacity = 1000
	audits.entries = make([]AuditEntry, 0, audits.capacity)
	audits.subscribers = make(map[chan AuditEntry]bool)
}

func (a *auditState) append(entry AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	// assign ID and timestamp if missing
	a.nextID++
	entry.ID = strconv.FormatInt(a.nextID, 10)
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if len(a.entries) == a.capacity {
		// drop the oldest (ring buffer behavior)
		copy(a.entries[0:], a.entries[1:])
		a.entries[len(a.entries)-1] = entry
	} else {
		a.entries = append(a.entries, entry)
	}
	// broadcast non-blocking to subscribers
	for ch := range a.subscribers {
		select {
		case ch <- entry:
		default:
			// drop if subscriber is slow
		}
	}
}

func (a *auditState) subscribe() chan AuditEntry {
	ch := make(chan AuditEntry, 256)
	a.mu.Lock()
	a.subscribers[ch] = true
	a.mu.Unlock()
	return ch
}

func (a *auditState) unsubscribe(ch chan AuditEntry) {
	a.mu.Lock()
	delete(a.subscribers, ch)
	a.mu.Unlock()
	close(ch)
}

// getSince returns up to limit entries with ID strictly greater than sinceID.
func (a *auditState) getSince(sinceID int64, limit int) []AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AuditEntry, 0, limit)
	for i := 0; i < len(a.entries); i++ {
		id, _ := strconv.ParseInt(a.entries[i].ID, 10, 64)
		if id > sinceID {
			out = append(out, a.entries[i])
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// recordAuditFromEvent converts a simulation event to an AuditEntry and
// appends it to the ring buffer.
func recordAuditFromEvent(e *simulation.Event) {
	if e == nil {
		return
	}
	entry := AuditEntry{
		Severity: "INFO",
		Object:   map[string]interface{}{},
		Details:  map[string]interface{}{},
	}
	switch e.Name {
	case simulation.TrainSpawnedEvent:
		entry.Event = "TRAIN_SPAWNED"
		entry.Category = "train"
		if t, ok := e.Object.(*simulation.Train); ok {
			entry.Object["id"] = int(t.ID)
			entry.Object["code"] = t.Code
		}
	case simulation.TrainDespawnedEvent:
		entry.Event = "TRAIN_DESPAWNED"
		entry.Category = "train"
		if t, ok := e.Object.(*simulation.Train); ok {
			entry.Object["id"] = int(t.ID)
			entry.Object["code"] = t.Code
		}
	case simulation.TrainDwellStartedEvent:
		entry.Event = "TRAIN_DWELL_STARTED"
		entry.Category = "train"
		if t, ok := e.Object.(*simulation.Train); ok {
			entry.Object["id"] = int(t.ID)
			entry.Details["stop"] = string(t.DesiredStop)
		}
	case simulation.TrainDwellEndedEvent:
		entry.Event = "TRAIN_DWELL_ENDED"
		entry.Category = "train"
		if t, ok := e.Object.(*simulation.Train); ok {
			entry.Object["id"] = int(t.ID)
		}
	case simulation.TrainStuckEvent:
		entry.Event = "TRAIN_STUCK"
		entry.Category = "train"
		entry.Severity = "WARN"
		if t, ok := e.Object.(*simulation.Train); ok {
			entry.Object["id"] = int(t.ID)
		}
	case simulation.TrainReplannedEvent:
		entry.Event = "TRAIN_REPLANNED"
		entry.Category = "train"
		if t, ok := e.Object.(*simulation.Train); ok {
			entry.Object["id"] = int(t.ID)
		}
	case simulation.ConnectionToggledEvent:
		entry.Event = "CONNECTION_TOGGLED"
		entry.Category = "topology"
		if c, ok := e.Object.(*simulation.SetConnectionActiveCommand); ok {
			entry.Details["from"] = int(c.From)
			entry.Details["to"] = int(c.To)
			entry.Details["active"] = c.Active
		}
	case simulation.SpawnRejectedEvent:
		entry.Event = "SPAWN_REJECTED"
		entry.Category = "train"
		entry.Severity = "WARN"
		if err, ok := e.Object.(error); ok {
			entry.Details["reason"] = err.Error()
		}
	case simulation.SwitchRejectedEvent:
		entry.Event = "SWITCH_REJECTED"
		entry.Category = "topology"
		entry.Severity = "WARN"
		if err, ok := e.Object.(error); ok {
			entry.Details["reason"] = err.Error()
		}
	case simulation.InvariantViolationEvent:
		entry.Event = "INVARIANT_VIOLATION"
		entry.Category = "system"
		entry.Severity = "CRIT"
		if err, ok := e.Object.(error); ok {
			entry.Details["which"] = err.Error()
		}
	default:
		// ignore the very chatty per-tick/per-recompute events by default
		if e.Name == simulation.TickCompletedEvent || e.Name == simulation.SuggestionsUpdatedEvent {
			return
		}
		entry.Event = strings.ToUpper(string(e.Name))
		entry.Category = "system"
	}
	audits.append(entry)
}
