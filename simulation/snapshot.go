package simulation

// TrainSnapshot is one train's outbound-facing state (spec.md §6).
type TrainSnapshot struct {
	ID            TrainID   `json:"id"`
	Code          string    `json:"code"`
	Status        string    `json:"status"`
	HeadSection   SectionID `json:"headSection"`
	Direction     int8      `json:"direction"`
	DesiredStop   StopID    `json:"desiredStop,omitempty"`
	PriorityIndex int       `json:"priorityIndex"`
}

// WagonSnapshot is one wagon's outbound-facing state (spec.md §6).
type WagonSnapshot struct {
	TrainID  TrainID   `json:"trainId"`
	Index    int       `json:"index"`
	Section  SectionID `json:"section"`
	Offset   float64   `json:"positionOffset"`
}

// ConnectionSnapshot reports a connection's diagnostic state (spec.md §6).
type ConnectionSnapshot struct {
	From   SectionID `json:"from"`
	To     SectionID `json:"to"`
	Active bool      `json:"active"`
}

// Snapshot is the single outbound record emitted at tick step 7 (spec.md
// §4.7, §6). It is a value type: once emitted it is never mutated by the
// engine, so fan-out to slow subscribers is safe.
type Snapshot struct {
	TickIndex      int64                `json:"tickIndex"`
	SimTimeSeconds float64              `json:"simTimeSeconds"`
	Trains         []TrainSnapshot      `json:"trains"`
	Wagons         []WagonSnapshot      `json:"wagons"`
	Connections    []ConnectionSnapshot `json:"connections"`
}

// buildSnapshot renders the current engine state into an immutable
// Snapshot.
func (s *Simulation) buildSnapshot() Snapshot {
	snap := Snapshot{
		TickIndex:      s.tickIndex,
		SimTimeSeconds: s.simTime,
	}
	ids := make([]TrainID, 0, len(s.trains))
	for id := range s.trains {
		ids = append(ids, id)
	}
	sortTrainIDs(ids)

	for _, id := range ids {
		t := s.trains[id]
		var headSection SectionID
		if hw := t.HeadWagon(); hw != nil {
			headSection = hw.Section
		}
		snap.Trains = append(snap.Trains, TrainSnapshot{
			ID:            t.ID,
			Code:          t.Code,
			Status:        t.Status.String(),
			HeadSection:   headSection,
			Direction:     int8(t.Direction),
			DesiredStop:   t.DesiredStop,
			PriorityIndex: t.PriorityIndex,
		})
		for i, w := range t.Wagons {
			snap.Wagons = append(snap.Wagons, WagonSnapshot{
				TrainID: t.ID,
				Index:   i,
				Section: w.Section,
				Offset:  w.Offset,
			})
		}
	}

	for _, c := range s.topo.AllConnections() {
		snap.Connections = append(snap.Connections, ConnectionSnapshot{
			From:   c.From,
			To:     c.To,
			Active: c.Active,
		})
	}
	return snap
}

func sortTrainIDs(ids []TrainID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
