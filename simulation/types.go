// Package simulation implements the authoritative railway-station engine:
// topology, block reservation, routing, kinematics, signaling and train
// lifecycle, driven by a fixed-rate tick scheduler.
package simulation

// SectionID identifies an atomic track-occupancy unit.
type SectionID int

// BlockID names a reservation unit grouping one or more sections.
type BlockID string

// StopID names a dwell location.
type StopID string

// TrainID identifies a train for the lifetime of a simulation run.
type TrainID int

// NoTrain is the reservation-table sentinel meaning "nobody holds this".
const NoTrain TrainID = -1

// Geometry classifies a section's track shape, used by the router's
// reverse-move tie-break (spec.md §4.3, property 3: prefer horizontal over
// diagonal when reversing).
type Geometry int

const (
	Horizontal Geometry = iota
	Diagonal
)

func (g Geometry) String() string {
	if g == Diagonal {
		return "diagonal"
	}
	return "horizontal"
}

// Approach is the mandatory direction from which a stop must be entered for
// its dwell to trigger.
type Approach int

const (
	// ApproachFromLower requires the train to arrive from the
	// lower-indexed neighboring section ("left").
	ApproachFromLower Approach = iota
	// ApproachFromHigher requires arrival from the higher-indexed
	// neighboring section ("right").
	ApproachFromHigher
)

// Direction is the signed sense in which a train currently traverses the
// graph: +1 forward, -1 reverse (spec.md §3, Train).
type Direction int8

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// Status is the train lifecycle tag (spec.md §4.5 state machine). Kept as a
// plain sum type switched on directly rather than an interface hierarchy,
// per spec.md §9's inheritance-free design note.
type Status int

const (
	Scheduled Status = iota
	Moving
	Dwelling
	Stuck
	Despawned
)

func (s Status) String() string {
	switch s {
	case Scheduled:
		return "Scheduled"
	case Moving:
		return "Moving"
	case Dwelling:
		return "Dwelling"
	case Stuck:
		return "Stuck"
	case Despawned:
		return "Despawned"
	default:
		return "Unknown"
	}
}
