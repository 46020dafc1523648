package simulation

import "time"

// Options tunes the engine's timing and arbitration constants. Defaults
// match the values named in spec.md; all are overridable so a topology or
// operator can retune without a rebuild, the way the teacher's
// simulation.Options exposes TimeFactor/SuggestionsEnabled/etc.
type Options struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// TickRate is the scheduler cadence in Hz (spec.md §4.7 default 10).
	TickRate float64 `json:"tickRate"`

	// SpeedMultiplier scales simulated time per wall-clock tick.
	SpeedMultiplier float64 `json:"speedMultiplier"`

	// ReversePenalty is added to a reversing edge's cost in the router
	// (spec.md §4.3, default large e.g. 50).
	ReversePenalty float64 `json:"reversePenalty"`

	// BlockGraceTicks is how many consecutive denied ticks a train
	// tolerates before triggering a replan (spec.md §4.3, §4.5).
	BlockGraceTicks int `json:"blockGraceTicks"`

	// AdmissionEpsilon is the offset-to-boundary distance within which a
	// train's head is evaluated for next-section admission (spec.md
	// §4.5).
	AdmissionEpsilon float64 `json:"admissionEpsilon"`

	// DwellSeconds is the default stop dwell duration in simulated
	// seconds (spec.md §3, default 5).
	DwellSeconds float64 `json:"dwellSeconds"`

	// BoundedLookaheadSteps bounds the Reservation Table's "can also
	// leave" deadlock check (spec.md §4.2).
	BoundedLookaheadSteps int `json:"boundedLookaheadSteps"`

	// SuggestionsEnabled toggles the read-only advisory engine.
	SuggestionsEnabled bool `json:"suggestionsEnabled"`
	// SuggestionsIntervalSeconds throttles suggestion recomputation.
	SuggestionsIntervalSeconds float64 `json:"suggestionsIntervalSeconds"`
	// SuggestMaxItems caps the number of suggestions surfaced at once.
	SuggestMaxItems int `json:"suggestMaxItems"`
}

// DefaultOptions returns the spec-named defaults.
func DefaultOptions() Options {
	return Options{
		Title:                      "Station",
		TickRate:                   10,
		SpeedMultiplier:            1.0,
		ReversePenalty:             50,
		BlockGraceTicks:            30,
		AdmissionEpsilon:           1e-6,
		DwellSeconds:               5,
		BoundedLookaheadSteps:      4,
		SuggestionsEnabled:         true,
		SuggestionsIntervalSeconds: 5,
		SuggestMaxItems:            50,
	}
}

// TickDuration is the wall-clock period between ticks at the configured
// TickRate.
func (o Options) TickDuration() time.Duration {
	if o.TickRate <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(float64(time.Second) / o.TickRate)
}

// SimSecondsPerTick is how much simulated time one tick advances, after
// applying SpeedMultiplier.
func (o Options) SimSecondsPerTick() float64 {
	mult := o.SpeedMultiplier
	if mult <= 0 {
		mult = 1
	}
	rate := o.TickRate
	if rate <= 0 {
		rate = 10
	}
	return mult / rate
}
