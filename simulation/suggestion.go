package simulation

import (
	"fmt"
	"sort"
	"time"
)

// SuggestionKind categorizes an advisory hint surfaced to an operator. The
// engine never acts on these itself; they are read-only recommendations
// (SPEC_FULL.md §4, adapted from the teacher's suggestion engine).
type SuggestionKind string

const (
	SuggestionReplanDue        SuggestionKind = "REPLAN_DUE"
	SuggestionTrainStuck       SuggestionKind = "TRAIN_STUCK"
	SuggestionConvergingTrains SuggestionKind = "CONVERGING_TRAINS"
	SuggestionDenialStreak     SuggestionKind = "DENIAL_STREAK"
)

// SuggestionAction labels the follow-up an operator could take on a
// Suggestion, in the shape of the teacher's hub object/action addressing.
// The labels the generators below produce (train/replan,
// topology/review-connections, trains/review-priority) are descriptive; no
// hub object dispatches them.
type SuggestionAction struct {
	Object string                 `json:"object"`
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params"`
}

// Suggestion is one scored, explained recommendation.
type Suggestion struct {
	ID      string             `json:"id"`
	Kind    SuggestionKind     `json:"kind"`
	Title   string             `json:"title"`
	Reason  string             `json:"reason"`
	Score   float64            `json:"score"`
	Actions []SuggestionAction `json:"actions"`
}

// SuggestionReport is the outbound wrapper for a computed batch of
// suggestions (spec.md's suggestion-engine supplement, see SPEC_FULL.md
// §4).
type SuggestionReport struct {
	Items       []Suggestion `json:"items"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// suggestionEngineState carries the throttling and cooldown bookkeeping
// across ticks; it lives on the Simulation rather than as package-level
// state (spec.md §9: no module-level mutable state).
type suggestionEngineState struct {
	lastComputed  time.Time
	rejectedUntil map[string]time.Time
}

// RecomputeSuggestions regenerates Suggestions if the configured interval
// has elapsed since the last computation. Throttled by
// Options.SuggestionsIntervalSeconds.
func (s *Simulation) RecomputeSuggestions() {
	if s.suggestState == nil {
		s.suggestState = &suggestionEngineState{rejectedUntil: make(map[string]time.Time)}
	}
	now := time.Now()
	interval := time.Duration(s.Options.SuggestionsIntervalSeconds * float64(time.Second))
	if interval > 0 && !s.suggestState.lastComputed.IsZero() && now.Sub(s.suggestState.lastComputed) < interval {
		return
	}
	s.suggestState.lastComputed = now

	var items []Suggestion
	items = append(items, s.suggestReplanDue()...)
	items = append(items, s.suggestStuck()...)
	items = append(items, s.suggestConverging()...)
	items = append(items, s.suggestDenialStreaks()...)

	filtered := items[:0]
	for _, it := range items {
		if until, rejected := s.suggestState.rejectedUntil[it.ID]; rejected && now.Before(until) {
			continue
		}
		filtered = append(filtered, it)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
	if max := s.Options.SuggestMaxItems; max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}

	report := &SuggestionReport{Items: filtered, GeneratedAt: now}
	s.Suggestions = report
	s.bus.emit(&Event{Name: SuggestionsUpdatedEvent, Object: report})
}

// RejectSuggestion silences a suggestion id for the given cooldown.
func (s *Simulation) RejectSuggestion(id string, cooldown time.Duration) {
	if s.suggestState == nil {
		s.suggestState = &suggestionEngineState{rejectedUntil: make(map[string]time.Time)}
	}
	s.suggestState.rejectedUntil[id] = time.Now().Add(cooldown)
}

func (s *Simulation) suggestReplanDue() []Suggestion {
	var out []Suggestion
	for _, t := range s.trains {
		if t.Status != Moving || t.Plan == nil {
			continue
		}
		if t.DeniedTicks < s.Options.BlockGraceTicks/2 || t.DeniedTicks >= s.Options.BlockGraceTicks {
			continue
		}
		out = append(out, Suggestion{
			ID:     fmt.Sprintf("replan-due-%d", t.ID),
			Kind:   SuggestionReplanDue,
			Title:  fmt.Sprintf("Train %s nearing its grace limit", t.Code),
			Reason: fmt.Sprintf("denied %d of %d tolerated ticks", t.DeniedTicks, s.Options.BlockGraceTicks),
			Score:  float64(t.DeniedTicks),
			Actions: []SuggestionAction{{
				Object: "train",
				Action: "replan",
				Params: map[string]interface{}{"trainId": int(t.ID)},
			}},
		})
	}
	return out
}

func (s *Simulation) suggestStuck() []Suggestion {
	var out []Suggestion
	for _, t := range s.trains {
		if t.Status != Stuck {
			continue
		}
		out = append(out, Suggestion{
			ID:     fmt.Sprintf("stuck-%d", t.ID),
			Kind:   SuggestionTrainStuck,
			Title:  fmt.Sprintf("Train %s has no route", t.Code),
			Reason: "no path to its goal under the current active-connection graph",
			Score:  1000,
			Actions: []SuggestionAction{{
				Object: "topology",
				Action: "review-connections",
				Params: map[string]interface{}{"trainId": int(t.ID)},
			}},
		})
	}
	return out
}

func (s *Simulation) suggestConverging() []Suggestion {
	targets := make(map[SectionID][]*Train)
	for _, t := range s.trains {
		if t.Status != Moving || t.Plan == nil {
			continue
		}
		goal, ok := t.Plan.Goal()
		if !ok {
			continue
		}
		targets[goal] = append(targets[goal], t)
	}
	var out []Suggestion
	for section, ts := range targets {
		if len(ts) < 2 {
			continue
		}
		ids := make([]int, len(ts))
		for i, t := range ts {
			ids[i] = int(t.ID)
		}
		out = append(out, Suggestion{
			ID:     fmt.Sprintf("converging-%d", section),
			Kind:   SuggestionConvergingTrains,
			Title:  fmt.Sprintf("%d trains converging on section %d", len(ts), section),
			Reason: "multiple trains target the same section; priority arbitration will apply",
			Score:  float64(len(ts)) * 10,
			Actions: []SuggestionAction{{
				Object: "trains",
				Action: "review-priority",
				Params: map[string]interface{}{"trainIds": ids, "section": int(section)},
			}},
		})
	}
	return out
}

func (s *Simulation) suggestDenialStreaks() []Suggestion {
	var out []Suggestion
	for _, t := range s.trains {
		if t.DeniedTicks < 3 {
			continue
		}
		out = append(out, Suggestion{
			ID:     fmt.Sprintf("denial-streak-%d", t.ID),
			Kind:   SuggestionDenialStreak,
			Title:  fmt.Sprintf("Train %s repeatedly denied", t.Code),
			Reason: fmt.Sprintf("%d consecutive ticks without admission", t.DeniedTicks),
			Score:  float64(t.DeniedTicks) * 2,
		})
	}
	return out
}
