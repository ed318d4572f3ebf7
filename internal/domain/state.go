package domain

import "time"

// EngineState is the sole durable record of the engine. Losing it risks at
// worst a redundant or skipped trade; the exchange stays the source of truth
// for balances.
type EngineState struct {
	// LastSampleAt latest recorded sample timestamp per asset.
	LastSampleAt map[string]time.Time `json:"last_sample_at"`
	// LastExecutedKey idempotency key of the last committed trade intent.
	LastExecutedKey string `json:"last_executed_key"`
	// LastTriggerAt timestamp of the last trigger that reached a terminal
	// outcome (committed or rejected). Older triggers are never re-fired.
	LastTriggerAt time.Time `json:"last_trigger_at"`
}

// NewEngineState returns an empty state.
func NewEngineState() *EngineState {
	return &EngineState{LastSampleAt: make(map[string]time.Time)}
}

// Clone returns a deep copy so a tick can mutate state without touching the
// loaded snapshot until persisting.
func (s *EngineState) Clone() *EngineState {
	out := &EngineState{
		LastSampleAt:    make(map[string]time.Time, len(s.LastSampleAt)),
		LastExecutedKey: s.LastExecutedKey,
		LastTriggerAt:   s.LastTriggerAt,
	}
	for asset, ts := range s.LastSampleAt {
		out.LastSampleAt[asset] = ts
	}
	return out
}
