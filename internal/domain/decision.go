package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TriggerDecision is a fired rebalancing trigger: funds move from Source
// (the relative gainer) into Target (the relative loser). The absence of a
// trigger is represented by a nil *TriggerDecision.
type TriggerDecision struct {
	// Source asset whose relative change is higher.
	Source string `json:"source"`
	// Target asset whose relative change is lower.
	Target string `json:"target"`
	// Score divergence magnitude, always positive.
	Score decimal.Decimal `json:"score"`
	// At timestamp of the trigger, taken from the source asset's latest sample.
	At time.Time `json:"at"`
}

// String returns a human-readable string representation.
func (d *TriggerDecision) String() string {
	return fmt.Sprintf("%s->%s score: %s", d.Source, d.Target, d.Score.String())
}
