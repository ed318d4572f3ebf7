package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeIntent is a sized conversion order: move Quantity of Source into
// Target. Key identifies the intent across retries and restarts.
type TradeIntent struct {
	Source   string          `json:"source"`
	Target   string          `json:"target"`
	Quantity decimal.Decimal `json:"quantity"`
	Key      string          `json:"key"`
}

// IdempotencyKey derives a deterministic key from the trigger identity, so
// replaying the same trigger after a restart produces the same key.
func IdempotencyKey(source, target string, triggerAt time.Time) string {
	return fmt.Sprintf("%s-%s-%d", strings.ToLower(source), strings.ToLower(target), triggerAt.UnixNano())
}

// String returns a human-readable string representation.
func (i *TradeIntent) String() string {
	return fmt.Sprintf("%s->%s quantity: %s key: %s", i.Source, i.Target, i.Quantity.String(), i.Key)
}
