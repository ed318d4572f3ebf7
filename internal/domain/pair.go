// Package domain defines core data structures used throughout the rebalancer.
package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pair holds the two assets whose relative value is balanced against each
// other. Order matters only for reporting; triggers fire symmetrically.
type Pair struct {
	// A first asset symbol.
	A string
	// B second asset symbol.
	B string
}

// NewPair validates and builds a pair.
func NewPair(a, b string) (Pair, error) {
	if a == "" || b == "" {
		return Pair{}, errors.New("both pair assets must be set")
	}
	if a == b {
		return Pair{}, errors.Errorf("pair assets must differ, got %s twice", a)
	}
	return Pair{A: a, B: b}, nil
}

// PairFromString parses "A_B" into a pair.
func PairFromString(s string) (Pair, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return Pair{}, errors.Errorf("invalid pair %q, expected format A_B", s)
	}
	return NewPair(parts[0], parts[1])
}

// Assets returns both symbols in declaration order.
func (p Pair) Assets() []string {
	return []string{p.A, p.B}
}

// Other returns the opposite leg of the pair.
func (p Pair) Other(asset string) string {
	if asset == p.A {
		return p.B
	}
	return p.A
}

// Contains reports whether asset is one of the pair's legs.
func (p Pair) Contains(asset string) bool {
	return asset == p.A || asset == p.B
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.A, p.B)
}
