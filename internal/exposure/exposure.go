// Package exposure enforces portfolio-level position caps during
// simulation. Reads risk state; the evaluation engine owns the mutation.
package exposure

import (
	"fmt"

	"options-edge-lab/internal/domain"
)

// DefaultMaxOpenTrades caps concurrent positions when no explicit cap is given.
const DefaultMaxOpenTrades = 3

// State is a point-in-time read of portfolio exposure.
type State struct {
	OpenTrades         int
	MaxOpenTrades      int
	CanOpenNewPosition bool
	Reasons            []string
}

// StateFor evaluates whether a new position may be opened under the cap.
// maxOpen <= 0 falls back to DefaultMaxOpenTrades.
func StateFor(risk domain.RiskState, maxOpen int) State {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenTrades
	}

	s := State{
		OpenTrades:    risk.OpenTrades,
		MaxOpenTrades: maxOpen,
	}

	if risk.OpenTrades < maxOpen {
		s.CanOpenNewPosition = true
		return s
	}

	s.Reasons = append(s.Reasons,
		fmt.Sprintf("open positions at cap: %d of %d concurrent trades in use", risk.OpenTrades, maxOpen))
	return s
}
