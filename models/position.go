package models

import (
	"fmt"
	"strings"
)

type Side int

const (
	Long Side = iota + 1
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	default:
		return 0, fmt.Errorf("%w: side must be long or short, got %q", ErrInvalidInput, s)
	}
}

// Position is a quantity of one option held long or short, opened at Premium per unit.
type Position struct {
	Inputs   MarketInputs
	Side     Side
	Quantity float64
	Premium  float64
}

func (p Position) sign() float64 {
	switch p.Side {
	case Long:
		return 1
	case Short:
		return -1
	default:
		panic(fmt.Sprintf("models: unhandled side %s", p.Side))
	}
}

// Payoff is the exercise value of the whole position at terminal price sT.
func (p Position) Payoff(sT float64) float64 {
	return p.sign() * p.Quantity * p.Inputs.Intrinsic(sT)
}

// PnL is the payoff net of the premium paid (long) or received (short).
func (p Position) PnL(sT float64) float64 {
	return p.sign() * p.Quantity * (p.Inputs.Intrinsic(sT) - p.Premium)
}

// Signed scales per-unit Greeks by side and quantity.
func (p Position) Signed(g Greeks) Greeks {
	f := p.sign() * p.Quantity
	return Greeks{
		Delta: f * g.Delta,
		Gamma: f * g.Gamma,
		Vega:  f * g.Vega,
		Theta: f * g.Theta,
		Rho:   f * g.Rho,
	}
}
