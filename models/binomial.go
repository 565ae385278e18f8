package models

import (
	"fmt"
	"math"
)

// Binomial prices European options on a Cox-Ross-Rubinstein recombining tree.
type Binomial struct{}

// Price runs backward induction over steps time steps. Only two adjacent layers
// of the lattice are held at once.
func (Binomial) Price(in MarketInputs, steps int) (PricingResult, error) {
	if err := in.Validate(); err != nil {
		return PricingResult{}, err
	}
	if steps <= 0 {
		return PricingResult{}, &ParameterError{Name: "steps", Value: steps}
	}

	dt := in.maturity / float64(steps)
	jump := in.volatility * math.Sqrt(dt)
	u := math.Exp(jump)
	d := 1 / u
	p := (math.Exp((in.rate-in.dividend)*dt) - d) / (u - d)
	if math.IsNaN(p) || p < 0 || p > 1 {
		return PricingResult{}, &InstabilityError{
			Model:  ModelBinomial,
			Detail: fmt.Sprintf("risk-neutral probability %v outside [0,1] (dt=%v, u=%v)", p, dt, u),
		}
	}
	disc := math.Exp(-in.rate * dt)

	// layer[k] holds the node with k up moves
	next := make([]float64, steps+1)
	for k := 0; k <= steps; k++ {
		sT := in.spot * math.Exp(jump*float64(2*k-steps))
		next[k] = payoff(in.optionType, sT, in.strike)
		if math.IsInf(next[k], 0) {
			return PricingResult{}, &InstabilityError{
				Model:  ModelBinomial,
				Detail: fmt.Sprintf("terminal payoff overflows at node %d of %d (sigma*sqrt(T*steps)=%v)", k, steps, jump*float64(steps)),
			}
		}
	}

	cur := make([]float64, steps)
	for j := steps - 1; j >= 0; j-- {
		for k := 0; k <= j; k++ {
			cur[k] = disc * (p*next[k+1] + (1-p)*next[k])
		}
		cur, next = next, cur
	}

	if math.IsNaN(next[0]) || math.IsInf(next[0], 0) {
		return PricingResult{}, &InstabilityError{
			Model:  ModelBinomial,
			Detail: fmt.Sprintf("non-finite root value %v", next[0]),
		}
	}

	return PricingResult{
		Model:      ModelBinomial,
		Price:      math.Max(next[0], 0),
		Resolution: steps,
	}, nil
}
