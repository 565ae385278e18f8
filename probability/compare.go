package probability

import (
	"github.com/bcdannyboy/optprice/models"
)

// Comparison holds one request priced by all three models.
type Comparison struct {
	Analytic   models.PricingResult `json:"analytic"`
	Lattice    models.PricingResult `json:"lattice"`
	Simulation models.PricingResult `json:"simulation"`
}

// Compare prices in with the closed form, a steps-step lattice and a
// paths-path simulation. The first failing model aborts the comparison.
func Compare(in models.MarketInputs, steps, paths int, mc models.MonteCarlo, seed *int64) (Comparison, error) {
	var c Comparison
	var err error
	if c.Analytic, err = (models.BlackScholes{}).Price(in); err != nil {
		return Comparison{}, err
	}
	if c.Lattice, err = (models.Binomial{}).Price(in, steps); err != nil {
		return Comparison{}, err
	}
	if c.Simulation, err = mc.Price(in, paths, seed); err != nil {
		return Comparison{}, err
	}
	return c, nil
}

// Results lists the comparison in analytic, lattice, simulation order.
func (c Comparison) Results() []models.PricingResult {
	return []models.PricingResult{c.Analytic, c.Lattice, c.Simulation}
}
