package positions

import (
	"github.com/bcdannyboy/optprice/models"
	"gonum.org/v1/gonum/floats"
)

const (
	profileLow  = 0.5
	profileHigh = 1.5
)

type PnLPoint struct {
	Spot   float64 `json:"spot"`
	Payoff float64 `json:"payoff"`
	PnL    float64 `json:"pnl"`
}

type GreekPoint struct {
	Spot   float64       `json:"spot"`
	Price  float64       `json:"price"`
	Greeks models.Greeks `json:"greeks"`
}

// spotGrid spans [0.5K, 1.5K] with n evenly spaced points.
func spotGrid(strike float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, &models.ParameterError{Name: "points", Value: n}
	}
	return floats.Span(make([]float64, n), profileLow*strike, profileHigh*strike), nil
}

// PnLProfile evaluates the position at expiry across the strike neighbourhood.
func PnLProfile(pos models.Position, points int) ([]PnLPoint, error) {
	if err := validatePosition(pos); err != nil {
		return nil, err
	}
	grid, err := spotGrid(pos.Inputs.Strike(), points)
	if err != nil {
		return nil, err
	}

	out := make([]PnLPoint, len(grid))
	for i, s := range grid {
		out[i] = PnLPoint{Spot: s, Payoff: pos.Payoff(s), PnL: pos.PnL(s)}
	}
	return out, nil
}

// GreekProfile reprices in with the closed form at each spot on the grid.
func GreekProfile(in models.MarketInputs, points int) ([]GreekPoint, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	grid, err := spotGrid(in.Strike(), points)
	if err != nil {
		return nil, err
	}

	out := make([]GreekPoint, len(grid))
	for i, s := range grid {
		moved, err := in.WithSpot(s)
		if err != nil {
			return nil, err
		}
		res, err := models.BlackScholes{}.Price(moved)
		if err != nil {
			return nil, err
		}
		out[i] = GreekPoint{Spot: s, Price: res.Price, Greeks: *res.Greeks}
	}
	return out, nil
}
