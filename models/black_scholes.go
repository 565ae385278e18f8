package models

import (
	"fmt"
	"math"
)

const (
	maxIterations = 100
	epsilon       = 1e-8

	// below this σ√T the lognormal collapses onto the forward
	degenerateVolTime = 1e-12
)

// BlackScholes prices European options in closed form.
type BlackScholes struct{}

type bsTerms struct {
	d1, d2     float64
	sqrtT      float64
	dfRate     float64 // e^{-rT}
	dfDividend float64 // e^{-qT}
	degenerate bool
}

func newBSTerms(in MarketInputs) bsTerms {
	S, K, T, r, q, sigma := in.spot, in.strike, in.maturity, in.rate, in.dividend, in.volatility

	t := bsTerms{
		sqrtT:      math.Sqrt(T),
		dfRate:     math.Exp(-r * T),
		dfDividend: math.Exp(-q * T),
	}
	volTime := sigma * t.sqrtT
	if volTime < degenerateVolTime {
		t.degenerate = true
		return t
	}
	t.d1 = (math.Log(S/K) + (r-q+0.5*sigma*sigma)*T) / volTime
	t.d2 = t.d1 - volTime
	return t
}

func (BlackScholes) Price(in MarketInputs) (PricingResult, error) {
	if err := in.Validate(); err != nil {
		return PricingResult{}, err
	}
	t := newBSTerms(in)
	greeks := bsGreeks(in, t)
	return PricingResult{
		Model:  ModelBlackScholes,
		Price:  bsPrice(in, t),
		Greeks: &greeks,
	}, nil
}

func (BlackScholes) Greeks(in MarketInputs) (Greeks, error) {
	if err := in.Validate(); err != nil {
		return Greeks{}, err
	}
	return bsGreeks(in, newBSTerms(in)), nil
}

func bsPrice(in MarketInputs, t bsTerms) float64 {
	fwdSpot := in.spot * t.dfDividend
	pvStrike := in.strike * t.dfRate

	if t.degenerate {
		return payoff(in.optionType, fwdSpot, pvStrike)
	}

	var price float64
	switch in.optionType {
	case Call:
		price = fwdSpot*normCDF(t.d1) - pvStrike*normCDF(t.d2)
	case Put:
		price = pvStrike*normCDF(-t.d2) - fwdSpot*normCDF(-t.d1)
	default:
		panic(fmt.Sprintf("models: unhandled option type %s", in.optionType))
	}
	return math.Max(price, 0)
}

func bsGreeks(in MarketInputs, t bsTerms) Greeks {
	if t.degenerate {
		return degenerateGreeks(in, t)
	}

	S, K, T, r, q, sigma := in.spot, in.strike, in.maturity, in.rate, in.dividend, in.volatility
	pdf := normPDF(t.d1)

	g := Greeks{
		Gamma: t.dfDividend * pdf / (S * sigma * t.sqrtT),
		Vega:  S * t.dfDividend * pdf * t.sqrtT,
	}
	decay := -(S * t.dfDividend * pdf * sigma) / (2 * t.sqrtT)

	switch in.optionType {
	case Call:
		g.Delta = t.dfDividend * normCDF(t.d1)
		g.Theta = decay - r*K*t.dfRate*normCDF(t.d2) + q*S*t.dfDividend*normCDF(t.d1)
		g.Rho = K * T * t.dfRate * normCDF(t.d2)
	case Put:
		g.Delta = t.dfDividend * (normCDF(t.d1) - 1)
		g.Theta = decay + r*K*t.dfRate*normCDF(-t.d2) - q*S*t.dfDividend*normCDF(-t.d1)
		g.Rho = -K * T * t.dfRate * normCDF(-t.d2)
	default:
		panic(fmt.Sprintf("models: unhandled option type %s", in.optionType))
	}
	return g
}

// degenerateGreeks differentiates the deterministic payoff max(±(S e^{-qT} - K e^{-rT}), 0).
func degenerateGreeks(in MarketInputs, t bsTerms) Greeks {
	S, K, T, r, q := in.spot, in.strike, in.maturity, in.rate, in.dividend
	fwdSpot := S * t.dfDividend
	pvStrike := K * t.dfRate

	var g Greeks
	switch in.optionType {
	case Call:
		if fwdSpot > pvStrike {
			g.Delta = t.dfDividend
			g.Theta = q*fwdSpot - r*pvStrike
			g.Rho = K * T * t.dfRate
		}
	case Put:
		if pvStrike > fwdSpot {
			g.Delta = -t.dfDividend
			g.Theta = r*pvStrike - q*fwdSpot
			g.Rho = -K * T * t.dfRate
		}
	default:
		panic(fmt.Sprintf("models: unhandled option type %s", in.optionType))
	}
	return g
}

// ImpliedVolatility inverts the closed form with Newton steps on vega.
// The volatility carried by in is ignored.
func (bs BlackScholes) ImpliedVolatility(in MarketInputs, marketPrice float64) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	lower, upper := priceBounds(in)
	if math.IsNaN(marketPrice) || marketPrice <= lower || marketPrice >= upper {
		return 0, fmt.Errorf("%w: price %v outside no-arbitrage bounds (%v, %v)", ErrInvalidInput, marketPrice, lower, upper)
	}

	trial := in
	sigma := 0.5 // Initial guess
	for i := 0; i < maxIterations; i++ {
		trial.volatility = sigma
		t := newBSTerms(trial)
		diff := bsPrice(trial, t) - marketPrice
		if math.Abs(diff) < epsilon {
			return sigma, nil
		}

		vega := bsGreeks(trial, t).Vega
		if vega < epsilon*epsilon {
			break
		}
		sigma -= diff / vega
		if sigma <= 0 {
			sigma = 0.0001 // Avoid negative volatility
		}
	}
	return 0, fmt.Errorf("%w: implied volatility after %d iterations", ErrNoConvergence, maxIterations)
}

func priceBounds(in MarketInputs) (float64, float64) {
	fwdSpot := in.spot * math.Exp(-in.dividend*in.maturity)
	pvStrike := in.strike * math.Exp(-in.rate*in.maturity)

	switch in.optionType {
	case Call:
		return math.Max(fwdSpot-pvStrike, 0), fwdSpot
	case Put:
		return math.Max(pvStrike-fwdSpot, 0), pvStrike
	default:
		panic(fmt.Sprintf("models: unhandled option type %s", in.optionType))
	}
}
