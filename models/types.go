package models

import (
	"fmt"
	"math"
	"strings"
)

type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

func (t OptionType) valid() bool {
	return t == Call || t == Put
}

// ParseOptionType accepts "call" or "put" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return 0, fmt.Errorf("%w: option type must be call or put, got %q", ErrInvalidInput, s)
	}
}

// MarketInputs is the validated parameter bundle shared by every pricer.
// The zero value is not valid; build it with NewMarketInputs.
type MarketInputs struct {
	spot       float64
	strike     float64
	maturity   float64
	rate       float64
	volatility float64
	dividend   float64
	optionType OptionType
}

type InputOption func(*MarketInputs)

// WithDividendYield sets a constant continuously compounded dividend yield q.
func WithDividendYield(q float64) InputOption {
	return func(in *MarketInputs) {
		in.dividend = q
	}
}

func NewMarketInputs(spot, strike, maturity, rate, volatility float64, optionType OptionType, opts ...InputOption) (MarketInputs, error) {
	in := MarketInputs{
		spot:       spot,
		strike:     strike,
		maturity:   maturity,
		rate:       rate,
		volatility: volatility,
		optionType: optionType,
	}
	for _, opt := range opts {
		opt(&in)
	}
	if err := in.Validate(); err != nil {
		return MarketInputs{}, err
	}
	return in, nil
}

// Validate checks the positivity and finiteness invariants.
func (in MarketInputs) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"spot", in.spot},
		{"strike", in.strike},
		{"maturity", in.maturity},
		{"volatility", in.volatility},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return &InputError{Field: f.name, Value: f.value}
		}
	}
	if math.IsNaN(in.rate) || math.IsInf(in.rate, 0) {
		return fmt.Errorf("%w: rate must be finite, got %v", ErrInvalidInput, in.rate)
	}
	if math.IsNaN(in.dividend) || math.IsInf(in.dividend, 0) {
		return fmt.Errorf("%w: dividend yield must be finite, got %v", ErrInvalidInput, in.dividend)
	}
	if !in.optionType.valid() {
		return fmt.Errorf("%w: unknown option type %s", ErrInvalidInput, in.optionType)
	}
	return nil
}

func (in MarketInputs) Spot() float64          { return in.spot }
func (in MarketInputs) Strike() float64        { return in.strike }
func (in MarketInputs) Maturity() float64      { return in.maturity }
func (in MarketInputs) Rate() float64          { return in.rate }
func (in MarketInputs) Volatility() float64    { return in.volatility }
func (in MarketInputs) DividendYield() float64 { return in.dividend }
func (in MarketInputs) OptionType() OptionType { return in.optionType }

// WithSpot returns a revalidated copy with a different spot.
func (in MarketInputs) WithSpot(spot float64) (MarketInputs, error) {
	out := in
	out.spot = spot
	return out, out.Validate()
}

func (in MarketInputs) WithVolatility(volatility float64) (MarketInputs, error) {
	out := in
	out.volatility = volatility
	return out, out.Validate()
}

func (in MarketInputs) WithOptionType(t OptionType) (MarketInputs, error) {
	out := in
	out.optionType = t
	return out, out.Validate()
}

// Intrinsic is the exercise value against spot S.
func (in MarketInputs) Intrinsic(s float64) float64 {
	return payoff(in.optionType, s, in.strike)
}

func payoff(t OptionType, s, k float64) float64 {
	switch t {
	case Call:
		return math.Max(s-k, 0)
	case Put:
		return math.Max(k-s, 0)
	default:
		panic(fmt.Sprintf("models: unhandled option type %s", t))
	}
}

type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Display converts to dashboard units: vega and rho per 1% move, theta per calendar day.
func (g Greeks) Display() Greeks {
	return Greeks{
		Delta: g.Delta,
		Gamma: g.Gamma,
		Vega:  g.Vega / 100,
		Theta: g.Theta / 365,
		Rho:   g.Rho / 100,
	}
}

type PricingResult struct {
	Model         string   `json:"model"`
	Price         float64  `json:"price"`
	Greeks        *Greeks  `json:"greeks,omitempty"`
	StandardError *float64 `json:"standard_error,omitempty"`
	Resolution    int      `json:"resolution,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
}

const (
	ModelBlackScholes = "Black-Scholes"
	ModelBinomial     = "Binomial"
	ModelMonteCarlo   = "Monte Carlo"
)
