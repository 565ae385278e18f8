package probability

import (
	"errors"
	"fmt"
	"math"

	"github.com/bcdannyboy/optprice/models"
	"gonum.org/v1/gonum/stat"
)

// ResolutionPricer prices in at a given resolution (lattice steps, simulation paths).
type ResolutionPricer func(in models.MarketInputs, resolution int) (models.PricingResult, error)

// Lattice adapts a binomial pricer to the harness.
func Lattice(b models.Binomial) ResolutionPricer {
	return b.Price
}

// Simulation adapts a Monte Carlo pricer to the harness. Every resolution
// reuses the same seed, so a nil seed makes the sweep non-reproducible.
func Simulation(mc models.MonteCarlo, seed *int64) ResolutionPricer {
	return func(in models.MarketInputs, paths int) (models.PricingResult, error) {
		return mc.Price(in, paths, seed)
	}
}

// Point is one row of a convergence table.
type Point struct {
	Resolution    int      `json:"resolution"`
	Price         float64  `json:"price"`
	AbsError      float64  `json:"abs_error"`
	StandardError *float64 `json:"standard_error,omitempty"`
}

type convergeOptions struct {
	observe func(Point)
}

type ConvergeOption func(*convergeOptions)

// Observe registers fn to be called after each resolution is priced.
func Observe(fn func(Point)) ConvergeOption {
	return func(o *convergeOptions) {
		o.observe = fn
	}
}

// Converge prices in at each resolution and reports the absolute error
// against the closed-form price, in the order given.
func Converge(in models.MarketInputs, pricer ResolutionPricer, resolutions []int, opts ...ConvergeOption) ([]Point, error) {
	var o convergeOptions
	for _, opt := range opts {
		opt(&o)
	}

	exact, err := models.BlackScholes{}.Price(in)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(resolutions))
	for _, n := range resolutions {
		res, err := pricer(in, n)
		if err != nil {
			return points, fmt.Errorf("resolution %d: %w", n, err)
		}
		p := Point{
			Resolution:    n,
			Price:         res.Price,
			AbsError:      math.Abs(res.Price - exact.Price),
			StandardError: res.StandardError,
		}
		points = append(points, p)
		if o.observe != nil {
			o.observe(p)
		}
	}
	return points, nil
}

// NearlyMonotone reports whether every error is at most the previous error plus slack.
func NearlyMonotone(points []Point, slack float64) bool {
	for i := 1; i < len(points); i++ {
		if points[i].AbsError > points[i-1].AbsError+slack {
			return false
		}
	}
	return true
}

// MonotoneWithinNoise is NearlyMonotone for sampled prices: each error may
// exceed the previous one by up to k of the previous standard error.
func MonotoneWithinNoise(points []Point, k float64) bool {
	for i := 1; i < len(points); i++ {
		slack := 0.0
		if se := points[i-1].StandardError; se != nil {
			slack = k * *se
		}
		if points[i].AbsError > points[i-1].AbsError+slack {
			return false
		}
	}
	return true
}

var errTooFewPoints = errors.New("need at least two points with non-zero error")

// EstimateOrder fits log(error) = a + b·log(resolution) and returns b.
// Lattices give roughly -1, Monte Carlo roughly -0.5.
func EstimateOrder(points []Point) (float64, error) {
	var xs, ys []float64
	for _, p := range points {
		if p.AbsError <= 0 || p.Resolution <= 0 {
			continue
		}
		xs = append(xs, math.Log(float64(p.Resolution)))
		ys = append(ys, math.Log(p.AbsError))
	}
	if len(xs) < 2 {
		return 0, errTooFewPoints
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta, nil
}
