package volatility

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	mcmcIterations = 2000
	mcmcBurnIn     = 200
	mcmcStep       = 0.01

	// objective value for parameters outside the stationary region
	invalidPenalty = 1e50
)

// GARCH11 is sigma²_t = Omega + Alpha·r²_{t-1} + Beta·sigma²_{t-1}.
type GARCH11 struct {
	Omega float64 `json:"omega"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

func (g GARCH11) valid() bool {
	return g.Omega > 0 && g.Alpha >= 0 && g.Beta >= 0 && g.Alpha+g.Beta < 1
}

// LogLikelihood calculates the Gaussian log-likelihood of returns, starting
// from the unconditional variance.
func (g GARCH11) LogLikelihood(returns []float64) float64 {
	logLik := 0.0
	variance := g.Omega / (1 - g.Alpha - g.Beta)

	for i := 1; i < len(returns); i++ {
		variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
		logLik += -0.5*math.Log(2*math.Pi) - 0.5*math.Log(variance) - 0.5*returns[i]*returns[i]/variance
	}
	return logLik
}

// ConditionalVolatility filters returns and annualizes the final conditional variance.
func (g GARCH11) ConditionalVolatility(returns []float64) float64 {
	variance := g.Omega / (1 - g.Alpha - g.Beta)
	for i := 1; i < len(returns); i++ {
		variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
	}
	return annualize(variance)
}

// FitGARCH11 estimates parameters with a seeded Metropolis chain followed by
// Nelder-Mead from the post burn-in chain average. If Nelder-Mead fails or
// leaves the stationary region the chain average is returned.
func FitGARCH11(returns []float64, seed uint64) (GARCH11, error) {
	if len(returns) < 10 {
		return GARCH11{}, fmt.Errorf("%w: %d returns, need at least 10", ErrInsufficientData, len(returns))
	}
	sampleVar := stat.Variance(returns, nil)
	if !(sampleVar > 0) {
		return GARCH11{}, fmt.Errorf("%w: returns have no variance", ErrInsufficientData)
	}

	// Initial guess matching the sample variance
	current := GARCH11{Omega: sampleVar * 0.1, Alpha: 0.1, Beta: 0.8}
	currentLL := current.LogLikelihood(returns)

	src := rand.NewSource(seed)
	omegaStep := distuv.Normal{Mu: 0, Sigma: current.Omega * mcmcStep * 10, Src: src}
	coefStep := distuv.Normal{Mu: 0, Sigma: mcmcStep, Src: src}
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}

	var avg GARCH11
	for i := 1; i < mcmcIterations; i++ {
		proposal := GARCH11{
			Omega: current.Omega + omegaStep.Rand(),
			Alpha: current.Alpha + coefStep.Rand(),
			Beta:  current.Beta + coefStep.Rand(),
		}
		accept := uniform.Rand()

		if proposal.valid() {
			ll := proposal.LogLikelihood(returns)
			if math.Log(accept) < ll-currentLL {
				current, currentLL = proposal, ll
			}
		}

		if i >= mcmcBurnIn {
			avg.Omega += current.Omega
			avg.Alpha += current.Alpha
			avg.Beta += current.Beta
		}
	}
	kept := float64(mcmcIterations - mcmcBurnIn)
	avg.Omega /= kept
	avg.Alpha /= kept
	avg.Beta /= kept

	// Nelder-Mead works on Omega in sample-variance units so all three
	// coordinates share a scale.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			g := GARCH11{Omega: x[0] * sampleVar, Alpha: x[1], Beta: x[2]}
			if !g.valid() {
				return invalidPenalty
			}
			return -g.LogLikelihood(returns)
		},
	}
	result, err := optimize.Minimize(problem, []float64{avg.Omega / sampleVar, avg.Alpha, avg.Beta}, nil, &optimize.NelderMead{})
	if err != nil {
		return avg, nil
	}

	fit := GARCH11{Omega: result.X[0] * sampleVar, Alpha: result.X[1], Beta: result.X[2]}
	if !fit.valid() || fit.LogLikelihood(returns) < avg.LogLikelihood(returns) {
		return avg, nil
	}
	return fit, nil
}
