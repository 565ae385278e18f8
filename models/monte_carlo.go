package models

import (
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// batchSize fixes how paths are split into independently seeded batches.
// It does not depend on the worker count, so results are identical however
// many workers run them.
const batchSize = 1 << 14

// MonteCarlo prices European options by simulating terminal prices under the
// risk-neutral measure. The zero value runs serially without variance reduction.
type MonteCarlo struct {
	Workers    int  // goroutines evaluating batches; <= 1 runs inline
	Antithetic bool // pair each normal draw with its negation
}

// Seed is a convenience for passing a fixed seed to Price.
func Seed(v int64) *int64 {
	return &v
}

// Price simulates paths terminal prices. A nil seed draws one from the clock;
// the seed actually used is reported on the result.
func (mc MonteCarlo) Price(in MarketInputs, paths int, seed *int64) (PricingResult, error) {
	if err := in.Validate(); err != nil {
		return PricingResult{}, err
	}
	if paths <= 0 {
		return PricingResult{}, &ParameterError{Name: "paths", Value: paths}
	}

	used := resolveSeed(seed)
	sampler := gbmSampler{in: in, antithetic: mc.Antithetic}

	batches := splitBatches(paths)
	stats := make([]sampleStats, len(batches))
	mc.run(len(batches), func(i int) {
		rng := rand.New(rand.NewSource(deriveSeed(used, i)))
		payoffs := make([]float64, batches[i])
		sampler.sample(rng, payoffs)
		stats[i] = summarize(payoffs)
	})

	total := sampleStats{}
	for _, s := range stats {
		total = total.merge(s)
	}

	disc := math.Exp(-in.rate * in.maturity)
	se := 0.0
	if total.n > 1 {
		se = disc * math.Sqrt(total.m2/float64(total.n-1)) / math.Sqrt(float64(total.n))
	}

	return PricingResult{
		Model:         ModelMonteCarlo,
		Price:         math.Max(disc*total.mean, 0),
		StandardError: &se,
		Resolution:    paths,
		Seed:          &used,
	}, nil
}

// Terminals returns paths simulated terminal prices using the same seeding
// scheme as Price without variance reduction.
func (mc MonteCarlo) Terminals(in MarketInputs, paths int, seed *int64) ([]float64, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if paths <= 0 {
		return nil, &ParameterError{Name: "paths", Value: paths}
	}

	used := resolveSeed(seed)
	sampler := gbmSampler{in: in}
	batches := splitBatches(paths)

	out := make([]float64, paths)
	offsets := make([]int, len(batches))
	for i := 1; i < len(batches); i++ {
		offsets[i] = offsets[i-1] + batches[i-1]
	}
	mc.run(len(batches), func(i int) {
		rng := rand.New(rand.NewSource(deriveSeed(used, i)))
		dst := out[offsets[i] : offsets[i]+batches[i]]
		for j := range dst {
			dst[j] = sampler.terminal(rng.NormFloat64())
		}
	})
	return out, nil
}

// run calls fn for every batch index, concurrently when Workers > 1. Each
// call writes only to its own slot.
func (mc MonteCarlo) run(n int, fn func(i int)) {
	if mc.Workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(mc.Workers, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

type gbmSampler struct {
	in         MarketInputs
	antithetic bool
}

func (g gbmSampler) terminal(z float64) float64 {
	in := g.in
	drift := (in.rate - in.dividend - 0.5*in.volatility*in.volatility) * in.maturity
	return in.spot * math.Exp(drift+in.volatility*math.Sqrt(in.maturity)*z)
}

// sample fills out with undiscounted payoff samples.
func (g gbmSampler) sample(rng *rand.Rand, out []float64) {
	for i := range out {
		z := rng.NormFloat64()
		v := payoff(g.in.optionType, g.terminal(z), g.in.strike)
		if g.antithetic {
			v = 0.5 * (v + payoff(g.in.optionType, g.terminal(-z), g.in.strike))
		}
		out[i] = v
	}
}

// sampleStats is a mergeable running mean and sum of squared deviations.
type sampleStats struct {
	n    int
	mean float64
	m2   float64
}

func summarize(xs []float64) sampleStats {
	if len(xs) == 0 {
		return sampleStats{}
	}
	if len(xs) == 1 {
		return sampleStats{n: 1, mean: xs[0]}
	}
	mean, variance := stat.MeanVariance(xs, nil)
	return sampleStats{n: len(xs), mean: mean, m2: variance * float64(len(xs)-1)}
}

func (a sampleStats) merge(b sampleStats) sampleStats {
	if a.n == 0 {
		return b
	}
	if b.n == 0 {
		return a
	}
	n := a.n + b.n
	delta := b.mean - a.mean
	return sampleStats{
		n:    n,
		mean: a.mean + delta*float64(b.n)/float64(n),
		m2:   a.m2 + b.m2 + delta*delta*float64(a.n)*float64(b.n)/float64(n),
	}
}

func splitBatches(paths int) []int {
	var sizes []int
	for paths > 0 {
		n := min(paths, batchSize)
		sizes = append(sizes, n)
		paths -= n
	}
	return sizes
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}

// deriveSeed mixes the call seed with a batch index (splitmix64 finalizer).
func deriveSeed(seed int64, batch int) uint64 {
	z := uint64(seed) + uint64(batch+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
