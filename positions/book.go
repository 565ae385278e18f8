package positions

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/bcdannyboy/optprice/models"
	"github.com/shirou/gopsutil/cpu"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

const jobBatchSize = 256

// Options controls how a book is valued. Zero Steps or Paths skips that model.
type Options struct {
	Workers    int   // <= 0 uses the logical CPU count
	Steps      int   // lattice steps
	Paths      int   // Monte Carlo paths
	Seed       int64 // position i simulates with Seed+i
	Antithetic bool

	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// Valuation is one priced position.
type Valuation struct {
	Index      int                   `json:"index"`
	Position   models.Position       `json:"-"`
	Analytic   models.PricingResult  `json:"analytic"`
	Lattice    *models.PricingResult `json:"lattice,omitempty"`
	Simulation *models.PricingResult `json:"simulation,omitempty"`
	Value      float64               `json:"value"`  // signed quantity times the analytic price
	Greeks     models.Greeks         `json:"greeks"` // signed by side and quantity
	Err        error                 `json:"-"`
	Error      string                `json:"error,omitempty"`
}

type job struct {
	index    int
	position models.Position
}

// ValueBook prices every position with a bounded worker pool. Valuations keep
// the order of book; failures are reported on the valuation and joined into
// the returned error.
func ValueBook(book []models.Position, opts Options) ([]Valuation, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = logicalCPUs()
	}
	workers = min(workers, max(len(book), 1))

	var bar *mpb.Bar
	var p *mpb.Progress
	if opts.Progress != nil && len(book) > 0 {
		p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(opts.Progress))
		bar = p.AddBar(int64(len(book)),
			mpb.PrependDecorators(
				decor.Name("Valuing"),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
			),
		)
	}

	out := make([]Valuation, len(book))
	jobs := make(chan job, jobBatchSize)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(jobs, out, opts, &wg, bar)
	}

	for i, pos := range book {
		jobs <- job{index: i, position: pos}
	}
	close(jobs)
	wg.Wait()
	if p != nil {
		p.Wait()
	}

	var errs []error
	for _, v := range out {
		if v.Err != nil {
			errs = append(errs, fmt.Errorf("position %d: %w", v.Index, v.Err))
		}
	}
	return out, errors.Join(errs...)
}

func worker(jobs <-chan job, out []Valuation, opts Options, wg *sync.WaitGroup, bar *mpb.Bar) {
	defer wg.Done()
	for j := range jobs {
		v := value(j.index, j.position, opts)
		if v.Err != nil {
			v.Error = v.Err.Error()
		}
		out[j.index] = v
		if bar != nil {
			bar.Increment()
		}
	}
}

func value(index int, pos models.Position, opts Options) Valuation {
	v := Valuation{Index: index, Position: pos}
	if err := validatePosition(pos); err != nil {
		v.Err = err
		return v
	}

	analytic, err := models.BlackScholes{}.Price(pos.Inputs)
	if err != nil {
		v.Err = err
		return v
	}
	v.Analytic = analytic
	v.Greeks = pos.Signed(*analytic.Greeks)
	v.Value = signedQuantity(pos) * analytic.Price

	if opts.Steps > 0 {
		res, err := models.Binomial{}.Price(pos.Inputs, opts.Steps)
		if err != nil {
			v.Err = err
			return v
		}
		v.Lattice = &res
	}
	if opts.Paths > 0 {
		mc := models.MonteCarlo{Antithetic: opts.Antithetic}
		res, err := mc.Price(pos.Inputs, opts.Paths, models.Seed(opts.Seed+int64(index)))
		if err != nil {
			v.Err = err
			return v
		}
		v.Simulation = &res
	}
	return v
}

func validatePosition(pos models.Position) error {
	if pos.Side != models.Long && pos.Side != models.Short {
		return fmt.Errorf("%w: unknown side %s", models.ErrInvalidInput, pos.Side)
	}
	if !(pos.Quantity > 0) {
		return &models.InputError{Field: "quantity", Value: pos.Quantity}
	}
	return pos.Inputs.Validate()
}

func signedQuantity(pos models.Position) float64 {
	if pos.Side == models.Short {
		return -pos.Quantity
	}
	return pos.Quantity
}

func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Summary is the net of a valued book.
type Summary struct {
	Value   float64       `json:"value"`
	Greeks  models.Greeks `json:"greeks"`
	Priced  int           `json:"priced"`
	Skipped int           `json:"skipped"`
}

// Aggregate sums signed values and Greeks, skipping failed valuations.
func Aggregate(vals []Valuation) Summary {
	var s Summary
	for _, v := range vals {
		if v.Err != nil {
			s.Skipped++
			continue
		}
		s.Priced++
		s.Value += v.Value
		s.Greeks.Delta += v.Greeks.Delta
		s.Greeks.Gamma += v.Greeks.Gamma
		s.Greeks.Vega += v.Greeks.Vega
		s.Greeks.Theta += v.Greeks.Theta
		s.Greeks.Rho += v.Greeks.Rho
	}
	return s
}
