package main

import (
	"fmt"
	"io"
	"math"

	"github.com/bcdannyboy/optprice/models"
	"github.com/bcdannyboy/optprice/positions"
	"github.com/bcdannyboy/optprice/probability"
	"github.com/bcdannyboy/optprice/volatility"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

var (
	latticeSweep    = []int{10, 50, 200, 1000}
	simulationSweep = []int{1000, 10000, 100000}
)

type request struct {
	Spot, Strike, Maturity, Rate, Volatility, Dividend float64
	Type                                               models.OptionType

	Steps      int
	Paths      int
	Seed       int64
	Workers    int
	Antithetic bool

	Converge    bool
	Confidence  float64
	Profile     int
	GreekPoints int
	Window      int
}

func (r request) inputs() (models.MarketInputs, error) {
	return models.NewMarketInputs(r.Spot, r.Strike, r.Maturity, r.Rate, r.Volatility, r.Type, models.WithDividendYield(r.Dividend))
}

func (r request) monteCarlo() models.MonteCarlo {
	return models.MonteCarlo{Workers: r.Workers, Antithetic: r.Antithetic}
}

type inputsReport struct {
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike"`
	Maturity      float64 `json:"maturity"`
	Rate          float64 `json:"rate"`
	Volatility    float64 `json:"volatility"`
	DividendYield float64 `json:"dividend_yield"`
	Type          string  `json:"type"`
}

type sweep struct {
	Points []probability.Point `json:"points"`
	Order  *float64            `json:"empirical_order,omitempty"`
}

type riskReport struct {
	Confidence        float64 `json:"confidence"`
	Premium           float64 `json:"premium"`
	ValueAtRisk       float64 `json:"value_at_risk"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
}

type termPoint struct {
	Window     string  `json:"window"`
	Days       int     `json:"days"`
	Volatility float64 `json:"volatility"`
}

type volReport struct {
	Bars           int                 `json:"bars"`
	Window         int                 `json:"window"`
	YangZhang      float64             `json:"yang_zhang"`
	CloseToClose   float64             `json:"close_to_close"`
	Parkinson      float64             `json:"parkinson"`
	GarmanKlass    float64             `json:"garman_klass"`
	RogersSatchell float64             `json:"rogers_satchell"`
	TermStructure  []termPoint         `json:"term_structure,omitempty"`
	GARCH          *volatility.GARCH11 `json:"garch,omitempty"`
	GARCHVol       float64             `json:"garch_volatility,omitempty"`
}

type report struct {
	Inputs          inputsReport           `json:"inputs"`
	Comparison      probability.Comparison `json:"results"`
	DisplayGreeks   models.Greeks          `json:"display_greeks"`
	ImpliedVol      *float64               `json:"implied_volatility,omitempty"`
	ParityGap       float64                `json:"parity_gap"`
	ShadowUpGamma   float64                `json:"shadow_up_gamma"`
	ShadowDownGamma float64                `json:"shadow_down_gamma"`
	SkewGamma       float64                `json:"skew_gamma,omitempty"`
	Convergence     map[string]sweep       `json:"convergence,omitempty"`
	Risk            *riskReport            `json:"risk,omitempty"`
	Profile         []positions.PnLPoint   `json:"pnl_profile,omitempty"`
	GreekProfile    []positions.GreekPoint `json:"greek_profile,omitempty"`
	Volatility      *volReport             `json:"volatility,omitempty"`
	Book            *bookReport            `json:"book,omitempty"`
}

func buildReport(req request, progress io.Writer) (*report, error) {
	in, err := req.inputs()
	if err != nil {
		return nil, err
	}
	mc := req.monteCarlo()

	c, err := probability.Compare(in, req.Steps, req.Paths, mc, models.Seed(req.Seed))
	if err != nil {
		return nil, err
	}
	r := &report{
		Inputs: inputsReport{
			Spot:          in.Spot(),
			Strike:        in.Strike(),
			Maturity:      in.Maturity(),
			Rate:          in.Rate(),
			Volatility:    in.Volatility(),
			DividendYield: in.DividendYield(),
			Type:          in.OptionType().String(),
		},
		Comparison:    c,
		DisplayGreeks: c.Analytic.Greeks.Display(),
	}

	if iv, err := (models.BlackScholes{}).ImpliedVolatility(in, c.Analytic.Price); err == nil {
		r.ImpliedVol = &iv
	}
	if r.ParityGap, err = parityGap(in, c.Analytic.Price); err != nil {
		return nil, err
	}
	if r.ShadowUpGamma, r.ShadowDownGamma, err = positions.ShadowGamma(in, 0.01, 0.05); err != nil {
		return nil, err
	}
	if in.Volatility() > 0.01 {
		if r.SkewGamma, err = positions.SkewGamma(in, 0.01); err != nil {
			return nil, err
		}
	}

	if req.Converge {
		if r.Convergence, err = convergence(in, mc, req.Seed, progress); err != nil {
			return nil, err
		}
	}

	pos := models.Position{Inputs: in, Side: models.Long, Quantity: 1, Premium: c.Analytic.Price}
	if req.Confidence > 0 {
		terminals, err := mc.Terminals(in, req.Paths, models.Seed(req.Seed))
		if err != nil {
			return nil, err
		}
		risk := &riskReport{Confidence: req.Confidence, Premium: pos.Premium}
		if risk.ValueAtRisk, err = probability.ValueAtRisk(pos, terminals, req.Confidence); err != nil {
			return nil, err
		}
		if risk.ExpectedShortfall, err = probability.ExpectedShortfall(pos, terminals, req.Confidence); err != nil {
			return nil, err
		}
		r.Risk = risk
	}
	if req.Profile > 0 {
		if r.Profile, err = positions.PnLProfile(pos, req.Profile); err != nil {
			return nil, err
		}
	}
	if req.GreekPoints > 0 {
		if r.GreekProfile, err = positions.GreekProfile(in, req.GreekPoints); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// parityGap prices the other option type and returns C - P less the
// forward value S e^{-qT} - K e^{-rT}.
func parityGap(in models.MarketInputs, price float64) (float64, error) {
	other := models.Put
	if in.OptionType() == models.Put {
		other = models.Call
	}
	flipped, err := in.WithOptionType(other)
	if err != nil {
		return 0, err
	}
	res, err := models.BlackScholes{}.Price(flipped)
	if err != nil {
		return 0, err
	}
	call, put := price, res.Price
	if other == models.Call {
		call, put = put, call
	}
	forward := in.Spot()*math.Exp(-in.DividendYield()*in.Maturity()) - in.Strike()*math.Exp(-in.Rate()*in.Maturity())
	return call - put - forward, nil
}

// convergence sweeps both resolution pricers behind one progress bar.
func convergence(in models.MarketInputs, mc models.MonteCarlo, seed int64, progress io.Writer) (map[string]sweep, error) {
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(progress))
	bar := p.AddBar(int64(len(latticeSweep)+len(simulationSweep)),
		mpb.PrependDecorators(
			decor.Name("Converging"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)
	tick := probability.Observe(func(probability.Point) { bar.Increment() })

	out := make(map[string]sweep, 2)
	lattice, err := probability.Converge(in, probability.Lattice(models.Binomial{}), latticeSweep, tick)
	if err != nil {
		bar.Abort(false)
		p.Wait()
		return nil, err
	}
	out[models.ModelBinomial] = newSweep(lattice)

	sim, err := probability.Converge(in, probability.Simulation(mc, models.Seed(seed)), simulationSweep, tick)
	if err != nil {
		bar.Abort(false)
		p.Wait()
		return nil, err
	}
	out[models.ModelMonteCarlo] = newSweep(sim)

	p.Wait()
	return out, nil
}

func newSweep(points []probability.Point) sweep {
	s := sweep{Points: points}
	if order, err := probability.EstimateOrder(points); err == nil {
		s.Order = &order
	}
	return s
}

// reportFromBars estimates volatility from daily bars and prices with it,
// replacing spot and sigma unless they were given explicitly.
func reportFromBars(req request, bars io.Reader, useLastClose, useEstimate bool, progress io.Writer) (*report, error) {
	history, err := volatility.ReadCSV(bars)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}
	window := min(req.Window, len(history))

	v := &volReport{Bars: len(history), Window: window}
	estimators := []struct {
		est volatility.Estimator
		dst *float64
	}{
		{volatility.YangZhang, &v.YangZhang},
		{volatility.CloseToClose, &v.CloseToClose},
		{volatility.Parkinson, &v.Parkinson},
		{volatility.GarmanKlass, &v.GarmanKlass},
		{volatility.RogersSatchell, &v.RogersSatchell},
	}
	for _, e := range estimators {
		if *e.dst, err = e.est(history, window); err != nil {
			return nil, fmt.Errorf("bars: %w", err)
		}
	}
	ts := volatility.TermStructure(history, volatility.YangZhang)
	for _, name := range volatility.SortedWindows(ts) {
		v.TermStructure = append(v.TermStructure, termPoint{Window: name, Days: volatility.Windows[name], Volatility: ts[name]})
	}

	returns := volatility.Returns(history)
	if g, err := volatility.FitGARCH11(returns, uint64(req.Seed)); err == nil {
		v.GARCH = &g
		v.GARCHVol = g.ConditionalVolatility(returns)
	}

	if useLastClose {
		req.Spot = history[len(history)-1].Close
	}
	if useEstimate {
		req.Volatility = v.YangZhang
	}

	r, err := buildReport(req, progress)
	if err != nil {
		return nil, err
	}
	r.Volatility = v
	return r, nil
}
