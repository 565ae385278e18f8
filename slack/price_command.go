package optslack

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/bcdannyboy/optprice/models"
	"github.com/bcdannyboy/optprice/probability"
	"github.com/shopspring/decimal"
	"github.com/slack-go/slack"
)

const priceUsage = "Usage: /price <S> <K> <T> <r> <sigma> <call|put> [steps] [paths] [seed] [q=<yield>]"

// PriceRequest is a parsed /price command.
type PriceRequest struct {
	Inputs models.MarketInputs
	Steps  int
	Paths  int
	Seed   int64
}

// parseMarket reads the six positional market arguments and any q=<yield>
// token, returning the remaining positional arguments.
func parseMarket(args []string) (models.MarketInputs, []string, error) {
	var rest []string
	var opts []models.InputOption
	for _, a := range args {
		if v, ok := strings.CutPrefix(strings.ToLower(a), "q="); ok {
			q, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return models.MarketInputs{}, nil, fmt.Errorf("dividend yield %q: %w", v, err)
			}
			opts = append(opts, models.WithDividendYield(q))
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) < 6 {
		return models.MarketInputs{}, nil, fmt.Errorf("expected at least 6 arguments, got %d", len(rest))
	}

	names := []string{"S", "K", "T", "r", "sigma"}
	vals := make([]float64, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(rest[i], 64)
		if err != nil {
			return models.MarketInputs{}, nil, fmt.Errorf("%s %q is not a number", name, rest[i])
		}
		vals[i] = v
	}
	typ, err := models.ParseOptionType(rest[5])
	if err != nil {
		return models.MarketInputs{}, nil, err
	}

	in, err := models.NewMarketInputs(vals[0], vals[1], vals[2], vals[3], vals[4], typ, opts...)
	if err != nil {
		return models.MarketInputs{}, nil, err
	}
	return in, rest[6:], nil
}

// ParsePriceArgs parses the text of a /price command.
func ParsePriceArgs(text string, d Defaults) (PriceRequest, error) {
	in, rest, err := parseMarket(strings.Fields(text))
	if err != nil {
		return PriceRequest{}, err
	}
	if len(rest) > 3 {
		return PriceRequest{}, fmt.Errorf("too many arguments")
	}

	req := PriceRequest{Inputs: in, Steps: d.Steps, Paths: d.Paths, Seed: d.Seed}
	ints := []*int{&req.Steps, &req.Paths}
	for i, a := range rest {
		if i == 2 {
			if req.Seed, err = strconv.ParseInt(a, 10, 64); err != nil {
				return PriceRequest{}, fmt.Errorf("seed %q: %w", a, err)
			}
			break
		}
		if *ints[i], err = strconv.Atoi(a); err != nil {
			return PriceRequest{}, fmt.Errorf("argument %d %q is not an integer", 7+i, a)
		}
	}
	return req, nil
}

// fixed renders v with places decimals. decimal has no NaN or infinity.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// RenderComparison formats a priced request as a Slack code block.
func RenderComparison(req PriceRequest, c probability.Comparison) string {
	in := req.Inputs
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* S=%s K=%s T=%s r=%s σ=%s q=%s\n```\n",
		in.OptionType(), fixed(in.Spot(), 2), fixed(in.Strike(), 2), fixed(in.Maturity(), 4),
		fixed(in.Rate(), 4), fixed(in.Volatility(), 4), fixed(in.DividendYield(), 4))

	fmt.Fprintf(&b, "%-34s %s\n", c.Analytic.Model, fixed(c.Analytic.Price, 4))
	fmt.Fprintf(&b, "%-34s %s\n", fmt.Sprintf("%s (%d steps)", c.Lattice.Model, c.Lattice.Resolution), fixed(c.Lattice.Price, 4))

	sim := fmt.Sprintf("%s (%d paths, seed %d)", c.Simulation.Model, c.Simulation.Resolution, *c.Simulation.Seed)
	fmt.Fprintf(&b, "%-34s %s ± %s\n", sim, fixed(c.Simulation.Price, 4), fixed(*c.Simulation.StandardError, 4))

	g := c.Analytic.Greeks.Display()
	fmt.Fprintf(&b, "Δ %s  Γ %s  ν %s  Θ %s  ρ %s\n```",
		fixed(g.Delta, 4), fixed(g.Gamma, 4), fixed(g.Vega, 4), fixed(g.Theta, 4), fixed(g.Rho, 4))
	return b.String()
}

type PriceHandler struct {
	defaults Defaults
	logger   *slog.Logger
}

func NewPriceHandler(d Defaults, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{defaults: d, logger: logger}
}

func (h *PriceHandler) HandleCommand(cmd slack.SlashCommand, client poster) error {
	req, err := ParsePriceArgs(cmd.Text, h.defaults)
	if err != nil {
		_, err := reply(client, cmd.ChannelID, fmt.Sprintf("%s\n%s", err, priceUsage))
		return err
	}

	mc := models.MonteCarlo{Workers: h.defaults.Workers, Antithetic: h.defaults.Antithetic}
	c, err := probability.Compare(req.Inputs, req.Steps, req.Paths, mc, models.Seed(req.Seed))
	if err != nil {
		h.logger.Info("price request rejected", "text", cmd.Text, "error", err)
		_, err := reply(client, cmd.ChannelID, fmt.Sprintf("Could not price: %s", err))
		return err
	}

	h.logger.Info("priced", "inputs", cmd.Text, "analytic", c.Analytic.Price, "lattice", c.Lattice.Price, "simulation", c.Simulation.Price)
	_, err = reply(client, cmd.ChannelID, RenderComparison(req, c))
	return err
}
