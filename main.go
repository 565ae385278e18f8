package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bcdannyboy/optprice/config"
	"github.com/bcdannyboy/optprice/models"
	optslack "github.com/bcdannyboy/optprice/slack"
	"github.com/xhhuango/json"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "optprice: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("optprice", flag.ContinueOnError)
	fs.SetOutput(stderr)

	spot := fs.Float64("spot", 100, "spot price S")
	strike := fs.Float64("strike", 100, "strike K")
	maturity := fs.Float64("maturity", 1, "time to expiry T in years")
	rate := fs.Float64("rate", 0.05, "continuously compounded risk-free rate r")
	vol := fs.Float64("vol", 0.2, "volatility sigma")
	div := fs.Float64("div", 0, "continuous dividend yield q")
	optType := fs.String("type", "call", "call or put")

	steps := fs.Int("steps", 0, "lattice steps (default from config)")
	paths := fs.Int("paths", 0, "Monte Carlo paths (default from config)")
	seed := fs.Int64("seed", 0, "Monte Carlo seed (default from config)")
	workers := fs.Int("workers", 0, "Monte Carlo worker goroutines (default from config)")
	antithetic := fs.Bool("antithetic", false, "use antithetic variates")

	converge := fs.Bool("converge", false, "run lattice and Monte Carlo convergence sweeps")
	confidence := fs.Float64("var", 0, "VaR/ES confidence for a long unit position, e.g. 0.99")
	profile := fs.Int("profile", 0, "points in the expiry PnL profile over [0.5K, 1.5K]")
	greekPoints := fs.Int("greek-profile", 0, "points in the analytic Greek profile over [0.5K, 1.5K], e.g. 100")
	barsFile := fs.String("bars", "", "daily OHLC csv; estimates sigma (Yang-Zhang) and spot (last close)")
	window := fs.Int("window", 63, "estimator lookback in bars")
	bookFile := fs.String("book", "", "json file of positions to value")

	cfgPath := fs.String("config", "", "optional yaml config")
	envFile := fs.String("env", ".env", "optional env file")
	out := fs.String("out", "", "write the report here instead of stdout")
	runSlack := fs.Bool("slack", false, "serve slash commands over Slack socket mode")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["steps"] {
		cfg.Pricing.Steps = *steps
	}
	if set["paths"] {
		cfg.Pricing.Paths = *paths
	}
	if set["seed"] {
		cfg.Pricing.Seed = *seed
	}
	if set["workers"] {
		cfg.Pricing.Workers = *workers
	}
	if set["antithetic"] {
		cfg.Pricing.Antithetic = *antithetic
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *runSlack {
		if !cfg.SlackEnabled() {
			return errors.New("slack needs SLACK_APP_TOKEN and SLACK_BOT_TOKEN")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting slack bot")
		return optslack.NewSlackBot(cfg, logger).Start(ctx)
	}

	typ, err := models.ParseOptionType(*optType)
	if err != nil {
		return err
	}

	req := request{
		Spot:        *spot,
		Strike:      *strike,
		Maturity:    *maturity,
		Rate:        *rate,
		Volatility:  *vol,
		Dividend:    *div,
		Type:        typ,
		Steps:       cfg.Pricing.Steps,
		Paths:       cfg.Pricing.Paths,
		Seed:        cfg.Pricing.Seed,
		Workers:     cfg.Pricing.Workers,
		Antithetic:  cfg.Pricing.Antithetic,
		Converge:    *converge,
		Confidence:  *confidence,
		Profile:     *profile,
		GreekPoints: *greekPoints,
		Window:      *window,
	}

	var r *report
	if *barsFile != "" {
		f, err := os.Open(*barsFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r, err = reportFromBars(req, f, !set["spot"], !set["vol"], stderr)
		if err != nil {
			return err
		}
	} else {
		if r, err = buildReport(req, stderr); err != nil {
			return err
		}
	}
	logger.Info("priced",
		"analytic", r.Comparison.Analytic.Price,
		"lattice", r.Comparison.Lattice.Price,
		"simulation", r.Comparison.Simulation.Price,
		"seed", cfg.Pricing.Seed)

	if *bookFile != "" {
		b, err := valueBookFile(*bookFile, req, stderr)
		if err != nil {
			return err
		}
		for _, v := range b.Valuations {
			if v.Err != nil {
				logger.Warn("position not valued", "index", v.Index, "error", v.Err)
			}
		}
		r.Book = b
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if *out == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	logger.Info("wrote report", "file", *out)
	return nil
}
