package optslack

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bcdannyboy/optprice/models"
	"github.com/bcdannyboy/optprice/probability"
	"github.com/slack-go/slack"
)

const convergeUsage = "Usage: /converge <S> <K> <T> <r> <sigma> <call|put> [lattice|mc] [q=<yield>]"

// noiseSE is how many standard errors a Monte Carlo error may rise between
// resolutions and still count as decreasing.
const noiseSE = 3

var (
	latticeResolutions    = []int{10, 50, 200, 1000}
	simulationResolutions = []int{1000, 10000, 100000}
)

// ConvergeRequest is a parsed /converge command.
type ConvergeRequest struct {
	Inputs     models.MarketInputs
	Simulation bool
}

func ParseConvergeArgs(text string) (ConvergeRequest, error) {
	in, rest, err := parseMarket(strings.Fields(text))
	if err != nil {
		return ConvergeRequest{}, err
	}
	req := ConvergeRequest{Inputs: in}
	switch len(rest) {
	case 0:
	case 1:
		switch strings.ToLower(rest[0]) {
		case "lattice", "binomial":
		case "mc", "montecarlo", "simulation":
			req.Simulation = true
		default:
			return ConvergeRequest{}, fmt.Errorf("unknown method %q", rest[0])
		}
	default:
		return ConvergeRequest{}, fmt.Errorf("too many arguments")
	}
	return req, nil
}

// RenderPoint formats one row of a convergence table.
func RenderPoint(p probability.Point) string {
	line := fmt.Sprintf("n=%-7d price=%s  |err|=%s", p.Resolution, fixed(p.Price, 4), fixed(p.AbsError, 6))
	if p.StandardError != nil {
		line += "  se=" + fixed(*p.StandardError, 6)
	}
	return line
}

type ConvergeHandler struct {
	defaults Defaults
	logger   *slog.Logger
	spawn    func(func())
}

func NewConvergeHandler(d Defaults, logger *slog.Logger) *ConvergeHandler {
	return &ConvergeHandler{
		defaults: d,
		logger:   logger,
		spawn:    func(f func()) { go f() },
	}
}

func (h *ConvergeHandler) HandleCommand(cmd slack.SlashCommand, client poster) error {
	req, err := ParseConvergeArgs(cmd.Text)
	if err != nil {
		_, err := reply(client, cmd.ChannelID, fmt.Sprintf("%s\n%s", err, convergeUsage))
		return err
	}

	pricer, resolutions, label := probability.Lattice(models.Binomial{}), latticeResolutions, "lattice"
	if req.Simulation {
		mc := models.MonteCarlo{Workers: h.defaults.Workers, Antithetic: h.defaults.Antithetic}
		pricer, resolutions, label = probability.Simulation(mc, models.Seed(h.defaults.Seed)), simulationResolutions, "Monte Carlo"
	}

	ts, err := reply(client, cmd.ChannelID, fmt.Sprintf("Starting %s convergence sweep...", label))
	if err != nil {
		return err
	}

	decreasing := func(points []probability.Point) bool { return probability.NearlyMonotone(points, 0) }
	if req.Simulation {
		decreasing = func(points []probability.Point) bool { return probability.MonotoneWithinNoise(points, noiseSE) }
	}

	h.spawn(func() {
		h.run(client, cmd.ChannelID, ts, req.Inputs, pricer, resolutions, decreasing)
	})
	return nil
}

// run posts each point in the thread of ts as it is priced, then a summary.
func (h *ConvergeHandler) run(client poster, channelID, ts string, in models.MarketInputs, pricer probability.ResolutionPricer, resolutions []int, decreasing func([]probability.Point) bool) {
	thread := slack.MsgOptionTS(ts)
	points, err := probability.Converge(in, pricer, resolutions, probability.Observe(func(p probability.Point) {
		if _, err := reply(client, channelID, RenderPoint(p), thread); err != nil {
			h.logger.Error("post convergence point", "error", err)
		}
	}))
	if err != nil {
		h.logger.Info("convergence sweep failed", "error", err)
		if _, err := reply(client, channelID, fmt.Sprintf("Sweep stopped: %s", err), thread); err != nil {
			h.logger.Error("post convergence failure", "error", err)
		}
		return
	}

	summary := "Error decreasing: " + fmt.Sprint(decreasing(points))
	if order, err := probability.EstimateOrder(points); err == nil {
		summary += fmt.Sprintf(", empirical order %s", fixed(order, 2))
	}
	if _, err := reply(client, channelID, summary, thread); err != nil {
		h.logger.Error("post convergence summary", "error", err)
	}
}
