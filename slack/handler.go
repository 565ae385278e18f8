package optslack

import (
	"log/slog"

	"github.com/bcdannyboy/optprice/config"
	"github.com/slack-go/slack"
)

// poster is the part of the Slack client the command handlers use.
type poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// Defaults fill the optional resolution arguments of a command.
type Defaults struct {
	Steps      int
	Paths      int
	Seed       int64
	Workers    int
	Antithetic bool
}

func DefaultsFrom(cfg *config.Config) Defaults {
	return Defaults{
		Steps:      cfg.Pricing.Steps,
		Paths:      cfg.Pricing.Paths,
		Seed:       cfg.Pricing.Seed,
		Workers:    cfg.Pricing.Workers,
		Antithetic: cfg.Pricing.Antithetic,
	}
}

type Handler struct {
	helpHandler     *HelpHandler
	priceHandler    *PriceHandler
	convergeHandler *ConvergeHandler
	logger          *slog.Logger
}

func NewHandler(d Defaults, logger *slog.Logger) *Handler {
	return &Handler{
		helpHandler:     NewHelpHandler(),
		priceHandler:    NewPriceHandler(d, logger),
		convergeHandler: NewConvergeHandler(d, logger),
		logger:          logger,
	}
}

func (h *Handler) Handle(cmd slack.SlashCommand, client poster) error {
	h.logger.Debug("slash command", "command", cmd.Command, "text", cmd.Text, "user", cmd.UserID)

	switch cmd.Command {
	case "/help":
		return h.helpHandler.HandleCommand(cmd, client)
	case "/price":
		return h.priceHandler.HandleCommand(cmd, client)
	case "/converge":
		return h.convergeHandler.HandleCommand(cmd, client)
	default:
		h.logger.Warn("unknown slash command", "command", cmd.Command)
		return nil
	}
}

func reply(client poster, channelID, text string, opts ...slack.MsgOption) (string, error) {
	_, ts, err := client.PostMessage(channelID, append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)...)
	return ts, err
}
