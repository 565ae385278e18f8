package optslack

import (
	"context"
	"log/slog"

	"github.com/bcdannyboy/optprice/config"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
	logger       *slog.Logger
}

func NewSlackBot(cfg *config.Config, logger *slog.Logger) *SlackBot {
	client := slack.New(
		cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(cfg.Logging.Level == "debug"),
		socketmode.OptionLog(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(DefaultsFrom(cfg), logger),
		logger:       logger,
	}
}

// Start serves slash commands until ctx is cancelled.
func (sb *SlackBot) Start(ctx context.Context) error {
	go func() {
		for evt := range sb.socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeConnected:
				sb.logger.Info("slack connected")
			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					sb.logger.Warn("unexpected slash command payload", "type", evt.Type)
					continue
				}
				sb.socketClient.Ack(*evt.Request)
				if err := sb.eventHandler.Handle(cmd, sb.socketClient); err != nil {
					sb.logger.Error("slash command failed", "command", cmd.Command, "error", err)
				}
			}
		}
	}()

	return sb.socketClient.RunContext(ctx)
}
