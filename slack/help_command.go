package optslack

import (
	"github.com/slack-go/slack"
)

const helpText = "Available commands:\n" +
	"/help - Show this help message\n" +
	"/price <S> <K> <T> <r> <sigma> <call|put> [steps] [paths] [seed] [q=<yield>] - Price with all three models\n" +
	"/converge <S> <K> <T> <r> <sigma> <call|put> [lattice|mc] [q=<yield>] - Error against Black-Scholes as resolution grows"

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) HandleCommand(cmd slack.SlashCommand, client poster) error {
	_, err := reply(client, cmd.ChannelID, helpText)
	return err
}
