package optslack

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/bcdannyboy/optprice/models"
	"github.com/bcdannyboy/optprice/probability"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type post struct {
	channel  string
	text     string
	threadTS string
}

type fakePoster struct {
	posts []post
}

func (f *fakePoster) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.test/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.posts = append(f.posts, post{channel: channelID, text: values.Get("text"), threadTS: values.Get("thread_ts")})
	return channelID, fmt.Sprintf("ts-%d", len(f.posts)), nil
}

var testDefaults = Defaults{Steps: 200, Paths: 2000, Seed: 42, Workers: 2}

func testHandler() *Handler {
	h := NewHandler(testDefaults, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.convergeHandler.spawn = func(f func()) { f() }
	return h
}

func TestParsePriceArgs(t *testing.T) {
	req, err := ParsePriceArgs("100 100 1 0.05 0.2 call", testDefaults)
	require.NoError(t, err)
	assert.Equal(t, 100.0, req.Inputs.Spot())
	assert.Equal(t, models.Call, req.Inputs.OptionType())
	assert.Equal(t, 200, req.Steps)
	assert.Equal(t, 2000, req.Paths)
	assert.Equal(t, int64(42), req.Seed)

	req, err = ParsePriceArgs("100 90 0.5 0.03 0.25 PUT 50 500 7 q=0.01", testDefaults)
	require.NoError(t, err)
	assert.Equal(t, models.Put, req.Inputs.OptionType())
	assert.Equal(t, 0.01, req.Inputs.DividendYield())
	assert.Equal(t, 50, req.Steps)
	assert.Equal(t, 500, req.Paths)
	assert.Equal(t, int64(7), req.Seed)
}

func TestParsePriceArgs_Errors(t *testing.T) {
	cases := map[string]string{
		"too few":       "100 100 1 0.05 0.2",
		"not a number":  "100 abc 1 0.05 0.2 call",
		"bad type":      "100 100 1 0.05 0.2 straddle",
		"bad steps":     "100 100 1 0.05 0.2 call many",
		"bad yield":     "100 100 1 0.05 0.2 call q=x",
		"too many":      "100 100 1 0.05 0.2 call 1 2 3 4",
		"negative spot": "-100 100 1 0.05 0.2 call",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePriceArgs(text, testDefaults)
			assert.Error(t, err)
		})
	}

	_, err := ParsePriceArgs("100 100 0 0.05 0.2 call", testDefaults)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestParseConvergeArgs(t *testing.T) {
	req, err := ParseConvergeArgs("100 100 1 0.05 0.2 call")
	require.NoError(t, err)
	assert.False(t, req.Simulation)

	req, err = ParseConvergeArgs("100 100 1 0.05 0.2 call mc")
	require.NoError(t, err)
	assert.True(t, req.Simulation)

	_, err = ParseConvergeArgs("100 100 1 0.05 0.2 call trinomial")
	assert.Error(t, err)
}

func TestHandle_Price(t *testing.T) {
	client := &fakePoster{}
	err := testHandler().Handle(slack.SlashCommand{Command: "/price", ChannelID: "C1", Text: "100 100 1 0.05 0.2 call"}, client)
	require.NoError(t, err)

	require.Len(t, client.posts, 1)
	text := client.posts[0].text
	assert.Equal(t, "C1", client.posts[0].channel)
	assert.Contains(t, text, "Black-Scholes")
	assert.Contains(t, text, "10.4506")
	assert.Contains(t, text, "Binomial (200 steps)")
	assert.Contains(t, text, "Monte Carlo (2000 paths, seed 42)")
	assert.Contains(t, text, "Δ 0.6368")
}

func TestHandle_PriceRejectsBadInput(t *testing.T) {
	client := &fakePoster{}
	err := testHandler().Handle(slack.SlashCommand{Command: "/price", ChannelID: "C1", Text: "100 100"}, client)
	require.NoError(t, err)

	require.Len(t, client.posts, 1)
	assert.Contains(t, client.posts[0].text, priceUsage)
}

func TestHandle_PriceReportsModelFailure(t *testing.T) {
	client := &fakePoster{}
	// one lattice step cannot represent r = 0.5 with sigma = 0.01
	err := testHandler().Handle(slack.SlashCommand{Command: "/price", ChannelID: "C1", Text: "100 100 1 0.5 0.01 call 1"}, client)
	require.NoError(t, err)

	require.Len(t, client.posts, 1)
	assert.Contains(t, client.posts[0].text, "Could not price")
	assert.Contains(t, client.posts[0].text, "numerical instability")
}

func TestHandle_PriceReportsLatticeOverflow(t *testing.T) {
	client := &fakePoster{}
	err := testHandler().Handle(slack.SlashCommand{Command: "/price", ChannelID: "C1", Text: "100 100 1 0.05 40 call 500 1000 1"}, client)
	require.NoError(t, err)

	require.Len(t, client.posts, 1)
	assert.Contains(t, client.posts[0].text, "Could not price")
	assert.Contains(t, client.posts[0].text, "numerical instability")
}

func TestFixed_NonFinite(t *testing.T) {
	assert.Equal(t, "+Inf", fixed(math.Inf(1), 4))
	assert.Equal(t, "-Inf", fixed(math.Inf(-1), 4))
	assert.Equal(t, "NaN", fixed(math.NaN(), 4))
	assert.Equal(t, "1.2500", fixed(1.25, 4))
}

func TestHandle_Converge(t *testing.T) {
	client := &fakePoster{}
	err := testHandler().Handle(slack.SlashCommand{Command: "/converge", ChannelID: "C2", Text: "100 100 1 0.05 0.2 call"}, client)
	require.NoError(t, err)

	// header, one post per resolution, summary
	require.Len(t, client.posts, 2+len(latticeResolutions))
	assert.Contains(t, client.posts[0].text, "lattice convergence")
	for _, p := range client.posts[1:] {
		assert.Equal(t, "ts-1", p.threadTS)
	}
	assert.Contains(t, client.posts[1].text, "n=10")
	assert.Contains(t, client.posts[len(client.posts)-1].text, "Error decreasing: true")
}

func TestHandle_ConvergeSimulation(t *testing.T) {
	client := &fakePoster{}
	err := testHandler().Handle(slack.SlashCommand{Command: "/converge", ChannelID: "C2", Text: "100 100 1 0.05 0.2 put mc"}, client)
	require.NoError(t, err)

	require.Len(t, client.posts, 2+len(simulationResolutions))
	assert.Contains(t, client.posts[0].text, "Monte Carlo convergence")
	for _, p := range client.posts[1 : len(client.posts)-1] {
		assert.Contains(t, p.text, "se=")
	}
	assert.Contains(t, client.posts[len(client.posts)-1].text, "Error decreasing: true")
}

func TestHandle_HelpAndUnknown(t *testing.T) {
	client := &fakePoster{}
	h := testHandler()

	require.NoError(t, h.Handle(slack.SlashCommand{Command: "/help", ChannelID: "C3"}, client))
	require.Len(t, client.posts, 1)
	assert.Equal(t, helpText, client.posts[0].text)

	require.NoError(t, h.Handle(slack.SlashCommand{Command: "/fcs", ChannelID: "C3"}, client))
	assert.Len(t, client.posts, 1)
}

func TestRenderPoint(t *testing.T) {
	se := 0.0123456
	line := RenderPoint(probability.Point{Resolution: 1000, Price: 10.43, AbsError: 0.0206, StandardError: &se})
	assert.Equal(t, "n=1000    price=10.4300  |err|=0.020600  se=0.012346", line)
}
