package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_PnL(t *testing.T) {
	call := mustInputs(t, 100, 100, 1, 0.05, 0.2, Call)

	long := Position{Inputs: call, Side: Long, Quantity: 2, Premium: 10}
	assert.Equal(t, 20.0, long.PnL(120))
	assert.Equal(t, -20.0, long.PnL(80))
	assert.Equal(t, 40.0, long.Payoff(120))

	short := long
	short.Side = Short
	assert.Equal(t, -20.0, short.PnL(120))
	assert.Equal(t, 20.0, short.PnL(80))
}

func TestPosition_Signed(t *testing.T) {
	g := Greeks{Delta: 0.5, Gamma: 0.02, Vega: 30, Theta: -5, Rho: 40}
	p := Position{Side: Short, Quantity: 3}

	got := p.Signed(g)
	assert.Equal(t, Greeks{Delta: -1.5, Gamma: -0.06, Vega: -90, Theta: 15, Rho: -120}, got)
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("BUY")
	require.NoError(t, err)
	assert.Equal(t, Long, s)

	s, err = ParseSide("short")
	require.NoError(t, err)
	assert.Equal(t, Short, s)

	_, err = ParseSide("flat")
	require.ErrorIs(t, err, ErrInvalidInput)
}
