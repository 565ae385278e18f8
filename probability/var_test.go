package probability

import (
	"testing"

	"github.com/bcdannyboy/optprice/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAtRisk_KnownDistribution(t *testing.T) {
	in, err := models.NewMarketInputs(50, 50, 1, 0.05, 0.2, models.Call)
	require.NoError(t, err)
	pos := models.Position{Inputs: in, Side: models.Short, Quantity: 1, Premium: 5}

	terminals := make([]float64, 100)
	for i := range terminals {
		terminals[i] = float64(i + 1)
	}

	v, err := ValueAtRisk(pos, terminals, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 40.0, v)

	es, err := ExpectedShortfall(pos, terminals, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, es, 1e-12)
}

func TestValueAtRisk_SimulatedLongCall(t *testing.T) {
	in := atmCall(t)
	bs, err := models.BlackScholes{}.Price(in)
	require.NoError(t, err)
	pos := models.Position{Inputs: in, Side: models.Long, Quantity: 10, Premium: bs.Price}

	terminals, err := models.MonteCarlo{Workers: 2}.Terminals(in, 20_000, models.Seed(9))
	require.NoError(t, err)

	v, err := ValueAtRisk(pos, terminals, 0.99)
	require.NoError(t, err)
	es, err := ExpectedShortfall(pos, terminals, 0.99)
	require.NoError(t, err)

	// a long option can lose at most its premium
	assert.InDelta(t, 10*bs.Price, v, 1e-9)
	assert.InDelta(t, 10*bs.Price, es, 1e-9)
}

func TestValueAtRisk_InvalidArguments(t *testing.T) {
	pos := models.Position{Inputs: atmCall(t), Side: models.Long, Quantity: 1}

	_, err := ValueAtRisk(pos, nil, 0.95)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	for _, c := range []float64{0, 1, -0.5, 1.5} {
		_, err = ExpectedShortfall(pos, []float64{100}, c)
		require.ErrorIs(t, err, models.ErrInvalidInput, "confidence=%v", c)
	}
}
