package positions

import (
	"testing"

	"github.com/bcdannyboy/optprice/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShadowGamma(t *testing.T) {
	in, err := models.NewMarketInputs(100, 100, 1, 0.05, 0.2, models.Call)
	require.NoError(t, err)
	g, err := models.BlackScholes{}.Greeks(in)
	require.NoError(t, err)

	// without a vol bump both sides approach plain gamma
	up, down, err := ShadowGamma(in, 0.001, 0)
	require.NoError(t, err)
	assert.InDelta(t, g.Gamma, up, 1e-4)
	assert.InDelta(t, g.Gamma, down, 1e-4)

	// spot and vol rising together lifts an ATM call's delta less than spot alone
	shadowUp, _, err := ShadowGamma(in, 0.01, 0.05)
	require.NoError(t, err)
	assert.Less(t, shadowUp, g.Gamma)

	_, _, err = ShadowGamma(in, 0, 0.05)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSkewGamma(t *testing.T) {
	in, err := models.NewMarketInputs(100, 100, 1, 0.05, 0.2, models.Call)
	require.NoError(t, err)

	// volga = vega d1 d2 / sigma with d1 = 0.35, d2 = 0.15
	g, err := models.BlackScholes{}.Greeks(in)
	require.NoError(t, err)
	want := g.Vega * 0.35 * 0.15 / 0.2

	got, err := SkewGamma(in, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 0.2)

	_, err = SkewGamma(in, 0.2)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}
