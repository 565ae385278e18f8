package positions

import (
	"fmt"

	"github.com/bcdannyboy/optprice/models"
)

// ShadowGamma calculates the Shadow Up-Gamma and Shadow Down-Gamma: the change
// in delta when spot moves by priceChange (relative) and volatility moves with
// it by volChange (relative).
func ShadowGamma(in models.MarketInputs, priceChange, volChange float64) (float64, float64, error) {
	if !(priceChange > 0 && priceChange < 1) || !(volChange >= 0 && volChange < 1) {
		return 0, 0, fmt.Errorf("%w: shadow gamma bumps must be in [0,1), got %v and %v", models.ErrInvalidInput, priceChange, volChange)
	}

	originalDelta, err := deltaAt(in, in.Spot(), in.Volatility())
	if err != nil {
		return 0, 0, err
	}

	// Shadow Up-Gamma
	upSpot := in.Spot() * (1 + priceChange)
	upDelta, err := deltaAt(in, upSpot, in.Volatility()*(1+volChange))
	if err != nil {
		return 0, 0, err
	}

	// Shadow Down-Gamma
	downSpot := in.Spot() * (1 - priceChange)
	downDelta, err := deltaAt(in, downSpot, in.Volatility()*(1-volChange))
	if err != nil {
		return 0, 0, err
	}

	up := (upDelta - originalDelta) / (upSpot - in.Spot())
	down := (originalDelta - downDelta) / (in.Spot() - downSpot)
	return up, down, nil
}

// SkewGamma calculates the Skew Gamma (Volga) as a central difference of vega.
func SkewGamma(in models.MarketInputs, volStep float64) (float64, error) {
	if !(volStep > 0 && volStep < in.Volatility()) {
		return 0, fmt.Errorf("%w: vol step must be in (0, %v), got %v", models.ErrInvalidInput, in.Volatility(), volStep)
	}

	vegaUp, err := vegaAt(in, in.Volatility()+volStep)
	if err != nil {
		return 0, err
	}
	vegaDown, err := vegaAt(in, in.Volatility()-volStep)
	if err != nil {
		return 0, err
	}
	return (vegaUp - vegaDown) / (2 * volStep), nil
}

func deltaAt(in models.MarketInputs, spot, vol float64) (float64, error) {
	bumped, err := in.WithSpot(spot)
	if err != nil {
		return 0, err
	}
	if bumped, err = bumped.WithVolatility(vol); err != nil {
		return 0, err
	}
	g, err := models.BlackScholes{}.Greeks(bumped)
	return g.Delta, err
}

func vegaAt(in models.MarketInputs, vol float64) (float64, error) {
	bumped, err := in.WithVolatility(vol)
	if err != nil {
		return 0, err
	}
	g, err := models.BlackScholes{}.Greeks(bumped)
	return g.Vega, err
}
