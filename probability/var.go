package probability

import (
	"fmt"
	"sort"

	"github.com/bcdannyboy/optprice/models"
	"gonum.org/v1/gonum/stat"
)

// ValueAtRisk is the loss not exceeded with the given confidence across
// the simulated terminal prices.
func ValueAtRisk(pos models.Position, terminals []float64, confidence float64) (float64, error) {
	losses, err := sortedLosses(pos, terminals, confidence)
	if err != nil {
		return 0, err
	}
	return stat.Quantile(confidence, stat.Empirical, losses, nil), nil
}

// ExpectedShortfall is the mean loss at or beyond ValueAtRisk.
func ExpectedShortfall(pos models.Position, terminals []float64, confidence float64) (float64, error) {
	losses, err := sortedLosses(pos, terminals, confidence)
	if err != nil {
		return 0, err
	}
	v := stat.Quantile(confidence, stat.Empirical, losses, nil)
	i := sort.SearchFloat64s(losses, v)
	return stat.Mean(losses[i:], nil), nil
}

func sortedLosses(pos models.Position, terminals []float64, confidence float64) ([]float64, error) {
	if len(terminals) == 0 {
		return nil, fmt.Errorf("%w: no simulated prices", models.ErrInvalidInput)
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("%w: confidence must be in (0,1), got %v", models.ErrInvalidInput, confidence)
	}

	losses := make([]float64, len(terminals))
	for i, sT := range terminals {
		losses[i] = -pos.PnL(sT)
	}
	sort.Float64s(losses)
	return losses, nil
}
