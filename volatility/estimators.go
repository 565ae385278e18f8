package volatility

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TradingDays annualizes daily variance.
const TradingDays = 252

// Estimator annualizes volatility over the trailing window bars.
type Estimator func(bars []Bar, window int) (float64, error)

// Windows are the lookbacks reported by TermStructure.
var Windows = map[string]int{
	"1w": 5,
	"1m": 21,
	"3m": 63,
	"6m": 126,
	"1y": 252,
}

// TermStructure evaluates est at every window the history is long enough for.
func TermStructure(bars []Bar, est Estimator) map[string]float64 {
	results := make(map[string]float64)
	for name, days := range Windows {
		if len(bars) < days {
			continue
		}
		if vol, err := est(bars, days); err == nil && vol != 0 {
			results[name] = vol
		}
	}
	return results
}

// SortedWindows lists the keys of a term structure from shortest to longest.
func SortedWindows(ts map[string]float64) []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return Windows[names[i]] < Windows[names[j]] })
	return names
}

func trailing(bars []Bar, window, minimum int) ([]Bar, error) {
	if window < minimum || len(bars) < window {
		return nil, fmt.Errorf("%w: window %d over %d bars (need at least %d)", ErrInsufficientData, window, len(bars), minimum)
	}
	return bars[len(bars)-window:], nil
}

func annualize(dailyVariance float64) float64 {
	return math.Sqrt(math.Max(dailyVariance, 0) * TradingDays)
}

// CloseToClose is the sample standard deviation of log close returns.
func CloseToClose(bars []Bar, window int) (float64, error) {
	w, err := trailing(bars, window, 3)
	if err != nil {
		return 0, err
	}
	return annualize(stat.Variance(Returns(w), nil)), nil
}

// Parkinson uses the high-low range only.
func Parkinson(bars []Bar, window int) (float64, error) {
	w, err := trailing(bars, window, 1)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, b := range w {
		logRatio := math.Log(b.High / b.Low)
		sum += logRatio * logRatio
	}
	return annualize(sum / (4 * float64(len(w)) * math.Ln2)), nil
}

func GarmanKlass(bars []Bar, window int) (float64, error) {
	w, err := trailing(bars, window, 1)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, b := range w {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return annualize(sum / float64(len(w))), nil
}

// RogersSatchell is drift independent.
func RogersSatchell(bars []Bar, window int) (float64, error) {
	w, err := trailing(bars, window, 1)
	if err != nil {
		return 0, err
	}
	return annualize(rogersSatchellVariance(w)), nil
}

func rogersSatchellVariance(w []Bar) float64 {
	sum := 0.0
	for _, b := range w {
		sum += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)
	}
	return sum / float64(len(w))
}

// YangZhang combines overnight, open-to-close and Rogers-Satchell variances.
func YangZhang(bars []Bar, window int) (float64, error) {
	w, err := trailing(bars, window, 3)
	if err != nil {
		return 0, err
	}
	n := float64(len(w))
	k := 0.34 / (1.34 + (n+1)/(n-1))

	overnight := make([]float64, len(w)-1)
	for i := 1; i < len(w); i++ {
		overnight[i-1] = math.Log(w[i].Open / w[i-1].Close)
	}
	openClose := make([]float64, len(w))
	for i, b := range w {
		openClose[i] = math.Log(b.Close / b.Open)
	}

	variance := stat.Variance(overnight, nil) + k*stat.Variance(openClose, nil) + (1-k)*rogersSatchellVariance(w)
	return annualize(variance), nil
}
