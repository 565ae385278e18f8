package volatility

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatBars closes every day where it opened, with a fixed high-low range.
func flatBars(n int, rangeLog float64) []Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  100,
			High:  100 * math.Exp(rangeLog),
			Low:   100,
			Close: 100,
		}
	}
	return bars
}

func TestRangeEstimators(t *testing.T) {
	bars := flatBars(30, 0.02)
	h2 := 0.02 * 0.02

	pk, err := Parkinson(bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(h2/(4*math.Ln2)*TradingDays), pk, 1e-12)

	gk, err := GarmanKlass(bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.5*h2*TradingDays), gk, 1e-12)

	rs, err := RogersSatchell(bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(h2*TradingDays), rs, 1e-12)

	n := 21.0
	k := 0.34 / (1.34 + (n+1)/(n-1))
	yz, err := YangZhang(bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt((1-k)*h2*TradingDays), yz, 1e-12)

	cc, err := CloseToClose(bars, 21)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cc)
}

func TestCloseToClose(t *testing.T) {
	bars := flatBars(5, 0)
	closes := []float64{100, 101, 100, 101, 100}
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = closes[i], closes[i], closes[i], closes[i]
	}

	r := math.Log(1.01)
	// four returns of ±r with zero mean
	want := math.Sqrt(4 * r * r / 3 * TradingDays)

	got, err := CloseToClose(bars, 5)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestEstimators_TrailingWindow(t *testing.T) {
	bars := append(flatBars(10, 0.05), flatBars(21, 0.02)...)
	got, err := Parkinson(bars, 21)
	require.NoError(t, err)

	want, err := Parkinson(flatBars(21, 0.02), 21)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEstimators_InsufficientData(t *testing.T) {
	bars := flatBars(4, 0.01)
	for name, est := range map[string]Estimator{
		"close": CloseToClose,
		"pk":    Parkinson,
		"gk":    GarmanKlass,
		"rs":    RogersSatchell,
		"yz":    YangZhang,
	} {
		_, err := est(bars, 5)
		assert.ErrorIs(t, err, ErrInsufficientData, name)
	}

	_, err := YangZhang(bars, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTermStructure(t *testing.T) {
	ts := TermStructure(flatBars(70, 0.02), Parkinson)
	assert.Len(t, ts, 3)
	assert.Contains(t, ts, "1w")
	assert.Contains(t, ts, "3m")
	assert.NotContains(t, ts, "6m")
	assert.Equal(t, []string{"1w", "1m", "3m"}, SortedWindows(ts))
}

func TestReadCSV(t *testing.T) {
	data := `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,1000
2024-01-03,101,103,100,102.5,1200
2024-01-04, 102.5, 104, 101, 103, 900
`
	bars, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), bars[1].Date)
	assert.Equal(t, 102.5, bars[1].Close)
	assert.Equal(t, 900.0, bars[2].Volume)

	returns := Returns(bars)
	require.Len(t, returns, 2)
	assert.InDelta(t, math.Log(102.5/101), returns[0], 1e-15)
}

func TestReadCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"missing column":   "date,open,high,low\n2024-01-02,1,2,1\n",
		"bad date":         "date,open,high,low,close\n02/01/2024,1,2,1,1\n",
		"bad number":       "date,open,high,low,close\n2024-01-02,x,2,1,1\n",
		"close above high": "date,open,high,low,close\n2024-01-02,1,2,1,3\n",
		"out of order":     "date,open,high,low,close\n2024-01-03,1,2,1,1\n2024-01-02,1,2,1,1\n",
		"empty":            "",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}
