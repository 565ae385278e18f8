package volatility

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInsufficientData = errors.New("insufficient data")

// Bar is one daily OHLCV observation.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b Bar) validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("bar %s: prices must be positive and finite", b.Date.Format(dateLayout))
		}
	}
	if b.Low > b.High || b.Open > b.High || b.Close > b.High || b.Open < b.Low || b.Close < b.Low {
		return fmt.Errorf("bar %s: open and close must lie within [low, high]", b.Date.Format(dateLayout))
	}
	return nil
}

// ReadCSV parses bars with a header row naming at least date, open, high,
// low and close columns (any order, any case). Rows must be in date order.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var bars []Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(bars); n > 0 && !bar.Date.After(bars[n-1].Date) {
			return nil, fmt.Errorf("line %d: dates must be strictly increasing", line)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(rec []string, cols map[string]int) (Bar, error) {
	var b Bar
	var err error
	if b.Date, err = time.Parse(dateLayout, strings.TrimSpace(rec[cols["date"]])); err != nil {
		return Bar{}, err
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
		{"volume", &b.Volume},
	}
	for _, f := range fields {
		i, ok := cols[f.name]
		if !ok {
			continue
		}
		if *f.dst, err = strconv.ParseFloat(strings.TrimSpace(rec[i]), 64); err != nil {
			return Bar{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return b, b.validate()
}

// Returns calculates daily log returns of closes.
func Returns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	return returns
}
