package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bcdannyboy/optprice/models"
	"github.com/bcdannyboy/optprice/positions"
	"github.com/xhhuango/json"
)

// positionSpec is one entry of a -book file.
type positionSpec struct {
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike"`
	Maturity      float64 `json:"maturity"`
	Rate          float64 `json:"rate"`
	Volatility    float64 `json:"volatility"`
	DividendYield float64 `json:"dividend_yield"`
	Type          string  `json:"type"`
	Side          string  `json:"side"`
	Quantity      float64 `json:"quantity"`
	Premium       float64 `json:"premium"`
}

func (s positionSpec) position() (models.Position, error) {
	typ, err := models.ParseOptionType(s.Type)
	if err != nil {
		return models.Position{}, err
	}
	side, err := models.ParseSide(s.Side)
	if err != nil {
		return models.Position{}, err
	}
	in, err := models.NewMarketInputs(s.Spot, s.Strike, s.Maturity, s.Rate, s.Volatility, typ, models.WithDividendYield(s.DividendYield))
	if err != nil {
		return models.Position{}, err
	}
	return models.Position{Inputs: in, Side: side, Quantity: s.Quantity, Premium: s.Premium}, nil
}

type bookReport struct {
	Valuations []positions.Valuation `json:"valuations"`
	Summary    positions.Summary     `json:"summary"`
}

func readBook(r io.Reader) ([]models.Position, error) {
	var specs []positionSpec
	if err := json.NewDecoder(r).Decode(&specs); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	book := make([]models.Position, len(specs))
	for i, s := range specs {
		pos, err := s.position()
		if err != nil {
			return nil, fmt.Errorf("book entry %d: %w", i, err)
		}
		book[i] = pos
	}
	return book, nil
}

// valueBookFile values every position in path with the request's resolutions.
// Per-position failures stay on the valuations; only unreadable books fail.
func valueBookFile(path string, req request, progress io.Writer) (*bookReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	book, err := readBook(f)
	if err != nil {
		return nil, err
	}

	vals, _ := positions.ValueBook(book, positions.Options{
		Steps:      req.Steps,
		Paths:      req.Paths,
		Seed:       req.Seed,
		Antithetic: req.Antithetic,
		Progress:   progress,
	})
	return &bookReport{Valuations: vals, Summary: positions.Aggregate(vals)}, nil
}
