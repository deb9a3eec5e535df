package pricing

import (
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
)

// csvRow is one row of a price-history CSV export.
type csvRow struct {
	Date   string `csv:"date"`
	Ticker string `csv:"ticker"`
	Close  string `csv:"close"`
}

const csvDateLayout = "2006-01-02"

// LoadCSV reads price history rows (date,ticker,close) into a Series.
func LoadCSV(r io.Reader) (*Series, error) {
	var rows []csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parsing price history")
	}

	series := NewSeries()
	for i, row := range rows {
		at, err := time.Parse(csvDateLayout, row.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing date %q", i+1, row.Date)
		}
		price, err := decimal.NewFromString(row.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing close %q", i+1, row.Close)
		}
		if row.Ticker == "" {
			return nil, errors.NewValidationError("ticker", row.Ticker, "price history rows require a ticker")
		}
		series.Add(row.Ticker, at, price)
	}
	return series, nil
}

// LoadCSVFile reads price history from a file path.
func LoadCSVFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening price history")
	}
	defer f.Close()
	return LoadCSV(f)
}
