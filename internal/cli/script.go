package cli

import (
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"papertrade/internal/errors"
	"papertrade/internal/models"
)

// orderRow is one row of an order script CSV.
type orderRow struct {
	Type       string `csv:"type"`
	Ticker     string `csv:"ticker"`
	Shares     string `csv:"shares"`
	Price      string `csv:"price"`
	Pricing    string `csv:"pricing"`
	ValidHours int    `csv:"valid_hours"`
}

// transactionRow is one row of a transaction log CSV.
type transactionRow struct {
	Date       string `csv:"date"`
	Type       string `csv:"type"`
	Ticker     string `csv:"ticker"`
	Price      string `csv:"price"`
	Shares     string `csv:"shares"`
	Commission string `csv:"commission"`
}

var orderTypeNames = map[string]models.OrderType{
	"DEPOSIT":           models.OrderDeposit,
	"WITHDRAWAL":        models.OrderWithdrawal,
	"DIVIDEND":          models.OrderDividendReceipt,
	"DIVIDEND_REINVEST": models.OrderDividendReinvestment,
	"BUY":               models.OrderBuy,
	"SELL":              models.OrderSell,
	"SELL_SHORT":        models.OrderSellShort,
	"BUY_TO_COVER":      models.OrderBuyToCover,
}

var pricingNames = map[string]models.PricingType{
	"":            models.PricingMarket,
	"MARKET":      models.PricingMarket,
	"LIMIT":       models.PricingLimit,
	"STOP":        models.PricingStop,
	"STOP_MARKET": models.PricingStopMarket,
	"STOP_LIMIT":  models.PricingStopLimit,
}

// loadOrderScript reads an order script CSV into validated orders, all
// issued at the given time.
func loadOrderScript(path string, issued time.Time) ([]*models.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening order script")
	}
	defer f.Close()

	var rows []orderRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, errors.Wrap(err, "parsing order script")
	}

	orders := make([]*models.Order, 0, len(rows))
	for i, row := range rows {
		typ, ok := orderTypeNames[strings.ToUpper(row.Type)]
		if !ok {
			return nil, errors.NewValidationError("type", row.Type, "unrecognized order type")
		}
		pricing, ok := pricingNames[strings.ToUpper(row.Pricing)]
		if !ok {
			return nil, errors.NewValidationError("pricing", row.Pricing, "unrecognized pricing type")
		}
		shares, err := decimal.NewFromString(row.Shares)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing shares", i+1)
		}
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing price", i+1)
		}
		validFor := time.Duration(row.ValidHours) * time.Hour
		if validFor <= 0 {
			validFor = 24 * time.Hour
		}
		order, err := models.NewOrder(issued, issued.Add(validFor), typ, row.Ticker, shares, price, pricing)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// loadTransactionLog reads a transaction log CSV into transactions.
func loadTransactionLog(path string) ([]models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening transaction log")
	}
	defer f.Close()

	var rows []transactionRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, errors.Wrap(err, "parsing transaction log")
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		settlement, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing date", i+1)
		}
		typ, ok := orderTypeNames[strings.ToUpper(row.Type)]
		if !ok {
			return nil, errors.NewValidationError("type", row.Type, "unrecognized transaction type")
		}
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing price", i+1)
		}
		shares, err := decimal.NewFromString(row.Shares)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parsing shares", i+1)
		}
		commission := decimal.Zero
		if row.Commission != "" {
			commission, err = decimal.NewFromString(row.Commission)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: parsing commission", i+1)
			}
		}
		tx, err := models.NewTransaction(settlement, typ, row.Ticker, price, shares, commission)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
