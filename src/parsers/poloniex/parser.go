// Package poloniex parses Poloniex trade-history CSV exports.
package poloniex

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/mapper"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/parsers/history"
	"github.com/username/coinfolio/backend/src/progress"
)

const (
	Source  = "poloniex"
	profile = "PoloniexCSV"
)

var Headers = []string{
	"Date,Market,Category,Type,Price,Amount,Total,Fee,Order Number," +
		"Base Total Less Fee,Quote Total Less Fee",
}

type PoloniexParser struct{}

func NewParser() *PoloniexParser {
	return &PoloniexParser{}
}

// Parse reads a Poloniex trade-history CSV. Poloniex reports net totals
// instead of fees, so the fee on each side is inferred as the gross amount
// minus the absolute net amount before the net deltas are recomputed.
func (p *PoloniexParser) Parse(file io.Reader, progressFn progress.Func) ([]*models.Order, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading poloniex history header: %w", err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading poloniex history: %w", err)
	}

	var trades []*models.Trade
	total := len(rows)
	progress.Report(progressFn, 0, total)
	for i, row := range rows {
		trade := &models.Trade{}
		if err := mapper.MapRecordToTrade(mapper.Row(row), trade, profile); err != nil {
			history.WarnSkippedRow(Source, i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade.CurrencyFee = trade.Quantity.Sub(trade.NetCurrency.Abs())
		trade.BaseFee = trade.Subtotal.Sub(trade.NetBase.Abs())
		trade.RecalculateNetAmounts()
		trades = append(trades, trade)
		progress.Report(progressFn, i+1, total)
	}

	orders := history.OrdersFromTrades(trades)
	if logger.L != nil {
		logger.L.Info("parsed poloniex history", "rows", total, "trades", len(trades), "orders", len(orders))
	}
	return orders, nil
}
