// Package bittrex parses Bittrex order-history CSV exports.
package bittrex

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/mapper"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/parsers/history"
	"github.com/username/coinfolio/backend/src/progress"
)

const (
	Source  = "bittrex"
	profile = "BittrexCSV"
)

// Headers are the known header signatures for this format. Bittrex also
// emits a UTF-16 variant of the same header; NUL stripping reduces it to
// this one.
var Headers = []string{
	"OrderUuid,Exchange,Type,Quantity,Limit,CommissionPaid,Price,Opened,Closed",
}

type BittrexParser struct{}

func NewParser() *BittrexParser {
	return &BittrexParser{}
}

// Parse reads a Bittrex history CSV. The export states the subtotal but no
// usable unit price, so price is derived as subtotal/quantity per row;
// rows with zero quantity cannot be priced and are skipped.
func (p *BittrexParser) Parse(file io.Reader, progressFn progress.Func) ([]*models.Order, error) {
	scanner := bufio.NewScanner(file)
	var lines []string
	for scanner.Scan() {
		// strip UTF-16 NUL bytes and the BOM some exports carry
		line := strings.TrimPrefix(strings.ReplaceAll(scanner.Text(), "\x00", ""), "\uFEFF")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bittrex history: %w", err)
	}
	if len(lines) < 1 {
		return nil, fmt.Errorf("bittrex history is empty")
	}
	lines = lines[1:] // header

	var trades []*models.Trade
	total := len(lines)
	progress.Report(progressFn, 0, total)
	for i, line := range lines {
		row, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil {
			history.WarnSkippedRow(Source, i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade := &models.Trade{}
		if err := mapper.MapRecordToTrade(mapper.Row(row), trade, profile); err != nil {
			history.WarnSkippedRow(Source, i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		if trade.Quantity.IsZero() {
			history.WarnSkippedRow(Source, i+1, fmt.Errorf("%w: cannot derive price", models.ErrZeroQuantity))
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade.Price = trade.Subtotal.Div(trade.Quantity)
		trade.RecalculateNetAmounts()
		trades = append(trades, trade)
		progress.Report(progressFn, i+1, total)
	}

	orders := history.OrdersFromTrades(trades)
	if logger.L != nil {
		logger.L.Info("parsed bittrex history", "rows", total, "trades", len(trades), "orders", len(orders))
	}
	return orders, nil
}
