// Package kraken parses Kraken trades CSV exports.
package kraken

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
	Source  = "kraken"
	profile = "KrakenCSV"
)

var Headers = []string{
	`"txid","ordertxid","pair","time","type","ordertype","price","cost","fee","vol","margin","misc","ledgers"`,
	`txid,ordertxid,pair,time,type,ordertype,price,cost,fee,vol,margin,misc,ledgers`,
}

type KrakenParser struct{}

func NewParser() *KrakenParser {
	return &KrakenParser{}
}

// Parse reads a Kraken trades CSV. The trailing ledgers column holds
// comma-separated ledger ids inside quotes; the CSV reader handles those,
// and the mapper never touches columns past vol.
func (p *KrakenParser) Parse(file io.Reader, progressFn progress.Func) ([]*models.Order, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading kraken history header: %w", err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading kraken history: %w", err)
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
		trade.RecalculateNetAmounts()
		trades = append(trades, trade)
		progress.Report(progressFn, i+1, total)
	}

	orders := history.OrdersFromTrades(trades)
	if logger.L != nil {
		logger.L.Info("parsed kraken history", "rows", total, "trades", len(trades), "orders", len(orders))
	}
	return orders, nil
}
