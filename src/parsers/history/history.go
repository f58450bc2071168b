// Package history defines the shared contract for trade-history parsers
// and the aggregation of parsed trades into orders.
package history

import (
	"io"
	"sort"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/progress"
)

// Parser reads one exchange's trade-history export and returns the
// aggregated orders it contains. Implementations skip malformed rows with
// a warning rather than aborting the file; one bad history row should not
// lose the rest of the import.
type Parser interface {
	Parse(file io.Reader, progressFn progress.Func) ([]*models.Order, error)
}

// OrdersFromTrades folds a sequence of trades into one order per order id.
// The first trade for an id seeds the order; later trades for the same id
// are folded in additively. Trades need not arrive in chronological order;
// totals and closed dates come out the same either way. Orders are
// returned sorted by closed date, ties broken by id.
func OrdersFromTrades(trades []*models.Trade) []*models.Order {
	byID := make(map[string]*models.Order)
	for _, trade := range trades {
		if order, ok := byID[trade.OrderID]; ok {
			order.AddTrade(trade)
		} else {
			byID[trade.OrderID] = models.NewOrder(trade)
		}
	}
	orders := make([]*models.Order, 0, len(byID))
	for _, order := range byID {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].ClosedDate.Equal(orders[j].ClosedDate) {
			return orders[i].ClosedDate.Before(orders[j].ClosedDate)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders
}

// WarnSkippedRow records a malformed history row that was skipped.
func WarnSkippedRow(source string, row int, err error) {
	if logger.L != nil {
		logger.L.Warn("skipping malformed history row", "source", source, "row", row, "error", err)
	}
}
