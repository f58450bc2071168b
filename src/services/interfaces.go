package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
)

// ImportSummary reports the outcome of a history upload or an exchange poll.
type ImportSummary struct {
	BatchID         string `json:"batch_id"`
	Source          string `json:"source"`
	OrdersImported  int    `json:"orders_imported"`
	TotalOrders     int    `json:"total_orders"`
	OpenPositions   int    `json:"open_positions"`
	ClosedPositions int    `json:"closed_positions"`
}

// PositionReport is the API view of a position, with its orders and
// realized profit figures attached.
type PositionReport struct {
	ID                 int64           `json:"id"`
	Exchange           string          `json:"exchange"`
	Currency           string          `json:"currency"`
	BaseCurrency       string          `json:"base_currency"`
	IsOpen             bool            `json:"is_open"`
	ClosedDate         *time.Time      `json:"closed_date,omitempty"`
	Orders             []*models.Order `json:"orders"`
	CurrencyProfitLoss decimal.Decimal `json:"currency_profit_loss"`
	BaseProfitLoss     decimal.Decimal `json:"base_profit_loss"`
	BaseProfitPercent  decimal.Decimal `json:"base_profit_percent"`
}

// WalletBalance is the API view of one exchange wallet's currency balances.
type WalletBalance struct {
	Exchange string                     `json:"exchange"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// PortfolioService defines the interface for the core ledger logic: turning
// uploaded or polled trade history into orders, positions and balances, and
// serving reports over them.
type PortfolioService interface {
	ProcessUpload(fileReader io.Reader, source string) (*ImportSummary, error)
	ProcessPoll(ctx context.Context, source string) (*ImportSummary, error)
	GetOrders() ([]*models.Order, error)
	GetBalances() ([]WalletBalance, error)
	GetOpenPositions() ([]PositionReport, error)
	GetClosedPositions() ([]PositionReport, error)
	GetOffers() ([]models.ClosedPositionOffer, error)
	ClosePosition(positionID int64) error
	SplitPosition(positionID int64, orderIDs []string) (*PositionReport, error)
	AcceptOffer(offer models.ClosedPositionOffer) error
}
