// Package store persists the portfolio aggregate. It is injected into the
// service layer so its lifecycle is owned by the caller; nothing in the
// engine touches the database directly.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/trading"
)

// Store is the persistence boundary for the portfolio aggregate.
type Store interface {
	LoadPortfolio() (*trading.Portfolio, error)
	SavePortfolio(portfolio *trading.Portfolio) error
}

const dateFormat = time.RFC3339Nano

// SQLiteStore persists the portfolio in the ledger database. Saving
// rewrites the full aggregate in one transaction; the data set is one
// user's trading history, small enough that partial updates are not worth
// their complexity.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SavePortfolio writes every wallet, balance, position and order.
func (s *SQLiteStore) SavePortfolio(portfolio *trading.Portfolio) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"orders", "balances", "positions", "wallets"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	insertWallet, err := tx.Prepare(`INSERT INTO wallets (name) VALUES (?)`)
	if err != nil {
		return err
	}
	defer insertWallet.Close()
	insertBalance, err := tx.Prepare(`INSERT INTO balances (wallet_name, currency, amount) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertBalance.Close()
	insertPosition, err := tx.Prepare(`INSERT INTO positions
		(id, wallet_name, exchange, currency, base_currency, is_open, closed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertPosition.Close()
	insertOrder, err := tx.Prepare(`INSERT INTO orders
		(id, wallet_name, position_id, closed_date, exchange, order_type, currency, base_currency,
		 quantity, subtotal, currency_fee, base_fee, net_currency, net_base)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertOrder.Close()

	for _, wallet := range portfolio.Wallets() {
		if _, err := insertWallet.Exec(wallet.Name); err != nil {
			return fmt.Errorf("saving wallet %s: %w", wallet.Name, err)
		}
		for currency, amount := range wallet.Balances() {
			if _, err := insertBalance.Exec(wallet.Name, currency, amount.String()); err != nil {
				return fmt.Errorf("saving balance %s/%s: %w", wallet.Name, currency, err)
			}
		}
		for _, position := range wallet.Positions() {
			closedDate := sql.NullString{}
			if !position.IsOpen {
				closedDate = sql.NullString{String: position.ClosedDate.Format(dateFormat), Valid: true}
			}
			if _, err := insertPosition.Exec(
				position.ID, wallet.Name, position.Exchange, position.Currency,
				position.BaseCurrency, position.IsOpen, closedDate,
			); err != nil {
				return fmt.Errorf("saving position %d: %w", position.ID, err)
			}
			for _, order := range position.Orders() {
				if _, err := insertOrder.Exec(
					order.ID, wallet.Name, position.ID, order.ClosedDate.Format(dateFormat),
					order.Exchange, string(order.OrderType), order.Currency, order.BaseCurrency,
					order.Quantity.String(), order.Subtotal.String(),
					order.CurrencyFee.String(), order.BaseFee.String(),
					order.NetCurrency.String(), order.NetBase.String(),
				); err != nil {
					return fmt.Errorf("saving order %s: %w", order.ID, err)
				}
			}
		}
	}

	return tx.Commit()
}

// LoadPortfolio rebuilds the in-memory aggregate from the database and
// seeds the position-id allocator past the highest persisted id.
func (s *SQLiteStore) LoadPortfolio() (*trading.Portfolio, error) {
	portfolio := trading.NewPortfolio()

	walletRows, err := s.db.Query(`SELECT name FROM wallets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("loading wallets: %w", err)
	}
	defer walletRows.Close()

	var walletNames []string
	for walletRows.Next() {
		var name string
		if err := walletRows.Scan(&name); err != nil {
			return nil, err
		}
		walletNames = append(walletNames, name)
	}
	if err := walletRows.Err(); err != nil {
		return nil, err
	}

	var maxPositionID int64
	for _, name := range walletNames {
		wallet := trading.NewWallet(name)
		if err := s.loadBalances(wallet); err != nil {
			return nil, err
		}
		highest, err := s.loadPositions(wallet)
		if err != nil {
			return nil, err
		}
		if highest > maxPositionID {
			maxPositionID = highest
		}
		portfolio.RestoreWallet(wallet)
	}
	portfolio.SetNextPositionID(maxPositionID + 1)
	return portfolio, nil
}

func (s *SQLiteStore) loadBalances(wallet *trading.Wallet) error {
	rows, err := s.db.Query(`SELECT currency, amount FROM balances WHERE wallet_name = ?`, wallet.Name)
	if err != nil {
		return fmt.Errorf("loading balances for %s: %w", wallet.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var currency, amountText string
		if err := rows.Scan(&currency, &amountText); err != nil {
			return err
		}
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			return fmt.Errorf("balance %s/%s: %w", wallet.Name, currency, err)
		}
		wallet.RestoreBalance(currency, amount)
	}
	return rows.Err()
}

type positionRow struct {
	id                               int64
	exchange, currency, baseCurrency string
	isOpen                           bool
	closedDate                       sql.NullString
}

func (s *SQLiteStore) loadPositions(wallet *trading.Wallet) (int64, error) {
	rows, err := s.db.Query(`SELECT id, exchange, currency, base_currency, is_open, closed_date
		FROM positions WHERE wallet_name = ? ORDER BY id`, wallet.Name)
	if err != nil {
		return 0, fmt.Errorf("loading positions for %s: %w", wallet.Name, err)
	}
	defer rows.Close()

	// Drain the result set before issuing the per-position order queries:
	// a nested query would need a second connection while this one is
	// still held by the open rows.
	var positionRows []positionRow
	for rows.Next() {
		var row positionRow
		if err := rows.Scan(&row.id, &row.exchange, &row.currency, &row.baseCurrency,
			&row.isOpen, &row.closedDate); err != nil {
			return 0, err
		}
		positionRows = append(positionRows, row)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	rows.Close()

	var maxID int64
	for _, row := range positionRows {
		position := trading.NewPosition(row.id, row.exchange, row.currency, row.baseCurrency)
		orders, err := s.loadOrders(row.id)
		if err != nil {
			return 0, err
		}
		position.RestoreOrders(orders)
		position.IsOpen = row.isOpen
		if row.closedDate.Valid {
			date, err := time.Parse(dateFormat, row.closedDate.String)
			if err != nil {
				return 0, fmt.Errorf("position %d closed date: %w", row.id, err)
			}
			position.ClosedDate = date
		}
		wallet.RestorePosition(position)
		if row.id > maxID {
			maxID = row.id
		}
	}
	return maxID, nil
}

func (s *SQLiteStore) loadOrders(positionID int64) ([]*models.Order, error) {
	rows, err := s.db.Query(`SELECT id, closed_date, exchange, order_type, currency, base_currency,
		quantity, subtotal, currency_fee, base_fee, net_currency, net_base
		FROM orders WHERE position_id = ? ORDER BY closed_date`, positionID)
	if err != nil {
		return nil, fmt.Errorf("loading orders for position %d: %w", positionID, err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var (
			id, closedDate, exchange, orderType, currency, baseCurrency string
			quantity, subtotal, currencyFee, baseFee                    string
			netCurrency, netBase                                        string
		)
		if err := rows.Scan(&id, &closedDate, &exchange, &orderType, &currency, &baseCurrency,
			&quantity, &subtotal, &currencyFee, &baseFee, &netCurrency, &netBase); err != nil {
			return nil, err
		}
		order := &models.Order{
			ID:           id,
			Exchange:     exchange,
			OrderType:    models.OrderType(orderType),
			Currency:     currency,
			BaseCurrency: baseCurrency,
		}
		if order.ClosedDate, err = time.Parse(dateFormat, closedDate); err != nil {
			return nil, fmt.Errorf("order %s closed date: %w", id, err)
		}
		fields := []struct {
			dst  *decimal.Decimal
			text string
		}{
			{&order.Quantity, quantity},
			{&order.Subtotal, subtotal},
			{&order.CurrencyFee, currencyFee},
			{&order.BaseFee, baseFee},
			{&order.NetCurrency, netCurrency},
			{&order.NetBase, netBase},
		}
		for _, f := range fields {
			if *f.dst, err = decimal.NewFromString(f.text); err != nil {
				return nil, fmt.Errorf("order %s amount %q: %w", id, f.text, err)
			}
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
