package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/username/coinfolio/backend/src/logger"
)

// Decimal columns are TEXT: amounts round-trip through their exact decimal
// text representation, never through binary floating point.
const schema = `
CREATE TABLE IF NOT EXISTS wallets (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS balances (
	wallet_name TEXT NOT NULL,
	currency TEXT NOT NULL,
	amount TEXT NOT NULL,
	PRIMARY KEY (wallet_name, currency),
	FOREIGN KEY (wallet_name) REFERENCES wallets(name)
);

CREATE TABLE IF NOT EXISTS positions (
	id INTEGER PRIMARY KEY,
	wallet_name TEXT NOT NULL,
	exchange TEXT NOT NULL,
	currency TEXT NOT NULL,
	base_currency TEXT NOT NULL,
	is_open BOOLEAN NOT NULL,
	closed_date TEXT,
	FOREIGN KEY (wallet_name) REFERENCES wallets(name)
);

CREATE UNIQUE INDEX IF NOT EXISTS single_open_position_per_market
	ON positions(exchange, currency, base_currency) WHERE is_open = 1;

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	wallet_name TEXT NOT NULL,
	position_id INTEGER NOT NULL,
	closed_date TEXT NOT NULL,
	exchange TEXT NOT NULL,
	order_type TEXT NOT NULL,
	currency TEXT NOT NULL,
	base_currency TEXT NOT NULL,
	quantity TEXT NOT NULL,
	subtotal TEXT NOT NULL,
	currency_fee TEXT NOT NULL,
	base_fee TEXT NOT NULL,
	net_currency TEXT NOT NULL,
	net_base TEXT NOT NULL,
	FOREIGN KEY (wallet_name) REFERENCES wallets(name),
	FOREIGN KEY (position_id) REFERENCES positions(id)
);
`

// Open opens (creating if necessary) the ledger database and ensures the
// schema exists. The partial unique index on open positions is the
// storage-level backstop for the single-open-position-per-market rule the
// wallet routing enforces logically.
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", databasePath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	if logger.L != nil {
		logger.L.Info("database tables ensured", "databasePath", databasePath)
	}
	return db, nil
}
