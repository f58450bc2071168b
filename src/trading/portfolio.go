package trading

import (
	"fmt"
	"sort"

	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/progress"
)

// Portfolio is the root aggregate: every wallet for the user, indexed by
// exchange name, plus the order index that makes bulk import idempotent.
// Position ids are surrogate integers allocated here so no two positions
// across wallets collide.
type Portfolio struct {
	wallets        map[string]*Wallet
	ordersByID     map[string]*models.Order
	nextPositionID int64
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		wallets:        make(map[string]*Wallet),
		ordersByID:     make(map[string]*models.Order),
		nextPositionID: 1,
	}
}

// SetNextPositionID seeds the surrogate id allocator; the store calls this
// after loading persisted positions.
func (p *Portfolio) SetNextPositionID(id int64) {
	p.nextPositionID = id
}

func (p *Portfolio) allocPositionID() int64 {
	id := p.nextPositionID
	p.nextPositionID++
	return id
}

// RestoreWallet attaches a persisted wallet and indexes its orders.
func (p *Portfolio) RestoreWallet(wallet *Wallet) {
	wallet.newPositionID = p.allocPositionID
	p.wallets[wallet.Name] = wallet
	for _, order := range wallet.Orders() {
		p.ordersByID[order.ID] = order
	}
}

// Wallet returns the wallet for an exchange name, if it exists.
func (p *Portfolio) Wallet(name string) (*Wallet, bool) {
	wallet, ok := p.wallets[name]
	return wallet, ok
}

// Wallets returns all wallets sorted by name.
func (p *Portfolio) Wallets() []*Wallet {
	names := make([]string, 0, len(p.wallets))
	for name := range p.wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	wallets := make([]*Wallet, len(names))
	for i, name := range names {
		wallets[i] = p.wallets[name]
	}
	return wallets
}

// AddOrders merges a freshly parsed or polled batch of orders. The import
// is idempotent: an order whose id already exists anywhere is skipped when
// field-for-field equal, or has its totals replaced in place when the
// incoming aggregate is newer, keeping its wallet and position membership.
// New orders are routed through the wallet for their exchange, creating
// the wallet first if needed. Orders are applied individually, so a failed
// batch can safely be re-run.
func (p *Portfolio) AddOrders(orders []*models.Order, progressFn progress.Func) error {
	total := len(orders)
	progress.Report(progressFn, 0, total)
	for i, order := range orders {
		if existing, ok := p.ordersByID[order.ID]; ok {
			if !existing.Equal(order) {
				existing.ReplaceTotals(order)
			}
			progress.Report(progressFn, i+1, total)
			continue
		}
		wallet, ok := p.wallets[order.Exchange]
		if !ok {
			wallet = NewWallet(order.Exchange)
			wallet.newPositionID = p.allocPositionID
			p.wallets[order.Exchange] = wallet
		}
		if err := wallet.AddOrder(order); err != nil {
			return fmt.Errorf("adding order %s: %w", order.ID, err)
		}
		p.ordersByID[order.ID] = order
		progress.Report(progressFn, i+1, total)
	}
	return nil
}

// Orders lists every order across wallets, most recent first.
func (p *Portfolio) Orders() []*models.Order {
	var orders []*models.Order
	for _, wallet := range p.Wallets() {
		orders = append(orders, wallet.Orders()...)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ClosedDate.After(orders[j].ClosedDate)
	})
	return orders
}

// OpenPositions lists open positions across all wallets.
func (p *Portfolio) OpenPositions() []*Position {
	var positions []*Position
	for _, wallet := range p.Wallets() {
		positions = append(positions, wallet.OpenPositions()...)
	}
	return positions
}

// ClosedPositions lists closed positions across all wallets, ordered by
// exchange, base currency and currency ascending, then closed date
// descending.
func (p *Portfolio) ClosedPositions() []*Position {
	var positions []*Position
	for _, wallet := range p.Wallets() {
		positions = append(positions, wallet.ClosedPositions()...)
	}
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.Exchange != b.Exchange {
			return a.Exchange < b.Exchange
		}
		if a.BaseCurrency != b.BaseCurrency {
			return a.BaseCurrency < b.BaseCurrency
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.ClosedDate.After(b.ClosedDate)
	})
	return positions
}

// CreateClosedPositionOffers collects offers from every wallet.
func (p *Portfolio) CreateClosedPositionOffers() []models.ClosedPositionOffer {
	var offers []models.ClosedPositionOffer
	for _, wallet := range p.Wallets() {
		offers = append(offers, wallet.CreateClosedPositionOffers()...)
	}
	return offers
}

// FindPosition resolves a position id to its wallet and position.
func (p *Portfolio) FindPosition(positionID int64) (*Wallet, *Position, error) {
	for _, wallet := range p.Wallets() {
		for _, position := range wallet.Positions() {
			if position.ID == positionID {
				return wallet, position, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %d", ErrPositionNotFound, positionID)
}

// ClosePosition closes the position with the given id.
func (p *Portfolio) ClosePosition(positionID int64) error {
	_, position, err := p.FindPosition(positionID)
	if err != nil {
		return err
	}
	return position.Close()
}

// SplitPosition moves the given orders out of the position into a new,
// immediately closed position for the same market.
func (p *Portfolio) SplitPosition(positionID int64, orderIDs []string) (*Position, error) {
	wallet, position, err := p.FindPosition(positionID)
	if err != nil {
		return nil, err
	}
	orders, err := position.ordersByIDs(orderIDs)
	if err != nil {
		return nil, err
	}
	return wallet.MoveOrdersToNewClosedPosition(position, orders)
}

// AcceptOffer realizes a closed-position offer: when the offer covers the
// position's full order set the position itself is closed, otherwise the
// listed orders are split into a new closed position.
func (p *Portfolio) AcceptOffer(offer models.ClosedPositionOffer) error {
	_, position, err := p.FindPosition(offer.PositionID)
	if err != nil {
		return err
	}
	full := position.OrderIDs()
	if len(full) == len(offer.OrderIDs) {
		covered := make(map[string]bool, len(offer.OrderIDs))
		for _, id := range offer.OrderIDs {
			covered[id] = true
		}
		all := true
		for _, id := range full {
			if !covered[id] {
				all = false
				break
			}
		}
		if all {
			return position.Close()
		}
	}
	_, err = p.SplitPosition(offer.PositionID, offer.OrderIDs)
	return err
}
