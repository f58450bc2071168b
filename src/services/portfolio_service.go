package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/parsers"
	"github.com/username/coinfolio/backend/src/parsers/history"
	"github.com/username/coinfolio/backend/src/pollers"
	"github.com/username/coinfolio/backend/src/progress"
	"github.com/username/coinfolio/backend/src/store"
	"github.com/username/coinfolio/backend/src/trading"
)

const (
	ckOrders          = "res_orders"
	ckBalances        = "res_balances"
	ckOpenPositions   = "res_open_positions"
	ckClosedPositions = "res_closed_positions"
	ckOffers          = "res_offers"
)

var (
	// ErrParsingFailed wraps any failure while turning an uploaded file
	// into orders, so handlers can map it to a 400.
	ErrParsingFailed = errors.New("parsing failed")

	// ErrPollerNotConfigured is returned when a poll is requested for an
	// exchange whose API credentials are not set.
	ErrPollerNotConfigured = errors.New("poller not configured")
)

type portfolioServiceImpl struct {
	store       store.Store
	pollers     map[string]pollers.Poller
	reportCache *cache.Cache

	mu        sync.Mutex
	portfolio *trading.Portfolio
}

func NewPortfolioService(
	portfolioStore store.Store,
	exchangePollers map[string]pollers.Poller,
	reportCache *cache.Cache,
) PortfolioService {
	return &portfolioServiceImpl{
		store:       portfolioStore,
		pollers:     exchangePollers,
		reportCache: reportCache,
	}
}

// loadPortfolioLocked lazily restores the portfolio from the store. The
// caller must hold s.mu.
func (s *portfolioServiceImpl) loadPortfolioLocked() (*trading.Portfolio, error) {
	if s.portfolio != nil {
		return s.portfolio, nil
	}
	portfolio, err := s.store.LoadPortfolio()
	if err != nil {
		return nil, fmt.Errorf("error loading portfolio: %w", err)
	}
	s.portfolio = portfolio
	return portfolio, nil
}

func (s *portfolioServiceImpl) ProcessUpload(fileReader io.Reader, source string) (*ImportSummary, error) {
	overallStartTime := time.Now()
	batchID := uuid.New().String()
	logger.L.Info("ProcessUpload START", "batchID", batchID, "source", source)

	historyParser, source, reader, err := resolveParser(fileReader, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	orders, err := historyParser.Parse(reader, importProgress(batchID, "parse"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	summary, err := s.importOrders(orders, batchID, source)
	if err != nil {
		return nil, err
	}
	logger.L.Info("ProcessUpload END", "batchID", batchID, "source", source,
		"ordersImported", summary.OrdersImported, "duration", time.Since(overallStartTime))
	return summary, nil
}

func (s *portfolioServiceImpl) ProcessPoll(ctx context.Context, source string) (*ImportSummary, error) {
	overallStartTime := time.Now()
	batchID := uuid.New().String()
	logger.L.Info("ProcessPoll START", "batchID", batchID, "source", source)

	poller, ok := s.pollers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPollerNotConfigured, source)
	}

	orders, err := poller.GetOrders(ctx, importProgress(batchID, "poll"))
	if err != nil {
		return nil, fmt.Errorf("error polling %s: %w", source, err)
	}

	summary, err := s.importOrders(orders, batchID, source)
	if err != nil {
		return nil, err
	}
	logger.L.Info("ProcessPoll END", "batchID", batchID, "source", source,
		"ordersImported", summary.OrdersImported, "duration", time.Since(overallStartTime))
	return summary, nil
}

// importOrders folds a batch of orders into the portfolio, persists it and
// invalidates the report caches.
func (s *portfolioServiceImpl) importOrders(orders []*models.Order, batchID, source string) (*ImportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	if err := portfolio.AddOrders(orders, importProgress(batchID, "import")); err != nil {
		// The in-memory portfolio may be partially updated; drop it so
		// the next operation reloads the persisted state.
		s.portfolio = nil
		return nil, fmt.Errorf("error importing orders: %w", err)
	}
	if err := s.store.SavePortfolio(portfolio); err != nil {
		return nil, fmt.Errorf("error saving portfolio: %w", err)
	}
	s.invalidateReportCache()

	return &ImportSummary{
		BatchID:         batchID,
		Source:          source,
		OrdersImported:  len(orders),
		TotalOrders:     len(portfolio.Orders()),
		OpenPositions:   len(portfolio.OpenPositions()),
		ClosedPositions: len(portfolio.ClosedPositions()),
	}, nil
}

func (s *portfolioServiceImpl) GetOrders() ([]*models.Order, error) {
	if cached, found := s.reportCache.Get(ckOrders); found {
		return cached.([]*models.Order), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	orders := portfolio.Orders()
	s.reportCache.Set(ckOrders, orders, cache.DefaultExpiration)
	return orders, nil
}

func (s *portfolioServiceImpl) GetBalances() ([]WalletBalance, error) {
	if cached, found := s.reportCache.Get(ckBalances); found {
		return cached.([]WalletBalance), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	balances := make([]WalletBalance, 0)
	for _, wallet := range portfolio.Wallets() {
		balances = append(balances, WalletBalance{
			Exchange: wallet.Name,
			Balances: wallet.Balances(),
		})
	}
	s.reportCache.Set(ckBalances, balances, cache.DefaultExpiration)
	return balances, nil
}

func (s *portfolioServiceImpl) GetOpenPositions() ([]PositionReport, error) {
	if cached, found := s.reportCache.Get(ckOpenPositions); found {
		return cached.([]PositionReport), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	reports := positionReports(portfolio.OpenPositions())
	s.reportCache.Set(ckOpenPositions, reports, cache.DefaultExpiration)
	return reports, nil
}

func (s *portfolioServiceImpl) GetClosedPositions() ([]PositionReport, error) {
	if cached, found := s.reportCache.Get(ckClosedPositions); found {
		return cached.([]PositionReport), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	reports := positionReports(portfolio.ClosedPositions())
	s.reportCache.Set(ckClosedPositions, reports, cache.DefaultExpiration)
	return reports, nil
}

func (s *portfolioServiceImpl) GetOffers() ([]models.ClosedPositionOffer, error) {
	if cached, found := s.reportCache.Get(ckOffers); found {
		return cached.([]models.ClosedPositionOffer), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	offers := portfolio.CreateClosedPositionOffers()
	s.reportCache.Set(ckOffers, offers, cache.DefaultExpiration)
	return offers, nil
}

func (s *portfolioServiceImpl) ClosePosition(positionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return err
	}
	if err := portfolio.ClosePosition(positionID); err != nil {
		return err
	}
	if err := s.store.SavePortfolio(portfolio); err != nil {
		return fmt.Errorf("error saving portfolio: %w", err)
	}
	s.invalidateReportCache()
	logger.L.Info("Closed position", "positionID", positionID)
	return nil
}

func (s *portfolioServiceImpl) SplitPosition(positionID int64, orderIDs []string) (*PositionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return nil, err
	}
	closedPosition, err := portfolio.SplitPosition(positionID, orderIDs)
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePortfolio(portfolio); err != nil {
		return nil, fmt.Errorf("error saving portfolio: %w", err)
	}
	s.invalidateReportCache()
	logger.L.Info("Split position", "positionID", positionID,
		"orderCount", len(orderIDs), "closedPositionID", closedPosition.ID)
	report := positionReport(closedPosition)
	return &report, nil
}

func (s *portfolioServiceImpl) AcceptOffer(offer models.ClosedPositionOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio, err := s.loadPortfolioLocked()
	if err != nil {
		return err
	}
	if err := portfolio.AcceptOffer(offer); err != nil {
		return err
	}
	if err := s.store.SavePortfolio(portfolio); err != nil {
		return fmt.Errorf("error saving portfolio: %w", err)
	}
	s.invalidateReportCache()
	logger.L.Info("Accepted closed-position offer", "positionID", offer.PositionID,
		"orderCount", len(offer.OrderIDs))
	return nil
}

// invalidateReportCache drops every cached report. The next request
// triggers a full recomputation from the in-memory portfolio.
func (s *portfolioServiceImpl) invalidateReportCache() {
	for _, key := range []string{ckOrders, ckBalances, ckOpenPositions, ckClosedPositions, ckOffers} {
		s.reportCache.Delete(key)
	}
}

// resolveParser returns the parser for an explicit source, or sniffs the
// file's first line when the source is empty. Detection consumes the
// reader, so the buffered content is handed back for parsing.
func resolveParser(fileReader io.Reader, source string) (history.Parser, string, io.Reader, error) {
	if source != "" {
		parser, err := parsers.GetParser(source)
		return parser, source, fileReader, err
	}
	data, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, "", nil, fmt.Errorf("error reading upload: %w", err)
	}
	parser, detected, err := parsers.DetectParser(firstLine(data))
	return parser, detected, bytes.NewReader(data), err
}

// firstLine extracts the header line of an export, stripping the UTF-16
// NUL bytes and BOM that Bittrex files carry.
func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	line := strings.ReplaceAll(string(data), "\x00", "")
	line = strings.TrimPrefix(line, "\uFEFF")
	return strings.TrimRight(line, "\r")
}

// importProgress returns a progress callback that logs every thousandth
// record of a batch stage.
func importProgress(batchID, stage string) progress.Func {
	return func(done, total int) {
		if logger.L != nil && done%1000 == 0 {
			logger.L.Debug("Import progress", "batchID", batchID, "stage", stage,
				"done", done, "total", total)
		}
	}
}

func positionReports(positions []*trading.Position) []PositionReport {
	reports := make([]PositionReport, len(positions))
	for i, position := range positions {
		reports[i] = positionReport(position)
	}
	return reports
}

func positionReport(position *trading.Position) PositionReport {
	report := PositionReport{
		ID:                 position.ID,
		Exchange:           position.Exchange,
		Currency:           position.Currency,
		BaseCurrency:       position.BaseCurrency,
		IsOpen:             position.IsOpen,
		Orders:             position.Orders(),
		CurrencyProfitLoss: position.CurrencyProfitLoss(),
		BaseProfitLoss:     position.BaseProfitLoss(),
		BaseProfitPercent:  position.BaseProfitPercent(),
	}
	if !position.IsOpen {
		closedDate := position.ClosedDate
		report.ClosedDate = &closedDate
	}
	return report
}
