package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/pollers"
	"github.com/username/coinfolio/backend/src/trading"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// fakeStore keeps the portfolio in memory and counts saves.
type fakeStore struct {
	portfolio *trading.Portfolio
	saves     int
	loadErr   error
}

func (f *fakeStore) LoadPortfolio() (*trading.Portfolio, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.portfolio == nil {
		f.portfolio = trading.NewPortfolio()
	}
	return f.portfolio, nil
}

func (f *fakeStore) SavePortfolio(portfolio *trading.Portfolio) error {
	f.portfolio = portfolio
	f.saves++
	return nil
}

func newTestService(f *fakeStore) PortfolioService {
	return NewPortfolioService(f, map[string]pollers.Poller{}, cache.New(time.Minute, time.Minute))
}

const bittrexUpload = `OrderUuid,Exchange,Type,Quantity,Limit,CommissionPaid,Price,Opened,Closed
uuid-1,BTC-LTC,LIMIT_BUY,2.0,0.019,0.0001,0.038,2017-06-01 09:00:00,2017-06-01 10:30:00
uuid-2,BTC-LTC,LIMIT_SELL,2.0,0.021,0.00005,0.042,2017-06-02 09:00:00,2017-06-02 11:00:00
`

func TestProcessUploadExplicitSource(t *testing.T) {
	store := &fakeStore{}
	service := newTestService(store)

	summary, err := service.ProcessUpload(strings.NewReader(bittrexUpload), "bittrex")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	if summary.Source != "bittrex" || summary.OrdersImported != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.BatchID == "" {
		t.Error("summary missing batch id")
	}
	if store.saves != 1 {
		t.Errorf("store saved %d times, want 1", store.saves)
	}

	orders, err := service.GetOrders()
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("got %d orders, want 2", len(orders))
	}
}

func TestProcessUploadDetectsFormat(t *testing.T) {
	service := newTestService(&fakeStore{})

	summary, err := service.ProcessUpload(strings.NewReader(bittrexUpload), "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if summary.Source != "bittrex" {
		t.Errorf("detected source = %q, want bittrex", summary.Source)
	}
}

func TestProcessUploadUnknownSource(t *testing.T) {
	service := newTestService(&fakeStore{})

	_, err := service.ProcessUpload(strings.NewReader(bittrexUpload), "mtgox")
	if !errors.Is(err, ErrParsingFailed) {
		t.Fatalf("err = %v, want ErrParsingFailed", err)
	}
}

func TestUploadInvalidatesReportCache(t *testing.T) {
	service := newTestService(&fakeStore{})

	if _, err := service.ProcessUpload(strings.NewReader(bittrexUpload), "bittrex"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	orders, err := service.GetOrders()
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	more := "OrderUuid,Exchange,Type,Quantity,Limit,CommissionPaid,Price,Opened,Closed\n" +
		"uuid-3,BTC-DOGE,LIMIT_BUY,1000,0.0000004,0.000001,0.0004,2017-06-03 09:00:00,2017-06-03 10:00:00\n"
	if _, err := service.ProcessUpload(strings.NewReader(more), "bittrex"); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	orders, err = service.GetOrders()
	if err != nil {
		t.Fatalf("GetOrders after second upload: %v", err)
	}
	if len(orders) != 3 {
		t.Errorf("got %d orders after second upload, want 3", len(orders))
	}
}

func TestClosePositionPersists(t *testing.T) {
	store := &fakeStore{}
	service := newTestService(store)

	if _, err := service.ProcessUpload(strings.NewReader(bittrexUpload), "bittrex"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	open, err := service.GetOpenPositions()
	if err != nil {
		t.Fatalf("GetOpenPositions: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("got %d open positions, want 1", len(open))
	}

	if err := service.ClosePosition(open[0].ID); err != nil {
		t.Fatalf("ClosePosition: %v", err)
	}
	if store.saves != 2 {
		t.Errorf("store saved %d times, want save after close", store.saves)
	}

	closed, err := service.GetClosedPositions()
	if err != nil {
		t.Fatalf("GetClosedPositions: %v", err)
	}
	if len(closed) != 1 || closed[0].IsOpen {
		t.Errorf("closed positions = %+v", closed)
	}
	if closed[0].ClosedDate == nil {
		t.Error("closed position report missing closed date")
	}
}

func TestClosePositionNotFound(t *testing.T) {
	service := newTestService(&fakeStore{})
	if err := service.ClosePosition(42); !errors.Is(err, trading.ErrPositionNotFound) {
		t.Fatalf("err = %v, want ErrPositionNotFound", err)
	}
}

func TestAcceptOfferFlow(t *testing.T) {
	service := newTestService(&fakeStore{})

	if _, err := service.ProcessUpload(strings.NewReader(bittrexUpload), "bittrex"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	offers, err := service.GetOffers()
	if err != nil {
		t.Fatalf("GetOffers: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("got %d offers, want balanced buy/sell to yield 1", len(offers))
	}

	if err := service.AcceptOffer(offers[0]); err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}
	closed, err := service.GetClosedPositions()
	if err != nil {
		t.Fatalf("GetClosedPositions: %v", err)
	}
	if len(closed) != 1 {
		t.Errorf("got %d closed positions, want 1", len(closed))
	}
}

func TestProcessPollWithoutPoller(t *testing.T) {
	service := newTestService(&fakeStore{})
	_, err := service.ProcessPoll(context.Background(), "gemini")
	if !errors.Is(err, ErrPollerNotConfigured) {
		t.Fatalf("err = %v, want ErrPollerNotConfigured", err)
	}
}
