package pollers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/mapper"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/parsers/history"
	"github.com/username/coinfolio/backend/src/progress"
)

const (
	geminiProfile        = "GeminiAPI"
	geminiTradesEndpoint = "/v1/mytrades"
	geminiMaxTrades      = 500
)

// geminiMarket names one market the poller queries; the trades endpoint is
// per-symbol, so the poller also owns the currency assignment the profile
// leaves open.
type geminiMarket struct {
	Currency     string
	BaseCurrency string
}

var geminiMarkets = []geminiMarket{
	{Currency: "BTC", BaseCurrency: "USD"},
	{Currency: "ETH", BaseCurrency: "USD"},
	{Currency: "ETH", BaseCurrency: "BTC"},
}

// GeminiPoller fetches the account's trades from the Gemini REST API.
// Requests carry the base64 payload and its HMAC-SHA384 signature in the
// X-GEMINI headers.
type GeminiPoller struct {
	key     string
	secret  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewGeminiPoller creates a poller for one API key pair.
func NewGeminiPoller(key, secret string) *GeminiPoller {
	return &GeminiPoller{
		key:     key,
		secret:  secret,
		baseURL: "https://api.gemini.com",
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		now:     time.Now,
	}
}

// GetOrders downloads the trades for every tracked market and aggregates
// them into orders.
func (p *GeminiPoller) GetOrders(ctx context.Context, progressFn progress.Func) ([]*models.Order, error) {
	var trades []*models.Trade
	for _, market := range geminiMarkets {
		marketTrades, err := p.pollMarket(ctx, market, progressFn)
		if err != nil {
			return nil, err
		}
		trades = append(trades, marketTrades...)
	}

	orders := history.OrdersFromTrades(trades)
	if logger.L != nil {
		logger.L.Info("polled gemini trades", "trades", len(trades), "orders", len(orders))
	}
	return orders, nil
}

func (p *GeminiPoller) pollMarket(ctx context.Context, market geminiMarket, progressFn progress.Func) ([]*models.Trade, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	symbol := strings.ToLower(market.Currency + market.BaseCurrency)
	payload, err := json.Marshal(map[string]any{
		"request":      geminiTradesEndpoint,
		"nonce":        p.now().UnixMilli(),
		"symbol":       symbol,
		"limit_trades": geminiMaxTrades,
	})
	if err != nil {
		return nil, err
	}
	encodedPayload := base64.StdEncoding.EncodeToString(payload)
	mac := hmac.New(sha512.New384, []byte(p.secret))
	mac.Write([]byte(encodedPayload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+geminiTradesEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Content-Length", "0")
	req.Header.Set("X-GEMINI-APIKEY", p.key)
	req.Header.Set("X-GEMINI-PAYLOAD", encodedPayload)
	req.Header.Set("X-GEMINI-SIGNATURE", hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting gemini trades for %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini trades for %s: unexpected status %s", symbol, resp.Status)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var records []json.RawMessage
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding gemini trades for %s: %w", symbol, err)
	}

	var trades []*models.Trade
	total := len(records)
	progress.Report(progressFn, 0, total)
	for i, raw := range records {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			history.WarnSkippedRow("gemini-api", i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		doc := docFromJSON(obj)
		trade := &models.Trade{}
		if err := mapper.MapRecordToTrade(doc, trade, geminiProfile); err != nil {
			history.WarnSkippedRow("gemini-api", i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade.Subtotal = trade.Price.Mul(trade.Quantity)
		trade.Currency = market.Currency
		trade.BaseCurrency = market.BaseCurrency
		if err := routeGeminiFee(trade, doc); err != nil {
			history.WarnSkippedRow("gemini-api", i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade.RecalculateNetAmounts()
		trades = append(trades, trade)
		progress.Report(progressFn, i+1, total)
	}
	return trades, nil
}

// routeGeminiFee assigns the single reported fee amount to the currency or
// base side, depending on which of the two the fee-currency tag names. An
// unrecognized tag is a data-quality warning, not a failure: the trade is
// kept with zero fee on both sides.
func routeGeminiFee(trade *models.Trade, doc mapper.Doc) error {
	feeCurrency, _ := doc.Field(mapper.Key("fee_currency"))
	feeAmountRaw, ok := doc.Field(mapper.Key("fee_amount"))
	if !ok {
		return nil
	}
	feeAmount, err := mapper.ParseDecimal(feeAmountRaw)
	if err != nil {
		return fmt.Errorf("invalid fee amount %q", feeAmountRaw)
	}
	switch strings.ToUpper(feeCurrency) {
	case trade.BaseCurrency:
		trade.BaseFee = feeAmount
	case trade.Currency:
		trade.CurrencyFee = feeAmount
	default:
		if logger.L != nil {
			logger.L.Warn("gemini trade has fee in unrecognized currency",
				"closedDate", trade.ClosedDate,
				"orderId", trade.OrderID,
				"feeCurrency", feeCurrency)
		}
	}
	return nil
}
