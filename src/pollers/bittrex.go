package pollers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/mapper"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/parsers/history"
	"github.com/username/coinfolio/backend/src/progress"
)

const bittrexProfile = "BittrexAPI"

type bittrexReply struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Result  []json.RawMessage `json:"result"`
}

// BittrexPoller fetches the account's order history from the Bittrex v1.1
// REST API. Requests carry the apisign HMAC-SHA512 signature of the full
// request URI.
type BittrexPoller struct {
	key     string
	secret  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewBittrexPoller creates a poller for one API key pair.
func NewBittrexPoller(key, secret string) *BittrexPoller {
	return &BittrexPoller{
		key:     key,
		secret:  secret,
		baseURL: "https://api.bittrex.com/api/v1.1",
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		now:     time.Now,
	}
}

// GetOrders downloads the order history and aggregates it into orders.
func (p *BittrexPoller) GetOrders(ctx context.Context, progressFn progress.Func) ([]*models.Order, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	nonce := strconv.FormatInt(p.now().UnixMilli(), 10)
	uri := fmt.Sprintf("%s/account/getorderhistory?apikey=%s&nonce=%s", p.baseURL, p.key, nonce)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha512.New, []byte(p.secret))
	mac.Write([]byte(uri))
	req.Header.Set("apisign", hex.EncodeToString(mac.Sum(nil)))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting bittrex order history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bittrex order history: unexpected status %s", resp.Status)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var reply bittrexReply
	if err := decoder.Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding bittrex order history: %w", err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("bittrex order history refused: %s", reply.Message)
	}

	var trades []*models.Trade
	total := len(reply.Result)
	progress.Report(progressFn, 0, total)
	for i, raw := range reply.Result {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			history.WarnSkippedRow("bittrex-api", i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade := &models.Trade{}
		if err := mapper.MapRecordToTrade(docFromJSON(obj), trade, bittrexProfile); err != nil {
			history.WarnSkippedRow("bittrex-api", i+1, err)
			progress.Report(progressFn, i+1, total)
			continue
		}
		trade.RecalculateNetAmounts()
		trades = append(trades, trade)
		progress.Report(progressFn, i+1, total)
	}

	orders := history.OrdersFromTrades(trades)
	if logger.L != nil {
		logger.L.Info("polled bittrex order history", "records", total, "orders", len(orders))
	}
	return orders, nil
}
