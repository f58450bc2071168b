package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
)

// NormalizeOrderType maps vendor order-type strings onto the canonical
// enum. The match is case-insensitive and never fails; anything that is
// not a recognized buy or sell string resolves to Unknown.
func NormalizeOrderType(orderType string) models.OrderType {
	switch strings.ToLower(orderType) {
	case "buy", "limit_buy":
		return models.OrderTypeBuy
	case "sell", "limit_sell":
		return models.OrderTypeSell
	default:
		return models.OrderTypeUnknown
	}
}

// Kraken's historical tickers prefix three-letter assets with X (crypto)
// or Z (fiat), e.g. XXBTZUSD for BTC/USD.
var krakenLegacyPair = regexp.MustCompile(`^[XZ]([A-Z]{3})[XZ]([A-Z]{3})$`)

// NormalizeKrakenMarket splits a combined Kraken pair symbol into currency
// and base currency. Legacy X/Z prefixes are dropped and XBT is rewritten
// to the standard BTC representation before splitting at the midpoint.
func NormalizeKrakenMarket(market string) (currency, baseCurrency string) {
	market = krakenLegacyPair.ReplaceAllString(market, "$1$2")
	market = strings.ReplaceAll(market, "XBT", "BTC")
	mid := len(market) / 2
	return market[:mid], market[mid:]
}

// ParseDecimal converts a decimal string to an exact fixed-point amount.
// Amounts never pass through binary floating point.
func ParseDecimal(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q", value)
	}
	return d, nil
}

// Wall-clock layouts seen across the supported exchange formats. Go's
// parser accepts a fractional second after the seconds field even when the
// layout does not mention one.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp string using the known layouts.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ParseUnixTimestamp parses epoch seconds, tolerating a fractional part.
func ParseUnixTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var nsec int64
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		frac := value[dot+1:]
		value = value[:dot]
		if frac != "" {
			// pad/truncate to nanoseconds
			if len(frac) > 9 {
				frac = frac[:9]
			}
			frac += strings.Repeat("0", 9-len(frac))
			n, err := strconv.ParseInt(frac, 10, 64)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid epoch timestamp %q", value)
			}
			nsec = n
		}
	}
	sec, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch timestamp %q", value)
	}
	return time.Unix(sec, nsec).UTC(), nil
}

// ParseKrakenTimestamp drops Kraken's trailing sub-second noise before
// parsing the remaining wall-clock timestamp.
func ParseKrakenTimestamp(value string) (time.Time, error) {
	if i := strings.LastIndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}
	return ParseTimestamp(value)
}

func splitDashMarket(market string) (baseCurrency, currency string, err error) {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid market symbol %q", market)
	}
	return parts[0], parts[1], nil
}

func splitSlashMarket(market string) (currency, baseCurrency string, err error) {
	parts := strings.SplitN(market, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid market symbol %q", market)
	}
	return parts[0], parts[1], nil
}
