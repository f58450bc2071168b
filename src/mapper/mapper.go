// Package mapper converts heterogeneous exchange records into canonical
// trades through declarative per-format rule tables.
package mapper

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/coinfolio/backend/src/models"
)

// ErrMalformedRecord marks a record that could not be mapped because a
// required field was missing or a number or date failed to parse. The
// record as a whole is rejected; callers decide whether to skip it or
// abort the batch.
var ErrMalformedRecord = errors.New("malformed record")

// MapRecordToTrade populates trade from one raw record according to the
// named profile. Rules run independently per attribute in the profile's
// declared order; a literal value takes precedence over the field
// reference, and the transform is applied to whichever of the two was
// selected.
func MapRecordToTrade(record Record, trade *models.Trade, profileName string) error {
	profile, ok := Profiles[profileName]
	if !ok {
		return fmt.Errorf("unknown mapping profile %q", profileName)
	}
	for _, m := range profile {
		raw, err := extract(record, m.Def)
		if err != nil {
			return fmt.Errorf("%w: attribute %s: %v", ErrMalformedRecord, m.Attr, err)
		}
		if err := assign(trade, m.Attr, raw, m.Def.transform); err != nil {
			return fmt.Errorf("%w: attribute %s: %v", ErrMalformedRecord, m.Attr, err)
		}
	}
	return nil
}

func extract(record Record, def Definition) (string, error) {
	if def.hasValue {
		return def.value, nil
	}
	if def.hasField {
		value, ok := record.Field(def.field)
		if !ok {
			return "", fmt.Errorf("missing field %s", def.field)
		}
		return value, nil
	}
	return "", errors.New("definition has neither value nor field")
}

// assign converts the raw string to the attribute's type, honoring the
// transform, and stores it on the trade.
func assign(trade *models.Trade, attr Attribute, raw string, transform Transform) error {
	switch attr {
	case AttrID:
		trade.ID = raw
	case AttrOrderID:
		trade.OrderID = raw
	case AttrExchange:
		trade.Exchange = raw
	case AttrOrderType:
		trade.OrderType = NormalizeOrderType(raw)
	case AttrClosedDate:
		date, err := parseDate(raw, transform)
		if err != nil {
			return err
		}
		trade.ClosedDate = date
	case AttrCurrency, AttrBaseCurrency:
		symbol, err := marketSymbol(raw, transform)
		if err != nil {
			return err
		}
		if attr == AttrCurrency {
			trade.Currency = symbol
		} else {
			trade.BaseCurrency = symbol
		}
	case AttrQuantity, AttrPrice, AttrSubtotal, AttrCurrencyFee, AttrBaseFee, AttrNetCurrency, AttrNetBase:
		amount, err := ParseDecimal(raw)
		if err != nil {
			return err
		}
		switch attr {
		case AttrQuantity:
			trade.Quantity = amount
		case AttrPrice:
			trade.Price = amount
		case AttrSubtotal:
			trade.Subtotal = amount
		case AttrCurrencyFee:
			trade.CurrencyFee = amount
		case AttrBaseFee:
			trade.BaseFee = amount
		case AttrNetCurrency:
			trade.NetCurrency = amount
		case AttrNetBase:
			trade.NetBase = amount
		}
	default:
		return fmt.Errorf("unhandled attribute %d", attr)
	}
	return nil
}

func parseDate(raw string, transform Transform) (time.Time, error) {
	switch transform {
	case TransformUnixDate:
		return ParseUnixTimestamp(raw)
	case TransformKrakenDate:
		return ParseKrakenTimestamp(raw)
	default:
		return ParseTimestamp(raw)
	}
}

func marketSymbol(raw string, transform Transform) (string, error) {
	switch transform {
	case TransformDashCurrency:
		_, currency, err := splitDashMarket(raw)
		return currency, err
	case TransformDashBase:
		base, _, err := splitDashMarket(raw)
		return base, err
	case TransformSlashCurrency:
		currency, _, err := splitSlashMarket(raw)
		return currency, err
	case TransformSlashBase:
		_, base, err := splitSlashMarket(raw)
		return base, err
	case TransformKrakenCurrency:
		currency, _ := NormalizeKrakenMarket(raw)
		return currency, nil
	case TransformKrakenBase:
		_, base := NormalizeKrakenMarket(raw)
		return base, nil
	default:
		// no decomposition, the value already is a plain symbol
		return raw, nil
	}
}
