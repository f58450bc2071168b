package mapper

// Transform names one of the closed set of pure normalization functions a
// profile may apply to an extracted (or literal) value before assignment.
// Keeping this an enum instead of open-ended callables means every profile
// can be checked exhaustively.
type Transform int

const (
	TransformNone Transform = iota

	// TransformDecimal parses the value as an exact decimal amount.
	TransformDecimal

	// TransformOrderType maps vendor order-type strings (limit_buy, SELL,
	// ...) onto the canonical enum; unrecognized input yields Unknown.
	TransformOrderType

	// TransformDate parses a timestamp from one of the known wall-clock
	// layouts; TransformUnixDate from epoch seconds; TransformKrakenDate
	// truncates Kraken's trailing sub-second noise first.
	TransformDate
	TransformUnixDate
	TransformKrakenDate

	// Market-symbol decompositions. Dash markets are quoted base-first
	// ("USDT-BTC"), slash markets currency-first ("BTC/USDT"), and Kraken
	// pairs are fixed-width with legacy X/Z prefixes ("XXBTZUSD").
	TransformDashCurrency
	TransformDashBase
	TransformSlashCurrency
	TransformSlashBase
	TransformKrakenCurrency
	TransformKrakenBase
)

// Definition stores the instructions for deriving one trade attribute from
// a raw record: either a literal value or a field reference, optionally
// followed by a transform. When both a literal and a transform are present
// the transform is applied to the literal, not to the record.
type Definition struct {
	field     FieldRef
	hasField  bool
	value     string
	hasValue  bool
	transform Transform
}

// FromField extracts the referenced record field.
func FromField(ref FieldRef, transform Transform) Definition {
	return Definition{field: ref, hasField: true, transform: transform}
}

// FromValue uses the literal verbatim, ignoring the record.
func FromValue(value string, transform Transform) Definition {
	return Definition{value: value, hasValue: true, transform: transform}
}

// Mapping binds one trade attribute to its definition. Profiles are
// ordered lists of mappings, applied independently per attribute in the
// declared order.
type Mapping struct {
	Attr Attribute
	Def  Definition
}

// Profile is the complete rule set for one exchange record format.
type Profile []Mapping

// Attribute identifies the trade field a mapping assigns to.
type Attribute int

const (
	AttrID Attribute = iota
	AttrOrderID
	AttrClosedDate
	AttrExchange
	AttrOrderType
	AttrCurrency
	AttrBaseCurrency
	AttrQuantity
	AttrPrice
	AttrSubtotal
	AttrCurrencyFee
	AttrBaseFee
	AttrNetCurrency
	AttrNetBase
)

func (a Attribute) String() string {
	switch a {
	case AttrID:
		return "id"
	case AttrOrderID:
		return "orderId"
	case AttrClosedDate:
		return "closedDate"
	case AttrExchange:
		return "exchange"
	case AttrOrderType:
		return "orderType"
	case AttrCurrency:
		return "currency"
	case AttrBaseCurrency:
		return "baseCurrency"
	case AttrQuantity:
		return "quantity"
	case AttrPrice:
		return "price"
	case AttrSubtotal:
		return "subtotal"
	case AttrCurrencyFee:
		return "currencyFee"
	case AttrBaseFee:
		return "baseFee"
	case AttrNetCurrency:
		return "netCurrency"
	case AttrNetBase:
		return "netBase"
	}
	return "unknown"
}
