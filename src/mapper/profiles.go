package mapper

// Profiles holds the rule table for every supported exchange record
// format, keyed by profile name. Array-indexed profiles describe CSV
// exports, key-indexed ones describe REST API payloads.
//
// GeminiAPI deliberately leaves currency and base currency unset: the
// trades endpoint is queried per market, so the poller fills both in as a
// post-processing step, together with fee-currency routing.
var Profiles = map[string]Profile{
	"BittrexAPI": {
		{AttrOrderID, FromField(Key("OrderUuid"), TransformNone)},
		{AttrClosedDate, FromField(Key("Closed"), TransformDate)},
		{AttrExchange, FromValue("Bittrex", TransformNone)},
		{AttrOrderType, FromField(Key("OrderType"), TransformOrderType)},
		{AttrCurrency, FromField(Key("Exchange"), TransformDashCurrency)},
		{AttrBaseCurrency, FromField(Key("Exchange"), TransformDashBase)},
		{AttrQuantity, FromField(Key("Quantity"), TransformDecimal)},
		{AttrPrice, FromField(Key("Limit"), TransformDecimal)},
		{AttrSubtotal, FromField(Key("Price"), TransformDecimal)},
		{AttrCurrencyFee, FromValue("0", TransformDecimal)},
		{AttrBaseFee, FromField(Key("Commission"), TransformDecimal)},
	},
	"BittrexCSV": {
		{AttrOrderID, FromField(Col(0), TransformNone)},
		{AttrClosedDate, FromField(Col(8), TransformDate)},
		{AttrExchange, FromValue("Bittrex", TransformNone)},
		{AttrOrderType, FromField(Col(2), TransformOrderType)},
		{AttrCurrency, FromField(Col(1), TransformDashCurrency)},
		{AttrBaseCurrency, FromField(Col(1), TransformDashBase)},
		{AttrQuantity, FromField(Col(3), TransformDecimal)},
		{AttrSubtotal, FromField(Col(6), TransformDecimal)},
		{AttrCurrencyFee, FromValue("0", TransformDecimal)},
		{AttrBaseFee, FromField(Col(5), TransformDecimal)},
	},
	"GeminiAPI": {
		{AttrID, FromField(Key("tid"), TransformNone)},
		{AttrOrderID, FromField(Key("order_id"), TransformNone)},
		{AttrClosedDate, FromField(Key("timestamp"), TransformUnixDate)},
		{AttrExchange, FromValue("Gemini", TransformNone)},
		{AttrOrderType, FromField(Key("type"), TransformOrderType)},
		{AttrQuantity, FromField(Key("amount"), TransformDecimal)},
		{AttrPrice, FromField(Key("price"), TransformDecimal)},
		{AttrCurrencyFee, FromValue("0", TransformDecimal)},
		{AttrBaseFee, FromValue("0", TransformDecimal)},
	},
	"KrakenCSV": {
		{AttrID, FromField(Col(0), TransformNone)},
		{AttrOrderID, FromField(Col(1), TransformNone)},
		{AttrClosedDate, FromField(Col(3), TransformKrakenDate)},
		{AttrExchange, FromValue("Kraken", TransformNone)},
		{AttrOrderType, FromField(Col(4), TransformOrderType)},
		{AttrCurrency, FromField(Col(2), TransformKrakenCurrency)},
		{AttrBaseCurrency, FromField(Col(2), TransformKrakenBase)},
		{AttrQuantity, FromField(Col(9), TransformDecimal)},
		{AttrPrice, FromField(Col(6), TransformDecimal)},
		{AttrSubtotal, FromField(Col(7), TransformDecimal)},
		{AttrCurrencyFee, FromValue("0", TransformDecimal)},
		{AttrBaseFee, FromField(Col(8), TransformDecimal)},
	},
	"PoloniexCSV": {
		{AttrOrderID, FromField(Col(8), TransformNone)},
		{AttrClosedDate, FromField(Col(0), TransformDate)},
		{AttrExchange, FromValue("Poloniex", TransformNone)},
		{AttrOrderType, FromField(Col(3), TransformOrderType)},
		{AttrCurrency, FromField(Col(1), TransformSlashCurrency)},
		{AttrBaseCurrency, FromField(Col(1), TransformSlashBase)},
		{AttrQuantity, FromField(Col(5), TransformDecimal)},
		{AttrPrice, FromField(Col(4), TransformDecimal)},
		{AttrSubtotal, FromField(Col(6), TransformDecimal)},
		{AttrNetCurrency, FromField(Col(10), TransformDecimal)},
		{AttrNetBase, FromField(Col(9), TransformDecimal)},
	},
}
