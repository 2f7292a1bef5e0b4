package instrument

// DefaultExchange is the exchange code assumed for venues not present in the
// mapping table. The provider treats Xetra as the home market.
const DefaultExchange = "GER"

// exchangeCodes maps the venue names as they appear on the provider's pages
// to the exchange codes its chart endpoints expect.
var exchangeCodes = map[string]string{
	"Xetra":        "GER",
	"Frankfurt":    "FRA",
	"Stuttgart":    "STU",
	"Berlin":       "BER",
	"Düsseldorf":   "DUS",
	"Hamburg":      "HAM",
	"Hannover":     "HAN",
	"München":      "MUN",
	"Tradegate":    "GAT",
	"gettex":       "TRO",
	"Quotrix":      "QTX",
	"Wien":         "WIE",
	"Zürich":       "SWX",
	"London":       "LSE",
	"Nasdaq":       "NAS",
	"NYSE":         "NYS",
	"Amsterdam":    "AMS",
	"Paris":        "PAR",
	"Mailand":      "MIL",
	"Lang&Schwarz": "LUS",
}

// ExchangeCode resolves a venue name to its exchange code, falling back to
// DefaultExchange for unknown venues.
func ExchangeCode(marketName string) string {
	return ExchangeCodeOr(marketName, DefaultExchange)
}

// ExchangeCodeOr resolves a venue name to its exchange code, falling back to
// the given code for unknown venues.
func ExchangeCodeOr(marketName, fallback string) string {
	if code, ok := exchangeCodes[marketName]; ok {
		return code
	}
	return fallback
}
