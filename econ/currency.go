package econ

// CurrencyCode is Steam's ECurrencyCode wallet currency enum. Code 33 was
// never assigned upstream.
type CurrencyCode int

const (
	CurrencyInvalid CurrencyCode = 0
	CurrencyUSD     CurrencyCode = 1
	CurrencyGBP     CurrencyCode = 2
	CurrencyEUR     CurrencyCode = 3
	CurrencyCHF     CurrencyCode = 4
	CurrencyRUB     CurrencyCode = 5
	CurrencyPLN     CurrencyCode = 6
	CurrencyBRL     CurrencyCode = 7
	CurrencyJPY     CurrencyCode = 8
	CurrencyNOK     CurrencyCode = 9
	CurrencyIDR     CurrencyCode = 10
	CurrencyMYR     CurrencyCode = 11
	CurrencyPHP     CurrencyCode = 12
	CurrencySGD     CurrencyCode = 13
	CurrencyTHB     CurrencyCode = 14
	CurrencyVND     CurrencyCode = 15
	CurrencyKRW     CurrencyCode = 16
	CurrencyTRY     CurrencyCode = 17
	CurrencyUAH     CurrencyCode = 18
	CurrencyMXN     CurrencyCode = 19
	CurrencyCAD     CurrencyCode = 20
	CurrencyAUD     CurrencyCode = 21
	CurrencyNZD     CurrencyCode = 22
	CurrencyCNY     CurrencyCode = 23
	CurrencyINR     CurrencyCode = 24
	CurrencyCLP     CurrencyCode = 25
	CurrencyPEN     CurrencyCode = 26
	CurrencyCOP     CurrencyCode = 27
	CurrencyZAR     CurrencyCode = 28
	CurrencyHKD     CurrencyCode = 29
	CurrencyTWD     CurrencyCode = 30
	CurrencySAR     CurrencyCode = 31
	CurrencyAED     CurrencyCode = 32
	CurrencyARS     CurrencyCode = 34
	CurrencyILS     CurrencyCode = 35
	CurrencyBYN     CurrencyCode = 36
	CurrencyKZT     CurrencyCode = 37
	CurrencyKWD     CurrencyCode = 38
	CurrencyQAR     CurrencyCode = 39
	CurrencyCRC     CurrencyCode = 40
	CurrencyUYU     CurrencyCode = 41
)

var currencyNames = map[CurrencyCode]string{
	CurrencyInvalid: "Invalid",
	CurrencyUSD:     "USD",
	CurrencyGBP:     "GBP",
	CurrencyEUR:     "EUR",
	CurrencyCHF:     "CHF",
	CurrencyRUB:     "RUB",
	CurrencyPLN:     "PLN",
	CurrencyBRL:     "BRL",
	CurrencyJPY:     "JPY",
	CurrencyNOK:     "NOK",
	CurrencyIDR:     "IDR",
	CurrencyMYR:     "MYR",
	CurrencyPHP:     "PHP",
	CurrencySGD:     "SGD",
	CurrencyTHB:     "THB",
	CurrencyVND:     "VND",
	CurrencyKRW:     "KRW",
	CurrencyTRY:     "TRY",
	CurrencyUAH:     "UAH",
	CurrencyMXN:     "MXN",
	CurrencyCAD:     "CAD",
	CurrencyAUD:     "AUD",
	CurrencyNZD:     "NZD",
	CurrencyCNY:     "CNY",
	CurrencyINR:     "INR",
	CurrencyCLP:     "CLP",
	CurrencyPEN:     "PEN",
	CurrencyCOP:     "COP",
	CurrencyZAR:     "ZAR",
	CurrencyHKD:     "HKD",
	CurrencyTWD:     "TWD",
	CurrencySAR:     "SAR",
	CurrencyAED:     "AED",
	CurrencyARS:     "ARS",
	CurrencyILS:     "ILS",
	CurrencyBYN:     "BYN",
	CurrencyKZT:     "KZT",
	CurrencyKWD:     "KWD",
	CurrencyQAR:     "QAR",
	CurrencyCRC:     "CRC",
	CurrencyUYU:     "UYU",
}

func (c CurrencyCode) String() string {
	if name, ok := currencyNames[c]; ok {
		return name
	}
	return "Invalid"
}

func (c CurrencyCode) Valid() bool {
	_, ok := currencyNames[c]
	return ok && c != CurrencyInvalid
}

// CurrencyCodeFromName maps an ISO currency name back to its Steam code.
func CurrencyCodeFromName(name string) CurrencyCode {
	for code, n := range currencyNames {
		if n == name {
			return code
		}
	}
	return CurrencyInvalid
}
