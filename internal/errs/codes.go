package errs

type codeInfo struct {
	explanation string
	suggestion  string
}

const (
	checkMargin    = "check account balance and margin headroom"
	checkDocs      = "see the OKX v5 API error reference"
	slowDown       = "reduce request frequency"
	checkPrecision = "check order parameters, especially price and size precision"
)

var codes = map[string]codeInfo{
	"1":     {"operation failed, usually bad parameters or a busy system", checkPrecision},
	"50000": {"body can not be empty / system error", "retry later"},
	"50001": {"service temporarily unavailable", "retry later"},
	"50004": {"endpoint request timeout or rate limited", slowDown},
	"50011": {"rate limit reached", slowDown},
	"50013": {"system busy", "retry later"},
	"50014": {"required parameter missing", checkPrecision},
	"51000": {"parameter error", "check request parameters"},
	"51001": {"instrument does not exist or is delisted", "check that the instrument exists and is live"},
	"51002": {"order amount too small", "raise the size to at least minSz"},
	"51003": {"order amount too large", "lower the size below maxLmtSz"},
	"51004": {"price precision error", "round the price to tickSz"},
	"51005": {"size precision error", "round the size to lotSz"},
	"51006": {"leverage error", "use leverage within the instrument limit"},
	"51007": {"instrument does not support cross margin", "switch tdMode to isolated"},
	"51008": {"instrument does not support isolated margin or insufficient balance", checkMargin},
	"51020": {"insufficient margin", checkMargin},
	"51100": {"insufficient account balance", checkMargin},
	"51106": {"insufficient account margin", checkMargin},
	"51107": {"insufficient available balance", checkMargin},
	"51121": {"order size is not a multiple of lot size", "round the size to lotSz"},
	"51400": {"cancellation failed, order already filled or canceled", "refresh the order state"},
	"51603": {"order does not exist", "refresh the order state"},
}

// Explain возвращает пояснение и совет по коду OKX.
func Explain(code string) (explanation, suggestion string) {
	if c, ok := codes[code]; ok {
		return c.explanation, c.suggestion
	}
	return "unknown error", checkDocs
}
