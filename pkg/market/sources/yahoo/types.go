package yahoo

// chartResponse mirrors the Yahoo Finance v8 chart API payload. Quote arrays
// use interface{} because Yahoo emits JSON nulls for halted sessions.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []interface{} `json:"open"`
			High   []interface{} `json:"high"`
			Low    []interface{} `json:"low"`
			Close  []interface{} `json:"close"`
			Volume []interface{} `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []interface{} `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt64(v interface{}) int64 {
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return int64(f)
}
