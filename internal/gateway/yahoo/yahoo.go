// Package yahoo fetches daily history from the Yahoo Finance chart API. It is
// a history source only; it cannot report positions or take orders.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway"
)

const (
	baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches symbols like IUSQ, IUSQ.DE, 0700.HK, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9\-]{1,12}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Config controls the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Adjusted replaces closes with dividend/split adjusted closes and scales
	// open, high and low by the same factor.
	Adjusted bool
	// Now is used as the end of the requested span. Defaults to time.Now.
	Now func() time.Time
}

// Yahoo implements backtest.HistoryProvider against the chart API
type Yahoo struct {
	client   *resty.Client
	adjusted bool
	now      func() time.Time
}

// New creates a new Yahoo history source
func New(cfg Config) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)

	return &Yahoo{client: client, adjusted: cfg.Adjusted, now: cfg.Now}
}

// toYahooSymbol converts internal symbol format to Yahoo format
func toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

func toYahooInterval(barSize string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(barSize)) {
	case "", "1 day", "1d":
		return "1d", nil
	case "1 week", "1wk":
		return "1wk", nil
	case "1 month", "1mo":
		return "1mo", nil
	default:
		return "", fmt.Errorf("unsupported bar size %q", barSize)
	}
}

// FetchHistory fetches bars covering duration back from now.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	interval, err := toYahooInterval(barSize)
	if err != nil {
		return nil, err
	}
	end := y.now()
	start, err := gateway.ParseDuration(duration, end)
	if err != nil {
		return nil, err
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": interval,
			"period1":  fmt.Sprintf("%d", start.Unix()),
			"period2":  fmt.Sprintf("%d", end.Unix()),
			"events":   "div,split",
		}).
		Get("/" + toYahooSymbol(symbol))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.WrapError(core.ErrGatewayUnavailable, fmt.Errorf("fetching history: %w", err))
	}

	var result chartResponse
	if jsonErr := json.Unmarshal(resp.Body(), &result); jsonErr != nil {
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode())
		}
		return nil, fmt.Errorf("decoding response: %w", jsonErr)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for symbol: %s", symbol)
	}

	return toSeries(result.Chart.Result[0], y.adjusted), nil
}

// toSeries converts a chart result into calendar-dated bars. Bars with any
// missing field are skipped; when two timestamps fall on the same exchange
// date the later one wins.
func toSeries(r chartResult, adjusted bool) core.PriceSeries {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]

	var adj []*float64
	if adjusted && len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	loc := time.UTC
	if r.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	series := make(core.PriceSeries, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Open) || i >= len(q.High) || i >= len(q.Low) || i >= len(q.Close) {
			break
		}
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil {
			continue // Skip missing data
		}

		local := time.Unix(ts, 0).In(loc)
		bar := core.PriceBar{
			Date:  time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:  *q.Open[i],
			High:  *q.High[i],
			Low:   *q.Low[i],
			Close: *q.Close[i],
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = float64(*q.Volume[i])
		}
		if adj != nil && i < len(adj) && adj[i] != nil && bar.Close > 0 {
			f := *adj[i] / bar.Close
			bar.Open *= f
			bar.High *= f
			bar.Low *= f
			bar.Close = *adj[i]
		}

		if n := len(series); n > 0 && core.CompareDate(series[n-1].Date, bar.Date) == 0 {
			series[n-1] = bar
			continue
		}
		series = append(series, bar)
	}
	return series
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
}

type indicators struct {
	Quote    []quoteIndicator `json:"quote"`
	AdjClose []struct {
		AdjClose []*float64 `json:"adjclose"`
	} `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
