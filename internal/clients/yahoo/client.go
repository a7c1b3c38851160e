package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client is a Yahoo Finance API client
type Client struct {
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetYahooSymbol converts a local symbol to a Yahoo Finance symbol.
//
// Examples:
//
//	005930.KR -> 005930.KS (KOSPI listing)
//	AAPL.US   -> AAPL
//	^KS11     -> ^KS11 (index tickers pass through)
func GetYahooSymbol(symbol string) string {
	if strings.HasPrefix(symbol, "^") {
		return symbol
	}

	if strings.HasSuffix(symbol, ".KR") {
		return strings.TrimSuffix(symbol, ".KR") + ".KS"
	}

	if strings.HasSuffix(symbol, ".US") {
		return strings.TrimSuffix(symbol, ".US")
	}

	return symbol
}

// HistoricalPrice represents a single daily data point
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
}

// GetHistoricalPrices fetches daily close data from the Yahoo chart API.
//
// Supports ranges: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max
func (c *Client) GetHistoricalPrices(symbol string, period string) ([]HistoricalPrice, error) {
	yfSymbol := GetYahooSymbol(symbol)

	baseURL := "https://query1.finance.yahoo.com/v8/finance/chart/" + url.QueryEscape(yfSymbol)

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)

	req, err := http.NewRequest(http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
					} `json:"quote"`
					AdjClose []struct {
						AdjClose []float64 `json:"adjclose"`
					} `json:"adjclose"`
				} `json:"indicators"`
			} `json:"result"`
			Error interface{} `json:"error"`
		} `json:"chart"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No quote data in response")
		return []HistoricalPrice{}, nil
	}

	quote := chartData.Indicators.Quote[0]

	var adjCloseData []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloseData = chartData.Indicators.AdjClose[0].AdjClose
	}

	var prices []HistoricalPrice
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Close) {
			continue
		}

		// Yahoo sometimes returns null values
		if quote.Close[i] == 0 {
			continue
		}

		adjClose := quote.Close[i]
		if i < len(adjCloseData) && adjCloseData[i] != 0 {
			adjClose = adjCloseData[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:     time.Unix(ts, 0),
			Close:    quote.Close[i],
			AdjClose: adjClose,
		})
	}

	c.log.Info().
		Str("symbol", symbol).
		Int("points", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// GetDailyCloseSeries fetches the symbol's daily closes keyed by
// YYYY-MM-DD date string, the format used by the price table.
func (c *Client) GetDailyCloseSeries(symbol string, period string) (map[string]float64, error) {
	prices, err := c.GetHistoricalPrices(symbol, period)
	if err != nil {
		return nil, err
	}

	series := make(map[string]float64, len(prices))
	for _, p := range prices {
		series[p.Date.Format("2006-01-02")] = p.Close
	}
	return series, nil
}
