package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jlaster/fund-monitor/internal/models"
)

const dateLayout = "2006-01-02"

// PriceFetcher retrieves historical daily prices for a symbol
type PriceFetcher interface {
	GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)
}

// Client fetches historical price data from the FMP API.
// Fetch failures are logged and swallowed: callers receive an empty slice
// and must treat "no data" as a valid outcome.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new market data client
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "marketdata").Logger(),
	}
}

// historicalResponse mirrors the FMP payload shape. The provider returns
// prices in descending date order.
type historicalResponse struct {
	Historical []historicalPrice `json:"historical"`
}

type historicalPrice struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// GetHistoricalPrices fetches daily closes for a symbol between from and to,
// inclusive, and returns them in ascending date order. Symbols prefixed with
// "^" address the provider's index path.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	urlSymbol := symbol
	if strings.HasPrefix(symbol, "^") {
		urlSymbol = "index/" + symbol[1:]
	}

	reqURL := fmt.Sprintf("%s/%s?from=%s&to=%s&apikey=%s",
		c.baseURL, urlSymbol,
		from.Format(dateLayout), to.Format(dateLayout),
		url.QueryEscape(c.apiKey),
	)

	c.log.Debug().
		Str("symbol", symbol).
		Str("from", from.Format(dateLayout)).
		Str("to", to.Format(dateLayout)).
		Msg("Fetching historical prices")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build request")
		return nil, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("Historical price request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("symbol", symbol).
			Msg("Historical price request returned non-OK status")
		return nil, nil
	}

	var payload historicalResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to decode historical prices")
		return nil, nil
	}

	if len(payload.Historical) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return nil, nil
	}

	points := make([]models.PricePoint, 0, len(payload.Historical))
	for _, p := range payload.Historical {
		date, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", p.Date).Msg("Skipping price point with bad date")
			continue
		}
		points = append(points, models.PricePoint{Date: date, Close: p.Close})
	}

	// Provider order is newest-first; callers expect ascending.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points, nil
}
