package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FundDetailsTask is the fixed instruction handed to the browser-use agent.
// The example object pins down the JSON shape we expect back.
const FundDetailsTask = `
What are the fund details for https://longviewresearchpartners.com/charts/

Return the details as a JSON object. Do not include any other text.

{
    "etf_ticker": "EBI",
    "exchange": "NASDAQ",
    "cusip": "75526L852",
    "inception": "Feb 26, 2025",
    "net_assets": "452,629,474.16",
    "shares_outstanding": "9,896,830",
    "nav": "45.73",
    "nav_change_dollar": "0.12",
    "nav_change_percent": "0.26",
    "market_price": "45.72",
    "market_price_change_dollar": "0.08",
    "market_price_change_percent": "0.18",
    "premium_discount": "-0.03",
    "median_30_day_spread": "0.14",
    "gross_expense_ratio": "0.35%",
    "net_expense_ratio": "0.25%",
}
`

// Agent runs a browser-automation task and blocks until it completes
type Agent interface {
	StartAndWait(ctx context.Context, task string) (*AgentResult, error)
}

// AgentResult is the agent service's completed-task payload
type AgentResult struct {
	Data   *AgentResultData `json:"data,omitempty"`
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// AgentResultData holds the agent's unstructured final output
type AgentResultData struct {
	FinalResult string `json:"finalResult"`
}

// AgentClient calls a Hyperbrowser-style browser-use agent API. The
// start-and-wait endpoint blocks server-side until the agent finishes, so
// there is no polling here; the long HTTP timeout covers the agent run.
type AgentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewAgentClient creates a new agent client
func NewAgentClient(baseURL, apiKey string, log zerolog.Logger) *AgentClient {
	return &AgentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		log:        log.With().Str("component", "agent").Logger(),
	}
}

// StartAndWait submits a task to the agent and blocks until it completes
func (c *AgentClient) StartAndWait(ctx context.Context, task string) (*AgentResult, error) {
	body, err := json.Marshal(map[string]string{"task": task})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent task: %w", err)
	}

	reqURL := c.baseURL + "/api/task/browser-use"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.Info().Msg("Submitting browser-use task")
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result AgentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}

	c.log.Info().
		Str("status", result.Status).
		Dur("elapsed", time.Since(started)).
		Msg("Browser-use task finished")

	if result.Error != "" {
		return &result, fmt.Errorf("agent task failed: %s", result.Error)
	}

	return &result, nil
}
