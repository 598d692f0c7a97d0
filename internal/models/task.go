package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TaskStatus tracks the lifecycle of one extraction attempt
type TaskStatus string

const (
	TaskStatusStarting   TaskStatus = "starting"
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusSuccessful TaskStatus = "successful"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	TaskTypeEBI = "ebi"
)

// IsTerminal reports whether the status is a terminal state
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccessful || s == TaskStatusFailed
}

// Task represents one persisted extraction attempt
type Task struct {
	ID        int             `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Type      string          `json:"type"`
	Status    TaskStatus      `json:"status"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	Data      *FundSnapshot   `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// FundSnapshot is a point-in-time record of the fund's trading and financial
// metrics as scraped from the fund-details page. All fields arrive as strings
// in the agent's JSON; partial results are tolerated except premium_discount,
// which downstream alerting requires.
type FundSnapshot struct {
	ETFTicker               string `json:"etf_ticker,omitempty"`
	Exchange                string `json:"exchange,omitempty"`
	CUSIP                   string `json:"cusip,omitempty"`
	Inception               string `json:"inception,omitempty"`
	NetAssets               string `json:"net_assets,omitempty"`
	SharesOutstanding       string `json:"shares_outstanding,omitempty"`
	NAV                     string `json:"nav,omitempty"`
	NAVChangeDollar         string `json:"nav_change_dollar,omitempty"`
	NAVChangePercent        string `json:"nav_change_percent,omitempty"`
	MarketPrice             string `json:"market_price,omitempty"`
	MarketPriceChangeDollar string `json:"market_price_change_dollar,omitempty"`
	MarketPriceChangePct    string `json:"market_price_change_percent,omitempty"`
	PremiumDiscount         string `json:"premium_discount,omitempty"`
	Median30DaySpread       string `json:"median_30_day_spread,omitempty"`
	GrossExpenseRatio       string `json:"gross_expense_ratio,omitempty"`
	NetExpenseRatio         string `json:"net_expense_ratio,omitempty"`
}

// PremiumDiscountValue parses the premium/discount percentage once at the
// model boundary so alert checks never re-parse the raw string.
func (s *FundSnapshot) PremiumDiscountValue() (decimal.Decimal, error) {
	return parseFinancialString(s.PremiumDiscount)
}

// NetAssetsValue parses the net assets figure, tolerating thousands
// separators and a currency prefix.
func (s *FundSnapshot) NetAssetsValue() (decimal.Decimal, error) {
	return parseFinancialString(s.NetAssets)
}

func parseFinancialString(v string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(v)
	return decimal.NewFromString(cleaned)
}
