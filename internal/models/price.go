package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint represents one daily closing price for a symbol, sourced from
// the market-data provider. Sequences are ordered ascending by date.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PerformanceResult represents the percentage performance for a symbol
// between a start date and the most recent available price. Either
// Performance is set or Err explains why it could not be computed; the
// zero-start-price case populates prices but leaves Performance nil.
type PerformanceResult struct {
	Symbol      string
	StartDate   time.Time
	StartPrice  decimal.Decimal
	EndDate     time.Time
	EndPrice    decimal.Decimal
	Performance *decimal.Decimal
	Err         string
}
