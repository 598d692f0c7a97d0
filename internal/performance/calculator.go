package performance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jlaster/fund-monitor/internal/models"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// CalculatePerformance computes the percentage performance for a symbol
// between the first price on or after startDate and the latest price in the
// series. The series must be in ascending date order. Edge cases come back as
// error strings on the result, never as a Go error: an empty series, a series
// that ends before startDate, and a zero start price each get a distinct
// message. The zero-price case still reports the prices it found.
func CalculatePerformance(symbol string, points []models.PricePoint, startDate time.Time) models.PerformanceResult {
	if len(points) == 0 {
		return models.PerformanceResult{Symbol: symbol, Err: "No data available"}
	}

	var start *models.PricePoint
	for i := range points {
		if !points[i].Date.Before(startDate) {
			start = &points[i]
			break
		}
	}
	if start == nil {
		return models.PerformanceResult{
			Symbol: symbol,
			Err:    fmt.Sprintf("No data found on or after start date %s", startDate.Format(dateLayout)),
		}
	}

	end := points[len(points)-1]

	if start.Close.IsZero() {
		return models.PerformanceResult{
			Symbol:     symbol,
			StartDate:  start.Date,
			StartPrice: start.Close,
			EndDate:    end.Date,
			EndPrice:   end.Close,
			Err:        "Start price is zero, cannot calculate performance",
		}
	}

	perf := end.Close.Sub(start.Close).Div(start.Close).Mul(hundred)

	return models.PerformanceResult{
		Symbol:      symbol,
		StartDate:   start.Date,
		StartPrice:  start.Close,
		EndDate:     end.Date,
		EndPrice:    end.Close,
		Performance: &perf,
	}
}
