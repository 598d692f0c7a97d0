package performance

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jlaster/fund-monitor/internal/marketdata"
	"github.com/jlaster/fund-monitor/internal/models"
)

// MissingDataNote is reported for a pair when either side has no performance value
const MissingDataNote = "N/A (missing performance data)"

// DeltaNote explains the sign convention of the pairwise deltas
const DeltaNote = "Positive delta means the first symbol performed better than the second by that percentage point difference."

const fetchErrNote = "Failed to fetch or no data returned from API."

// ClosePoint is a single charting point in the response payload
type ClosePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// ComparisonReport holds the evaluated date range, per-symbol performance,
// all pairwise deltas and the raw close series for charting. Deltas keep
// full decimal precision internally; rounding happens in Response.
type ComparisonReport struct {
	StartDate     time.Time
	EndDate       time.Time
	Symbols       []string
	Results       map[string]models.PerformanceResult
	Deltas        map[string]*decimal.Decimal
	History       map[string][]ClosePoint
	HistoryErrors map[string]string
}

// BuildComparison fetches each symbol's history sequentially, computes
// individual performance and every pairwise delta among the configured
// symbols. Fetch failures are isolated per symbol; the delta key set is
// deterministic regardless of which fetches succeed.
func BuildComparison(ctx context.Context, fetcher marketdata.PriceFetcher, symbols []string, startDate, endDate time.Time) *ComparisonReport {
	report := &ComparisonReport{
		StartDate:     startDate,
		EndDate:       endDate,
		Symbols:       symbols,
		Results:       make(map[string]models.PerformanceResult, len(symbols)),
		Deltas:        make(map[string]*decimal.Decimal),
		History:       make(map[string][]ClosePoint, len(symbols)),
		HistoryErrors: make(map[string]string),
	}

	for _, symbol := range symbols {
		points, err := fetcher.GetHistoricalPrices(ctx, symbol, startDate, endDate)
		key := strings.ToLower(symbol)

		if err != nil || len(points) == 0 {
			report.HistoryErrors[key] = fetchErrNote
			report.Results[symbol] = models.PerformanceResult{Symbol: symbol, Err: fetchErrNote}
			continue
		}

		series := make([]ClosePoint, 0, len(points))
		for _, p := range points {
			closePx, _ := p.Close.Float64()
			series = append(series, ClosePoint{Date: p.Date.Format(dateLayout), Close: closePx})
		}
		report.History[key] = series
		report.Results[symbol] = CalculatePerformance(symbol, points, startDate)
	}

	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			key := DeltaKey(symbols[i], symbols[j])
			a, b := report.Results[symbols[i]], report.Results[symbols[j]]
			if a.Performance == nil || b.Performance == nil {
				report.Deltas[key] = nil
				continue
			}
			delta := a.Performance.Sub(*b.Performance)
			report.Deltas[key] = &delta
		}
	}

	return report
}

// DeltaKey returns the canonical pair key for two symbols, e.g. "ebi_vti"
func DeltaKey(a, b string) string {
	return strings.ToLower(a) + "_" + strings.ToLower(b)
}

// Delta returns the rounded delta for a pair key, or false when the pair is
// unknown or either side's performance is unavailable
func (r *ComparisonReport) Delta(key string) (decimal.Decimal, bool) {
	d, ok := r.Deltas[key]
	if !ok || d == nil {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}

// Response assembles the wire payload served on /api/ebi. Percentages are
// rounded to two decimals here, at the presentation boundary only.
func (r *ComparisonReport) Response() map[string]interface{} {
	individual := make(map[string]interface{}, len(r.Symbols))
	for _, symbol := range r.Symbols {
		res := r.Results[symbol]
		key := strings.ToLower(symbol)
		if res.Err != "" {
			individual[key] = map[string]interface{}{"error": res.Err}
			continue
		}
		startPrice, _ := res.StartPrice.Float64()
		endPrice, _ := res.EndPrice.Float64()
		individual[key] = map[string]interface{}{
			"startDate":   res.StartDate.Format(dateLayout),
			"startPrice":  startPrice,
			"endDate":     res.EndDate.Format(dateLayout),
			"endPrice":    endPrice,
			"performance": res.Performance.StringFixed(2) + "%",
		}
	}

	deltas := make(map[string]interface{}, len(r.Deltas))
	for i := 0; i < len(r.Symbols); i++ {
		for j := i + 1; j < len(r.Symbols); j++ {
			key := DeltaKey(r.Symbols[i], r.Symbols[j])
			if d, ok := r.Delta(key); ok {
				val, _ := d.Float64()
				deltas[key] = val
			} else {
				deltas[key] = MissingDataNote
			}
		}
	}

	history := make(map[string]interface{}, len(r.Symbols))
	for _, symbol := range r.Symbols {
		key := strings.ToLower(symbol)
		if errNote, ok := r.HistoryErrors[key]; ok {
			history[key] = map[string]string{"error": errNote}
		} else {
			history[key] = r.History[key]
		}
	}

	return map[string]interface{}{
		"dateRange": map[string]string{
			"startDate": r.StartDate.Format(dateLayout),
			"endDate":   r.EndDate.Format(dateLayout),
		},
		"individualPerformance": individual,
		"performanceDeltas":     deltas,
		"historicalPrices":      history,
		"deltaNote":             DeltaNote,
	}
}
