package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jlaster/fund-monitor/internal/models"
)

// Extraction failure modes. Callers branch on these to record distinct
// ledger errors, so they are sentinel values rather than ad hoc strings.
var (
	ErrNoJSONObject           = errors.New("no JSON object found in agent output")
	ErrMissingPremiumDiscount = errors.New("extracted JSON is missing premium_discount")
)

// ExtractFundJSON locates the JSON object embedded in the agent's final
// result text and parses it into a FundSnapshot. The agent is asked for bare
// JSON but tends to wrap it in prose, so the object is taken as the span from
// the leftmost "{" to the rightmost "}". premium_discount is required;
// every other field may be absent.
func ExtractFundJSON(text string) (*models.FundSnapshot, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSONObject
	}

	var snapshot models.FundSnapshot
	if err := json.Unmarshal([]byte(text[start:end+1]), &snapshot); err != nil {
		return nil, fmt.Errorf("invalid JSON in agent output: %w", err)
	}

	if snapshot.PremiumDiscount == "" {
		return nil, ErrMissingPremiumDiscount
	}

	return &snapshot, nil
}
