package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFundJSON(t *testing.T) {
	t.Run("parses JSON object surrounded by prose", func(t *testing.T) {
		text := `Here are the fund details you asked for:
{"etf_ticker":"EBI","exchange":"NASDAQ","premium_discount":"-0.03","net_assets":"452,629,474.16"}
Let me know if you need anything else.`

		snapshot, err := ExtractFundJSON(text)

		require.NoError(t, err)
		assert.Equal(t, "EBI", snapshot.ETFTicker)
		assert.Equal(t, "NASDAQ", snapshot.Exchange)
		assert.Equal(t, "-0.03", snapshot.PremiumDiscount)
		assert.Equal(t, "452,629,474.16", snapshot.NetAssets)
	})

	t.Run("parses bare JSON object", func(t *testing.T) {
		snapshot, err := ExtractFundJSON(`{"premium_discount":"-0.21"}`)

		require.NoError(t, err)
		assert.Equal(t, "-0.21", snapshot.PremiumDiscount)
	})

	t.Run("tolerates missing optional fields", func(t *testing.T) {
		snapshot, err := ExtractFundJSON(`{"premium_discount":"-0.03","cusip":"75526L852"}`)

		require.NoError(t, err)
		assert.Equal(t, "75526L852", snapshot.CUSIP)
		assert.Empty(t, snapshot.NetAssets)
	})

	t.Run("no brace pair found", func(t *testing.T) {
		_, err := ExtractFundJSON("the agent could not load the page")

		assert.ErrorIs(t, err, ErrNoJSONObject)
	})

	t.Run("closing brace before opening brace", func(t *testing.T) {
		_, err := ExtractFundJSON("} nothing useful {")

		assert.ErrorIs(t, err, ErrNoJSONObject)
	})

	t.Run("invalid JSON inside braces", func(t *testing.T) {
		_, err := ExtractFundJSON(`{"premium_discount": broken}`)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoJSONObject)
		assert.NotErrorIs(t, err, ErrMissingPremiumDiscount)
	})

	t.Run("missing premium_discount is a semantic failure", func(t *testing.T) {
		_, err := ExtractFundJSON(`{"etf_ticker":"EBI","net_assets":"452,629,474.16"}`)

		assert.ErrorIs(t, err, ErrMissingPremiumDiscount)
	})
}
