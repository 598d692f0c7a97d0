package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaster/fund-monitor/internal/config"
	"github.com/jlaster/fund-monitor/internal/models"
	"github.com/jlaster/fund-monitor/internal/performance"
)

type sentEmail struct {
	Subject string
	Body    string
	To      []string
}

type fakeSender struct {
	sent []sentEmail
	err  error
}

func (f *fakeSender) Send(ctx context.Context, subject, body string, to []string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{Subject: subject, Body: body, To: to})
	return nil
}

func testAlertsConfig() config.AlertsConfig {
	return config.AlertsConfig{
		Recipients:            []string{"alerts@example.com"},
		PremiumDiscountBelow:  "-0.2",
		NetAssetsBelow:        "400000000",
		UnderperformanceBelow: "-2.5",
	}
}

func newTestEngine(t *testing.T, sender Sender) *Engine {
	t.Helper()
	engine, err := NewEngine(testAlertsConfig(), "EBI", []string{"VTI", "IWV"}, sender, nil, zerolog.Nop())
	require.NoError(t, err)
	return engine
}

func snapshotWith(premiumDiscount, netAssets string) *models.FundSnapshot {
	return &models.FundSnapshot{
		ETFTicker:       "EBI",
		Exchange:        "NASDAQ",
		PremiumDiscount: premiumDiscount,
		NetAssets:       netAssets,
	}
}

func reportWithDeltas(deltas map[string]string) *performance.ComparisonReport {
	report := &performance.ComparisonReport{
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Symbols:   []string{"EBI", "VTI", "IWV"},
		Deltas:    make(map[string]*decimal.Decimal),
	}
	for key, val := range deltas {
		d := decimal.RequireFromString(val)
		report.Deltas[key] = &d
	}
	return report
}

func TestEvaluatePremiumDiscount(t *testing.T) {
	engine := newTestEngine(t, &fakeSender{})

	t.Run("exactly at threshold does not fire", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("-0.2", "500,000,000"), nil)
		assert.Empty(t, alerts)
	})

	t.Run("below threshold fires", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("-0.21", "500,000,000"), nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertPremiumDiscount, alerts[0].Kind)
		assert.Contains(t, alerts[0].Subject, "-0.21")
		assert.Contains(t, alerts[0].Body, "NASDAQ")
	})

	t.Run("unparseable value does not fire", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("n/a", "500,000,000"), nil)
		assert.Empty(t, alerts)
	})
}

func TestEvaluateNetAssets(t *testing.T) {
	engine := newTestEngine(t, &fakeSender{})

	t.Run("thousands separators are stripped before comparison", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("-0.03", "399,999,999.99"), nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertNetAssets, alerts[0].Kind)
	})

	t.Run("at or above the floor does not fire", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("-0.03", "452,629,474.16"), nil)
		assert.Empty(t, alerts)

		alerts = engine.Evaluate(snapshotWith("-0.03", "400,000,000"), nil)
		assert.Empty(t, alerts)
	})

	t.Run("absent net assets does not fire", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("-0.03", ""), nil)
		assert.Empty(t, alerts)
	})
}

func TestEvaluateUnderperformance(t *testing.T) {
	engine := newTestEngine(t, &fakeSender{})

	t.Run("single benchmark breach", func(t *testing.T) {
		report := reportWithDeltas(map[string]string{
			"ebi_vti": "-3.10",
			"ebi_iwv": "-1.00",
		})

		alerts := engine.Evaluate(snapshotWith("-0.03", ""), report)
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertUnderperformance, alerts[0].Kind)
		assert.Equal(t, "EBI underperforming VTI", alerts[0].Subject)
		assert.Contains(t, alerts[0].Body, "-3.10")
	})

	t.Run("both benchmarks collapse into one combined email", func(t *testing.T) {
		report := reportWithDeltas(map[string]string{
			"ebi_vti": "-3.10",
			"ebi_iwv": "-2.60",
		})

		alerts := engine.Evaluate(snapshotWith("-0.03", ""), report)
		require.Len(t, alerts, 1)
		assert.Equal(t, "EBI underperforming VTI and IWV", alerts[0].Subject)
		assert.Contains(t, alerts[0].Body, "vs VTI")
		assert.Contains(t, alerts[0].Body, "vs IWV")
	})

	t.Run("exactly at threshold does not fire", func(t *testing.T) {
		report := reportWithDeltas(map[string]string{
			"ebi_vti": "-2.5",
			"ebi_iwv": "-2.5",
		})

		alerts := engine.Evaluate(snapshotWith("-0.03", ""), report)
		assert.Empty(t, alerts)
	})

	t.Run("missing delta is skipped", func(t *testing.T) {
		report := reportWithDeltas(map[string]string{})
		report.Deltas["ebi_vti"] = nil

		alerts := engine.Evaluate(snapshotWith("-0.03", ""), report)
		assert.Empty(t, alerts)
	})

	t.Run("nil report is tolerated", func(t *testing.T) {
		alerts := engine.Evaluate(snapshotWith("-0.03", ""), nil)
		assert.Empty(t, alerts)
	})
}

func TestEvaluateMultipleRules(t *testing.T) {
	engine := newTestEngine(t, &fakeSender{})

	report := reportWithDeltas(map[string]string{"ebi_vti": "-3.00"})
	alerts := engine.Evaluate(snapshotWith("-0.25", "100,000,000"), report)

	require.Len(t, alerts, 3)
	kinds := []string{alerts[0].Kind, alerts[1].Kind, alerts[2].Kind}
	assert.Contains(t, kinds, AlertPremiumDiscount)
	assert.Contains(t, kinds, AlertNetAssets)
	assert.Contains(t, kinds, AlertUnderperformance)
}

func TestDispatch(t *testing.T) {
	t.Run("sends each alert to configured recipients", func(t *testing.T) {
		sender := &fakeSender{}
		engine := newTestEngine(t, sender)

		alerts := engine.Evaluate(snapshotWith("-0.25", "100,000,000"), nil)
		sent, err := engine.Dispatch(context.Background(), alerts)

		require.NoError(t, err)
		assert.Len(t, sent, 2)
		require.Len(t, sender.sent, 2)
		assert.Equal(t, []string{"alerts@example.com"}, sender.sent[0].To)
	})

	t.Run("send failure is returned", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("smtp down")}
		engine := newTestEngine(t, sender)

		alerts := engine.Evaluate(snapshotWith("-0.25", ""), nil)
		sent, err := engine.Dispatch(context.Background(), alerts)

		assert.Empty(t, sent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
	})
}

func TestSendDetailsUnavailable(t *testing.T) {
	t.Run("includes error and raw payload", func(t *testing.T) {
		sender := &fakeSender{}
		engine := newTestEngine(t, sender)

		err := engine.SendDetailsUnavailable(context.Background(), errors.New("no JSON object found in agent output"), []byte(`{"status":"failed"}`))

		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "EBI details unavailable", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].Body, "no JSON object found")
		assert.Contains(t, sender.sent[0].Body, `{"status":"failed"}`)
	})

	t.Run("send failure propagates", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("smtp down")}
		engine := newTestEngine(t, sender)

		err := engine.SendDetailsUnavailable(context.Background(), errors.New("boom"), nil)
		require.Error(t, err)
	})
}

func TestNewEngineValidatesThresholds(t *testing.T) {
	cfg := testAlertsConfig()
	cfg.PremiumDiscountBelow = "not-a-number"

	_, err := NewEngine(cfg, "EBI", []string{"VTI"}, &fakeSender{}, nil, zerolog.Nop())
	require.Error(t, err)
}
