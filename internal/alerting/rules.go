package alerting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jlaster/fund-monitor/internal/config"
	"github.com/jlaster/fund-monitor/internal/models"
	"github.com/jlaster/fund-monitor/internal/performance"
)

// Alert kind constants
const (
	AlertPremiumDiscount  = "premium_discount_critical"
	AlertNetAssets        = "net_assets_low"
	AlertUnderperformance = "underperformance"
	AlertUnavailable      = "details_unavailable"
)

// Alert is one evaluated threshold breach ready to be emailed
type Alert struct {
	Kind    string
	Subject string
	Body    string
}

// Engine evaluates fund metrics against fixed thresholds and sends templated
// email notifications for breaches. Evaluation is pure; Dispatch does the
// sending and cooldown bookkeeping.
type Engine struct {
	sender     Sender
	cooldown   *Cooldown
	recipients []string

	primary    string
	benchmarks []string

	premiumBelow   decimal.Decimal
	netAssetsBelow decimal.Decimal
	underperfBelow decimal.Decimal

	log zerolog.Logger
}

// NewEngine creates an alerting engine. Thresholds are parsed once here;
// a malformed threshold is a startup error, not something to discover at
// midnight when the job fires. primary and benchmarks name the symbols whose
// pairwise deltas feed the underperformance rule. cooldown may be nil.
func NewEngine(cfg config.AlertsConfig, primary string, benchmarks []string, sender Sender, cooldown *Cooldown, log zerolog.Logger) (*Engine, error) {
	premiumBelow, err := decimal.NewFromString(cfg.PremiumDiscountBelow)
	if err != nil {
		return nil, fmt.Errorf("invalid premium discount threshold %q: %w", cfg.PremiumDiscountBelow, err)
	}
	netAssetsBelow, err := decimal.NewFromString(cfg.NetAssetsBelow)
	if err != nil {
		return nil, fmt.Errorf("invalid net assets threshold %q: %w", cfg.NetAssetsBelow, err)
	}
	underperfBelow, err := decimal.NewFromString(cfg.UnderperformanceBelow)
	if err != nil {
		return nil, fmt.Errorf("invalid underperformance threshold %q: %w", cfg.UnderperformanceBelow, err)
	}

	return &Engine{
		sender:         sender,
		cooldown:       cooldown,
		recipients:     cfg.Recipients,
		primary:        primary,
		benchmarks:     benchmarks,
		premiumBelow:   premiumBelow,
		netAssetsBelow: netAssetsBelow,
		underperfBelow: underperfBelow,
		log:            log.With().Str("component", "alerting").Logger(),
	}, nil
}

// Evaluate checks every rule independently and returns the alerts that fired.
// Rules are not mutually exclusive; several can fire in one run. report may
// be nil when the comparison data is unavailable.
func (e *Engine) Evaluate(snapshot *models.FundSnapshot, report *performance.ComparisonReport) []Alert {
	var alerts []Alert

	if a := e.checkPremiumDiscount(snapshot); a != nil {
		alerts = append(alerts, *a)
	}
	if a := e.checkNetAssets(snapshot); a != nil {
		alerts = append(alerts, *a)
	}
	if a := e.checkUnderperformance(report); a != nil {
		alerts = append(alerts, *a)
	}

	return alerts
}

func (e *Engine) checkPremiumDiscount(snapshot *models.FundSnapshot) *Alert {
	value, err := snapshot.PremiumDiscountValue()
	if err != nil {
		e.log.Warn().Err(err).Str("raw", snapshot.PremiumDiscount).Msg("Cannot parse premium discount")
		return nil
	}
	if !value.LessThan(e.premiumBelow) {
		return nil
	}

	body := render(premiumDiscountTmpl, map[string]interface{}{
		"Snapshot":      snapshot,
		"Threshold":     e.premiumBelow.String(),
		"SnapshotBlock": renderSnapshotBlock(snapshot),
	})
	return &Alert{
		Kind:    AlertPremiumDiscount,
		Subject: fmt.Sprintf("%s premium discount critical: %s", e.primary, snapshot.PremiumDiscount),
		Body:    body,
	}
}

func (e *Engine) checkNetAssets(snapshot *models.FundSnapshot) *Alert {
	if snapshot.NetAssets == "" {
		return nil
	}
	value, err := snapshot.NetAssetsValue()
	if err != nil {
		e.log.Warn().Err(err).Str("raw", snapshot.NetAssets).Msg("Cannot parse net assets")
		return nil
	}
	if !value.LessThan(e.netAssetsBelow) {
		return nil
	}

	body := render(netAssetsTmpl, map[string]interface{}{
		"Snapshot":      snapshot,
		"Threshold":     e.netAssetsBelow.String(),
		"SnapshotBlock": renderSnapshotBlock(snapshot),
	})
	return &Alert{
		Kind:    AlertNetAssets,
		Subject: fmt.Sprintf("%s net assets low: %s", e.primary, snapshot.NetAssets),
		Body:    body,
	}
}

// checkUnderperformance fires when the primary trails any configured
// benchmark by more than the threshold. Multiple breaches collapse into one
// combined-subject email rather than one email per benchmark.
func (e *Engine) checkUnderperformance(report *performance.ComparisonReport) *Alert {
	if report == nil {
		return nil
	}

	var breached []string
	var lines []string
	for _, benchmark := range e.benchmarks {
		delta, ok := report.Delta(performance.DeltaKey(e.primary, benchmark))
		if !ok {
			continue
		}
		if delta.LessThan(e.underperfBelow) {
			breached = append(breached, benchmark)
			lines = append(lines, fmt.Sprintf("vs %s: %s percentage points", benchmark, delta.StringFixed(2)))
		}
	}
	if len(breached) == 0 {
		return nil
	}

	body := render(underperformanceTmpl, map[string]interface{}{
		"Primary":   e.primary,
		"Lines":     lines,
		"Threshold": e.underperfBelow.String(),
		"StartDate": report.StartDate.Format("2006-01-02"),
	})
	return &Alert{
		Kind:    AlertUnderperformance,
		Subject: fmt.Sprintf("%s underperforming %s", e.primary, strings.Join(breached, " and ")),
		Body:    body,
	}
}

// Dispatch sends each alert, honoring the cooldown window when one is
// configured, and returns the alerts actually sent. Send failures are joined
// and returned so the scheduler records the run as failed; already-sent
// alerts are not rolled back.
func (e *Engine) Dispatch(ctx context.Context, alerts []Alert) ([]Alert, error) {
	var sent []Alert
	var errs []error
	for _, alert := range alerts {
		if e.cooldown != nil && !e.cooldown.Allow(ctx, alert.Kind) {
			continue
		}
		if err := e.sender.Send(ctx, alert.Subject, alert.Body, e.recipients); err != nil {
			e.log.Error().Err(err).Str("kind", alert.Kind).Msg("Failed to send alert email")
			errs = append(errs, fmt.Errorf("send %s: %w", alert.Kind, err))
			continue
		}
		e.log.Info().Str("kind", alert.Kind).Str("subject", alert.Subject).Msg("Alert sent")
		sent = append(sent, alert)
	}
	return sent, errors.Join(errs...)
}

// SendDetailsUnavailable emails the failure notice when the extraction
// pipeline fails outright. It bypasses the cooldown: repeated failures are
// worth repeated noise.
func (e *Engine) SendDetailsUnavailable(ctx context.Context, cause error, raw []byte) error {
	body := render(unavailableTmpl, map[string]interface{}{
		"Error": cause.Error(),
		"Raw":   string(raw),
	})
	subject := fmt.Sprintf("%s details unavailable", e.primary)

	if err := e.sender.Send(ctx, subject, body, e.recipients); err != nil {
		return fmt.Errorf("send %s: %w", AlertUnavailable, err)
	}
	e.log.Info().Str("kind", AlertUnavailable).Msg("Unavailability notice sent")
	return nil
}
