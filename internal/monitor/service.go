package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jlaster/fund-monitor/internal/alerting"
	"github.com/jlaster/fund-monitor/internal/extractor"
	"github.com/jlaster/fund-monitor/internal/marketdata"
	"github.com/jlaster/fund-monitor/internal/models"
	"github.com/jlaster/fund-monitor/internal/performance"
)

// Ledger defines the task persistence operations used by the pipeline.
// Ledger writes are best-effort: failures are logged, never fatal.
type Ledger interface {
	CreateTask(taskType string) (int, error)
	RecordRawOutput(id int, raw json.RawMessage) error
	RecordSuccess(id int, snapshot *models.FundSnapshot) error
	RecordFailure(id int, errMsg string, raw json.RawMessage) error
}

// EventPublisher publishes pipeline events for downstream consumers
type EventPublisher interface {
	PublishTaskCompleted(ctx context.Context, task *models.Task) error
	PublishTaskFailed(ctx context.Context, task *models.Task) error
	PublishAlertTriggered(ctx context.Context, taskID int, alertKind string) error
}

// Service runs the daily fund-monitoring pipeline: one extraction attempt,
// one task row, and whatever alerts the thresholds call for.
type Service struct {
	ledger  Ledger
	agent   extractor.Agent
	engine  *alerting.Engine
	fetcher marketdata.PriceFetcher
	events  EventPublisher

	symbols   []string
	startDate time.Time

	log zerolog.Logger
}

// New creates a monitor service. events may be nil when Kafka is disabled.
func New(ledger Ledger, agent extractor.Agent, engine *alerting.Engine, fetcher marketdata.PriceFetcher, events EventPublisher, symbols []string, startDate time.Time, log zerolog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		agent:     agent,
		engine:    engine,
		fetcher:   fetcher,
		events:    events,
		symbols:   symbols,
		startDate: startDate,
		log:       log.With().Str("component", "monitor").Logger(),
	}
}

// Run executes one monitoring pass. The attempt either fully succeeds (a
// successful task row plus optional threshold alerts) or fully fails (a
// failed task row plus an unavailability email). Email delivery failures
// propagate as the run's error; ledger write failures do not.
func (s *Service) Run(ctx context.Context) error {
	taskID, err := s.ledger.CreateTask(models.TaskTypeEBI)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create task row, continuing without ledger")
		taskID = 0
	}

	result, err := s.agent.StartAndWait(ctx, extractor.FundDetailsTask)
	if err != nil {
		return s.fail(ctx, taskID, err, nil)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal agent result")
	} else {
		s.recordRaw(taskID, raw)
	}

	finalResult := ""
	if result.Data != nil {
		finalResult = result.Data.FinalResult
	}

	snapshot, err := extractor.ExtractFundJSON(finalResult)
	if err != nil {
		return s.fail(ctx, taskID, err, raw)
	}

	if taskID != 0 {
		if err := s.ledger.RecordSuccess(taskID, snapshot); err != nil {
			s.log.Error().Err(err).Int("task_id", taskID).Msg("Failed to record task success")
		}
	}
	s.publishCompleted(ctx, taskID, snapshot)

	s.log.Info().
		Int("task_id", taskID).
		Str("premium_discount", snapshot.PremiumDiscount).
		Msg("Fund snapshot extracted")

	report := performance.BuildComparison(ctx, s.fetcher, s.symbols, s.startDate, time.Now())

	alerts := s.engine.Evaluate(snapshot, report)
	if len(alerts) == 0 {
		s.log.Info().Int("task_id", taskID).Msg("All metrics within normal range")
		return nil
	}

	sent, err := s.engine.Dispatch(ctx, alerts)
	for _, alert := range sent {
		s.publishAlert(ctx, taskID, alert.Kind)
	}
	if err != nil {
		return fmt.Errorf("alert dispatch: %w", err)
	}
	return nil
}

// fail records the terminal failure and sends the unavailability notice.
// The notice's delivery failure is the only error that escapes.
func (s *Service) fail(ctx context.Context, taskID int, cause error, raw json.RawMessage) error {
	s.log.Error().Err(cause).Int("task_id", taskID).Msg("Extraction pipeline failed")

	if taskID != 0 {
		if err := s.ledger.RecordFailure(taskID, cause.Error(), raw); err != nil {
			s.log.Error().Err(err).Int("task_id", taskID).Msg("Failed to record task failure")
		}
	}

	if s.events != nil {
		task := &models.Task{ID: taskID, Type: models.TaskTypeEBI, Status: models.TaskStatusFailed, Error: cause.Error()}
		if err := s.events.PublishTaskFailed(ctx, task); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish task failed event")
		}
	}

	if err := s.engine.SendDetailsUnavailable(ctx, cause, raw); err != nil {
		return fmt.Errorf("unavailability notice: %w", err)
	}
	return nil
}

func (s *Service) recordRaw(taskID int, raw json.RawMessage) {
	if taskID == 0 {
		return
	}
	if err := s.ledger.RecordRawOutput(taskID, raw); err != nil {
		s.log.Error().Err(err).Int("task_id", taskID).Msg("Failed to record raw output")
	}
}

func (s *Service) publishCompleted(ctx context.Context, taskID int, snapshot *models.FundSnapshot) {
	if s.events == nil {
		return
	}
	task := &models.Task{ID: taskID, Type: models.TaskTypeEBI, Status: models.TaskStatusSuccessful, Data: snapshot}
	if err := s.events.PublishTaskCompleted(ctx, task); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish task completed event")
	}
}

func (s *Service) publishAlert(ctx context.Context, taskID int, kind string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAlertTriggered(ctx, taskID, kind); err != nil {
		s.log.Warn().Err(err).Str("kind", kind).Msg("Failed to publish alert event")
	}
}
