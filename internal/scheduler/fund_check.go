package scheduler

import (
	"context"
	"time"
)

// Pipeline is the monitoring pipeline the fund check job drives
type Pipeline interface {
	Run(ctx context.Context) error
}

// FundCheckJob runs the daily extraction and alerting pipeline
type FundCheckJob struct {
	pipeline Pipeline
	timeout  time.Duration
}

// NewFundCheckJob creates the daily fund check job
func NewFundCheckJob(pipeline Pipeline) *FundCheckJob {
	return &FundCheckJob{
		pipeline: pipeline,
		timeout:  10 * time.Minute,
	}
}

// Name returns the job name
func (j *FundCheckJob) Name() string {
	return "fund-check"
}

// Run executes one monitoring pass with an overall deadline
func (j *FundCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.pipeline.Run(ctx)
}
