package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// HeartbeatJob is a trivial hourly job that proves the scheduler is alive
type HeartbeatJob struct {
	log zerolog.Logger
}

// NewHeartbeatJob creates the heartbeat job
func NewHeartbeatJob(log zerolog.Logger) *HeartbeatJob {
	return &HeartbeatJob{log: log.With().Str("job", "heartbeat").Logger()}
}

// Name returns the job name
func (j *HeartbeatJob) Name() string {
	return "heartbeat"
}

// Run sleeps a moment and logs a dated greeting
func (j *HeartbeatJob) Run() error {
	time.Sleep(time.Second)
	j.log.Info().Msgf("Hello %s!", time.Now().Format("Mon Jan 2 2006"))
	return nil
}
