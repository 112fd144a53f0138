package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whiteboard-service/internal/repository"
)

// SweepJob deletes participant rows that have been silent far longer than
// the liveness window. The rooms evict such members from live state within
// a sweep cycle; this job only keeps the table from accumulating rows for
// users who never came back.
type SweepJob struct {
	participants repository.ParticipantRepository
	retention    time.Duration
	logger       *zap.Logger
}

func NewSweepJob(
	participants repository.ParticipantRepository,
	retention time.Duration,
	logger *zap.Logger,
) *SweepJob {
	return &SweepJob{
		participants: participants,
		retention:    retention,
		logger:       logger,
	}
}

// Run executes one sweep. Satisfies cron.Job.
func (j *SweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.retention)
	deleted, err := j.participants.DeleteStale(ctx, cutoff)
	if err != nil {
		j.logger.Error("Failed to delete stale participants", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("Deleted stale participants",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff))
	}
}
