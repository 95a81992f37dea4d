package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/codevet/crucible/internal/database"
	"github.com/codevet/crucible/internal/executor"
	"github.com/codevet/crucible/internal/metrics"
	"github.com/codevet/crucible/internal/queue"
)

type Worker struct {
	id       int
	executor *executor.Executor
	manager  *queue.Manager
	store    *database.Database
	logger   *zerolog.Logger
}

func NewWorker(id int, exec *executor.Executor, manager *queue.Manager, store *database.Database, logger *zerolog.Logger) *Worker {
	return &Worker{
		id:       id,
		executor: exec,
		manager:  manager,
		store:    store,
		logger:   logger,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Int("worker_id", w.id).Msg("worker started")
	for {
		select {
		case job := <-w.manager.NextJob():
			metrics.ActiveWorkers.Inc()
			w.processJob(job)
			metrics.ActiveWorkers.Dec()
		case <-ctx.Done():
			w.logger.Info().Int("worker_id", w.id).Msg("worker stopping")
			return
		}
	}
}

func (w *Worker) processJob(job *queue.Job) {
	w.logger.Info().Int("worker_id", w.id).Str("job_id", job.ID).Str("language", job.Request.Language).Msg("processing submission")

	startTime := time.Now()
	rep, err := w.executor.Execute(job.Ctx, job.Request)
	duration := time.Since(startTime)
	w.manager.UpdateQueueMetric()

	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(job.Request.Language, "invalid").Inc()
		job.Err <- err
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(job.Request.Language, string(rep.Status)).Inc()
	metrics.SubmissionDuration.WithLabelValues(job.Request.Language).Observe(float64(duration.Milliseconds()))
	if rep.PassedCount > 0 {
		metrics.TestCasesTotal.WithLabelValues(job.Request.Language, "passed").Add(float64(rep.PassedCount))
	}
	if rep.FailedCount > 0 {
		metrics.TestCasesTotal.WithLabelValues(job.Request.Language, "failed").Add(float64(rep.FailedCount))
	}
	if rep.Warning != "" {
		metrics.DegradedExecutions.Inc()
	}

	if w.store != nil {
		rec := database.SubmissionRecord{
			JobID:       job.ID,
			Language:    job.Request.Language,
			Status:      string(rep.Status),
			PassedCount: rep.PassedCount,
			FailedCount: rep.FailedCount,
			DurationMs:  duration.Milliseconds(),
			Degraded:    rep.Warning != "",
		}
		if dbErr := w.store.RecordSubmission(context.Background(), rec); dbErr != nil {
			w.logger.Warn().Err(dbErr).Str("job_id", job.ID).Msg("failed to record submission")
		}
	}

	job.Result <- rep
}
