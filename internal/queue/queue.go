package queue

import (
	"context"

	"github.com/codevet/crucible/internal/metrics"
	"github.com/codevet/crucible/internal/report"
)

// Job carries one submission through the worker pool. Result and Err
// are buffered so a worker never blocks on a departed caller.
type Job struct {
	ID      string
	Request report.SubmissionRequest
	Result  chan *report.ExecutionReport
	Err     chan error
	Ctx     context.Context
}

type Manager struct {
	jobQueue chan *Job
}

func NewManager(capacity int) *Manager {
	return &Manager{
		jobQueue: make(chan *Job, capacity),
	}
}

// Submit enqueues job, giving up when the job's context expires so a
// saturated queue never pins the caller.
func (m *Manager) Submit(job *Job) error {
	select {
	case m.jobQueue <- job:
		metrics.QueueDepth.Set(float64(len(m.jobQueue)))
		return nil
	case <-job.Ctx.Done():
		return job.Ctx.Err()
	}
}

func (m *Manager) NextJob() <-chan *Job {
	return m.jobQueue
}

func (m *Manager) UpdateQueueMetric() {
	metrics.QueueDepth.Set(float64(len(m.jobQueue)))
}
