package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codevet/crucible/internal/queue"
	"github.com/codevet/crucible/internal/report"
)

func newJob(ctx context.Context, id string) *queue.Job {
	return &queue.Job{
		ID:      id,
		Request: report.SubmissionRequest{Language: "python"},
		Result:  make(chan *report.ExecutionReport, 1),
		Err:     make(chan error, 1),
		Ctx:     ctx,
	}
}

func TestSubmitAndNext(t *testing.T) {
	m := queue.NewManager(2)

	require.NoError(t, m.Submit(newJob(context.Background(), "a")))
	require.NoError(t, m.Submit(newJob(context.Background(), "b")))

	job := <-m.NextJob()
	require.Equal(t, "a", job.ID)
	job = <-m.NextJob()
	require.Equal(t, "b", job.ID)
}

func TestSubmitFullQueueHonorsContext(t *testing.T) {
	m := queue.NewManager(1)
	require.NoError(t, m.Submit(newJob(context.Background(), "filler")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Submit(newJob(ctx, "stuck"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second, "a saturated queue must fail fast, not block")
}

func TestSubmitCancelledContext(t *testing.T) {
	m := queue.NewManager(1)
	require.NoError(t, m.Submit(newJob(context.Background(), "filler")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Submit(newJob(ctx, "late"))
	require.ErrorIs(t, err, context.Canceled)
}
