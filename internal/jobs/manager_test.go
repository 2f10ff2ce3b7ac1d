package jobs_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudml/internal/jobs"
)

func TestCreateAndList(t *testing.T) {
	m := jobs.NewManager()
	a := m.CreateJob("a.csv", "pipeline run")
	b := m.CreateJob("b.csv", "pipeline run")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, jobs.JobPending, a.GetStatus())

	got, ok := m.GetJob(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = m.GetJob("unknown")
	assert.False(t, ok)

	list := m.ListJobs()
	require.Len(t, list, 2)
	assert.Equal(t, "a.csv", list[0].Input)
	assert.Equal(t, "b.csv", list[1].Input)
}

func TestLifecycle(t *testing.T) {
	m := jobs.NewManager()
	job := m.CreateJob("a.csv", "")

	job.SetStatus(jobs.JobRunning)
	job.SetStage("loaded", 10)
	job.AddLog("note")
	assert.Equal(t, "loaded", job.GetStage())
	assert.Len(t, job.GetLogs(), 2)
	assert.Contains(t, job.GetLogs()[0], "loaded rows=10")

	job.SetResult(42)
	job.SetStatus(jobs.JobCompleted)
	assert.Equal(t, 42, job.GetResult())
	assert.NotNil(t, job.EndTime)
	assert.GreaterOrEqual(t, job.Duration().Nanoseconds(), int64(0))

	failed := m.CreateJob("b.csv", "")
	failed.SetError(errors.New("boom"))
	assert.Equal(t, jobs.JobFailed, failed.GetStatus())
	assert.EqualError(t, failed.GetError(), "boom")

	counts := m.Counts()
	assert.Equal(t, 1, counts[jobs.JobCompleted])
	assert.Equal(t, 1, counts[jobs.JobFailed])
}

func TestConcurrentUpdates(t *testing.T) {
	m := jobs.NewManager()
	job := m.CreateJob("a.csv", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.AddLog("tick")
			m.CreateJob("x.csv", "")
		}()
	}
	wg.Wait()

	assert.Len(t, job.GetLogs(), 20)
	assert.Len(t, m.ListJobs(), 21)
}
