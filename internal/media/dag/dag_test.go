package dag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRunner(v interface{}) Runner {
	return func(ctx context.Context, inputs map[string]TaskResult) (interface{}, error) {
		return v, nil
	}
}

func TestExecuteRunsInDependencyOrder(t *testing.T) {
	var order []string
	record := func(id string) Runner {
		return func(ctx context.Context, inputs map[string]TaskResult) (interface{}, error) {
			order = append(order, id)
			return id, nil
		}
	}

	job := NewJob("job1", []*Task{
		{ID: "ingest", Kind: KindIngestion, ResourceClass: Io, Run: record("ingest")},
		{ID: "audio", Kind: KindAudioExtraction, Inputs: []string{"ingest"}, ResourceClass: Cpu, Run: record("audio")},
		{ID: "store", Kind: KindStorage, Inputs: []string{"audio"}, ResourceClass: Io, Run: record("store")},
	})

	err := NewExecutor().Execute(context.Background(), job)
	require.NoError(t, err)

	status := job.Status()
	assert.Equal(t, 3, status.CompletedTasks)
	assert.True(t, status.IsComplete)
	assert.Equal(t, []string{"ingest", "audio", "store"}, order)
}

func TestExecuteOptionalTaskToleratesFailedInput(t *testing.T) {
	job := NewJob("job2", []*Task{
		{ID: "detect", Kind: KindObjectDetection, ResourceClass: Gpu, Run: func(ctx context.Context, in map[string]TaskResult) (interface{}, error) {
			return nil, assertErr{}
		}},
		{ID: "fusion", Kind: KindFusion, Inputs: []string{"detect"}, Optional: true, ResourceClass: Cpu, Run: echoRunner("fused")},
	})

	err := NewExecutor().Execute(context.Background(), job)
	require.NoError(t, err)

	results, errs := job.Results()
	assert.Contains(t, errs, "detect")
	assert.Contains(t, results, "fusion")
}

func TestExecuteNonOptionalDownstreamFailsWhenInputFails(t *testing.T) {
	job := NewJob("job3", []*Task{
		{ID: "detect", Kind: KindObjectDetection, ResourceClass: Gpu, Run: func(ctx context.Context, in map[string]TaskResult) (interface{}, error) {
			return nil, assertErr{}
		}},
		{ID: "fusion", Kind: KindFusion, Inputs: []string{"detect"}, ResourceClass: Cpu, Run: echoRunner("fused")},
	})

	err := NewExecutor().Execute(context.Background(), job)
	require.NoError(t, err)

	status := job.Status()
	assert.Equal(t, 2, status.FailedTasks)
	assert.True(t, status.IsComplete)
}

func TestExecuteTaskTimeout(t *testing.T) {
	job := NewJob("job4", []*Task{
		{ID: "slow", Kind: KindTranscription, ResourceClass: Cpu, Timeout: 5 * time.Millisecond, Run: func(ctx context.Context, in map[string]TaskResult) (interface{}, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	})

	err := NewExecutor().Execute(context.Background(), job)
	require.NoError(t, err)

	_, errs := job.Results()
	assert.Contains(t, errs, "slow")
}

func TestTopoLevelsDetectsCycle(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Inputs: []string{"b"}},
		{ID: "b", Inputs: []string{"a"}},
	}
	_, err := topoLevels(tasks)
	assert.Error(t, err)
}

func TestExecuteBulkStagesAcrossJobs(t *testing.T) {
	var order []string
	rec := func(id string) Runner {
		return func(ctx context.Context, in map[string]TaskResult) (interface{}, error) {
			order = append(order, id)
			return nil, nil
		}
	}

	jobA := NewJob("a", []*Task{
		{ID: "a-ingest", Kind: KindIngestion, ResourceClass: Io, Run: rec("a-ingest")},
		{ID: "a-cpu", Kind: KindTranscription, Inputs: []string{"a-ingest"}, ResourceClass: Cpu, Run: rec("a-cpu")},
	})
	jobB := NewJob("b", []*Task{
		{ID: "b-ingest", Kind: KindIngestion, ResourceClass: Io, Run: rec("b-ingest")},
		{ID: "b-cpu", Kind: KindTranscription, Inputs: []string{"b-ingest"}, ResourceClass: Cpu, Run: rec("b-cpu")},
	})

	err := NewExecutor().ExecuteBulk(context.Background(), []*Job{jobA, jobB})
	require.NoError(t, err)

	ioStageEnd := 0
	for i, id := range order {
		if id == "a-ingest" || id == "b-ingest" {
			ioStageEnd = i
		}
	}
	for i, id := range order {
		if id == "a-cpu" || id == "b-cpu" {
			assert.Greater(t, i, ioStageEnd, "cpu stage task %q ran before io stage finished", id)
		}
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
