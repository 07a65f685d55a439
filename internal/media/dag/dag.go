// Package dag executes a directed acyclic graph of typed media tasks:
// ingestion, audio/keyframe extraction, transcription, diarization,
// detection/embedding models, and storage. It provides a low-latency
// single-job mode and a staged throughput mode for batches, both backed
// by per-resource-class semaphores.
package dag

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/docling-go/docling/internal/docerr"
)

// ResourceClass identifies which semaphore a task must acquire before
// running.
type ResourceClass string

const (
	Io  ResourceClass = "io"
	Cpu ResourceClass = "cpu"
	Gpu ResourceClass = "gpu"
)

// Kind is the logical task type; the tagged-union result it produces is
// opaque to the executor (TaskResult.Value holds whatever the runner
// returned).
type Kind string

const (
	KindIngestion         Kind = "ingestion"
	KindAudioExtraction   Kind = "audio_extraction"
	KindKeyframeExtraction Kind = "keyframe_extraction"
	KindTranscription     Kind = "transcription"
	KindDiarization       Kind = "diarization"
	KindObjectDetection   Kind = "object_detection"
	KindFaceDetection     Kind = "face_detection"
	KindOCR               Kind = "ocr"
	KindSceneDetection    Kind = "scene_detection"
	KindVisionEmbeddings  Kind = "vision_embeddings"
	KindTextEmbeddings    Kind = "text_embeddings"
	KindAudioEmbeddings   Kind = "audio_embeddings"
	KindFusion            Kind = "fusion"
	KindStorage           Kind = "storage"
)

// TaskResult is the tagged-union result of a completed task. Kind
// identifies which union member Value actually is; callers type-assert
// after checking Kind.
type TaskResult struct {
	Kind  Kind
	Value interface{}
}

// Runner executes one task's work given its already-completed
// dependencies' results.
type Runner func(ctx context.Context, inputs map[string]TaskResult) (interface{}, error)

// Task is one node for the executor to run.
type Task struct {
	ID            string
	Kind          Kind
	Inputs        []string // task IDs that must complete first
	ResourceClass ResourceClass
	Optional      bool // a failure does not fail the whole job
	Timeout       time.Duration // zero means no per-task timeout
	Run           Runner

	result TaskResult
	err    error
	done   bool
}

// Job is one DAG instance: an ordered task list plus live status.
type Job struct {
	ID    string
	Tasks []*Task

	mu             sync.Mutex
	completedCount int64
	failedCount    int64
}

// Status is the atomic snapshot the media API's /jobs/{id} endpoint
// reports.
type Status struct {
	TotalTasks     int
	CompletedTasks int
	FailedTasks    int
	IsComplete     bool
}

// NewJob builds a Job from tasks. Tasks must form a DAG; Execute/ExecuteBulk
// return a Config error if a cycle is detected.
func NewJob(id string, tasks []*Task) *Job {
	return &Job{ID: id, Tasks: tasks}
}

// Status returns the job's current atomic status snapshot.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Status{
		TotalTasks:     len(j.Tasks),
		CompletedTasks: int(j.completedCount),
		FailedTasks:    int(j.failedCount),
		IsComplete:     int(j.completedCount+j.failedCount) == len(j.Tasks),
	}
}

func (j *Job) byID() map[string]*Task {
	m := make(map[string]*Task, len(j.Tasks))
	for _, t := range j.Tasks {
		m[t.ID] = t
	}
	return m
}

// topoLevels groups task IDs into topological stages: level 0 has no
// inputs, level k's tasks depend only on tasks in levels < k. Returns an
// error if the graph has a cycle.
func topoLevels(tasks []*Task) ([][]*Task, error) {
	byID := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	level := make(map[string]int, len(tasks))
	var assign func(id string, visiting map[string]bool) (int, error)
	assign = func(id string, visiting map[string]bool) (int, error) {
		if l, ok := level[id]; ok {
			return l, nil
		}
		if visiting[id] {
			return 0, docerr.Newf(docerr.KindConfig, "task graph has a cycle through %q", id)
		}
		t, ok := byID[id]
		if !ok {
			return 0, docerr.Newf(docerr.KindConfig, "task %q depends on unknown task", id)
		}
		visiting[id] = true
		maxInput := -1
		for _, dep := range t.Inputs {
			l, err := assign(dep, visiting)
			if err != nil {
				return 0, err
			}
			if l > maxInput {
				maxInput = l
			}
		}
		delete(visiting, id)
		level[id] = maxInput + 1
		return level[id], nil
	}

	for _, t := range tasks {
		if _, err := assign(t.ID, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}
	levels := make([][]*Task, maxLevel+1)
	for _, t := range tasks {
		l := level[t.ID]
		levels[l] = append(levels[l], t)
	}
	for _, stage := range levels {
		sort.Slice(stage, func(i, j int) bool { return stage[i].ID < stage[j].ID })
	}
	return levels, nil
}

// Semaphores holds the per-resource-class permit pools shared across
// Execute and ExecuteBulk calls, so a bulk batch and concurrent
// low-latency jobs contend for the same GPU/CPU budget.
type Semaphores struct {
	io  *semaphore.Weighted
	cpu *semaphore.Weighted
	gpu *semaphore.Weighted
}

// NewSemaphores builds the default pool sizing: Io unbounded, Cpu sized
// to the number of logical CPUs, Gpu fixed at one permit.
func NewSemaphores() *Semaphores {
	return &Semaphores{
		io:  semaphore.NewWeighted(1 << 30),
		cpu: semaphore.NewWeighted(int64(runtime.NumCPU())),
		gpu: semaphore.NewWeighted(1),
	}
}

func (s *Semaphores) forClass(rc ResourceClass) *semaphore.Weighted {
	switch rc {
	case Cpu:
		return s.cpu
	case Gpu:
		return s.gpu
	default:
		return s.io
	}
}

// Executor runs jobs against a shared Semaphores pool.
type Executor struct {
	sem *Semaphores
}

// NewExecutor builds an Executor with the default resource-class sizing.
func NewExecutor() *Executor {
	return &Executor{sem: NewSemaphores()}
}

// Execute runs a single job in low-latency mode, one topological level at
// a time: the tasks of a level run concurrently, each subject to its
// resource-class semaphore, and the next level starts only once every
// task of the current level has finished. A task does not start early
// when its own inputs are done while other tasks of the prior level are
// still running.
func (e *Executor) Execute(ctx context.Context, job *Job) error {
	levels, err := topoLevels(job.Tasks)
	if err != nil {
		return err
	}

	byID := job.byID()
	var wg sync.WaitGroup
	for _, stage := range levels {
		for _, t := range stage {
			t := t
			if ctx.Err() != nil {
				e.markCancelled(job, t)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				e.runTask(ctx, job, t, byID)
			}()
		}
		wg.Wait() // low-latency mode still respects input-before-dependent ordering per level
	}
	return nil
}

// ExecuteBulk runs a batch of jobs in staged throughput mode: tasks are
// partitioned by topological stage first, then by resource class within
// a stage, so every job's Io work for a stage runs before any job's Cpu
// work for that stage, amortizing model load/unload across files.
func (e *Executor) ExecuteBulk(ctx context.Context, jobs []*Job) error {
	type jobLevels struct {
		job    *Job
		byID   map[string]*Task
		levels [][]*Task
	}
	prepared := make([]jobLevels, 0, len(jobs))
	maxStages := 0
	for _, j := range jobs {
		levels, err := topoLevels(j.Tasks)
		if err != nil {
			return err
		}
		prepared = append(prepared, jobLevels{job: j, byID: j.byID(), levels: levels})
		if len(levels) > maxStages {
			maxStages = len(levels)
		}
	}

	for stage := 0; stage < maxStages; stage++ {
		for _, rc := range []ResourceClass{Io, Cpu, Gpu} {
			var wg sync.WaitGroup
			for _, pj := range prepared {
				if stage >= len(pj.levels) {
					continue
				}
				if ctx.Err() != nil {
					for _, t := range pj.levels[stage] {
						e.markCancelled(pj.job, t)
					}
					continue
				}
				for _, t := range pj.levels[stage] {
					if t.ResourceClass != rc {
						continue
					}
					t := t
					job := pj.job
					byID := pj.byID
					wg.Add(1)
					go func() {
						defer wg.Done()
						e.runTask(ctx, job, t, byID)
					}()
				}
			}
			wg.Wait()
		}
	}
	return nil
}

func (e *Executor) markCancelled(job *Job, t *Task) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.err = docerr.New(docerr.KindCancelled, "task cancelled before start")
	atomic.AddInt64(&job.failedCount, 1)
}

func (e *Executor) runTask(ctx context.Context, job *Job, t *Task, byID map[string]*Task) {
	if !e.inputsSatisfied(job, t, byID) {
		e.markCancelled(job, t)
		return
	}

	sem := e.sem.forClass(t.ResourceClass)
	if err := sem.Acquire(ctx, 1); err != nil {
		e.finish(job, t, TaskResult{}, docerr.Wrap(err, docerr.KindCancelled, "acquire resource semaphore"))
		return
	}
	defer sem.Release(1)

	taskCtx := ctx
	var cancel context.CancelFunc
	if t.Timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	inputs := make(map[string]TaskResult, len(t.Inputs))
	job.mu.Lock()
	for _, id := range t.Inputs {
		if dep, ok := byID[id]; ok {
			inputs[id] = dep.result
		}
	}
	job.mu.Unlock()

	val, err := t.Run(taskCtx, inputs)
	if taskCtx.Err() != nil && err == nil {
		err = docerr.New(docerr.KindCancelled, "task exceeded its timeout")
	}
	e.finish(job, t, TaskResult{Kind: t.Kind, Value: val}, err)
}

// inputsSatisfied reports whether every dependency completed
// successfully, or — if a dependency failed — whether t tolerates that
// because it is itself optional.
func (e *Executor) inputsSatisfied(job *Job, t *Task, byID map[string]*Task) bool {
	job.mu.Lock()
	defer job.mu.Unlock()
	for _, id := range t.Inputs {
		dep, ok := byID[id]
		if !ok || !dep.done {
			return false
		}
		if dep.err != nil && !t.Optional {
			return false
		}
	}
	return true
}

func (e *Executor) finish(job *Job, t *Task, result TaskResult, err error) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.result = result
	t.err = err
	if err != nil {
		atomic.AddInt64(&job.failedCount, 1)
	} else {
		atomic.AddInt64(&job.completedCount, 1)
	}
}

// Results returns the completed TaskResult for every task that
// succeeded, keyed by task ID, plus a parallel map of errors for tasks
// that failed (including cancelled/unready ones).
func (j *Job) Results() (map[string]TaskResult, map[string]error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make(map[string]TaskResult)
	errs := make(map[string]error)
	for _, t := range j.Tasks {
		if !t.done {
			continue
		}
		if t.err != nil {
			errs[t.ID] = t.err
			continue
		}
		results[t.ID] = t.result
	}
	return results, errs
}
