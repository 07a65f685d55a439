// Package orchestrator builds per-job DAGs from a media source
// description, runs them through internal/media/dag's Executor, and
// keeps an in-memory registry of job status for the HTTP API.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/docling-go/docling/internal/common"
	"github.com/docling-go/docling/internal/config"
	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/media/dag"
	"github.com/docling-go/docling/internal/media/layout"
)

// SourceKind identifies where a job's input bytes come from.
type SourceKind string

const (
	SourceUpload SourceKind = "upload"
	SourceURL    SourceKind = "url"
	SourceS3     SourceKind = "s3"
)

// Source describes one file to process.
type Source struct {
	Kind     SourceKind `json:"kind"`
	Location string     `json:"location"`
}

// JobState is the externally visible lifecycle state of a job.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
)

// JobRecord is the registry entry the HTTP handlers read.
type JobRecord struct {
	ID       string
	BatchID  string
	Source   Source
	State    JobState
	Job      *dag.Job
	JobDir   layout.JobDir
	Error    string
	submitted time.Time
}

// Orchestrator owns the job registry, the DAG executor, and the on-disk
// output root.
type Orchestrator struct {
	cfg      *config.Config
	logger   arbor.ILogger
	executor *dag.Executor

	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

// New builds an Orchestrator from config.
func New(cfg *config.Config, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		executor: dag.NewExecutor(),
		jobs:     make(map[string]*JobRecord),
	}
}

// SubmitRealtime launches a single-job DAG in low-latency mode and
// returns immediately; the job runs in a background goroutine.
func (o *Orchestrator) SubmitRealtime(src Source) *JobRecord {
	jobID := common.NewJobID()
	record := o.register(jobID, "", src)

	common.SafeGo(o.logger, "realtime-job-"+jobID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Media.TaskTimeout*4)
		defer cancel()
		o.run(ctx, record, func(ctx context.Context, j *dag.Job) error {
			return o.executor.Execute(ctx, j)
		})
	})
	return record
}

// SubmitBulk launches a staged-execution batch covering every source and
// returns immediately.
func (o *Orchestrator) SubmitBulk(batchID string, sources []Source) []*JobRecord {
	records := make([]*JobRecord, 0, len(sources))
	for _, src := range sources {
		jobID := common.NewJobID()
		records = append(records, o.register(jobID, batchID, src))
	}

	common.SafeGo(o.logger, "bulk-batch-"+batchID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Media.BulkStageTimeout)
		defer cancel()

		jobs := make([]*dag.Job, 0, len(records))
		for _, r := range records {
			if err := r.JobDir.Prepare(); err != nil {
				o.fail(r, err)
				continue
			}
			o.mu.Lock()
			r.State = StateRunning
			o.mu.Unlock()
			jobs = append(jobs, r.Job)
		}
		if err := o.executor.ExecuteBulk(ctx, jobs); err != nil {
			o.logger.Warn().Err(err).Str("batch_id", batchID).Msg("bulk execution failed to start")
		}
		for _, r := range records {
			if r.State == StateFailed {
				continue
			}
			o.finalize(r)
		}
	})
	return records
}

func (o *Orchestrator) register(jobID, batchID string, src Source) *JobRecord {
	jobDir := layout.New(o.cfg.Media.OutputDir, jobID)
	tasks := BuildTasks(src, jobDir, o.cfg)
	job := dag.NewJob(jobID, tasks)

	record := &JobRecord{
		ID: jobID, BatchID: batchID, Source: src,
		State: StatePending, Job: job, JobDir: jobDir, submitted: time.Now(),
	}
	o.mu.Lock()
	o.jobs[jobID] = record
	o.mu.Unlock()
	return record
}

func (o *Orchestrator) run(ctx context.Context, record *JobRecord, exec func(context.Context, *dag.Job) error) {
	o.mu.Lock()
	record.State = StateRunning
	o.mu.Unlock()

	if err := record.JobDir.Prepare(); err != nil {
		o.fail(record, err)
		return
	}
	if err := exec(ctx, record.Job); err != nil {
		o.fail(record, err)
		return
	}
	o.finalize(record)
}

func (o *Orchestrator) fail(record *JobRecord, err error) {
	o.mu.Lock()
	record.State = StateFailed
	record.Error = err.Error()
	o.mu.Unlock()
}

func (o *Orchestrator) finalize(record *JobRecord) {
	_, errs := record.Job.Results()

	summaries := make([]layout.TaskSummary, 0, len(record.Job.Tasks))
	requiredTaskFailed := false
	for _, t := range record.Job.Tasks {
		s := layout.TaskSummary{TaskID: t.ID, Kind: string(t.Kind), Status: "completed"}
		if err, failed := errs[t.ID]; failed {
			s.Status = "failed"
			s.Error = err.Error()
			if !t.Optional {
				requiredTaskFailed = true
			}
		}
		summaries = append(summaries, s)
	}

	o.mu.Lock()
	if requiredTaskFailed {
		record.State = StateFailed
	} else {
		record.State = StateCompleted
	}
	o.mu.Unlock()

	meta := layout.Metadata{
		JobID:  record.ID,
		Source: map[string]interface{}{"kind": string(record.Source.Kind), "location": record.Source.Location},
		Tasks:  summaries,
	}
	if err := record.JobDir.WriteMetadata(meta); err != nil {
		o.logger.Warn().Err(err).Str("job_id", record.ID).Msg("failed to write job metadata")
	}
}

// Get returns a job record by ID.
func (o *Orchestrator) Get(jobID string) (*JobRecord, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	r, ok := o.jobs[jobID]
	return r, ok
}

// Status returns the job's dag.Status snapshot plus its lifecycle state.
func (r *JobRecord) Status() (dag.Status, JobState) {
	return r.Job.Status(), r.State
}

// ErrIfAny wraps the job's terminal error, if any, as a docerr for the
// HTTP layer to map to a status code.
func (r *JobRecord) ErrIfAny() error {
	if r.Error == "" {
		return nil
	}
	return docerr.New(docerr.KindInternal, r.Error)
}
