// Package layout manages the on-disk directory structure a media job
// writes its artifacts to: stable subpath names, overwrite-not-append
// semantics on rerun.
package layout

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/docling-go/docling/internal/docerr"
)

const (
	AudioDir      = "audio"
	KeyframesDir  = "keyframes"
	TranscriptsDir = "transcripts"
	MetadataFile  = "metadata.json"
)

// JobDir is a job's working directory and the fixed subpaths within it.
type JobDir struct {
	Root string
}

// New returns the JobDir rooted at filepath.Join(baseDir, jobID).
func New(baseDir, jobID string) JobDir {
	return JobDir{Root: filepath.Join(baseDir, jobID)}
}

func (j JobDir) AudioPath() string       { return filepath.Join(j.Root, AudioDir) }
func (j JobDir) KeyframesPath() string   { return filepath.Join(j.Root, KeyframesDir) }
func (j JobDir) TranscriptsPath() string { return filepath.Join(j.Root, TranscriptsDir) }
func (j JobDir) MetadataPath() string    { return filepath.Join(j.Root, MetadataFile) }

// Prepare creates the job's subdirectories, wiping any prior contents so
// a rerun never leaves stale artifacts behind from an earlier attempt.
func (j JobDir) Prepare() error {
	if err := os.RemoveAll(j.Root); err != nil {
		return docerr.Wrapf(err, docerr.KindIO, "clear existing job directory %s", j.Root)
	}
	for _, dir := range []string{j.AudioPath(), j.KeyframesPath(), j.TranscriptsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return docerr.Wrapf(err, docerr.KindIO, "create job subdirectory %s", dir)
		}
	}
	return nil
}

// Metadata is the content of metadata.json: a free-form record of the
// job's source, task status, and output locations at completion time.
type Metadata struct {
	JobID   string                 `json:"job_id"`
	Source  map[string]interface{} `json:"source"`
	Tasks   []TaskSummary          `json:"tasks"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// TaskSummary records one task's outcome for metadata.json.
type TaskSummary struct {
	TaskID string `json:"task_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"` // completed | failed
	Error  string `json:"error,omitempty"`
}

// WriteMetadata overwrites metadata.json with m.
func (j JobDir) WriteMetadata(m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return docerr.Wrap(err, docerr.KindInternal, "marshal job metadata")
	}
	if err := os.WriteFile(j.MetadataPath(), data, 0o644); err != nil {
		return docerr.Wrapf(err, docerr.KindIO, "write metadata file %s", j.MetadataPath())
	}
	return nil
}

// ReadMetadata loads metadata.json from the job directory.
func (j JobDir) ReadMetadata() (Metadata, error) {
	var m Metadata
	data, err := os.ReadFile(j.MetadataPath())
	if err != nil {
		return m, docerr.Wrapf(err, docerr.KindIO, "read metadata file %s", j.MetadataPath())
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, docerr.Wrap(err, docerr.KindParse, "unmarshal metadata.json")
	}
	return m, nil
}
