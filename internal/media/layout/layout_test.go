package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareCreatesSubdirsAndClearsStale(t *testing.T) {
	base := t.TempDir()
	jd := New(base, "job_abc")

	stalePath := filepath.Join(jd.AudioPath(), "stale.wav")
	require.NoError(t, os.MkdirAll(jd.AudioPath(), 0o755))
	require.NoError(t, os.WriteFile(stalePath, []byte("x"), 0o644))

	require.NoError(t, jd.Prepare())

	for _, dir := range []string{jd.AudioPath(), jd.KeyframesPath(), jd.TranscriptsPath()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err := os.Stat(stalePath)
	assert.True(t, os.IsNotExist(err))
}

func TestMetadataRoundTrip(t *testing.T) {
	base := t.TempDir()
	jd := New(base, "job_xyz")
	require.NoError(t, jd.Prepare())

	m := Metadata{
		JobID: "job_xyz",
		Source: map[string]interface{}{"kind": "upload", "location": "in.mp4"},
		Tasks: []TaskSummary{
			{TaskID: "ingest", Kind: "ingestion", Status: "completed"},
			{TaskID: "detect", Kind: "object_detection", Status: "failed", Error: "backend unavailable"},
		},
	}
	require.NoError(t, jd.WriteMetadata(m))

	got, err := jd.ReadMetadata()
	require.NoError(t, err)
	assert.Equal(t, m.JobID, got.JobID)
	assert.Len(t, got.Tasks, 2)
	assert.Equal(t, "failed", got.Tasks[1].Status)
}
