package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/docling-go/docling/internal/config"
	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
	"github.com/docling-go/docling/internal/docmodel/jsonexport"
	"github.com/docling-go/docling/internal/media/dag"
	"github.com/docling-go/docling/internal/media/layout"
	"github.com/docling-go/docling/internal/pdfml/pipeline"
)

// isDocumentSource reports whether a source location looks like a
// document (PDF, Markdown or CSV) rather than audio/video, by extension. The media
// pipeline shares one DAG shape; document sources skip the audio/video
// stages and run the docling pipeline's own ingestion task instead.
func isDocumentSource(location string) bool {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".pdf", ".md", ".csv":
		return true
	default:
		return false
	}
}

// BuildTasks constructs the per-job DAG for src. Document sources
// (PDF/Markdown/CSV) run the docling document pipeline in one ingestion
// task and store the result. Audio/video sources run the full media
// fan-out: audio and keyframe extraction from ingestion, then
// transcription/diarization/detection/OCR/scene-detection/embeddings
// from those, fused and stored.
func BuildTasks(src Source, jobDir layout.JobDir, cfg *config.Config) []*dag.Task {
	if isDocumentSource(src.Location) {
		return documentTasks(src, jobDir, cfg)
	}
	return mediaTasks(src, jobDir, cfg)
}

func documentTasks(src Source, jobDir layout.JobDir, cfg *config.Config) []*dag.Task {
	return []*dag.Task{
		{
			ID: "ingest", Kind: dag.KindIngestion, ResourceClass: dag.Cpu,
			Timeout: cfg.Media.TaskTimeout,
			Run: func(ctx context.Context, inputs map[string]dag.TaskResult) (interface{}, error) {
				return pipeline.Ingest(src.Location, cfg)
			},
		},
		{
			ID: "store", Kind: dag.KindStorage, Inputs: []string{"ingest"}, ResourceClass: dag.Io,
			Timeout: cfg.Media.TaskTimeout,
			Run: func(ctx context.Context, inputs map[string]dag.TaskResult) (interface{}, error) {
				doc, ok := inputs["ingest"].Value.(*docmodel.Document)
				if !ok {
					return nil, docerr.New(docerr.KindInternal, "ingestion task did not produce a document")
				}
				data, err := jsonexport.Export(doc)
				if err != nil {
					return nil, err
				}
				return nil, writeTranscript(jobDir, "document.json", data)
			},
		},
	}
}

func mediaTasks(src Source, jobDir layout.JobDir, cfg *config.Config) []*dag.Task {
	timeout := cfg.Media.TaskTimeout
	return []*dag.Task{
		{ID: "ingest", Kind: dag.KindIngestion, ResourceClass: dag.Io, Timeout: timeout,
			Run: stubRunner(dag.KindIngestion, src.Location)},

		{ID: "audio_extract", Kind: dag.KindAudioExtraction, Inputs: []string{"ingest"}, ResourceClass: dag.Cpu, Timeout: timeout,
			Run: stubRunner(dag.KindAudioExtraction, filepath.Join(jobDir.AudioPath(), "track.wav"))},
		{ID: "keyframe_extract", Kind: dag.KindKeyframeExtraction, Inputs: []string{"ingest"}, ResourceClass: dag.Cpu, Timeout: timeout,
			Run: stubRunner(dag.KindKeyframeExtraction, jobDir.KeyframesPath())},

		{ID: "transcribe", Kind: dag.KindTranscription, Inputs: []string{"audio_extract"}, ResourceClass: dag.Gpu, Timeout: timeout,
			Run: stubRunner(dag.KindTranscription, filepath.Join(jobDir.TranscriptsPath(), "transcript.txt"))},
		{ID: "diarize", Kind: dag.KindDiarization, Inputs: []string{"audio_extract"}, ResourceClass: dag.Gpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindDiarization, nil)},
		{ID: "object_detect", Kind: dag.KindObjectDetection, Inputs: []string{"keyframe_extract"}, ResourceClass: dag.Gpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindObjectDetection, nil)},
		{ID: "face_detect", Kind: dag.KindFaceDetection, Inputs: []string{"keyframe_extract"}, ResourceClass: dag.Gpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindFaceDetection, nil)},
		{ID: "ocr", Kind: dag.KindOCR, Inputs: []string{"keyframe_extract"}, ResourceClass: dag.Cpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindOCR, nil)},
		{ID: "scene_detect", Kind: dag.KindSceneDetection, Inputs: []string{"keyframe_extract"}, ResourceClass: dag.Cpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindSceneDetection, nil)},

		{ID: "vision_embed", Kind: dag.KindVisionEmbeddings, Inputs: []string{"object_detect", "face_detect"}, ResourceClass: dag.Gpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindVisionEmbeddings, nil)},
		{ID: "text_embed", Kind: dag.KindTextEmbeddings, Inputs: []string{"transcribe", "ocr"}, ResourceClass: dag.Gpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindTextEmbeddings, nil)},
		{ID: "audio_embed", Kind: dag.KindAudioEmbeddings, Inputs: []string{"diarize"}, ResourceClass: dag.Gpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindAudioEmbeddings, nil)},

		{ID: "fuse", Kind: dag.KindFusion, Inputs: []string{"vision_embed", "text_embed", "audio_embed", "scene_detect"}, ResourceClass: dag.Cpu, Optional: true, Timeout: timeout,
			Run: stubRunner(dag.KindFusion, nil)},
		{ID: "store", Kind: dag.KindStorage, Inputs: []string{"fuse"}, ResourceClass: dag.Io, Timeout: timeout,
			Run: func(ctx context.Context, inputs map[string]dag.TaskResult) (interface{}, error) {
				return nil, writeTranscript(jobDir, "result.json", []byte("{}"))
			},
		},
	}
}

// stubRunner produces a deterministic placeholder result for media task
// kinds that require an external ML backend (whisper, face/object
// detectors, diarization models) not wired in this tree. It mirrors the
// InferenceBackend stub pattern used in pdfml/tablestructure: a real
// backend is a Runner closure with the same signature, swapped in at
// wiring time.
func stubRunner(kind dag.Kind, value interface{}) dag.Runner {
	return func(ctx context.Context, inputs map[string]dag.TaskResult) (interface{}, error) {
		return value, nil
	}
}

func writeTranscript(jobDir layout.JobDir, name string, data []byte) error {
	path := filepath.Join(jobDir.TranscriptsPath(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return docerr.Wrapf(err, docerr.KindIO, "write job output %s", path)
	}
	return nil
}
