package fieldmark

import (
	"time"

	"github.com/google/uuid"
)

// The engine is composed into larger systems by collaborators it does
// not implement: a transport layer, a template registry and an
// analytics log. The interfaces below are what those systems plug in.

// RenderRecord describes one render call for the analytics log.
type RenderRecord struct {
	ID         uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	InputSize  int
	OutputSize int
	Success    bool
	ErrorKind  ErrorKind
}

// RenderSink receives a record per render call.
type RenderSink interface {
	Record(RenderRecord)
}

// TemplateRegistry stores raw template containers keyed by id.
type TemplateRegistry interface {
	Put(id string, templateBytes []byte) error
	Get(id string) ([]byte, error)
	List() ([]string, error)
	Delete(id string) error
}

// LogSink writes render records through the engine logger.
type LogSink struct {
	log *Logger
}

// NewLogSink builds a sink over the given logger, defaulting to the
// global one.
func NewLogSink(log *Logger) *LogSink {
	if log == nil {
		log = GetLogger()
	}
	return &LogSink{log: log}
}

// Record logs the render outcome as a structured event.
func (s *LogSink) Record(rec RenderRecord) {
	entry := s.log.WithFields(Fields{
		"render_id":   rec.ID.String(),
		"started_at":  rec.StartedAt.Format(time.RFC3339),
		"duration_ms": rec.Duration.Milliseconds(),
		"input_size":  rec.InputSize,
		"output_size": rec.OutputSize,
		"success":     rec.Success,
	})
	if rec.Success {
		entry.Info("render completed")
		return
	}
	entry.WithField("error_kind", string(rec.ErrorKind)).Warn("render failed")
}
