// Package journal records registry changes for later inspection.
//
// Every visible change applied by the dispatcher becomes an Entry and is sent
// to one or more sinks: a SQLite history (queried by `splashwatch history`)
// and/or a JSON-lines stream for log shippers.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/splashwatch/internal/software"
	"github.com/five82/splashwatch/internal/state"
)

// Entry is one status transition.
type Entry struct {
	Session    string    `json:"session"`
	Seq        uint64    `json:"seq"`
	Source     string    `json:"source"`
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEntry converts a registry record.
func NewEntry(session string, rec software.Record) Entry {
	return Entry{
		Session:    session,
		Seq:        rec.Seq,
		Source:     rec.Source,
		Name:       rec.Identity.Name,
		Version:    rec.Identity.Version,
		Status:     rec.Status.String(),
		OccurredAt: rec.UpdatedAt,
	}
}

// Sink is a destination for entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(ctx context.Context, e Entry) error
	Close() error
}

// NewSession returns an identifier for one splashwatch run.
func NewSession() string {
	return uuid.NewString()
}

// Observer adapts sink into a dispatcher observer. Send failures are logged.
func Observer(sink Sink, session string, logger *zap.Logger) state.Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, rec software.Record) {
		if err := sink.Send(ctx, NewEntry(session, rec)); err != nil {
			logger.Warn("journal write failed",
				zap.String("package", rec.Identity.String()),
				zap.Error(err))
		}
	}
}

// Multi fans entries out to several sinks.
type Multi []Sink

func (m Multi) Send(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONLines appends one JSON object per entry to a file.
type JSONLines struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// OpenJSONLines opens (or creates) path for appending.
func OpenJSONLines(path string) (*JSONLines, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &JSONLines{file: file, enc: json.NewEncoder(file)}, nil
}

func (j *JSONLines) Send(_ context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(e); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (j *JSONLines) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
