// Package store records the documents produced by conversions.
//
// A [Registry] keeps one [OutputFile] per written document. [Postgres]
// persists them in PostgreSQL through the pgx driver; [Memory] keeps them
// in process and is used when no database is configured.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when no output file has the requested ID.
var ErrNotFound = errors.New("output file not found")

// OutputFile describes one generated document.
type OutputFile struct {
	ID        uuid.UUID
	Filename  string
	Source    string
	Template  string
	Profile   string
	CreatedAt time.Time
}

// Registry records output files.
type Registry interface {
	// Record stores f, filling in ID and CreatedAt when they are zero.
	Record(ctx context.Context, f *OutputFile) error

	// Get returns the output file with the given ID.
	Get(ctx context.Context, id uuid.UUID) (*OutputFile, error)

	// List returns the most recent files first. A limit of zero or less
	// returns every file.
	List(ctx context.Context, limit int) ([]OutputFile, error)
}

func prepare(f *OutputFile) error {
	if f.Filename == "" {
		return errors.New("output file has no filename")
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Memory is an in-process Registry. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files []OutputFile
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Registry.
func (m *Memory) Record(ctx context.Context, f *OutputFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepare(f); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, *f)
	return nil
}

// Get implements Registry.
func (m *Memory) Get(ctx context.Context, id uuid.UUID) (*OutputFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.files {
		if m.files[i].ID == id {
			f := m.files[i]
			return &f, nil
		}
	}
	return nil, ErrNotFound
}

// List implements Registry.
func (m *Memory) List(ctx context.Context, limit int) ([]OutputFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := append([]OutputFile(nil), m.files...)
	m.mu.RUnlock()

	// Newest first; equal times keep reverse insertion order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
