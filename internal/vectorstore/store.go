package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/classware/coursechat/internal/model"
)

// Entry is one indexed chunk with its embedding.
type Entry struct {
	Chunk     model.CourseChunk
	Embedding []float32
}

// CourseBatch is a fully embedded course, the unit of atomic insertion.
type CourseBatch struct {
	Course  model.Course
	Entries []Entry
}

// Store is a vector index over course chunks.
//
// AddCourse is atomic per course and returns ErrConflict when the title is
// already indexed. Rebuild replaces the whole index in one atomic step;
// concurrent Search calls observe either the old or the new index, never a
// partial state.
type Store interface {
	AddCourse(ctx context.Context, batch CourseBatch) error
	HasCourse(ctx context.Context, title string) (bool, error)
	Search(ctx context.Context, embedding []float32, topK int) ([]model.ScoredChunk, error)
	Rebuild(ctx context.Context, batches []CourseBatch) error
	Stats(ctx context.Context) (model.CourseStats, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(backend string, args interface{}) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(backend))
	if key == "" {
		return nil, fmt.Errorf("index.backend is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported index backend: %s", backend)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("index config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode index config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode index config: %w", err)
	}
	return nil
}
