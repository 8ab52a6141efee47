package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
)

type memoryStore struct {
	mu      sync.RWMutex
	titles  []string
	known   map[string]struct{}
	entries []Entry
}

func init() {
	Register("memory", createMemoryStore)
}

func createMemoryStore(args interface{}) (Store, error) {
	_ = args
	return NewMemoryStore(), nil
}

func NewMemoryStore() Store {
	return &memoryStore{known: map[string]struct{}{}}
}

func (s *memoryStore) AddCourse(ctx context.Context, batch CourseBatch) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[batch.Course.Title]; ok {
		return errs.ErrConflict
	}
	s.known[batch.Course.Title] = struct{}{}
	s.titles = append(s.titles, batch.Course.Title)
	s.entries = append(s.entries, batch.Entries...)
	return nil
}

func (s *memoryStore) HasCourse(ctx context.Context, title string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.known[title]
	return ok, nil
}

func (s *memoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]model.ScoredChunk, error) {
	_ = ctx
	if topK <= 0 {
		return nil, errs.ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, nil
	}
	scored := make([]model.ScoredChunk, 0, len(s.entries))
	for _, entry := range s.entries {
		scored = append(scored, model.ScoredChunk{
			Chunk: entry.Chunk,
			Score: cosineSimilarity(embedding, entry.Embedding),
		})
	}
	// Stable sort keeps ingestion order between equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

func (s *memoryStore) Rebuild(ctx context.Context, batches []CourseBatch) error {
	_ = ctx
	// Assemble off-lock, then publish with one swap. A repeated title keeps
	// the first batch and drops the rest, mirroring the skip behavior of
	// incremental ingestion.
	titles := make([]string, 0, len(batches))
	known := make(map[string]struct{}, len(batches))
	var entries []Entry
	for _, batch := range batches {
		if _, ok := known[batch.Course.Title]; ok {
			continue
		}
		known[batch.Course.Title] = struct{}{}
		titles = append(titles, batch.Course.Title)
		entries = append(entries, batch.Entries...)
	}
	s.mu.Lock()
	s.titles = titles
	s.known = known
	s.entries = entries
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Stats(ctx context.Context) (model.CourseStats, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, len(s.titles))
	copy(titles, s.titles)
	return model.CourseStats{TotalCourses: len(titles), CourseTitles: titles}, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
