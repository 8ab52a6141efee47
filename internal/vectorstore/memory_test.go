package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
)

func batch(title string, embeddings ...[]float32) CourseBatch {
	b := CourseBatch{Course: model.Course{Title: title}}
	for i, emb := range embeddings {
		b.Entries = append(b.Entries, Entry{
			Chunk:     model.CourseChunk{CourseTitle: title, LessonNum: 1, Ordinal: i},
			Embedding: emb,
		})
	}
	return b
}

func TestMemoryStoreSearchOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	err := store.AddCourse(ctx, batch("Course A",
		[]float32{1, 0, 0},
		[]float32{0.9, 0.1, 0},
		[]float32{0, 1, 0},
	))
	if err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Chunk.Ordinal != 0 || hits[1].Chunk.Ordinal != 1 || hits[2].Chunk.Ordinal != 2 {
		t.Fatalf("unexpected ordering: %v %v %v", hits[0].Chunk.Ordinal, hits[1].Chunk.Ordinal, hits[2].Chunk.Ordinal)
	}
	if hits[0].Score < hits[1].Score || hits[1].Score < hits[2].Score {
		t.Fatal("scores not descending")
	}
}

func TestMemoryStoreSearchTopKCap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.AddCourse(ctx, batch("Course A", []float32{1, 0}, []float32{0, 1})); err != nil {
		t.Fatal(err)
	}
	hits, err := store.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected all 2 entries, got %d", len(hits))
	}
	hits, err = store.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestMemoryStoreSearchEmptyIndex(t *testing.T) {
	store := NewMemoryStore()
	hits, err := store.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty result, got %d hits", len(hits))
	}
}

func TestMemoryStoreSearchInvalidTopK(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Search(context.Background(), []float32{1, 0}, 0)
	if !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestMemoryStoreDuplicateCourse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.AddCourse(ctx, batch("Course A", []float32{1, 0})); err != nil {
		t.Fatal(err)
	}
	err := store.AddCourse(ctx, batch("Course A", []float32{0, 1}))
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCourses != 1 {
		t.Fatalf("duplicate insert changed stats: %+v", stats)
	}
}

func TestMemoryStoreRebuildReplacesIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.AddCourse(ctx, batch("Old Course", []float32{1, 0})); err != nil {
		t.Fatal(err)
	}
	err := store.Rebuild(ctx, []CourseBatch{
		batch("New Course", []float32{0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCourses != 1 || stats.CourseTitles[0] != "New Course" {
		t.Fatalf("rebuild did not replace the index: %+v", stats)
	}
	hits, err := store.Search(ctx, []float32{0, 1}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Chunk.CourseTitle != "New Course" {
		t.Fatalf("search still sees the old index: %+v", hits)
	}
}

func TestMemoryStoreRebuildSkipsDuplicateTitles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	err := store.Rebuild(ctx, []CourseBatch{
		batch("Course A", []float32{1, 0}),
		batch("Course A", []float32{0, 1}),
		batch("Course B", []float32{0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCourses != 2 {
		t.Fatalf("expected 2 courses, got %+v", stats)
	}
	// The first batch for the repeated title wins.
	hits, err := store.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", len(hits))
	}
}

func TestMemoryStoreStatsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, title := range []string{"Zeta", "Alpha", "Middle"} {
		if err := store.AddCourse(ctx, batch(title, []float32{1, 0})); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Zeta", "Alpha", "Middle"}
	for i, title := range want {
		if stats.CourseTitles[i] != title {
			t.Fatalf("titles not in insertion order: %v", stats.CourseTitles)
		}
	}
}
