package index

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/classware/coursechat/internal/ai"
	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
	"github.com/classware/coursechat/internal/vectorstore"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// Index owns the vector store: it embeds chunks on the way in and queries on
// the way out. It is the only writer of the store.
type Index struct {
	store    vectorstore.Store
	embedder ai.IEmbedder
}

func New(store vectorstore.Store, embedder ai.IEmbedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// AddCourse embeds every chunk before touching the store, so an embedding
// failure leaves nothing partially indexed. A course title already present
// is reported as ErrConflict and indexes nothing (re-ingestion across
// restarts stays idempotent).
func (ix *Index) AddCourse(ctx context.Context, course model.Course, chunks []model.CourseChunk) (int, error) {
	exists, err := ix.store.HasCourse(ctx, course.Title)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errs.ErrConflict
	}
	batch, err := ix.embedBatch(ctx, course, chunks)
	if err != nil {
		return 0, err
	}
	if err := ix.store.AddCourse(ctx, batch); err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("course indexed",
		zap.String("course", course.Title),
		zap.Int("chunks", len(batch.Entries)),
	)
	return len(batch.Entries), nil
}

// Rebuild embeds all supplied courses and replaces the whole index in one
// atomic publish. Any embedding failure aborts the rebuild with the old
// index still intact and visible.
func (ix *Index) Rebuild(ctx context.Context, courses []model.Course, chunksByCourse [][]model.CourseChunk) (int, error) {
	if len(courses) != len(chunksByCourse) {
		return 0, fmt.Errorf("courses and chunks length mismatch")
	}
	batches := make([]vectorstore.CourseBatch, 0, len(courses))
	total := 0
	for i, course := range courses {
		batch, err := ix.embedBatch(ctx, course, chunksByCourse[i])
		if err != nil {
			return 0, err
		}
		total += len(batch.Entries)
		batches = append(batches, batch)
	}
	if err := ix.store.Rebuild(ctx, batches); err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("index rebuilt",
		zap.Int("courses", len(batches)),
		zap.Int("chunks", total),
	)
	return total, nil
}

func (ix *Index) HasCourse(ctx context.Context, title string) (bool, error) {
	return ix.store.HasCourse(ctx, title)
}

func (ix *Index) Stats(ctx context.Context) (model.CourseStats, error) {
	return ix.store.Stats(ctx)
}

func (ix *Index) embedBatch(ctx context.Context, course model.Course, chunks []model.CourseChunk) (vectorstore.CourseBatch, error) {
	batch := vectorstore.CourseBatch{Course: course}
	for _, chunk := range chunks {
		emb, err := ix.embedder.Embed(ctx, chunk.Content, taskTypeDocument)
		if err != nil {
			return vectorstore.CourseBatch{}, fmt.Errorf("%w: embed chunk %d of %s: %s",
				errs.ErrUnavailable, chunk.Ordinal, course.Title, err)
		}
		batch.Entries = append(batch.Entries, vectorstore.Entry{Chunk: chunk, Embedding: emb})
	}
	return batch, nil
}
