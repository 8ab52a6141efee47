package ingest

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/classware/coursechat/internal/docsource"
	"github.com/classware/coursechat/internal/index"
	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
)

// Loader walks a document source, parses each course file, chunks it and
// feeds the index. Per-document failures are logged and skipped; the loader
// never takes the process down.
type Loader struct {
	source  docsource.Source
	chunker *Chunker
	index   *index.Index
}

func NewLoader(source docsource.Source, chunker *Chunker, idx *index.Index) *Loader {
	return &Loader{source: source, chunker: chunker, index: idx}
}

// LoadAll ingests every course document from the source. With clearExisting
// the whole index is rebuilt and published atomically; otherwise courses
// already indexed are skipped, so repeated startups do not duplicate chunks.
func (l *Loader) LoadAll(ctx context.Context, clearExisting bool) (coursesAdded, chunksAdded int, err error) {
	logger := logutil.GetLogger(ctx)
	keys, err := l.source.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	if clearExisting {
		return l.rebuild(ctx, keys)
	}
	for _, key := range keys {
		course, chunks, ok := l.parseOne(ctx, key)
		if !ok {
			continue
		}
		added, err := l.index.AddCourse(ctx, *course, chunks)
		if err != nil {
			if errs.IsConflict(err) {
				logger.Debug("course already indexed, skipping",
					zap.String("key", key), zap.String("course", course.Title))
				continue
			}
			logger.Error("index course failed", zap.String("key", key), zap.Error(err))
			continue
		}
		coursesAdded++
		chunksAdded += added
	}
	logger.Info("document load finished",
		zap.Int("courses_added", coursesAdded),
		zap.Int("chunks_added", chunksAdded),
	)
	return coursesAdded, chunksAdded, nil
}

func (l *Loader) rebuild(ctx context.Context, keys []string) (int, int, error) {
	var courses []model.Course
	var chunksByCourse [][]model.CourseChunk
	for _, key := range keys {
		course, chunks, ok := l.parseOne(ctx, key)
		if !ok {
			continue
		}
		courses = append(courses, *course)
		chunksByCourse = append(chunksByCourse, chunks)
	}
	total, err := l.index.Rebuild(ctx, courses, chunksByCourse)
	if err != nil {
		return 0, 0, err
	}
	return len(courses), total, nil
}

func (l *Loader) parseOne(ctx context.Context, key string) (*model.Course, []model.CourseChunk, bool) {
	logger := logutil.GetLogger(ctx).With(zap.String("key", key))
	content, err := l.source.Read(ctx, key)
	if err != nil {
		logger.Error("read course document failed", zap.Error(err))
		return nil, nil, false
	}
	course, err := ParseCourseDocument(key, content)
	if err != nil {
		logger.Warn("parse course document failed", zap.Error(err))
		return nil, nil, false
	}
	return course, l.chunker.Chunk(course), true
}
