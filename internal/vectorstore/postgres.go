package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/classware/coursechat/internal/model"
	"github.com/classware/coursechat/internal/pkg/dbutil"
	errs "github.com/classware/coursechat/internal/pkg/errors"
)

type postgresConfig struct {
	DSN string `json:"dsn"`
}

// postgresStore keeps the index in pgvector. Atomicity of AddCourse and
// Rebuild comes from transactions; readers on other connections never see a
// partial state.
type postgresStore struct {
	db *sql.DB
}

func init() {
	Register("postgres", createPostgresStore)
}

func createPostgresStore(args interface{}) (Store, error) {
	config := &postgresConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres index dsn is required")
	}
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	store := &postgresStore{db: db}
	if err := store.ensureSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *postgresStore) ensureSchema() error {
	const schema = `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS courses (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS course_chunks (
			id BIGSERIAL PRIMARY KEY,
			course_title TEXT NOT NULL,
			lesson_num INT NOT NULL,
			lesson_title TEXT NOT NULL DEFAULT '',
			lesson_link TEXT NOT NULL DEFAULT '',
			ordinal INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *postgresStore) AddCourse(ctx context.Context, batch CourseBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertCourse(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCourse(ctx context.Context, tx *sql.Tx, batch CourseBatch) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO courses (title) VALUES ($1)`, batch.Course.Title)
	if err != nil {
		if dbutil.IsConflict(err) {
			return errs.ErrConflict
		}
		return err
	}
	for _, entry := range batch.Entries {
		data := map[string]interface{}{
			"course_title": entry.Chunk.CourseTitle,
			"lesson_num":   entry.Chunk.LessonNum,
			"lesson_title": entry.Chunk.LessonTitle,
			"lesson_link":  entry.Chunk.LessonLink,
			"ordinal":      entry.Chunk.Ordinal,
			"content":      entry.Chunk.Content,
			"embedding":    pgvector.NewVector(entry.Embedding),
		}
		sqlStr, args, err := builder.BuildInsert("course_chunks", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) HasCourse(ctx context.Context, title string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE title = $1`, title)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *postgresStore) Search(ctx context.Context, embedding []float32, topK int) ([]model.ScoredChunk, error) {
	if topK <= 0 {
		return nil, errs.ErrInvalid
	}
	const query = `
		SELECT course_title, lesson_num, lesson_title, lesson_link, ordinal, content,
			1 - (embedding <=> $1) AS score
		FROM course_chunks
		ORDER BY embedding <=> $1, id
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ScoredChunk
	for rows.Next() {
		var item model.ScoredChunk
		if err := rows.Scan(
			&item.Chunk.CourseTitle,
			&item.Chunk.LessonNum,
			&item.Chunk.LessonTitle,
			&item.Chunk.LessonLink,
			&item.Chunk.Ordinal,
			&item.Chunk.Content,
			&item.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (s *postgresStore) Rebuild(ctx context.Context, batches []CourseBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_chunks`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return err
	}
	// A repeated title keeps the first batch, same as incremental ingestion.
	// Deduped before insert: a unique violation would abort the whole
	// transaction.
	seen := make(map[string]struct{}, len(batches))
	for _, batch := range batches {
		if _, ok := seen[batch.Course.Title]; ok {
			continue
		}
		seen[batch.Course.Title] = struct{}{}
		if err := insertCourse(ctx, tx, batch); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *postgresStore) Stats(ctx context.Context) (model.CourseStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM courses ORDER BY id`)
	if err != nil {
		return model.CourseStats{}, err
	}
	defer rows.Close()
	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return model.CourseStats{}, err
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return model.CourseStats{}, err
	}
	return model.CourseStats{TotalCourses: len(titles), CourseTitles: titles}, nil
}
