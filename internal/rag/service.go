package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/classware/coursechat/internal/ai"
	"github.com/classware/coursechat/internal/index"
	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
	"github.com/classware/coursechat/internal/session"
)

const systemInstruction = `You are an assistant for course materials.
Answer the question using only the provided course material excerpts and the conversation so far.
- If the excerpts do not contain enough information, say so plainly.
- Do not invent course content or cite material that is not in the excerpts.
- Answer directly, without meta commentary.`

type Config struct {
	TopK       int
	MaxHistory int
	Timeout    int
}

// Service turns a query plus session context into a generated answer with
// source citations. It owns no persistent state of its own.
type Service struct {
	index     *index.Index
	sessions  *session.Store
	generator ai.IGenerator
	cfg       Config
	cache     *expirable.LRU[string, string]
}

func NewService(idx *index.Index, sessions *session.Store, generator ai.IGenerator, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = index.DefaultTopK
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 4
	}
	return &Service{
		index:     idx,
		sessions:  sessions,
		generator: generator,
		cfg:       cfg,
		cache:     expirable.NewLRU[string, string](2048, nil, 2*time.Hour),
	}
}

// NewSession allocates a session identifier for callers that did not supply
// one.
func (s *Service) NewSession() string {
	return s.sessions.Create()
}

// Stats reports what is currently indexed.
func (s *Service) Stats(ctx context.Context) (model.CourseStats, error) {
	return s.index.Stats(ctx)
}

// Answer runs the full query path: bounded history, retrieval, prompt
// assembly, generation, citation derivation. The user/assistant exchange is
// only persisted after generation succeeds, so a failed turn leaves the
// session untouched.
func (s *Service) Answer(ctx context.Context, query, sessionID string) (string, []model.SourceCitation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, fmt.Errorf("%w: empty query", errs.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))

	history := s.sessions.History(sessionID, s.cfg.MaxHistory)
	hits, err := s.index.Search(ctx, query, s.cfg.TopK)
	if err != nil {
		logger.Error("retrieval failed", zap.Error(err))
		return "", nil, err
	}
	prompt := buildPrompt(history, hits, query)

	answer, err := s.generate(ctx, prompt)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return "", nil, fmt.Errorf("%w: generate answer: %s", errs.ErrUnavailable, err)
	}

	sources := citationsFromHits(hits)
	if err := s.sessions.AppendExchange(sessionID, query, answer); err != nil {
		return "", nil, err
	}
	logger.Info("query answered", zap.Int("retrieved", len(hits)), zap.Int("history", len(history)))
	return answer, sources, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	cacheKey := s.cacheKey(prompt)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := s.generator.Generate(ctx, systemInstruction, prompt)
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(resp)
	if answer == "" {
		return "", fmt.Errorf("empty ai response")
	}
	s.cache.Add(cacheKey, answer)
	return answer, nil
}

// buildPrompt assembles the role-tagged history, retrieved chunks tagged
// with their provenance, and the new question. The system instruction is not
// part of the prompt body; it travels as its own role so backends can pass
// it through natively. Retrieving nothing is fine: the model is instructed
// to admit the gap.
func buildPrompt(history []model.Message, hits []model.ScoredChunk, query string) string {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("CONVERSATION:\n")
		for _, msg := range history {
			sb.WriteString(string(msg.Role))
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COURSE MATERIAL:\n")
	if len(hits) == 0 {
		sb.WriteString("(no relevant course material found)\n")
	}
	for _, hit := range hits {
		sb.WriteString(fmt.Sprintf("[%s]\n", citationLabel(hit.Chunk)))
		sb.WriteString(hit.Chunk.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("QUESTION:\n")
	sb.WriteString(query)
	return sb.String()
}

// citationsFromHits derives sources from exactly the chunks that went into
// the prompt, in retrieval rank order, one citation per course/lesson.
func citationsFromHits(hits []model.ScoredChunk) []model.SourceCitation {
	sources := make([]model.SourceCitation, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		label := citationLabel(hit.Chunk)
		if seen[label] {
			continue
		}
		seen[label] = true
		sources = append(sources, model.SourceCitation{
			CourseTitle: hit.Chunk.CourseTitle,
			Lesson:      lessonLabel(hit.Chunk),
			Link:        hit.Chunk.LessonLink,
			Rank:        len(sources) + 1,
		})
	}
	return sources
}

func citationLabel(chunk model.CourseChunk) string {
	return chunk.CourseTitle + " / " + lessonLabel(chunk)
}

func lessonLabel(chunk model.CourseChunk) string {
	if chunk.LessonTitle != "" {
		return fmt.Sprintf("Lesson %d: %s", chunk.LessonNum, chunk.LessonTitle)
	}
	return fmt.Sprintf("Lesson %d", chunk.LessonNum)
}

func (s *Service) cacheKey(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return "answer:" + hex.EncodeToString(hash[:])
}
