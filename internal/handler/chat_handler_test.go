package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/classware/coursechat/internal/handler"
	"github.com/classware/coursechat/internal/index"
	"github.com/classware/coursechat/internal/model"
	"github.com/classware/coursechat/internal/rag"
	"github.com/classware/coursechat/internal/session"
	"github.com/classware/coursechat/internal/vectorstore"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec := []float32{0.01, 0.01}
	if strings.Contains(strings.ToLower(text), "goroutine") {
		vec[0] = 1
	}
	return vec, nil
}

func (fixedEmbedder) ModelName() string { return "fixed" }

type fixedGenerator struct {
	err error
}

func (g fixedGenerator) Generate(ctx context.Context, system string, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "Goroutines are lightweight threads.", nil
}

func setupRouter(t *testing.T, genErr error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idx := index.New(vectorstore.NewMemoryStore(), fixedEmbedder{})
	_, err := idx.AddCourse(context.Background(), model.Course{Title: "Concurrency in Go"}, []model.CourseChunk{
		{CourseTitle: "Concurrency in Go", LessonNum: 1, LessonTitle: "Goroutines", Ordinal: 0, Content: "A goroutine is a lightweight thread."},
	})
	require.NoError(t, err)

	sessions := session.NewStore()
	svc := rag.NewService(idx, sessions, fixedGenerator{err: genErr}, rag.Config{TopK: 3, MaxHistory: 4})
	return handler.NewRouter(handler.RouterDeps{
		Chat: handler.NewChatHandler(svc, sessions),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestQueryCreatesSession(t *testing.T) {
	router := setupRouter(t, nil)

	resp := doJSON(t, router, http.MethodPost, "/api/query", map[string]string{"query": "what is a goroutine?"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Answer    string                 `json:"answer"`
		Sources   []model.SourceCitation `json:"sources"`
		SessionID string                 `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "Goroutines are lightweight threads.", body.Answer)
	require.Equal(t, "session_1", body.SessionID)
	require.NotEmpty(t, body.Sources)
	require.Equal(t, "Concurrency in Go", body.Sources[0].CourseTitle)
}

func TestQueryReusesSession(t *testing.T) {
	router := setupRouter(t, nil)

	resp := doJSON(t, router, http.MethodPost, "/api/query", map[string]string{"query": "what is a goroutine?"})
	require.Equal(t, http.StatusOK, resp.Code)
	var first struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))

	resp = doJSON(t, router, http.MethodPost, "/api/query", map[string]string{
		"query":      "tell me more about goroutines",
		"session_id": first.SessionID,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var second struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	require.Equal(t, first.SessionID, second.SessionID)

	resp = doJSON(t, router, http.MethodGet, "/api/chat/"+first.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var transcript struct {
		SessionID string          `json:"session_id"`
		Messages  []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &transcript))
	require.Equal(t, first.SessionID, transcript.SessionID)
	require.Len(t, transcript.Messages, 4)
}

func TestQueryEmptyQuestion(t *testing.T) {
	router := setupRouter(t, nil)
	resp := doJSON(t, router, http.MethodPost, "/api/query", map[string]string{"query": "  "})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestQueryMalformedBody(t *testing.T) {
	router := setupRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestQueryGenerationFailure(t *testing.T) {
	router := setupRouter(t, fmt.Errorf("model overloaded"))
	resp := doJSON(t, router, http.MethodPost, "/api/query", map[string]string{"query": "what is a goroutine?"})
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestCourses(t *testing.T) {
	router := setupRouter(t, nil)
	resp := doJSON(t, router, http.MethodGet, "/api/courses", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		TotalCourses int      `json:"total_courses"`
		CourseTitles []string `json:"course_titles"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 1, body.TotalCourses)
	require.Equal(t, []string{"Concurrency in Go"}, body.CourseTitles)
}

func TestChatHistory(t *testing.T) {
	router := setupRouter(t, nil)

	resp := doJSON(t, router, http.MethodGet, "/api/chat-history", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var empty []model.ChatSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &empty))
	require.Empty(t, empty)

	resp = doJSON(t, router, http.MethodPost, "/api/query", map[string]string{"query": "what is a goroutine?"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/chat-history", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	// The listing is a bare array of summaries.
	var chats []model.ChatSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	require.Equal(t, "session_1", chats[0].SessionID)
	require.Equal(t, "what is a goroutine?", chats[0].Title)
	require.Equal(t, 2, chats[0].MessageCount)
}

func TestChatTranscriptNotFound(t *testing.T) {
	router := setupRouter(t, nil)
	resp := doJSON(t, router, http.MethodGet, "/api/chat/session_404", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHealthz(t *testing.T) {
	router := setupRouter(t, nil)
	resp := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}
