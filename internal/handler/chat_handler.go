package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
	"github.com/classware/coursechat/internal/pkg/response"
	"github.com/classware/coursechat/internal/rag"
	"github.com/classware/coursechat/internal/session"
)

const chatHistoryLimit = 10

type ChatHandler struct {
	svc      *rag.Service
	sessions *session.Store
}

func NewChatHandler(svc *rag.Service, sessions *session.Store) *ChatHandler {
	return &ChatHandler{svc: svc, sessions: sessions}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string                 `json:"answer"`
	Sources   []model.SourceCitation `json:"sources"`
	SessionID string                 `json:"session_id"`
}

// Query answers one question. A request without a session id gets a fresh
// session whose id is echoed back for the follow-up turns.
func (h *ChatHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.svc.NewSession()
	}
	answer, sources, err := h.svc.Answer(c.Request.Context(), req.Query, sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	if sources == nil {
		sources = []model.SourceCitation{}
	}
	response.Success(c, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

func (h *ChatHandler) Courses(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

// ChatHistory lists recent non-empty sessions as a bare array, newest first.
func (h *ChatHandler) ChatHistory(c *gin.Context) {
	chats := h.sessions.List(chatHistoryLimit)
	if chats == nil {
		chats = []model.ChatSummary{}
	}
	response.Success(c, chats)
}

type transcriptResponse struct {
	SessionID string          `json:"session_id"`
	Messages  []model.Message `json:"messages"`
}

func (h *ChatHandler) ChatTranscript(c *gin.Context) {
	sessionID := c.Param("session_id")
	messages, err := h.sessions.Transcript(sessionID)
	if err != nil {
		handleError(c, errs.ErrNotFound)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	response.Success(c, transcriptResponse{
		SessionID: sessionID,
		Messages:  messages,
	})
}
