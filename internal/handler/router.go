package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/classware/coursechat/internal/middleware"
)

type RouterDeps struct {
	Chat      *ChatHandler
	StaticDir string
	CORSAllow []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.CORSAllow))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	api := router.Group("/api")
	api.POST("/query", deps.Chat.Query)
	api.GET("/courses", deps.Chat.Courses)
	api.GET("/chat-history", deps.Chat.ChatHistory)
	api.GET("/chat/:session_id", deps.Chat.ChatTranscript)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if deps.StaticDir != "" {
		router.Static("/static", deps.StaticDir)
		router.StaticFile("/", deps.StaticDir+"/index.html")
	}

	return router
}
