package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/chatproxy/internal/logger"
	"github.com/sleepstars/chatproxy/internal/models"
)

// ChatPath is where the chat endpoint is mounted
const ChatPath = "/api/chat"

// RouterOptions configures NewRouter
type RouterOptions struct {
	Logger *logger.Logger
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

// NewRouter builds the gin engine serving the chat endpoint
func NewRouter(chat *ChatHandler, opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(chat.Recover))
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(CORS())

	r.Any(ChatPath, chat.Handle)

	// verbs outside gin's Any set never reach a route
	r.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path == ChatPath {
			chat.MethodNotAllowed(c)
			return
		}
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not Found"})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	return r
}
