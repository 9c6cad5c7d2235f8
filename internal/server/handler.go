package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/chatproxy/internal/clients"
	"github.com/sleepstars/chatproxy/internal/logger"
	"github.com/sleepstars/chatproxy/internal/metrics"
	"github.com/sleepstars/chatproxy/internal/models"
	"github.com/sleepstars/chatproxy/internal/proxy"
)

// Client-facing error messages. Nothing else is ever sent back on failure.
const (
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgInvalidMessage   = "Valid message string is required"
	MsgNotConfigured    = "Server configuration error"
	MsgUpstreamFailed   = "Failed to communicate with AI service"
	MsgInternal         = "Internal Server Error"
)

// Replier produces the assistant reply for one chat turn
type Replier interface {
	Reply(ctx context.Context, req *models.ChatRequest) (string, error)
}

// ChatHandler serves the /api/chat endpoint
type ChatHandler struct {
	svc     Replier
	metrics *metrics.ChatMetrics
	logger  *logger.Logger
}

// NewChatHandler creates a handler. m may be nil.
func NewChatHandler(svc Replier, m *metrics.ChatMetrics, log *logger.Logger) *ChatHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ChatHandler{
		svc:     svc,
		metrics: m,
		logger:  log.WithComponent("chat_handler"),
	}
}

// Handle dispatches on the request method
func (h *ChatHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		h.metrics.ObserveRequest(metrics.OutcomePreflight)
		c.Status(http.StatusOK)
	case http.MethodPost:
		h.chat(c)
	default:
		h.MethodNotAllowed(c)
	}
}

// MethodNotAllowed rejects any verb other than POST and OPTIONS
func (h *ChatHandler) MethodNotAllowed(c *gin.Context) {
	h.metrics.ObserveRequest(metrics.OutcomeMethodNotAllowed)
	c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: MsgMethodNotAllowed})
}

// Recover answers a request whose handler panicked
func (h *ChatHandler) Recover(c *gin.Context, recovered any) {
	requestLogger(c, h.logger).Error("Panic while serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	h.metrics.ObserveRequest(metrics.OutcomeInternalError)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: MsgInternal})
}

func (h *ChatHandler) chat(c *gin.Context) {
	log := requestLogger(c, h.logger)

	body, err := c.GetRawData()
	if err != nil {
		log.WithError(err).Warn("Failed to read request body")
		h.fail(c, http.StatusBadRequest, metrics.OutcomeInvalidRequest, MsgInvalidMessage)
		return
	}

	req, err := models.ParseChatRequest(body)
	if err != nil {
		log.Debug("Rejected chat request: %v", err)
		h.fail(c, http.StatusBadRequest, metrics.OutcomeInvalidRequest, MsgInvalidMessage)
		return
	}

	reply, err := h.svc.Reply(c.Request.Context(), req)
	if err != nil {
		var statusErr *clients.StatusError
		switch {
		case errors.Is(err, proxy.ErrNotConfigured):
			h.fail(c, http.StatusInternalServerError, metrics.OutcomeNotConfigured, MsgNotConfigured)
		case errors.As(err, &statusErr):
			h.fail(c, http.StatusBadGateway, metrics.OutcomeUpstreamError, MsgUpstreamFailed)
		default:
			log.WithError(err).Error("Chat request failed")
			h.fail(c, http.StatusInternalServerError, metrics.OutcomeInternalError, MsgInternal)
		}
		return
	}

	h.metrics.ObserveRequest(metrics.OutcomeOK)
	c.JSON(http.StatusOK, models.ReplyResponse{Reply: reply})
}

func (h *ChatHandler) fail(c *gin.Context, status int, outcome, msg string) {
	h.metrics.ObserveRequest(outcome)
	c.JSON(status, models.ErrorResponse{Error: msg})
}
