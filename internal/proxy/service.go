package proxy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sleepstars/chatproxy/internal/clients"
	"github.com/sleepstars/chatproxy/internal/logger"
	"github.com/sleepstars/chatproxy/internal/metrics"
	"github.com/sleepstars/chatproxy/internal/models"
)

// MaxHistoryTextLen is the number of characters of each history entry that
// is forwarded upstream.
const MaxHistoryTextLen = 1000

// ErrNotConfigured is returned when the upstream credential is missing.
var ErrNotConfigured = errors.New("upstream credential not configured")

// Options are the fixed per-process settings of a Service
type Options struct {
	Model        string
	MaxTokens    int
	Temperature  float32
	SystemPrompt string

	// APIKeyEnv names the variable the credential is read from; only logged.
	APIKeyEnv     string
	HasCredential bool
}

// Service turns one client chat turn into one upstream completion call
type Service struct {
	client  clients.ModelClient
	opts    Options
	metrics *metrics.ChatMetrics
	logger  *logger.Logger
}

// NewService creates a new chat service. m may be nil.
func NewService(client clients.ModelClient, opts Options, m *metrics.ChatMetrics) *Service {
	return &Service{
		client:  client,
		opts:    opts,
		metrics: m,
		logger:  logger.GetLogger().WithComponent("chat_service"),
	}
}

// WithLogger replaces the service logger
func (s *Service) WithLogger(l *logger.Logger) *Service {
	s.logger = l.WithComponent("chat_service")
	return s
}

// Reply forwards req upstream and returns the assistant's answer unchanged.
//
// Errors are ErrNotConfigured, a *clients.StatusError for upstream-reported
// failures, clients.ErrNoChoices for a malformed success, or a transport error.
func (s *Service) Reply(ctx context.Context, req *models.ChatRequest) (string, error) {
	if !s.opts.HasCredential {
		s.logger.Error("Missing %s environment variable", s.opts.APIKeyEnv)
		return "", ErrNotConfigured
	}

	completion := &models.ChatCompletionRequest{
		Model:       s.opts.Model,
		Messages:    BuildMessages(s.opts.SystemPrompt, req.History, req.Message),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}
	s.logger.Debug("Calling upstream model %s with %d messages", completion.Model, len(completion.Messages))

	start := time.Now()
	resp, err := s.client.Complete(ctx, completion)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		var statusErr *clients.StatusError
		switch {
		case errors.As(err, &statusErr):
			s.metrics.ObserveUpstream(metrics.ResultStatus, elapsed)
			s.metrics.ObserveUpstreamStatus(strconv.Itoa(statusErr.StatusCode))
			s.logger.Error("Upstream API error: status=%d %s", statusErr.StatusCode, statusErr.Detail)
		case errors.Is(err, clients.ErrNoChoices):
			s.metrics.ObserveUpstream(metrics.ResultMalformed, elapsed)
			s.logger.WithError(err).Error("Malformed upstream response")
		default:
			s.metrics.ObserveUpstream(metrics.ResultTransport, elapsed)
			s.logger.WithError(err).Error("Upstream call failed")
		}
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		s.metrics.ObserveUpstream(metrics.ResultMalformed, elapsed)
		s.logger.Error("Malformed upstream response: no choices")
		return "", fmt.Errorf("read reply: %w", clients.ErrNoChoices)
	}

	s.metrics.ObserveUpstream(metrics.ResultSuccess, elapsed)
	s.logger.Debug("Upstream call completed in %.3fs", elapsed)
	return resp.Choices[0].Message.Content, nil
}

// BuildMessages lays out the upstream conversation: the system prompt, the
// history in client order, then the new user message verbatim.
func BuildMessages(systemPrompt string, history []models.HistoryEntry, message string) []models.ChatCompletionMessage {
	messages := make([]models.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, models.ChatCompletionMessage{
		Role:    models.RoleSystem,
		Content: systemPrompt,
	})
	for _, entry := range history {
		messages = append(messages, models.ChatCompletionMessage{
			Role:    entry.Role,
			Content: truncate(entry.Text, MaxHistoryTextLen),
		})
	}
	return append(messages, models.ChatCompletionMessage{
		Role:    models.RoleUser,
		Content: message,
	})
}

// truncate keeps the first n characters (code points) of s
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
