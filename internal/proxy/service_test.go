package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sleepstars/chatproxy/internal/clients"
	"github.com/sleepstars/chatproxy/internal/logger"
	"github.com/sleepstars/chatproxy/internal/metrics"
	"github.com/sleepstars/chatproxy/internal/mocks"
	"github.com/sleepstars/chatproxy/internal/models"
	"github.com/stretchr/testify/assert"
)

var testOptions = Options{
	Model:         "gpt-4o-mini",
	MaxTokens:     300,
	Temperature:   0.7,
	SystemPrompt:  "You are a portfolio assistant.",
	APIKeyEnv:     "OPENAI_API_KEY",
	HasCredential: true,
}

func newTestService(client clients.ModelClient, opts Options) (*Service, *bytes.Buffer) {
	var buf bytes.Buffer
	svc := NewService(client, opts, metrics.NewChatMetrics(prometheus.NewRegistry())).
		WithLogger(logger.New(&buf, logger.DEBUG, "test"))
	return svc, &buf
}

func TestService_Reply(t *testing.T) {
	mockClient := &mocks.MockModelClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			assert.Equal(t, "gpt-4o-mini", req.Model)
			assert.Equal(t, 300, req.MaxTokens)
			assert.InDelta(t, 0.7, req.Temperature, 1e-6)
			return mocks.Reply("I use Python and Kubernetes."), nil
		},
	}
	svc, _ := newTestService(mockClient, testOptions)

	reply, err := svc.Reply(context.Background(), &models.ChatRequest{
		Message: "What is your tech stack?",
		History: []models.HistoryEntry{},
	})

	assert.NoError(t, err)
	assert.Equal(t, "I use Python and Kubernetes.", reply)
	assert.Equal(t, 1, mockClient.Calls())

	sent := mockClient.Requests()[0]
	assert.Equal(t, []models.ChatCompletionMessage{
		{Role: models.RoleSystem, Content: "You are a portfolio assistant."},
		{Role: models.RoleUser, Content: "What is your tech stack?"},
	}, sent.Messages)
}

func TestService_ReplyIsNotPostProcessed(t *testing.T) {
	long := strings.Repeat("word ", 2000) + "\n\n- bullet"
	mockClient := &mocks.MockModelClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			return mocks.Reply(long), nil
		},
	}
	svc, _ := newTestService(mockClient, testOptions)

	reply, err := svc.Reply(context.Background(), &models.ChatRequest{Message: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, long, reply)
}

func TestService_NotConfigured(t *testing.T) {
	mockClient := &mocks.MockModelClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			t.Fatal("upstream must not be called without a credential")
			return nil, nil
		},
	}
	opts := testOptions
	opts.HasCredential = false
	svc, logs := newTestService(mockClient, opts)

	_, err := svc.Reply(context.Background(), &models.ChatRequest{Message: "hi"})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, mockClient.Calls())
	assert.Contains(t, logs.String(), "Missing OPENAI_API_KEY environment variable")
}

func TestService_ErrorClassification(t *testing.T) {
	transportErr := fmt.Errorf("create chat completion: %w", errors.New("dial tcp: connection refused"))

	tests := []struct {
		name      string
		err       error
		resp      *models.ChatCompletionResponse
		check     func(t *testing.T, err error)
		wantInLog string
	}{
		{
			name: "upstream status",
			err:  &clients.StatusError{StatusCode: 429, Detail: "type=insufficient_quota quota exceeded"},
			check: func(t *testing.T, err error) {
				var statusErr *clients.StatusError
				assert.True(t, errors.As(err, &statusErr))
				assert.Equal(t, 429, statusErr.StatusCode)
			},
			wantInLog: "Upstream API error: status=429 type=insufficient_quota quota exceeded",
		},
		{
			name: "transport failure",
			err:  transportErr,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, transportErr)
				var statusErr *clients.StatusError
				assert.False(t, errors.As(err, &statusErr))
			},
			wantInLog: "connection refused",
		},
		{
			name: "no choices from client",
			err:  clients.ErrNoChoices,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, clients.ErrNoChoices)
			},
			wantInLog: "Malformed upstream response",
		},
		{
			name: "reply content missing",
			err:  fmt.Errorf("read reply: %w", clients.ErrNoChoices),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, clients.ErrNoChoices)
				var statusErr *clients.StatusError
				assert.False(t, errors.As(err, &statusErr))
			},
			wantInLog: "Malformed upstream response",
		},
		{
			name: "empty response",
			resp: &models.ChatCompletionResponse{},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, clients.ErrNoChoices)
			},
			wantInLog: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mocks.MockModelClient{
				CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
					return tt.resp, tt.err
				},
			}
			svc, logs := newTestService(mockClient, testOptions)

			reply, err := svc.Reply(context.Background(), &models.ChatRequest{Message: "hi"})
			assert.Empty(t, reply)
			tt.check(t, err)
			assert.Contains(t, logs.String(), tt.wantInLog)
			assert.Equal(t, 1, mockClient.Calls(), "no retries")
		})
	}
}

func TestService_ContextCancellation(t *testing.T) {
	mockClient := &mocks.MockModelClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc, _ := newTestService(mockClient, testOptions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Reply(ctx, &models.ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ConcurrentCalls(t *testing.T) {
	mockClient := &mocks.MockModelClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			last := req.Messages[len(req.Messages)-1].Content
			return mocks.Reply("echo: " + last), nil
		},
	}
	svc, _ := newTestService(mockClient, testOptions)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("question %d", i)
			reply, err := svc.Reply(context.Background(), &models.ChatRequest{Message: msg})
			assert.NoError(t, err)
			assert.Equal(t, "echo: "+msg, reply)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, mockClient.Calls())
}

func TestBuildMessages(t *testing.T) {
	longText := strings.Repeat("a", 1500)
	longMessage := strings.Repeat("m", 5000)

	history := []models.HistoryEntry{
		{Role: "user", Text: "first"},
		{Role: "assistant", Text: longText},
		{Role: "moderator", Text: "role passed through"},
		{Role: "user", Text: ""},
	}

	got := BuildMessages("persona", history, longMessage)

	assert.Len(t, got, 6)
	assert.Equal(t, models.ChatCompletionMessage{Role: "system", Content: "persona"}, got[0])
	assert.Equal(t, models.ChatCompletionMessage{Role: "user", Content: "first"}, got[1])
	assert.Equal(t, "assistant", got[2].Role)
	assert.Equal(t, longText[:1000], got[2].Content)
	assert.Equal(t, models.ChatCompletionMessage{Role: "moderator", Content: "role passed through"}, got[3])
	assert.Equal(t, models.ChatCompletionMessage{Role: "user", Content: ""}, got[4])
	assert.Equal(t, models.ChatCompletionMessage{Role: "user", Content: longMessage}, got[5], "final message is not truncated")

	assert.Equal(t, 1, countRole(got, models.RoleSystem))
}

func TestBuildMessagesEmptyHistory(t *testing.T) {
	got := BuildMessages("persona", nil, "hello")
	assert.Equal(t, []models.ChatCompletionMessage{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "hello"},
	}, got)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdefg", 5, "abcde"},
		{"empty", "", 5, ""},
		{"multibyte", "héllo wörld", 7, "héllo w"},
		{"emoji", "🚀🚀🚀", 2, "🚀🚀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.n))
		})
	}

	s := strings.Repeat("é", 1200)
	assert.Equal(t, 1000, len([]rune(truncate(s, MaxHistoryTextLen))))
}

func countRole(messages []models.ChatCompletionMessage, role string) int {
	n := 0
	for _, m := range messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
