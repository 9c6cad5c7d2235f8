package mocks

import (
	"context"
	"sync"

	"github.com/sleepstars/chatproxy/internal/models"
)

// MockModelClient implements ModelClient interface for testing
type MockModelClient struct {
	CompleteFunc func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)

	mu       sync.Mutex
	requests []*models.ChatCompletionRequest
}

func (m *MockModelClient) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &models.ChatCompletionResponse{}, nil
}

// Requests returns every request received so far
func (m *MockModelClient) Requests() []*models.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.ChatCompletionRequest(nil), m.requests...)
}

// Calls returns how many times Complete was invoked
func (m *MockModelClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reply builds a one-choice completion carrying content
func Reply(content string) *models.ChatCompletionResponse {
	return &models.ChatCompletionResponse{
		Choices: []models.ChatCompletionChoice{
			{
				Message: models.ChatCompletionMessage{
					Role:    models.RoleAssistant,
					Content: content,
				},
				FinishReason: "stop",
			},
		},
	}
}
