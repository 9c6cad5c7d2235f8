package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sleepstars/chatproxy/internal/models"
)

// OpenAIClient implements ModelClient against an OpenAI-compatible
// chat-completion API.
type OpenAIClient struct {
	config ModelClientConfig
	client *openai.Client
}

// NewOpenAIClient creates a client authenticated with config.APIKey
func NewOpenAIClient(config ModelClientConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIBase != "" {
		clientConfig.BaseURL = strings.TrimRight(config.APIBase, "/")
		if !strings.HasPrefix(clientConfig.BaseURL, "http://") && !strings.HasPrefix(clientConfig.BaseURL, "https://") {
			clientConfig.BaseURL = "https://" + clientConfig.BaseURL
		}
	}
	clientConfig.HTTPClient = newWireClient(config.HTTPClient)

	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Complete sends exactly one chat-completion request. It never retries.
func (c *OpenAIClient) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    make([]openai.ChatCompletionMessage, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for i, msg := range req.Messages {
		openaiReq.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(withTemperature(ctx, req.Temperature), openaiReq)
	if err != nil {
		return nil, convertError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	out := &models.ChatCompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: make([]models.ChatCompletionChoice, len(resp.Choices)),
	}
	for i, choice := range resp.Choices {
		out.Choices[i] = models.ChatCompletionChoice{
			Message: models.ChatCompletionMessage{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		}
	}
	return out, nil
}

// convertError separates upstream-reported failures from transport failures.
func convertError(err error) error {
	if errors.Is(err, ErrNoChoices) {
		return fmt.Errorf("read reply: %w", ErrNoChoices)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := reqErr.HTTPStatus
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Detail: detail}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Detail: apiErrorDetail(apiErr)}
	}

	return fmt.Errorf("create chat completion: %w", err)
}

func apiErrorDetail(e *openai.APIError) string {
	var parts []string
	if e.Type != "" {
		parts = append(parts, "type="+e.Type)
	}
	if e.Code != nil {
		parts = append(parts, fmt.Sprintf("code=%v", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, " ")
}
