package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sleepstars/chatproxy/internal/models"
)

// ErrNoChoices is returned when a successful upstream response carries no
// completion to read the reply from.
var ErrNoChoices = errors.New("no choices in response")

// ModelClient defines the interface for model API clients
type ModelClient interface {
	// Complete sends a completion request to the model
	Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)
}

// ModelClientConfig contains configuration for model clients
type ModelClientConfig struct {
	APIBase string
	APIKey  string
	Model   string
	// Timeout bounds a single upstream call. Zero leaves it to the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// StatusError reports that the upstream service answered with a non-success
// HTTP status.
type StatusError struct {
	StatusCode int
	// Detail is the provider's error message, for server-side logs only.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Detail)
}
