package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type temperatureKey struct{}

// withTemperature pins the sampling temperature sent for requests made with ctx,
// including zero.
func withTemperature(ctx context.Context, temperature float32) context.Context {
	return context.WithValue(ctx, temperatureKey{}, temperature)
}

// wireTransport sits under go-openai. Its request types drop zero-valued
// fields (an empty message content, a temperature of 0) and its response
// types cannot tell a missing reply from an empty one, so chat completions
// are adjusted here at the JSON level.
type wireTransport struct {
	base http.RoundTripper
}

func newWireClient(httpClient *http.Client) *http.Client {
	wrapped := &http.Client{}
	if httpClient != nil {
		*wrapped = *httpClient
	}
	base := wrapped.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped.Transport = &wireTransport{base: base}
	return wrapped
}

func (t *wireTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || req.Body == nil || !strings.HasSuffix(req.URL.Path, "/chat/completions") {
		return t.base.RoundTrip(req)
	}

	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	temperature, pinned := req.Context().Value(temperatureKey{}).(float32)
	body, err = completeRequestBody(body, temperature, pinned)
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, err
	}
	return checkReplyContent(resp)
}

// completeRequestBody gives every message an explicit content field and, when
// pinned, sets the temperature.
func completeRequestBody(body []byte, temperature float32, pinned bool) ([]byte, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode chat request: %w", err)
	}

	if raw, ok := payload["messages"]; ok {
		var messages []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("decode chat messages: %w", err)
		}
		for _, msg := range messages {
			if _, ok := msg["content"]; !ok {
				msg["content"] = json.RawMessage(`""`)
			}
		}
		encoded, err := json.Marshal(messages)
		if err != nil {
			return nil, err
		}
		payload["messages"] = encoded
	}

	if pinned {
		encoded, err := json.Marshal(temperature)
		if err != nil {
			return nil, err
		}
		payload["temperature"] = encoded
	}

	return json.Marshal(payload)
}

// checkReplyContent fails with ErrNoChoices unless the first choice carries a
// string content. Bodies that are not JSON are left for go-openai to reject.
func checkReplyContent(resp *http.Response) (*http.Response, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var completion struct {
		Choices []struct {
			Message map[string]json.RawMessage `json:"message"`
		} `json:"choices"`
	}
	if json.Unmarshal(body, &completion) == nil {
		if len(completion.Choices) == 0 || !isJSONString(completion.Choices[0].Message["content"]) {
			return nil, ErrNoChoices
		}
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}
