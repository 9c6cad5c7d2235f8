package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidMessage is returned when the body carries no usable message string.
var ErrInvalidMessage = errors.New("valid message string is required")

type rawChatRequest struct {
	Message json.RawMessage `json:"message"`
	History json.RawMessage `json:"history"`
}

type rawHistoryEntry struct {
	Role json.RawMessage `json:"role"`
	Text json.RawMessage `json:"text"`
}

// ParseChatRequest decodes a client request body into a ChatRequest.
//
// Only the message is strictly checked. History is best effort: anything that
// is not an array is dropped, and malformed entries keep their position with
// empty role or text.
func ParseChatRequest(body []byte) (*ChatRequest, error) {
	var raw rawChatRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	message, ok := jsonString(raw.Message)
	if !ok || message == "" {
		return nil, ErrInvalidMessage
	}

	return &ChatRequest{
		Message: message,
		History: parseHistory(raw.History),
	}, nil
}

func parseHistory(data json.RawMessage) []HistoryEntry {
	var items []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &items) != nil {
		return []HistoryEntry{}
	}

	history := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry rawHistoryEntry
		// non-object entries decode to zero values
		_ = json.Unmarshal(item, &entry)

		role, _ := jsonString(entry.Role)
		text, _ := jsonString(entry.Text)
		history = append(history, HistoryEntry{Role: role, Text: text})
	}
	return history
}

// jsonString reports whether data holds a JSON string and returns it.
func jsonString(data json.RawMessage) (string, bool) {
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}
