package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("llm: reply contains no json object")

// Suggestion is the structured part of a model reply.
type Suggestion struct {
	StockID    string `json:"stock_id,omitempty"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

// ParseSuggestion extracts the JSON object from a reply, with or without a markdown code fence.
func ParseSuggestion(reply string) (Suggestion, error) {
	var s Suggestion
	body := stripFence(reply)
	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return s, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &s); err != nil {
		return s, fmt.Errorf("parse llm reply: %w", err)
	}
	return s, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	i := strings.Index(s, "```")
	if i < 0 {
		return s
	}
	rest := s[i+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if j := strings.LastIndex(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
