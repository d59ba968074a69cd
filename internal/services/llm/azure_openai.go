package llm

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

var ErrEmptyCompletion = errors.New("llm: empty completion")

type AzureConfig struct {
	Endpoint        string
	APIVersion      string
	Deployment      string
	SubscriptionKey string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
}

// AzureOpenAI calls the chat completions API of an Azure OpenAI deployment.
type AzureOpenAI struct {
	base *httpBase
	cfg  AzureConfig
}

func NewAzureOpenAI(cfg AzureConfig) *AzureOpenAI {
	return &AzureOpenAI{
		base: newHTTPBase(strings.TrimRight(cfg.Endpoint, "/"), cfg.Timeout, map[string]string{"api-key": cfg.SubscriptionKey}),
		cfg:  cfg,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *AzureOpenAI) path() string {
	return "/openai/deployments/" + url.PathEscape(a.cfg.Deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(a.cfg.APIVersion)
}

// Complete sends prompt as a single user message and returns the first choice.
func (a *AzureOpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}
	var resp chatResponse
	if err := a.base.postJSON(ctx, a.path(), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
