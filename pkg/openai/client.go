package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

//go:generate mockgen -destination=mocks/http_doer_mock.go -package=mocks github.com/user/slack-gpt-relay/pkg/openai HTTPDoer

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	// ErrNoChoices is returned when the API answers with an empty choice list.
	ErrNoChoices = errors.New("completion response has no choices")
	// ErrDecode marks a response body that is not a chat completion.
	ErrDecode = errors.New("decoding completion response")
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient HTTPDoer
}

// NewClient returns a client for {endpoint}/chat/completions. A zero timeout
// leaves outbound calls unbounded.
func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	return NewClientWithHTTP(endpoint, apiKey, model, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(endpoint, apiKey, model string, httpClient HTTPDoer) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

func (c *Client) Complete(ctx context.Context, in CompletionRequest) (CompletionReply, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: RoleSystem, Content: in.SystemPrompt},
			{Role: RoleUser, Content: in.UserContent},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return CompletionReply{}, fmt.Errorf("marshaling payload: %w", err)
	}

	url := c.endpoint + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CompletionReply{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CompletionReply{}, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionReply{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CompletionReply{}, fmt.Errorf("completion API error: %d: %s", resp.StatusCode, truncate(string(raw), 400))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return CompletionReply{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(parsed.Choices) == 0 {
		return CompletionReply{}, ErrNoChoices
	}

	reply := CompletionReply{Text: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		reply.PromptTokens = parsed.Usage.PromptTokens
		reply.CompletionTokens = parsed.Usage.CompletionTokens
	}
	return reply, nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
