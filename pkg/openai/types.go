package openai

// CompletionRequest is one system prompt plus one block of user content.
// No history is carried between requests.
type CompletionRequest struct {
	SystemPrompt string
	UserContent  string
}

// CompletionReply is the text of the first choice. Token counts are zero when
// the API omits usage.
type CompletionReply struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}
