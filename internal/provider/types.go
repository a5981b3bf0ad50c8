package provider

// MessageRole identifies the sender of a message in a conversation.
type MessageRole string

// MessageRole constants for conversation messages.
const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// FinishReason describes why the model stopped generating.
type FinishReason string

// FinishReason constants for model completion termination.
const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonFiltering FinishReason = "filtering"
)

// ResponseFormat selects the shape of the generated content.
type ResponseFormat string

// ResponseFormat constants. The zero value behaves as ResponseFormatText.
const (
	ResponseFormatText ResponseFormat = "text"
	// ResponseFormatJSON asks the model to emit a single JSON object.
	ResponseFormatJSON ResponseFormat = "json_object"
)

// LLMMessage represents a single message in a conversation.
type LLMMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	Name    string      `json:"name,omitempty"`
}

// CompletionRequest is the input to a Provider.Complete call.
type CompletionRequest struct {
	Messages       []LLMMessage   `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    *float64       `json:"temperature,omitempty"`
	ResponseFormat ResponseFormat `json:"response_format,omitempty"`
}

// CompletionResponse is the output of a Provider.Complete call.
type CompletionResponse struct {
	Content      string       `json:"content"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        TokenUsage   `json:"usage"`
}

// TokenUsage tracks token consumption for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) LLMMessage {
	return LLMMessage{Role: MessageRoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) LLMMessage {
	return LLMMessage{Role: MessageRoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) LLMMessage {
	return LLMMessage{Role: MessageRoleAssistant, Content: content}
}
