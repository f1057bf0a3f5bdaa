package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// OpenAIDefaultModel is used when no model is configured.
	OpenAIDefaultModel = "gpt-4o-mini"

	// OllamaDefaultBaseURL is the OpenAI-compatible endpoint a local
	// Ollama daemon serves.
	OllamaDefaultBaseURL = "http://localhost:11434/v1"
)

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
	RegisterProviderFactory("ollama", newOllamaProvider)
}

// openAIProvider implements CoreLLM against any OpenAI-compatible chat
// completion API. The same implementation backs both the hosted OpenAI
// service and local Ollama daemons.
type openAIProvider struct {
	BaseProvider
	client       *openai.Client
	providerName string
	tokenCounter *TokenCounter
}

func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, &ProviderError{
			Type:     ErrorTypeAuthentication,
			Provider: "openai",
			Message:  "API key is required",
		}
	}
	return newOpenAICompatibleProvider("openai", OpenAIDefaultModel, config)
}

// newOllamaProvider targets a local Ollama daemon through its
// OpenAI-compatible endpoint. Ollama ignores the API key, so a placeholder
// is supplied when none is configured.
func newOllamaProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		config.APIKey = "ollama"
	}
	if config.BaseURL == "" {
		config.BaseURL = OllamaDefaultBaseURL
	}
	if config.Model == "" {
		return nil, &ProviderError{
			Type:     ErrorTypeBadRequest,
			Provider: "ollama",
			Message:  "model is required",
		}
	}
	return newOpenAICompatibleProvider("ollama", config.Model, config)
}

func newOpenAICompatibleProvider(name, defaultModel string, config ClientConfig) (CoreLLM, error) {
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &openAIProvider{
		BaseProvider: BaseProvider{model: model},
		client:       openai.NewClientWithConfig(clientConfig),
		providerName: name,
		tokenCounter: NewTokenCounter(),
	}, nil
}

// DoRequest sends a chat completion request and returns the generated
// content along with token usage.
func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	req := openai.ChatCompletionRequest{
		Model:     options.Model,
		MaxTokens: options.MaxTokens,
		Messages:  buildChatMessages(prompt, options.System),
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if format, ok := opts["response_format"].(map[string]string); ok && format["type"] == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, 0, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, 0, ErrNoResponseChoice
	}

	content := resp.Choices[0].Message.Content
	tokensIn := p.tokenCounter.GetTokenCount(resp.Usage.PromptTokens, prompt)
	tokensOut := p.tokenCounter.GetTokenCount(resp.Usage.CompletionTokens, content)

	return content, tokensIn, tokensOut, nil
}

func (p *openAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Type:         ClassifyHTTPStatus(apiErr.HTTPStatusCode),
			Provider:     p.providerName,
			StatusCode:   apiErr.HTTPStatusCode,
			Message:      apiErr.Message,
			WrappedError: err,
		}
	}
	return &ProviderError{
		Type:         ErrorTypeNetwork,
		Provider:     p.providerName,
		Message:      err.Error(),
		WrappedError: err,
	}
}

func buildChatMessages(prompt, system string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}
