package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI-compatible chat completion endpoint. With the
// default base URL that is a local Ollama server.
type OpenAI struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "llama3.1"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    slog.With("component", "ai", "backend", BackendOpenAI),
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: 0,
	}
	if len(req.Schema) > 0 {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "resume_record",
				Schema: req.Schema,
			},
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		status := 0
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			status = apiErr.HTTPStatusCode
		case errors.As(err, &reqErr):
			status = reqErr.HTTPStatusCode
		}
		return "", generationError(BackendOpenAI, status, err)
	}
	o.log.Info("LLM API call",
		"model", resp.Model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens,
		"elapsed", time.Since(start))

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", generationError(BackendOpenAI, 0, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
