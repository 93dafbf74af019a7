package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heinercast/backend/models"
)

// LLMProvider describes an OpenAI-compatible chat completions endpoint.
type LLMProvider struct {
	BaseURL string   `json:"base_url"`
	Models  []string `json:"models"`
}

// LLMProviders lists the supported providers and their model catalogs. The
// "gemini" provider is handled natively by GeminiService, not through the
// chat completions protocol.
var LLMProviders = map[string]LLMProvider{
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Models: []string{
			"openai/gpt-4o",
			"openai/gpt-4o-mini",
			"openai/gpt-4-turbo",
			"openai/gpt-4",
			"openai/gpt-3.5-turbo",
			"anthropic/claude-sonnet-4",
			"anthropic/claude-3-opus",
			"anthropic/claude-3-sonnet",
			"anthropic/claude-3-haiku",
			"google/gemini-pro",
			"google/gemini-1.5-pro",
			"google/gemini-1.5-flash",
			"x-ai/grok-2",
			"x-ai/grok-2-mini",
		},
	},
	"polza": {
		BaseURL: "https://api.polza.ai/v1",
		Models: []string{
			"openai/gpt-4o",
			"openai/gpt-4o-mini",
			"openai/gpt-4-turbo",
			"anthropic/claude-sonnet-4",
			"anthropic/claude-3-opus",
			"anthropic/claude-3-sonnet",
		},
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
			"gpt-4",
			"gpt-3.5-turbo",
		},
	},
	"gemini": {
		BaseURL: "",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
}

// charsPerMinute converts script length to an approximate spoken duration.
const charsPerMinute = 850

// LLMService calls OpenAI-compatible chat completion APIs to write episode
// scripts.
type LLMService struct {
	appName string
	appURL  string
	client  *http.Client
	gemini  *GeminiService
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewLLMService(appName, appURL string, gemini *GeminiService) *LLMService {
	return &LLMService{
		appName: appName,
		appURL:  appURL,
		gemini:  gemini,
		client: &http.Client{
			Timeout: 180 * time.Second,
		},
	}
}

// Summarize produces a plain-text summary. Gemini gets a dedicated
// single-shot call without a system instruction; other providers go through
// the regular chat completion.
func (l *LLMService) Summarize(ctx context.Context, provider, apiKey, model, systemPrompt, text string) (string, error) {
	if provider == "gemini" {
		if l.gemini == nil {
			return "", fmt.Errorf("gemini provider is not configured")
		}
		return l.gemini.GenerateSummary(ctx, apiKey, systemPrompt+"\n\n"+text)
	}
	return l.Complete(ctx, provider, apiKey, model, systemPrompt, text)
}

// Complete sends a system+user prompt pair to the configured provider and
// returns the raw completion text.
func (l *LLMService) Complete(ctx context.Context, provider, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	if provider == "gemini" {
		if l.gemini == nil {
			return "", fmt.Errorf("gemini provider is not configured")
		}
		return l.gemini.Generate(ctx, apiKey, model, systemPrompt, userPrompt)
	}

	providerCfg, ok := LLMProviders[provider]
	if !ok {
		return "", fmt.Errorf("unknown LLM provider: %s", provider)
	}
	if apiKey == "" {
		return "", fmt.Errorf("no API key configured for provider %s", provider)
	}
	if model == "" && len(providerCfg.Models) > 0 {
		model = providerCfg.Models[0]
	}

	request := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.8,
		MaxTokens:   8000,
	}

	// gpt and claude models support enforced JSON output
	lowerModel := strings.ToLower(model)
	if strings.Contains(lowerModel, "gpt") || strings.Contains(lowerModel, "claude") {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := providerCfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if provider == "openrouter" {
		req.Header.Set("HTTP-Referer", l.appURL)
		req.Header.Set("X-Title", l.appName)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s API error: %d - %s", provider, resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s API returned no choices", provider)
	}

	content := completion.Choices[0].Message.Content
	slog.Info("LLM completion received", "provider", provider, "model", model, "content_length", len(content))
	return content, nil
}

// ParseScript validates and normalizes raw LLM output into a Script. Code
// fences are stripped, missing voice IDs default to empty, sound effects
// stay nullable, and the approximate duration is derived from total text
// length when the model omitted or undershot it.
func ParseScript(raw string) (*models.Script, error) {
	cleaned := stripCodeFences(raw)

	var script models.Script
	if err := json.Unmarshal([]byte(cleaned), &script); err != nil {
		return nil, fmt.Errorf("script is not valid JSON: %w", err)
	}

	if script.StoryTitle == "" {
		return nil, fmt.Errorf("script is missing story_title")
	}
	if script.GenreTone == "" {
		return nil, fmt.Errorf("script is missing genre_tone")
	}
	if len(script.Lines) == 0 {
		return nil, fmt.Errorf("script has no lines")
	}

	totalChars := 0
	for i := range script.Lines {
		line := &script.Lines[i]
		if line.Speaker == "" {
			return nil, fmt.Errorf("script line %d is missing speaker", i)
		}
		if line.Text == "" {
			return nil, fmt.Errorf("script line %d is missing text", i)
		}
		totalChars += len(line.Text)
	}

	if derived := totalChars / charsPerMinute; script.ApproxDurationMinute < 1 {
		script.ApproxDurationMinute = derived
	}
	if script.ApproxDurationMinute < 1 {
		script.ApproxDurationMinute = 1
	}

	return &script, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// ScriptToText renders a script as plain readable text for display and
// editing.
func ScriptToText(script *models.Script) string {
	var b strings.Builder
	for _, line := range script.Lines {
		b.WriteString(line.Speaker)
		b.WriteString(": ")
		b.WriteString(line.Text)
		b.WriteString("\n")
		if line.SoundEffect != nil && *line.SoundEffect != "" {
			b.WriteString("[SFX: ")
			b.WriteString(*line.SoundEffect)
			b.WriteString("]\n")
		}
	}
	return b.String()
}
