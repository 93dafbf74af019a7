package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiService is the native Gemini provider, used when a user selects
// "gemini" instead of an OpenAI-compatible endpoint. Clients are cached per
// API key since users may bring their own.
type GeminiService struct {
	defaultAPIKey string

	clients     map[string]*genai.Client
	clientMutex sync.Mutex
}

func NewGeminiService(defaultAPIKey string) *GeminiService {
	return &GeminiService{
		defaultAPIKey: defaultAPIKey,
		clients:       make(map[string]*genai.Client),
	}
}

func (g *GeminiService) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		apiKey = g.defaultAPIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no Gemini API key configured")
	}

	g.clientMutex.Lock()
	defer g.clientMutex.Unlock()

	if client, ok := g.clients[apiKey]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	g.clients[apiKey] = client
	return client, nil
}

// Generate produces a completion for a system+user prompt pair.
func (g *GeminiService) Generate(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(userPrompt),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	response := result.Text()
	slog.Info("Gemini completion received", "model", model, "response_length", len(response))
	return response, nil
}

// GenerateSummary generates a plain text summary without a system prompt,
// used for episode continuation context.
func (g *GeminiService) GenerateSummary(ctx context.Context, apiKey, prompt string) (string, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}

	result, err := client.Models.GenerateContent(
		ctx,
		DefaultGeminiModel,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	return result.Text(), nil
}
