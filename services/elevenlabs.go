package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"
	dialogueModelID   = "eleven_multilingual_v2"
	dialogueFormat    = "mp3_44100_128"

	// Dialogue requests are split at line boundaries into at most
	// maxDialogueParts chunks of maxCharsPerRequest characters each.
	maxCharsPerRequest = 4800
	maxDialogueParts   = 3
)

// ElevenLabsService wraps the ElevenLabs dialogue, sound effect, and music
// APIs. Users may bring their own key; the configured default is the
// fallback.
type ElevenLabsService struct {
	defaultAPIKey string
	client        *http.Client
}

// DialogueInput is one spoken line in a text-to-dialogue request.
type DialogueInput struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

type dialogueRequest struct {
	Inputs       []DialogueInput `json:"inputs"`
	ModelID      string          `json:"model_id"`
	OutputFormat string          `json:"output_format"`
}

// DialogueResult is the decoded output of one text-to-dialogue call.
type DialogueResult struct {
	Audio         []byte
	VoiceSegments json.RawMessage
	Alignment     json.RawMessage
}

type dialogueResponse struct {
	AudioBase64   string          `json:"audio_base64"`
	VoiceSegments json.RawMessage `json:"voice_segments"`
	Alignment     json.RawMessage `json:"alignment"`
}

type soundGenerationRequest struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
	PromptInfluence float64 `json:"prompt_influence"`
}

type musicPlanRequest struct {
	Prompt        string `json:"prompt"`
	MusicLengthMs int    `json:"music_length_ms"`
}

type musicComposeRequest struct {
	CompositionPlan   json.RawMessage `json:"composition_plan"`
	ForceInstrumental bool            `json:"force_instrumental"`
}

// AccountVoice is one voice from the user's ElevenLabs account listing.
type AccountVoice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

func NewElevenLabsService(defaultAPIKey string) *ElevenLabsService {
	return &ElevenLabsService{
		defaultAPIKey: defaultAPIKey,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

func (e *ElevenLabsService) resolveKey(apiKey string) (string, error) {
	if apiKey == "" {
		apiKey = e.defaultAPIKey
	}
	if apiKey == "" {
		return "", fmt.Errorf("no ElevenLabs API key configured")
	}
	return apiKey, nil
}

func (e *ElevenLabsService) postJSON(ctx context.Context, apiKey, path string, payload interface{}) (*http.Response, error) {
	key, err := e.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", elevenLabsBaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", key)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs API error: %d - %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// SplitDialogue partitions dialogue lines into at most maxDialogueParts
// parts for separate API requests. Lines are never split; a script too long
// for the part count overruns the per-request limit in the final part
// rather than dropping lines.
func SplitDialogue(inputs []DialogueInput) [][]DialogueInput {
	if len(inputs) == 0 {
		return nil
	}

	totalChars := 0
	for _, input := range inputs {
		totalChars += len(input.Text)
	}
	if totalChars <= maxCharsPerRequest {
		return [][]DialogueInput{inputs}
	}

	targetChars := totalChars / maxDialogueParts

	var parts [][]DialogueInput
	var current []DialogueInput
	currentChars := 0

	for _, input := range inputs {
		if currentChars >= targetChars && len(parts) < maxDialogueParts-1 && len(current) > 0 {
			parts = append(parts, current)
			current = nil
			currentChars = 0
		}
		current = append(current, input)
		currentChars += len(input.Text)
	}
	if len(current) > 0 {
		parts = append(parts, current)
	}
	return parts
}

// TextToDialogue generates one audio part with per-voice timestamps.
func (e *ElevenLabsService) TextToDialogue(ctx context.Context, apiKey string, inputs []DialogueInput) (*DialogueResult, error) {
	request := dialogueRequest{
		Inputs:       inputs,
		ModelID:      dialogueModelID,
		OutputFormat: dialogueFormat,
	}

	resp, err := e.postJSON(ctx, apiKey, "/v1/text-to-dialogue/with-timestamps", request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded dialogueResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode dialogue response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode dialogue audio: %w", err)
	}

	slog.Info("Generated dialogue audio", "lines", len(inputs), "audio_bytes", len(audio))
	return &DialogueResult{
		Audio:         audio,
		VoiceSegments: decoded.VoiceSegments,
		Alignment:     decoded.Alignment,
	}, nil
}

// GenerateSoundEffect generates a sound effect clip as MP3 bytes.
func (e *ElevenLabsService) GenerateSoundEffect(ctx context.Context, apiKey, prompt string, durationSeconds, promptInfluence float64) ([]byte, error) {
	request := soundGenerationRequest{
		Text:            prompt,
		DurationSeconds: durationSeconds,
		PromptInfluence: promptInfluence,
	}

	resp, err := e.postJSON(ctx, apiKey, "/v1/sound-generation", request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sound effect audio: %w", err)
	}

	slog.Info("Generated sound effect", "prompt", prompt, "duration_seconds", durationSeconds, "audio_bytes", len(audio))
	return audio, nil
}

// PlanMusic asks ElevenLabs to produce a composition plan for background
// music of the requested length.
func (e *ElevenLabsService) PlanMusic(ctx context.Context, apiKey, prompt string, lengthMs int) (json.RawMessage, error) {
	request := musicPlanRequest{
		Prompt:        prompt,
		MusicLengthMs: lengthMs,
	}

	resp, err := e.postJSON(ctx, apiKey, "/v1/music/plan", request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	plan, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read music plan: %w", err)
	}

	slog.Info("Generated music composition plan", "length_ms", lengthMs)
	return plan, nil
}

// ComposeMusic renders a composition plan into MP3 bytes.
func (e *ElevenLabsService) ComposeMusic(ctx context.Context, apiKey string, plan json.RawMessage) ([]byte, error) {
	request := musicComposeRequest{
		CompositionPlan:   plan,
		ForceInstrumental: true,
	}

	resp, err := e.postJSON(ctx, apiKey, "/v1/music", request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read music audio: %w", err)
	}

	slog.Info("Composed background music", "audio_bytes", len(audio))
	return audio, nil
}

// GetVoices lists the voices available on the ElevenLabs account.
func (e *ElevenLabsService) GetVoices(ctx context.Context, apiKey string) ([]AccountVoice, error) {
	key, err := e.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", elevenLabsBaseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", key)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs API error: %d - %s", resp.StatusCode, string(body))
	}

	var decoded struct {
		Voices []AccountVoice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	return decoded.Voices, nil
}

// TestVoice generates a short sample with a single voice.
func (e *ElevenLabsService) TestVoice(ctx context.Context, apiKey, voiceID, text string) ([]byte, error) {
	result, err := e.TextToDialogue(ctx, apiKey, []DialogueInput{{Text: text, VoiceID: voiceID}})
	if err != nil {
		return nil, err
	}
	return result.Audio, nil
}
