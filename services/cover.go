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
	"sync"
	"time"
)

const (
	kieAIBaseURL = "https://kieai.erweima.ai"
	coverModel   = "nano-banana-pro"

	coverPollInterval = 5 * time.Second
	coverPollTimeout  = 180 * time.Second

	maxCoverVariants = 4
)

// CoverService generates cover art through the kie.ai job API: a task is
// created, then polled until it reports success or the deadline passes.
type CoverService struct {
	defaultAPIKey string
	client        *http.Client
}

type coverTaskInput struct {
	Prompt       string   `json:"prompt"`
	AspectRatio  string   `json:"aspect_ratio"`
	Resolution   string   `json:"resolution"`
	OutputFormat string   `json:"output_format"`
	ImageInput   []string `json:"image_input,omitempty"`
}

type coverTaskRequest struct {
	Model string         `json:"model"`
	Input coverTaskInput `json:"input"`
}

type coverTaskResponse struct {
	Code int `json:"code"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
	Msg string `json:"msg"`
}

type coverRecordResponse struct {
	Code int `json:"code"`
	Data struct {
		State      string `json:"state"`
		ResultJSON string `json:"resultJson"`
		FailMsg    string `json:"failMsg"`
	} `json:"data"`
}

func NewCoverService(defaultAPIKey string) *CoverService {
	return &CoverService{
		defaultAPIKey: defaultAPIKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *CoverService) resolveKey(apiKey string) (string, error) {
	if apiKey == "" {
		apiKey = c.defaultAPIKey
	}
	if apiKey == "" {
		return "", fmt.Errorf("no kie.ai API key configured")
	}
	return apiKey, nil
}

// createTask submits a generation job and returns its task ID.
func (c *CoverService) createTask(ctx context.Context, apiKey, prompt, referenceImageURL string) (string, error) {
	key, err := c.resolveKey(apiKey)
	if err != nil {
		return "", err
	}

	input := coverTaskInput{
		Prompt:       prompt,
		AspectRatio:  "1:1",
		Resolution:   "2K",
		OutputFormat: "png",
	}
	if referenceImageURL != "" {
		input.ImageInput = []string{referenceImageURL}
	}

	jsonData, err := json.Marshal(coverTaskRequest{Model: coverModel, Input: input})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", kieAIBaseURL+"/api/v1/jobs/createTask", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("kie.ai API error: %d - %s", resp.StatusCode, string(body))
	}

	var decoded coverTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode createTask response: %w", err)
	}
	if decoded.Data.TaskID == "" {
		return "", fmt.Errorf("kie.ai createTask returned no task ID: %s", decoded.Msg)
	}

	return decoded.Data.TaskID, nil
}

// pollTask waits for the task to finish and returns the first result URL.
func (c *CoverService) pollTask(ctx context.Context, apiKey, taskID string) (string, error) {
	key, err := c.resolveKey(apiKey)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(coverPollTimeout)
	for {
		if time.Now().After(deadline) {
			return "", fmt.Errorf("cover generation timed out for task %s", taskID)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(coverPollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, "GET", kieAIBaseURL+"/api/v1/jobs/recordInfo?taskId="+taskID, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+key)

		resp, err := c.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to poll task: %w", err)
		}

		var decoded coverRecordResponse
		err = json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to decode recordInfo response: %w", err)
		}

		if coverTaskFailed(decoded.Data.State) {
			return "", fmt.Errorf("cover task %s failed: %s", taskID, decoded.Data.FailMsg)
		}
		if strings.EqualFold(decoded.Data.State, "success") {
			var result struct {
				ResultUrls []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(decoded.Data.ResultJSON), &result); err != nil {
				return "", fmt.Errorf("failed to parse task result: %w", err)
			}
			if len(result.ResultUrls) == 0 {
				return "", fmt.Errorf("cover task %s succeeded with no result URLs", taskID)
			}
			return result.ResultUrls[0], nil
		}
		// Still pending, keep polling
	}
}

// coverTaskFailed reports whether a poll state is a terminal failure. The
// vendor has reported "fail", "failed" and "error" in varying casing.
func coverTaskFailed(state string) bool {
	switch strings.ToLower(state) {
	case "fail", "failed", "error":
		return true
	}
	return false
}

// GenerateVariants produces up to maxCoverVariants cover candidates in
// parallel. Partial failures are tolerated as long as at least one variant
// succeeds.
func (c *CoverService) GenerateVariants(ctx context.Context, apiKey, prompt, referenceImageURL string, count int) ([]string, error) {
	count = ClampVariantCount(count)

	urls := make([]string, count)
	errs := make([]error, count)
	var wg sync.WaitGroup

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			taskID, err := c.createTask(ctx, apiKey, prompt, referenceImageURL)
			if err != nil {
				errs[idx] = err
				return
			}
			urls[idx], errs[idx] = c.pollTask(ctx, apiKey, taskID)
		}(i)
	}
	wg.Wait()

	var results []string
	for i, url := range urls {
		if errs[i] != nil {
			slog.Warn("Cover variant failed", "variant", i, "error", errs[i])
			continue
		}
		results = append(results, url)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("all %d cover variants failed: %w", count, errs[0])
	}

	slog.Info("Generated cover variants", "requested", count, "succeeded", len(results))
	return results, nil
}

// ClampVariantCount bounds a requested variant count to [1, maxCoverVariants].
func ClampVariantCount(count int) int {
	if count < 1 {
		return 1
	}
	if count > maxCoverVariants {
		return maxCoverVariants
	}
	return count
}

// BuildCoverPrompt renders the user's (or default) template and appends
// preset style instructions when a style is selected.
func BuildCoverPrompt(template, title, genreTone, description, styleInstructions string) string {
	if template == "" {
		template = DefaultCoverPromptTemplate
	}

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{title}", title)
	prompt = strings.ReplaceAll(prompt, "{genre_tone}", genreTone)
	prompt = strings.ReplaceAll(prompt, "{description}", description)

	if styleInstructions != "" {
		prompt += "\n\nArt direction: " + styleInstructions
	}
	return prompt
}
