package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const generatePath = "/api/v1/rag/process"

// GenerateRequest is the generation service payload. Optional prompts and the
// model name are omitted when empty so the remote defaults apply.
type GenerateRequest struct {
	ChatID             string      `json:"chat_id"`
	UserMessage        string      `json:"user_message"`
	DocumentID         string      `json:"document_id"`
	Embeddings         [][]float32 `json:"embeddings"`
	TextChunks         []string    `json:"text_chunks"`
	TopK               int         `json:"top_k"`
	Temperature        float64     `json:"temperature"`
	Threshold          float64     `json:"threshold"`
	PromptRetrieve     string      `json:"prompt_retrieve,omitempty"`
	PromptAugmentation string      `json:"prompt_augmentation,omitempty"`
	PromptGeneration   string      `json:"prompt_generation,omitempty"`
	LLM                string      `json:"llm,omitempty"`
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type GenerationClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGenerationClient(baseURL string, timeout time.Duration) *GenerationClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GenerationClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *GenerationClient) Generate(ctx context.Context, in GenerateRequest) (string, error) {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal generation request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build generation request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("generation request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("generation request failed: %w: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", statusError("generation", resp)
	}

	var parsed struct {
		GeneratedAnswer string `json:"generated_answer"`
		Status          string `json:"status"`
		Message         string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse generation json failed: %w: %w", err, ErrBadResponse)
	}
	if parsed.Status == "error" {
		return "", fmt.Errorf("generation reported error %q: %w", parsed.Message, ErrBadResponse)
	}
	if strings.TrimSpace(parsed.GeneratedAnswer) == "" {
		return "", fmt.Errorf("empty generated answer: %w", ErrBadResponse)
	}
	return parsed.GeneratedAnswer, nil
}
