package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const processPath = "/api/v1/documents/process"

// ProcessRequest carries a document and the chunking parameters it should be
// split with. Empty prompts are left out of the request.
type ProcessRequest struct {
	DocumentID  string
	FileName    string
	Content     io.Reader
	SplitMethod string
	BatchSize   int
	LLMModel    string
	Temperature float64
	SplitPrompt string
	TablePrompt string
}

type ProcessResult struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	Texts      []string    `json:"texts"`
	Embeddings [][]float32 `json:"embeddings"`
}

type Processor interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
}

type ProcessorClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProcessorClient(baseURL string, timeout time.Duration) *ProcessorClient {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &ProcessorClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *ProcessorClient) Process(ctx context.Context, in ProcessRequest) (*ProcessResult, error) {
	body, contentType := multipartBody(in)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, body)
	if err != nil {
		return nil, fmt.Errorf("build processor request failed: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("processor request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("processor request failed: %w: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError("processor", resp)
	}

	var result ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse processor json failed: %w: %w", err, ErrBadResponse)
	}
	return &result, nil
}

// multipartBody streams the form through a pipe so large documents are never
// buffered whole.
func multipartBody(in ProcessRequest) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, in)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, in ProcessRequest) error {
	fields := [][2]string{
		{"document_id", in.DocumentID},
		{"split_method", in.SplitMethod},
		{"batch_size", strconv.Itoa(in.BatchSize)},
		{"llm_model", in.LLMModel},
		{"temperature", strconv.FormatFloat(in.Temperature, 'f', -1, 64)},
	}
	if in.SplitPrompt != "" {
		fields = append(fields, [2]string{"prompt_split", in.SplitPrompt})
	}
	if in.TablePrompt != "" {
		fields = append(fields, [2]string{"prompt_table", in.TablePrompt})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write form field %s failed: %w", f[0], err)
		}
	}

	fileName := in.FileName
	if fileName == "" {
		fileName = "file.bin"
	}
	part, err := mw.CreateFormFile("document", fileName)
	if err != nil {
		return fmt.Errorf("create form file failed: %w", err)
	}
	if in.Content != nil {
		if _, err := io.Copy(part, in.Content); err != nil {
			return fmt.Errorf("copy document content failed: %w", err)
		}
	}
	return nil
}
