package ai

import (
	"context"
	"fmt"
	"io"
	"strings"

	"autorag/internal/pkg/pdfextract"
)

// StubProcessor packs the document's lines into chunks of at most BatchSize
// characters and gives every chunk a deterministic vector of the configured
// dimension. PDFs are reduced to their text layer first. It stands in for the
// processing service in local runs.
type StubProcessor struct {
	Dimension int
}

func (p StubProcessor) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	var raw []byte
	if req.Content != nil {
		var err error
		if raw, err = io.ReadAll(req.Content); err != nil {
			return nil, fmt.Errorf("read document failed: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := p.Dimension
	if dim <= 0 {
		dim = 8
	}

	text := string(raw)
	if pdfextract.IsPDF(raw) {
		extracted, err := pdfextract.PlainText(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
		}
		text = extracted
	}

	result := &ProcessResult{Status: "success", Message: "processed by stub"}
	for _, chunk := range packLines(text, req.BatchSize) {
		result.Texts = append(result.Texts, chunk)
		result.Embeddings = append(result.Embeddings, stubVector(chunk, dim))
	}
	if len(result.Texts) == 0 {
		result.Texts = []string{req.FileName}
		result.Embeddings = [][]float32{stubVector(req.FileName, dim)}
	}
	return result, nil
}

// packLines joins non-blank lines into chunks no longer than limit. A single
// line longer than limit becomes its own chunk.
func packLines(text string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if cur.Len() > 0 && (limit <= 0 || cur.Len()+1+len(line) > limit) {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func stubVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for i, r := range text {
		v[i%dim] += float32(r%97) / 97
	}
	return v
}

// StubGenerator answers with the best-matching chunk by word overlap.
type StubGenerator struct{}

func (StubGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.TextChunks) == 0 {
		return "I have no document content to answer from.", nil
	}

	words := strings.Fields(strings.ToLower(req.UserMessage))
	best, bestScore := 0, -1
	for i, chunk := range req.TextChunks {
		lower := strings.ToLower(chunk)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return req.TextChunks[best], nil
}
