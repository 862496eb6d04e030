package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSystemPrompt = "You are RAG system"
	DefaultTopK         = 3
	DefaultTemperature  = 0.7
	DefaultThreshold    = 0.0
	DefaultLLMModel     = "gpt-4o-mini"
	DefaultBatchSize    = 1000

	SplitMethodBatch = "batch"
	SplitMethodLLM   = "llm"
)

// RagConfig holds retrieval, generation and chunking settings for one workspace.
// ID is the workspace id. Empty optional prompts mean "let the remote service decide".
type RagConfig struct {
	ID                 uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"workspace_id"`
	SelectedDocumentID *uuid.UUID `gorm:"type:varchar(36)" json:"selected_document_id,omitempty"`
	SystemPrompt       string     `gorm:"type:text" json:"system_prompt"`
	TopK               int        `gorm:"not null" json:"top_k"`
	Temperature        float64    `gorm:"not null" json:"temperature"`
	Threshold          float64    `gorm:"not null" json:"threshold"`
	RetrievePrompt     string     `gorm:"type:text" json:"retrieve_prompt,omitempty"`
	AugmentationPrompt string     `gorm:"type:text" json:"augmentation_prompt,omitempty"`
	SplitPrompt        string     `gorm:"type:text" json:"split_prompt,omitempty"`
	TablePrompt        string     `gorm:"type:text" json:"table_prompt,omitempty"`
	LLMModel           string     `gorm:"size:128;not null" json:"llm_model"`
	SplitMethod        string     `gorm:"size:16;not null" json:"split_method"`
	BatchSize          int        `gorm:"not null" json:"batch_size"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func DefaultRagConfig(workspaceID uuid.UUID) RagConfig {
	return RagConfig{
		ID:           workspaceID,
		SystemPrompt: DefaultSystemPrompt,
		TopK:         DefaultTopK,
		Temperature:  DefaultTemperature,
		Threshold:    DefaultThreshold,
		LLMModel:     DefaultLLMModel,
		SplitMethod:  SplitMethodBatch,
		BatchSize:    DefaultBatchSize,
	}
}
