package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/app"
	"autorag/internal/model"
	"autorag/internal/transport/http/response"
)

type ConfigHandler struct {
	configService *app.ConfigService
	log           *zap.Logger
}

// SaveConfigRequest carries the whole config. Omitted fields are not merged
// with the stored ones.
type SaveConfigRequest struct {
	SelectedDocumentID *uuid.UUID `json:"selected_document_id"`
	SystemPrompt       string     `json:"system_prompt"`
	TopK               int        `json:"top_k"`
	Temperature        float64    `json:"temperature"`
	Threshold          float64    `json:"threshold"`
	RetrievePrompt     string     `json:"retrieve_prompt"`
	AugmentationPrompt string     `json:"augmentation_prompt"`
	SplitPrompt        string     `json:"split_prompt"`
	TablePrompt        string     `json:"table_prompt"`
	LLMModel           string     `json:"llm_model"`
	SplitMethod        string     `json:"split_method" binding:"omitempty,oneof=batch llm"`
	BatchSize          int        `json:"batch_size"`
}

type configView struct {
	*model.RagConfig
	Saved bool `json:"saved"`
}

func NewConfigHandler(configService *app.ConfigService, log *zap.Logger) *ConfigHandler {
	return &ConfigHandler{configService: configService, log: log}
}

func (h *ConfigHandler) Get(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	cfg, saved, err := h.configService.Get(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		writeError(c, h.log, err, "fetch config failed")
		return
	}
	response.OK(c, configView{RagConfig: cfg, Saved: saved})
}

func (h *ConfigHandler) Save(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	cfg, err := h.configService.Save(c.Request.Context(), id.WorkspaceID, model.RagConfig{
		SelectedDocumentID: req.SelectedDocumentID,
		SystemPrompt:       req.SystemPrompt,
		TopK:               req.TopK,
		Temperature:        req.Temperature,
		Threshold:          req.Threshold,
		RetrievePrompt:     req.RetrievePrompt,
		AugmentationPrompt: req.AugmentationPrompt,
		SplitPrompt:        req.SplitPrompt,
		TablePrompt:        req.TablePrompt,
		LLMModel:           req.LLMModel,
		SplitMethod:        req.SplitMethod,
		BatchSize:          req.BatchSize,
	})
	if err != nil {
		writeError(c, h.log, err, "save config failed")
		return
	}
	response.OK(c, configView{RagConfig: cfg, Saved: true})
}
