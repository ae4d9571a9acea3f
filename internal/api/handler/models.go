package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
)

type ModelsHandler struct {
	cfg *config.Config
}

func NewModelsHandler(cfg *config.Config) *ModelsHandler {
	return &ModelsHandler{cfg: cfg}
}

// List 可选的 AI 模型，available 表示服务端配置了默认 Key
// GET /api/v1/models
func (h *ModelsHandler) List(c *gin.Context) {
	provider := c.Query("provider")
	models := make([]map[string]interface{}, 0, len(h.cfg.Models))

	for _, m := range h.cfg.Models {
		if provider != "" && m.Provider != provider {
			continue
		}
		models = append(models, map[string]interface{}{
			"name":         m.Name,
			"display_name": m.DisplayName,
			"provider":     m.Provider,
			"description":  m.Description,
			"available":    m.APIKey != "",
		})
	}

	response.Success(c, gin.H{
		"models": models,
	})
}
