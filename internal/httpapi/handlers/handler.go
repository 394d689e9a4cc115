package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pagesmith-backend/internal/ai"
	"pagesmith-backend/internal/chat"
	"pagesmith-backend/internal/common"
	"pagesmith-backend/internal/config"
	"pagesmith-backend/internal/db"
)

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	ChatSvc *chat.Service
}

// NewHandler wires the provider registry and the chat service. dedup and
// events may be nil; the relay degrades to DB-only dedup and no events.
func NewHandler(gdb *gorm.DB, cfg config.Config, dedup chat.DedupMarker, events chat.EventPublisher) *Handler {
	reg := ai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, model), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})

	name := strings.ToLower(cfg.AIProvider)
	provider, err := reg.Get(context.Background(), name, "")
	if err != nil {
		panic(fmt.Sprintf("unsupported AI_PROVIDER=%q", cfg.AIProvider))
	}

	svc := chat.NewService(chat.NewRepo(gdb), provider, dedup, events, common.NewULID)
	return &Handler{DB: gdb, Cfg: cfg, ChatSvc: svc}
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := db.Ping(h.DB); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
