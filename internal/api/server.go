// Package api exposes the generation engine and assistant over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/wisplm/wisp/internal/assistant"
	"github.com/wisplm/wisp/internal/generate"
	"github.com/wisplm/wisp/internal/logger"
	"github.com/wisplm/wisp/internal/model"
	"github.com/wisplm/wisp/internal/sampling"
)

// Defaults applied to generate requests that omit sampling fields.
var defaultRequest = generate.Request{
	MaxTokens:         50,
	Seed:              -1,
	Temperature:       0.7,
	TopK:              50,
	TopP:              0.9,
	RepetitionPenalty: 1.1,
}

// Server handles the /v1 routes.
type Server struct {
	engine    *generate.Engine
	assistant *assistant.Assistant
	store     *GenerationStore
	log       logger.Logger
	clock     func() time.Time
}

// NewServer builds a Server. The assistant may be nil, in which case the
// chat and memory routes report not found.
func NewServer(engine *generate.Engine, asst *assistant.Assistant, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		engine:    engine,
		assistant: asst,
		store:     NewGenerationStore(),
		log:       log,
		clock:     time.Now,
	}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generate", s.handleGenerate)
	e.GET("/v1/generations/:id", s.handleGetGeneration)
	e.DELETE("/v1/generations/:id", s.handleDeleteGeneration)
	e.POST("/v1/chat", s.handleChat)
	e.GET("/v1/model", s.handleModelInfo)
	e.GET("/v1/memory/search", s.handleMemorySearch)
}

func (s *Server) handleGenerate(c *echo.Context) error {
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body")
	}
	if req.Prompt == "" {
		return writeBadRequest(c, "prompt is required")
	}

	genReq := defaultRequest
	genReq.Prompt = req.Prompt
	if req.MaxTokens != nil {
		genReq.MaxTokens = *req.MaxTokens
	}
	if req.Seed != nil {
		genReq.Seed = *req.Seed
	}
	if req.Temperature != nil {
		genReq.Temperature = *req.Temperature
	}
	if req.TopK != nil {
		genReq.TopK = *req.TopK
	}
	if req.TopP != nil {
		genReq.TopP = *req.TopP
	}
	if req.RepetitionPenalty != nil {
		genReq.RepetitionPenalty = *req.RepetitionPenalty
	}
	if genReq.MaxTokens < 0 {
		return writeBadRequest(c, "max_tokens must not be negative")
	}

	resp, err := s.engine.Generate(c.Request().Context(), &genReq, nil)
	if err != nil {
		if errors.Is(err, sampling.ErrInvalidConfig) || errors.Is(err, model.ErrInvalidInput) {
			return writeBadRequest(c, err.Error())
		}
		s.log.Error("generation failed", "err", err)
		return writeInternal(c, "generation failed")
	}

	stored := s.store.Put(GenerateResponse{
		Text:            resp.Text,
		State:           resp.State.String(),
		TokensGenerated: resp.Stats.TokensGenerated,
		DurationMS:      resp.Stats.Duration.Milliseconds(),
		TokensPerSecond: resp.Stats.TPS,
	}, s.clock())
	return c.JSON(http.StatusOK, stored)
}

func (s *Server) handleGetGeneration(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "generation not found: "+id)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteGeneration(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "generation not found: "+id)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":      id,
		"object":  "generation.deleted",
		"deleted": true,
	})
}

func (s *Server) handleChat(c *echo.Context) error {
	if s.assistant == nil {
		return writeNotFound(c, "chat is not enabled")
	}
	req, err := decodeJSON[ChatRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body")
	}
	if req.Message == "" {
		return writeBadRequest(c, "message is required")
	}

	reply, err := s.assistant.Chat(c.Request().Context(), req.Message)
	if err != nil {
		s.log.Error("chat failed", "err", err)
		return writeInternal(c, "chat failed")
	}
	return c.JSON(http.StatusOK, ChatResponse{
		ID:    newGenerationID(),
		Reply: reply,
	})
}

func (s *Server) handleModelInfo(c *echo.Context) error {
	cfg := s.engine.Model().Config()
	return c.JSON(http.StatusOK, ModelInfo{
		VocabSize:   cfg.VocabSize,
		EmbedDim:    cfg.EmbedDim,
		NumHeads:    cfg.NumHeads,
		HiddenDim:   cfg.HiddenDim,
		NumLayers:   cfg.NumLayers,
		MaxSeqLen:   cfg.MaxSeqLen,
		Precision:   string(cfg.Precision),
		FootprintMB: s.engine.Model().Weights().FootprintMB(),
	})
}

func (s *Server) handleMemorySearch(c *echo.Context) error {
	if s.assistant == nil {
		return writeNotFound(c, "memory is not enabled")
	}
	query := c.QueryParam("q")
	if query == "" {
		return writeBadRequest(c, "query parameter q is required")
	}
	topK := 5
	if raw := c.QueryParam("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return writeBadRequest(c, "top_k must be a positive integer")
		}
		topK = n
	}

	hits := s.assistant.SearchMemory(query, topK)
	items := make([]MemoryItem, len(hits))
	for i, h := range hits {
		items[i] = MemoryItem{
			Content:    h.Content,
			Category:   h.Category,
			Importance: h.Importance,
		}
	}
	return c.JSON(http.StatusOK, MemorySearchResponse{Query: query, Items: items})
}
