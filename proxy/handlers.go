package proxy

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/proxy/openaiapi"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_groups": s.router.ModelGroups(),
		"providers":    s.registry.Providers(),
		"healthy_at":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) handleReadiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleChatCompletions(c *gin.Context) {
	var req openaiapi.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, errBadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.Model == "" {
		s.abortWithError(c, errBadRequest("model is required"))
		return
	}

	key, authErr := s.authorizeModel(c, req.Model)
	if authErr != nil {
		s.abortWithError(c, authErr)
		return
	}

	call, err := callFromChatRequest(&req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	if req.Stream {
		s.streamChatCompletion(c, key, &req, call)
		return
	}

	resp, err := s.router.Completion(c.Request.Context(), req.Model, call)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.recordSpend(key, req.Model, resp.Usage)
	c.JSON(http.StatusOK, chatResponseFromCore(req.Model, resp))
}

func (s *Server) streamChatCompletion(c *gin.Context, key string, req *openaiapi.ChatCompletionRequest, call litellm.Call) {
	stream, err := s.router.CompletionStream(c.Request.Context(), req.Model, call)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	includeUsage := req.StreamOptions != nil && req.StreamOptions.IncludeUsage
	translator := newStreamTranslator(req.Model, includeUsage)

	failed := false
	for part := range stream {
		if part.Type == litellm.StreamPartTypeError {
			apiErr := toAPIError(part.Error)
			s.writeSSE(c, apiErr.envelope())
			failed = true
			break
		}
		if chunk := translator.chunk(part); chunk != nil {
			s.writeSSE(c, chunk)
		}
	}

	if !failed {
		s.writeSSE(c, translator.finishChunk())
		s.recordSpend(key, req.Model, translator.usage)
	}
	s.writeDone(c)
}

func (s *Server) writeSSE(c *gin.Context, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal stream frame", "error", err)
		return
	}
	c.Writer.WriteString("data: ")
	c.Writer.Write(data)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}

func (s *Server) writeDone(c *gin.Context) {
	c.Writer.WriteString("data: [DONE]\n\n")
	c.Writer.Flush()
}

// handleCompletions serves the legacy text completion surface by adapting
// it onto chat calls.
func (s *Server) handleCompletions(c *gin.Context) {
	var req openaiapi.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, errBadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.Model == "" {
		s.abortWithError(c, errBadRequest("model is required"))
		return
	}

	key, authErr := s.authorizeModel(c, req.Model)
	if authErr != nil {
		s.abortWithError(c, authErr)
		return
	}

	prompts, err := parseStringOrSlice(req.Prompt)
	if err != nil || len(prompts) == 0 {
		s.abortWithError(c, errBadRequest("prompt must be a string or an array of strings"))
		return
	}

	call := litellm.Call{
		MaxOutputTokens: req.MaxTokens,
		Temperature:     req.Temperature,
		TopP:            req.TopP,
	}
	if len(req.Stop) > 0 {
		stop, err := parseStringOrSlice(req.Stop)
		if err != nil {
			s.abortWithError(c, errBadRequest("stop must be a string or an array of strings"))
			return
		}
		call.StopSequences = stop
	}

	choices := make([]openaiapi.CompletionChoice, 0, len(prompts))
	var usage litellm.Usage
	for i, prompt := range prompts {
		call.Prompt = litellm.Prompt{litellm.NewUserTextMessage(prompt)}
		resp, err := s.router.Completion(c.Request.Context(), req.Model, call)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		usage = usage.Add(resp.Usage)
		choices = append(choices, openaiapi.CompletionChoice{
			Index:        i,
			Text:         resp.Content.Text(),
			FinishReason: finishReasonToWire(resp.FinishReason),
		})
	}

	s.recordSpend(key, req.Model, usage)
	c.JSON(http.StatusOK, &openaiapi.CompletionResponse{
		ID:      "cmpl-" + uuid.NewString(),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: choices,
		Usage:   usageToWire(usage),
	})
}

func (s *Server) handleEmbeddings(c *gin.Context) {
	var req openaiapi.EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, errBadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.Model == "" {
		s.abortWithError(c, errBadRequest("model is required"))
		return
	}

	key, authErr := s.authorizeModel(c, req.Model)
	if authErr != nil {
		s.abortWithError(c, authErr)
		return
	}

	call, err := embeddingCallFromRequest(&req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp, err := s.router.Embedding(c.Request.Context(), req.Model, call)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.recordSpend(key, req.Model, resp.Usage)
	c.JSON(http.StatusOK, embeddingResponseToWire(req.Model, resp))
}

func (s *Server) handleImageGenerations(c *gin.Context) {
	var req openaiapi.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, errBadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.Model == "" {
		s.abortWithError(c, errBadRequest("model is required"))
		return
	}

	key, authErr := s.authorizeModel(c, req.Model)
	if authErr != nil {
		s.abortWithError(c, authErr)
		return
	}

	resp, err := s.router.ImageGeneration(c.Request.Context(), req.Model, imageCallFromRequest(&req))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	n := int64(len(resp.Images))
	if cost, ok := s.prices.ImageCost(req.Model, int(n)); ok {
		s.spend.Record(key, req.Model, resp.Usage, cost)
	} else {
		s.recordSpend(key, req.Model, resp.Usage)
	}
	c.JSON(http.StatusOK, imageResponseToWire(resp))
}

func (s *Server) handleRerank(c *gin.Context) {
	var req openaiapi.RerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, errBadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.Model == "" {
		s.abortWithError(c, errBadRequest("model is required"))
		return
	}

	key, authErr := s.authorizeModel(c, req.Model)
	if authErr != nil {
		s.abortWithError(c, authErr)
		return
	}

	resp, err := s.router.Rerank(c.Request.Context(), req.Model, rerankCallFromRequest(&req))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	if cost, ok := s.prices.QueryCost(req.Model, 1); ok {
		s.spend.Record(key, req.Model, resp.Usage, cost)
	} else {
		s.recordSpend(key, req.Model, resp.Usage)
	}
	returnDocuments := req.ReturnDocuments == nil || *req.ReturnDocuments
	c.JSON(http.StatusOK, rerankResponseToWire(resp, returnDocuments))
}

func (s *Server) handleModels(c *gin.Context) {
	created := time.Now().Unix()
	groups := s.router.ModelGroups()
	models := make([]openaiapi.Model, 0, len(groups))
	for _, group := range groups {
		models = append(models, openaiapi.Model{
			ID:      group,
			Object:  "model",
			Created: created,
			OwnedBy: "litellm",
		})
	}
	c.JSON(http.StatusOK, openaiapi.ModelList{Object: "list", Data: models})
}

func (s *Server) handleKeyGenerate(c *gin.Context) {
	var req openaiapi.KeyGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, errBadRequest("invalid request body: "+err.Error()))
		return
	}

	info, err := s.keys.Generate(req.KeyAlias, req.Duration, req.MaxBudget, req.Models)
	if err != nil {
		s.abortWithError(c, errBadRequest(err.Error()))
		return
	}

	resp := openaiapi.KeyGenerateResponse{
		Key:       info.Key,
		KeyAlias:  info.Alias,
		MaxBudget: info.MaxBudget,
		Models:    info.Models,
	}
	if !info.ExpiresAt.IsZero() {
		resp.ExpiresAt = litellm.Opt(info.ExpiresAt.Unix())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSpendKeys(c *gin.Context) {
	entries := s.spend.Entries()
	type keySpend struct {
		APIKey      string  `json:"api_key"`
		Spend       float64 `json:"spend"`
		Requests    int64   `json:"requests"`
		TotalTokens int64   `json:"total_tokens"`
	}
	byKey := make(map[string]*keySpend)
	for _, e := range entries {
		agg, ok := byKey[e.APIKey]
		if !ok {
			agg = &keySpend{APIKey: e.APIKey}
			byKey[e.APIKey] = agg
		}
		agg.Spend += e.Spend
		agg.Requests += e.Requests
		agg.TotalTokens += e.TotalTokens
	}
	out := make([]keySpend, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].APIKey < out[j].APIKey })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSpendModels(c *gin.Context) {
	c.JSON(http.StatusOK, s.spend.Entries())
}
