// Package proxy is the OpenAI-compatible REST gateway. It exposes chat
// completions (streaming and not), embeddings, image generation, and
// Cohere-style reranking over the configured model list, with master-key
// and virtual-key auth, per-key spend tracking, and router-backed retries
// and fallbacks.
package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/config"
	"github.com/BerriAI/litellm-go/pricing"
	"github.com/BerriAI/litellm-go/router"
)

// Server is the proxy HTTP server.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	registry *litellm.Registry
	router   *router.Router
	keys     *KeyStore
	spend    *pricing.SpendTracker
	prices   *pricing.Table

	engine *gin.Engine
	http   *http.Server
}

// Option customizes server construction.
type Option func(*Server)

// WithRegistry routes calls through the given registry instead of the
// default one.
func WithRegistry(registry *litellm.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithPriceTable overrides the embedded price table.
func WithPriceTable(table *pricing.Table) Option {
	return func(s *Server) { s.prices = table }
}

// New builds a server from the loaded configuration.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
		prices: pricing.Default(),
		spend:  pricing.NewSpendTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = litellm.DefaultRegistry
	}

	rt, err := buildRouter(cfg, s.registry)
	if err != nil {
		return nil, err
	}
	s.router = rt
	s.keys = NewKeyStore(cfg.GeneralSettings.MasterKey, s.spend)

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(s.requestLogger(), gin.Recovery())
	s.setupRoutes()

	s.http = &http.Server{
		Addr:    cfg.GeneralSettings.Addr(),
		Handler: s.engine,
	}
	return s, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Router exposes the deployment router, mainly for the CLI.
func (s *Server) Router() *router.Router { return s.router }

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/health/liveness", s.handleLiveness)
	s.engine.GET("/health/readiness", s.handleReadiness)

	v1 := s.engine.Group("/v1", s.requireAuth())
	{
		v1.POST("/chat/completions", s.handleChatCompletions)
		v1.POST("/completions", s.handleCompletions)
		v1.POST("/embeddings", s.handleEmbeddings)
		v1.POST("/images/generations", s.handleImageGenerations)
		v1.POST("/rerank", s.handleRerank)
		v1.GET("/models", s.handleModels)
	}

	admin := s.engine.Group("/", s.requireMaster())
	{
		admin.POST("/key/generate", s.handleKeyGenerate)
		admin.GET("/spend/keys", s.handleSpendKeys)
		admin.GET("/spend/models", s.handleSpendModels)
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("proxy listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

const contextKeyAPIKey = "litellm-api-key"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// requireAuth accepts the master key or any valid virtual key. Model-level
// checks happen in the handlers once the model is known.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if err := s.keys.Authorize(key, ""); err != nil {
			c.AbortWithStatusJSON(err.Status, err.envelope())
			return
		}
		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}

// requireMaster guards the admin surface.
func (s *Server) requireMaster() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.GeneralSettings.MasterKey == "" || s.keys.IsMaster(bearerToken(c)) {
			c.Next()
			return
		}
		err := errUnauthorized("this endpoint requires the master key")
		c.AbortWithStatusJSON(err.Status, err.envelope())
	}
}

// authorizeModel re-checks the calling key now that the model is known, and
// returns the key for spend attribution.
func (s *Server) authorizeModel(c *gin.Context, model string) (string, *apiError) {
	key := c.GetString(contextKeyAPIKey)
	if err := s.keys.Authorize(key, model); err != nil {
		return "", err
	}
	return key, nil
}

// recordSpend prices the call and attributes it to the key.
func (s *Server) recordSpend(key, model string, usage litellm.Usage) {
	cost, known := s.prices.Cost(model, usage)
	if !known {
		s.logger.Debug("no price entry for model", "model", model)
	}
	s.spend.Record(key, model, usage, cost)
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= 500 {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(apiErr.Status, apiErr.envelope())
}
