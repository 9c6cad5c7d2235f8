package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sleepstars/chatproxy/internal/clients"
	"github.com/sleepstars/chatproxy/internal/config"
	"github.com/sleepstars/chatproxy/internal/logger"
	"github.com/sleepstars/chatproxy/internal/metrics"
	"github.com/sleepstars/chatproxy/internal/proxy"
	"github.com/sleepstars/chatproxy/internal/server"
)

// App holds the wired components of the chat proxy
type App struct {
	Config  *config.Config
	Router  *gin.Engine
	Service *proxy.Service
	Metrics *metrics.ChatMetrics
}

// New wires the upstream client, chat service and HTTP router from cfg.
// client may be nil, in which case an OpenAI client is built from cfg.
func New(cfg *config.Config, log *logger.Logger, reg *prometheus.Registry, client clients.ModelClient) *App {
	if log == nil {
		log = logger.GetLogger()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	gin.SetMode(cfg.Server.Mode)

	if client == nil {
		client = clients.NewOpenAIClient(clients.ModelClientConfig{
			APIBase: cfg.Upstream.APIBase,
			APIKey:  cfg.Upstream.APIKey,
			Model:   cfg.Upstream.Model,
			Timeout: cfg.Upstream.Timeout,
		})
	}

	m := metrics.NewChatMetrics(reg)
	svc := proxy.NewService(client, proxy.Options{
		Model:         cfg.Upstream.Model,
		MaxTokens:     cfg.Upstream.MaxTokens,
		Temperature:   cfg.Upstream.Temperature,
		SystemPrompt:  cfg.Prompts.System,
		APIKeyEnv:     cfg.Upstream.APIKeyEnv,
		HasCredential: cfg.HasAPIKey(),
	}, m).WithLogger(log)

	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	router := server.NewRouter(server.NewChatHandler(svc, m, log), server.RouterOptions{
		Logger:  log,
		Metrics: metricsHandler,
	})

	if !cfg.HasAPIKey() {
		log.WithComponent("app").Warn("%s is not set; chat requests will fail until it is configured", cfg.Upstream.APIKeyEnv)
	}
	log.WithComponent("app").Info("Chat proxy ready: model=%s api_base=%s metrics=%v",
		cfg.Upstream.Model, cfg.Upstream.APIBase, cfg.Server.Metrics)

	return &App{
		Config:  cfg,
		Router:  router,
		Service: svc,
		Metrics: m,
	}
}
