package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/handybob/callops/internal/askbob"
	"github.com/handybob/callops/internal/config"
	"github.com/handybob/callops/internal/repository"
	callservice "github.com/handybob/callops/internal/services/call"
	"github.com/handybob/callops/internal/telephony"
	"github.com/handybob/callops/pkg/completion"
	"github.com/handybob/callops/pkg/logger"
	"github.com/handybob/callops/pkg/redis"
)

// HandlerManager manages all handlers and their initialization
type HandlerManager struct {
	config      *config.Config
	repoManager repository.RepositoryManager

	verifier    *telephony.SignatureVerifier
	reconciler  *telephony.Reconciler
	dispatcher  *askbob.Dispatcher
	callService *callservice.Service
}

// NewHandlerManager creates and wires all services and handlers.
func NewHandlerManager(cfg *config.Config, repoManager repository.RepositoryManager, redisService redis.RedisServiceInterface) *HandlerManager {
	var publisher telephony.EventPublisher
	if redisService != nil {
		publisher = callservice.NewRedisEventPublisher(redisService)
	}

	verifier := telephony.NewSignatureVerifier(cfg.TwilioAuthToken)
	reconciler := telephony.NewReconciler(repoManager.Calls(), publisher)

	completionService := completion.NewHTTPService(completion.Config{
		BaseURL: cfg.CompletionBaseURL,
		APIKey:  cfg.CompletionAPIKey,
		Model:   cfg.CompletionModel,
		Timeout: cfg.CompletionTimeout,
	})
	dispatcher := askbob.NewDispatcher(
		askbob.NewRepositoryStore(repoManager),
		completionService,
		telephony.NewMigrationWarnings(),
	)

	callService := callservice.NewService(callservice.Config{
		AccountSID:    cfg.TwilioAccountSID,
		AuthToken:     cfg.TwilioAuthToken,
		FromNumber:    cfg.TwilioFromNumber,
		PublicBaseURL: cfg.PublicBaseURL,
	}, callservice.NewRepositoryStore(repoManager), publisher)

	return &HandlerManager{
		config:      cfg,
		repoManager: repoManager,
		verifier:    verifier,
		reconciler:  reconciler,
		dispatcher:  dispatcher,
		callService: callService,
	}
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(LoggingMiddleware)

	router.HandleFunc("/healthz", hm.handleHealthz).Methods("GET")

	// Provider webhooks are authenticated by signature, not by JWT.
	webhookHandler := NewTwilioWebhookHandler(hm.verifier, hm.reconciler, hm.repoManager.Calls(), hm.config.PublicBaseURL)
	webhookHandler.SetupWebhookRoutes(router)

	// Operator-facing API, JWT protected.
	apiRouter := router.PathPrefix("/v1").Subrouter()
	apiRouter.Use(AuthMiddleware(hm.config.JWTSecret))

	askbobHandler := NewAskBobHandler(hm.dispatcher, hm.repoManager.Calls(), hm.config.AskBobRatePerMinute)
	askbobHandler.SetupAskBobRoutes(apiRouter.PathPrefix("/askbob").Subrouter())

	callHandler := NewCallHandler(hm.callService, hm.repoManager)
	callHandler.SetupCallRoutes(apiRouter)

	logger.Base().Info("all application routes registered")
}

// handleHealthz reports readiness, including database connectivity.
func (hm *HandlerManager) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}

	if err := hm.repoManager.Ping(r.Context()); err != nil {
		logger.Base().Error("health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body = map[string]string{"status": "degraded", "database": "unreachable"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
