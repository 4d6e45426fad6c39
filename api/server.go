package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"challenger/config"
	"challenger/infrastructure/observability"
	"challenger/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Services are the domain services the HTTP surface exposes
type Services struct {
	Matches        service.MatchService
	Wallets        service.WalletService
	Reconciliation service.ReconciliationService
	Authorization  service.AuthorizationService
}

// NewRouter builds the gin engine with every route registered
func NewRouter(cfg *config.Config, services Services, metrics *observability.MetricsProvider) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), requestMetrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	matches := NewMatchHandler(services.Matches)
	wallets := NewWalletHandler(services.Wallets)
	reconciliation := NewReconciliationHandler(services.Reconciliation)

	v1 := r.Group("/v1", AuthRequired(cfg))
	{
		v1.POST("/matches", matches.Create)
		v1.GET("/matches/open", matches.ListOpen)
		v1.GET("/matches/mine", matches.ListMine)
		v1.GET("/matches/:id", matches.Get)
		v1.POST("/matches/:id/accept", matches.Accept)
		v1.POST("/matches/:id/join", matches.Join)
		v1.POST("/matches/:id/cancel", matches.Cancel)
		v1.POST("/matches/:id/done", matches.MarkDone)
		v1.POST("/matches/:id/proof", matches.UploadProof)

		v1.GET("/wallet", wallets.GetSummary)
		v1.GET("/wallet/transactions", wallets.GetTransactions)
	}

	authz := services.Authorization
	admin := v1.Group("/admin")
	{
		admin.POST("/matches/:id/dispute", StaffRequired(authz, "dispute_match"), matches.Dispute)
		admin.POST("/matches/:id/settle", StaffRequired(authz, "settle_match"), matches.Settle)
		admin.POST("/matches/:id/void", StaffRequired(authz, "void_match"), matches.Void)
		admin.GET("/reconciliation/duplicates", StaffRequired(authz, "analyze_duplicates"), reconciliation.Analyze)
		admin.POST("/reconciliation/duplicates/fix", StaffRequired(authz, "fix_duplicates"), reconciliation.Fix)
	}

	return r
}

// Server wraps the HTTP server lifecycle
type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// Start serves in the background; listen errors are logged
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
