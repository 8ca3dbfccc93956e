package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messenger/config"
	"messenger/internal/handler"
	"messenger/internal/middleware"
	"messenger/internal/services"
	"messenger/internal/transport/httpdto"
	"messenger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Lists    *handler.ListHandler
	Chats    *handler.ChatHandler
	Messages *handler.MessageHandler
	Account  *handler.AccountHandler
}

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.AppMode {
	case ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, health HealthFunc) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				s.logger.Error(c.Request.Context(), "health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("storage unavailable", "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	requireAuth := middleware.AuthMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
	}

	v1 := s.engine.Group("/v1", requireAuth)

	lists := v1.Group("/lists")
	{
		lists.GET("/:kind", handlers.Lists.Members)
		lists.POST("/:kind", handlers.Lists.Add)
		lists.DELETE("/:kind/:login", handlers.Lists.Remove)
	}

	chats := v1.Group("/chats")
	{
		chats.GET("", handlers.Chats.List)
		chats.POST("", handlers.Chats.Start)
		chats.DELETE("/:id", handlers.Chats.Delete)
		chats.GET("/:id/members", handlers.Chats.Members)
		chats.POST("/:id/members", handlers.Chats.AddMember)
		chats.DELETE("/:id/members/:login", handlers.Chats.RemoveMember)
		chats.GET("/:id/messages", handlers.Messages.History)
		chats.POST("/:id/messages", handlers.Messages.Send)
		chats.PATCH("/:id/messages/:msgID", handlers.Messages.Edit)
		chats.DELETE("/:id/messages/:msgID", handlers.Messages.Delete)
	}

	account := v1.Group("/account")
	{
		account.GET("", handlers.Account.Profile)
		account.PUT("/status", handlers.Account.UpdateStatus)
		account.DELETE("", handlers.Account.Delete)
	}
}

func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Error in starting the server: %s", err)
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
