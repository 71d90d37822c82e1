package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/apiclient"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/notify"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Engine *gin.Engine
	Config *config.Config
	Log    *logrus.Entry
}

// Init wires the backend client, repository, sessions and page handlers.
// backend may be nil, in which case an adapter for cfg.BackendURL is built.
func Init(cfg *config.Config, log *logrus.Entry, backend repository.Backend) (*Server, error) {
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("❌ BACKEND_URL is not set")
	}
	if backend == nil {
		backend = apiclient.New(cfg.BackendURL, apiclient.WithLogger(log))
	}
	log.WithField("backend", cfg.BackendURL).Info("✅ Task backend configured")

	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	default:
		log.Warnf("⚠️  Unknown GIN_MODE %q, using release", cfg.GinMode)
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics())
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20

	tmpl, err := handler.Templates()
	if err != nil {
		return nil, fmt.Errorf("❌ failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(backend)

	// Initialize handlers
	flash := notify.NewFlashStore(10)
	sessions := handler.NewSessionStore(taskRepo, flash, cfg.SessionTTL, log)
	taskHandler := handler.NewTaskHandler(taskRepo, sessions, flash, cfg.MaxUploadMB<<20, log)

	// Operational routes
	r.GET("/healthz", taskHandler.Health)
	r.GET("/metrics", middleware.MetricsHandler())

	// List page
	r.GET("/", taskHandler.List)
	r.GET("/tasks/:id/edit", taskHandler.Edit)
	r.POST("/tasks/:id/delete", taskHandler.RequestDelete)
	r.POST("/delete/confirm", taskHandler.ConfirmDelete)
	r.POST("/delete/cancel", taskHandler.CancelDelete)

	// Form page
	r.GET("/create", taskHandler.NewForm)
	r.GET("/create/:taskId", taskHandler.EditForm)
	r.POST("/create", taskHandler.SubmitCreate)
	r.POST("/create/:taskId", taskHandler.SubmitEdit)

	return &Server{
		Engine: r,
		Config: cfg,
		Log:    log,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	s.Log.Info("✅ Server exited properly")
}
