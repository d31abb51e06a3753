package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/config"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/email"
	http_controllers "github.com/ciaranmckenna/book-club/internal/http"
	"github.com/ciaranmckenna/book-club/internal/scheduler"
	"github.com/ciaranmckenna/book-club/internal/services"
	"github.com/ciaranmckenna/book-club/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until an interrupt or termination signal
// arrives, then shuts down gracefully inside the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the application together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Book Club v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Domain services
	bookService := services.NewBookCatalogService(db.DB)
	listService := services.NewReadingListService(db.DB)
	reviewService := services.NewReviewService(db.DB)
	categoryService := services.NewCategoryService(db.DB)
	userService := services.NewUserService(db.DB, cfg.Auth.BcryptCost)

	// Task queue and the reset notifier that rides on it
	sender := email.NewLogSender(cfg.Email.FromAddress)
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var notifier services.ResetNotifier
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewPasswordResetEmailQueue(sender, cfg.Email.BaseURL),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		notifier = tasks.NewNotifier(taskClient)
	} else {
		// Without workers, deliver inline on the request path.
		notifier = inlineNotifier{sender: sender, baseURL: cfg.Email.BaseURL}
	}

	resetService := services.NewPasswordResetService(db.DB, notifier, cfg.Auth.BcryptCost)

	// Sessions and CSRF
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(userService, sessionManager)
	authController := auth.NewController(userService, sessionManager, cfg.Auth)
	defer authController.Stop()

	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	// Maintenance scheduler
	var purgeScheduler *scheduler.TokenPurgeScheduler
	if cfg.Maintenance.Enabled {
		purgeScheduler = scheduler.NewTokenPurgeScheduler(resetService, cfg.Maintenance.TokenPurgeSchedule)
		if err := purgeScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start token purge scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          bookService,
		ReadingLists:   listService,
		Reviews:        reviewService,
		Categories:     categoryService,
		Users:          userService,
		PasswordReset:  resetService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthController: authController,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if purgeScheduler != nil {
			purgeScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// inlineNotifier delivers reset emails synchronously when the task
// queue is disabled.
type inlineNotifier struct {
	sender  email.Sender
	baseURL string
}

func (n inlineNotifier) NotifyPasswordReset(emailAddr, token string) error {
	return n.sender.SendPasswordReset(emailAddr, n.baseURL+"/reset-password?token="+token)
}
