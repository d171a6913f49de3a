package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boehmtech/task-tracker/internal/config"
	"github.com/boehmtech/task-tracker/internal/database"
	"github.com/boehmtech/task-tracker/internal/handlers"
	"github.com/boehmtech/task-tracker/internal/logging"
	"github.com/boehmtech/task-tracker/internal/middleware"
	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/repository"
	"github.com/boehmtech/task-tracker/internal/services"
	"github.com/boehmtech/task-tracker/internal/storage"
	"github.com/boehmtech/task-tracker/internal/token"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	if err := database.Connect(&cfg); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	if err := seedSuperadmin(userRepo, &cfg); err != nil {
		logger.Fatalf("Failed to seed superadmin: %v", err)
	}

	blobs, err := storage.NewLocalBlobStore(cfg.UploadDir)
	if err != nil {
		logger.Fatalf("Failed to initialize blob store: %v", err)
	}

	tokens := token.NewManager(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, blobs)

	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	requireAuth := middleware.RequireAuth(tokens, userRepo)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", middleware.RequireRole(models.RoleAdmin), userHandler.ListUsers)
			users.POST("", middleware.RequireRole(models.RoleAdmin), userHandler.CreateUser)
			users.GET("/search", middleware.RequireRole(models.RoleAdmin), userHandler.SearchUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeactivateUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", middleware.RequireRole(models.RoleAdmin), taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/updates", taskHandler.AddTaskUpdate)
		}

		api.GET("/dashboard/stats", requireAuth, taskHandler.DashboardStats)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		logger.Infof("Server starting on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

// seedSuperadmin creates the default superadmin account on first boot.
func seedSuperadmin(userRepo repository.UserRepository, cfg *config.Config) error {
	_, err := userRepo.FindByUsername(cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return userRepo.Create(&models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hashed),
		DisplayName:  "Administrator",
		Role:         models.RoleSuperadmin,
		IsActive:     true,
	})
}
