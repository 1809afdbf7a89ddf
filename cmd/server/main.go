package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub/internal/auth"
	"learnhub/internal/database"
	"learnhub/internal/handlers"
	"learnhub/internal/notification"
	"learnhub/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env in development; production sets real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Initialize services
	emailService := services.NewEmailService()

	imageService, err := services.NewImageService()
	if err != nil {
		log.Printf("Warning: Image uploads disabled: %v", err)
		imageService = nil
	}

	// Wire the notification core: in-memory feed store, DB-backed event
	// source, best-effort reminder emails
	feedStore := notification.NewMemoryFeedStore()
	eventSource := services.NewGormEventSource(database.GetDB())
	mailer := services.NewReminderMailer(database.GetDB(), emailService)
	dispatcher := notification.NewDispatcher(eventSource, feedStore, mailer)
	scheduler := notification.NewScheduler(dispatcher)

	handlers.Init(feedStore, imageService, emailService)

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// CORS for the React frontend
	frontendOrigin := os.Getenv("FRONTEND_ORIGIN")
	if frontendOrigin == "" {
		frontendOrigin = "http://localhost:5173"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no auth required)
	router.POST("/auth/login", handlers.Login)

	// Account routes (no auth required)
	router.POST("/accounts", handlers.CreateAccount)
	router.GET("/accounts/:username", handlers.GetAccount)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		// Auth routes that require authentication
		protected.POST("/auth/logout", handlers.Logout)
		protected.GET("/auth/me", handlers.GetCurrentUser)
		protected.POST("/accounts/avatar", handlers.UploadAvatar)

		// Course module routes
		protected.POST("/modules", handlers.CreateModule)
		protected.GET("/modules", handlers.GetModules)
		protected.GET("/modules/:module_id", handlers.GetModuleByID)
		protected.PUT("/modules/:module_id", handlers.UpdateModule)
		protected.DELETE("/modules/:module_id", handlers.DeleteModule)
		protected.POST("/modules/:module_id/cover", handlers.UploadModuleCover)

		// Learning event routes
		protected.POST("/events", handlers.CreateEvent)
		protected.GET("/events", handlers.GetEvents)
		protected.GET("/events/:event_id", handlers.GetEventByID)
		protected.PUT("/events/:event_id", handlers.UpdateEvent)
		protected.PATCH("/events/:event_id/status", handlers.UpdateEventStatus)
		protected.DELETE("/events/:event_id", handlers.DeleteEvent)

		// Notification feed routes
		protected.GET("/notifications", handlers.ListNotifications)
		protected.POST("/notifications/:notification_id/read", handlers.MarkNotificationRead)
		protected.POST("/notifications/read-all", handlers.MarkAllNotificationsRead)

		// Venue validation for in-person sessions
		protected.GET("/locations/validate", handlers.ValidateVenue)
	}

	// Start the reminder scheduler
	scheduler.Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s...", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Wait for shutdown signal, then stop the scheduler and drain the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error: Server shutdown failed: %v", err)
	}
}
