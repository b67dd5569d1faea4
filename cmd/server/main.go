package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familysafe/internal/config"
	"familysafe/internal/database"
	"familysafe/internal/handlers"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
	"familysafe/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	destinationRepo := repository.NewDestinationRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)

	// Realtime fan-out
	hub := realtime.NewHub(64)
	defer hub.Close()
	tokens := realtime.NewTokenIssuer(cfg.RealtimeTokenSecret)

	// Initialize services
	emailService := service.NewEmailService(cfg)
	authService := service.NewAuthService(profileRepo, cfg)
	rosterService := service.NewRosterService(profileRepo, memberRepo, linkRepo, scheduleRepo, destinationRepo, historyRepo)
	presenceService := service.NewPresenceService(presenceRepo, hub)
	alertService := service.NewAlertService(alertRepo, memberRepo, linkRepo, profileRepo, hub, emailService)
	locationService := service.NewLocationService(memberRepo, historyRepo, destinationRepo, linkRepo, hub, alertService)
	messageService := service.NewMessageService(messageRepo, linkRepo, hub)
	groupService := service.NewGroupService(groupRepo, hub)
	scheduleService := service.NewScheduleService(scheduleRepo, destinationRepo, linkRepo, memberRepo)
	avatarService := service.NewAvatarService(cfg.StaticFilesPath, cfg.PublicBaseURL, cfg.UploadMaxSize)
	streamService := service.NewStreamService(linkRepo, memberRepo, groupRepo, tokens)

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, rosterService)
	rosterHandler := handlers.NewRosterHandler(rosterService, presenceService)
	locationHandler := handlers.NewLocationHandler(locationService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	alertHandler := handlers.NewAlertHandler(alertService)
	messageHandler := handlers.NewMessageHandler(messageService)
	groupHandler := handlers.NewGroupHandler(groupService)
	presenceHandler := handlers.NewPresenceHandler(presenceService)
	avatarHandler := handlers.NewAvatarHandler(avatarService, profileRepo, cfg.UploadMaxSize)
	realtimeHandler := handlers.NewRealtimeHandler(hub, streamService)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Auth routes
	mux.HandleFunc("POST /api/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/me/complete", middleware.RequireAuth(authHandler.CompleteProfile))
	mux.HandleFunc("PUT /api/me", middleware.RequireAuth(authHandler.UpdateProfile))
	mux.HandleFunc("POST /api/me/avatar", middleware.RequireAuth(avatarHandler.Upload))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Family graph and roster
	mux.HandleFunc("GET /api/roster", middleware.RequireRole("parent", rosterHandler.GetRoster))
	mux.HandleFunc("POST /api/roster/link", middleware.RequireRole("parent", rosterHandler.LinkChild))
	mux.HandleFunc("DELETE /api/roster/link/{childId}", middleware.RequireRole("parent", rosterHandler.UnlinkChild))
	mux.HandleFunc("GET /api/members/{id}", middleware.RequireAuth(rosterHandler.GetMember))
	mux.HandleFunc("GET /api/self/member", middleware.RequireRole("child", rosterHandler.GetSelf))

	// Location and tracking
	mux.HandleFunc("POST /api/location", middleware.RequireRole("child", locationHandler.RecordPosition))
	mux.HandleFunc("POST /api/battery", middleware.RequireRole("child", locationHandler.ReportBattery))
	mux.HandleFunc("PUT /api/members/{id}/gps", middleware.RequireAuth(locationHandler.SetGPSEnabled))
	mux.HandleFunc("GET /api/members/{id}/history", middleware.RequireAuth(locationHandler.GetHistory))

	// Schedules and destinations
	mux.HandleFunc("GET /api/members/{id}/schedules", middleware.RequireAuth(scheduleHandler.ListSchedules))
	mux.HandleFunc("POST /api/members/{id}/schedules", middleware.RequireAuth(scheduleHandler.CreateSchedule))
	mux.HandleFunc("PUT /api/schedules/{scheduleId}", middleware.RequireAuth(scheduleHandler.UpdateSchedule))
	mux.HandleFunc("PUT /api/schedules/{scheduleId}/complete", middleware.RequireAuth(scheduleHandler.CompleteSchedule))
	mux.HandleFunc("DELETE /api/schedules/{scheduleId}", middleware.RequireAuth(scheduleHandler.DeleteSchedule))
	mux.HandleFunc("GET /api/members/{id}/destinations", middleware.RequireAuth(scheduleHandler.ListDestinations))
	mux.HandleFunc("POST /api/members/{id}/destinations", middleware.RequireAuth(scheduleHandler.CreateDestination))
	mux.HandleFunc("PUT /api/destinations/{destinationId}/activate", middleware.RequireAuth(scheduleHandler.ActivateDestination))
	mux.HandleFunc("DELETE /api/destinations/{destinationId}", middleware.RequireAuth(scheduleHandler.DeleteDestination))

	// Alerts
	mux.HandleFunc("POST /api/alerts", middleware.RequireAuth(alertHandler.Raise))
	mux.HandleFunc("GET /api/alerts", middleware.RequireAuth(alertHandler.List))
	mux.HandleFunc("PUT /api/alerts/{id}/read", middleware.RequireAuth(alertHandler.MarkRead))
	mux.HandleFunc("DELETE /api/alerts/{id}", middleware.RequireAuth(alertHandler.Delete))

	// Direct messages
	mux.HandleFunc("POST /api/messages", middleware.RequireAuth(messageHandler.Send))
	mux.HandleFunc("GET /api/messages/{peerId}", middleware.RequireAuth(messageHandler.Conversation))
	mux.HandleFunc("PUT /api/messages/{id}", middleware.RequireAuth(messageHandler.Edit))
	mux.HandleFunc("DELETE /api/messages/{id}", middleware.RequireAuth(messageHandler.Delete))
	mux.HandleFunc("PUT /api/messages/{peerId}/read", middleware.RequireAuth(messageHandler.MarkRead))
	mux.HandleFunc("GET /api/messages/{peerId}/unread", middleware.RequireAuth(messageHandler.UnreadCount))

	// Groups
	mux.HandleFunc("POST /api/groups", middleware.RequireAuth(groupHandler.Create))
	mux.HandleFunc("GET /api/groups", middleware.RequireAuth(groupHandler.List))
	mux.HandleFunc("PUT /api/groups/{id}", middleware.RequireAuth(groupHandler.Update))
	mux.HandleFunc("DELETE /api/groups/{id}", middleware.RequireAuth(groupHandler.Delete))
	mux.HandleFunc("PUT /api/groups/{id}/owner", middleware.RequireAuth(groupHandler.TransferOwnership))
	mux.HandleFunc("GET /api/groups/{id}/members", middleware.RequireAuth(groupHandler.Members))
	mux.HandleFunc("POST /api/groups/{id}/members", middleware.RequireAuth(groupHandler.AddMember))
	mux.HandleFunc("DELETE /api/groups/{id}/members/{userId}", middleware.RequireAuth(groupHandler.RemoveMember))
	mux.HandleFunc("GET /api/groups/{id}/messages", middleware.RequireAuth(groupHandler.Messages))
	mux.HandleFunc("POST /api/groups/{id}/messages", middleware.RequireAuth(groupHandler.SendMessage))
	mux.HandleFunc("PUT /api/group-messages/{messageId}", middleware.RequireAuth(groupHandler.EditMessage))
	mux.HandleFunc("DELETE /api/group-messages/{messageId}", middleware.RequireAuth(groupHandler.DeleteMessage))
	mux.HandleFunc("POST /api/group-messages/{messageId}/read", middleware.RequireAuth(groupHandler.MarkMessageRead))

	// Presence
	mux.HandleFunc("POST /api/presence", middleware.RequireAuth(presenceHandler.Heartbeat))
	mux.HandleFunc("POST /api/presence/statuses", middleware.RequireAuth(presenceHandler.Statuses))

	// Realtime stream
	mux.HandleFunc("GET /api/realtime/token", middleware.RequireAuth(realtimeHandler.Token))
	mux.HandleFunc("GET /api/realtime/ws", realtimeHandler.Stream)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background sweepers
	go cleanupExpiredSessions(authService)
	go pruneLocationHistory(historyRepo)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Failed to cleanup expired sessions: %v", err)
		}
	}
}

// pruneLocationHistory periodically drops trail entries older than 30 days
func pruneLocationHistory(history *repository.HistoryRepository) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().AddDate(0, 0, -30)
		pruned, err := history.DeleteOlderThan(cutoff)
		if err != nil {
			log.Printf("Failed to prune location history: %v", err)
			continue
		}
		if pruned > 0 {
			log.Printf("Pruned %d location history entries", pruned)
		}
	}
}
