package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/botstatus"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/calendar"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/schedule"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/sdk"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"

	health_module "github.com/kernel-parrot-org/scrum-master-backend/internal/api/modules/health"
	meetbot_module "github.com/kernel-parrot-org/scrum-master-backend/internal/api/modules/meetbot"
	schedules_module "github.com/kernel-parrot-org/scrum-master-backend/internal/api/modules/schedules"
)

// Start wires the orchestration backend and serves it until interrupted.
// Background services (registry sweep, status sync, scheduler) are created
// once here and handed to the modules; shutdown cancels each of them and
// waits for completion.
func Start(cfg *utils.Config) {
	port := cfg.GetWithDefault("API_PORT", "8000")

	// Client against the bot worker service
	botClient := sdk.NewClient(cfg.GetWithDefault("BOT_SERVICE_URL", "http://localhost:8001"))

	// Status registry and its mirror of the worker's view
	registry := botstatus.NewRegistry()
	registry.Start()

	syncWorker := botstatus.NewSyncWorker(registry, botClient)
	syncWorker.Start()

	// Scheduler firing back into our own trigger boundary, as the schedule
	// owner
	triggerClient := sdk.NewClient(cfg.GetWithDefault("TRIGGER_URL", "http://localhost:"+port))
	scheduler := schedule.NewScheduler(func(meetURL, botName, userID, bearer string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := triggerClient.TriggerBot(ctx, &sdk.TriggerBotRequest{
			MeetURL: meetURL,
			BotName: botName,
		}, userID, bearer)
		return err
	})
	scheduler.Start()

	// Schedule persistence
	var store schedule.StoreInterface
	if dsn := cfg.Get("DATABASE_URL"); dsn != "" {
		gormStore, err := schedule.NewStore(dsn)
		if err != nil {
			log.Fatal("[API-MAIN]: Failed to open schedule store: ", err)
		}
		store = gormStore
	} else {
		log.Print("[API-MAIN]: DATABASE_URL not set, schedules held in memory")
		store = schedule.NewInMemoryStore()
	}

	// Add app level settings/routes
	engine := gin.Default()
	engine.SetTrustedProxies(nil)

	engine.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:  []string{"OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-User-ID", "X-Google-Token"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	baseGroup := engine.Group("/api/v1")

	health_module.RegisterRoutes(baseGroup)

	meetbot_module.RegisterRoutes(baseGroup)
	meetbot_module.Init(cfg, registry, botClient)

	schedules_module.RegisterRoutes(baseGroup)
	schedules_module.Init(cfg, store, scheduler, calendar.NewGoogleService(), calendar.NewICSService())

	// Re-register persisted schedules after a restart
	schedules_module.ReloadActiveSchedules(context.Background())

	srv := &http.Server{Addr: ":" + port, Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[API-MAIN]: Failed to start server: ", err)
		}
	}()
	log.Printf("[API-MAIN]: Serving on :%s", port)

	// Block until interrupted, then drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Print("[API-MAIN]: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API-MAIN]: Server shutdown: %v", err)
	}

	scheduler.Stop()
	syncWorker.Stop()
	registry.Stop()
}
