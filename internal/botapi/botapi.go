package botapi

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

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/meetbot"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"

	bots_module "github.com/kernel-parrot-org/scrum-master-backend/internal/botapi/modules/bots"
)

// Start wires the bot worker service and serves it until interrupted. The
// service owns a single-slot adapter; a second start request while a session
// is in flight is refused with 409.
func Start(cfg *utils.Config) {
	port := cfg.GetWithDefault("BOT_API_PORT", "8001")

	selectors := meetbot.DefaultSelectors()
	if path := cfg.Get("SELECTOR_CONFIG"); path != "" {
		if loaded, err := meetbot.LoadSelectors(path); err != nil {
			log.Printf("[BOT-MAIN]: Selector config ignored: %v", err)
		} else {
			selectors = loaded
		}
	}

	adapter := meetbot.NewAdapter(meetbot.SessionOptions{
		BotName:        cfg.GetWithDefault("BOT_NAME", "Scrum Bot"),
		MinRecordTime:  time.Duration(cfg.GetIntWithDefault("MIN_RECORD_SECONDS", 3600)) * time.Second,
		MaxWaitingTime: time.Duration(cfg.GetIntWithDefault("MAX_WAIT_SECONDS", 1800)) * time.Second,
		OutputDir:      cfg.GetWithDefault("OUTPUT_DIR", "out"),
		Headless:       cfg.GetBoolWithDefault("HEADLESS", true),
		Selectors:      &selectors,
	})

	// Add app level settings/routes
	engine := gin.Default()
	engine.SetTrustedProxies(nil)

	engine.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:  []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	baseGroup := engine.Group("/api/v1")

	bots_module.RegisterRoutes(baseGroup)
	bots_module.Init(cfg, adapter)

	srv := &http.Server{Addr: ":" + port, Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[BOT-MAIN]: Failed to start server: ", err)
		}
	}()
	log.Printf("[BOT-MAIN]: Serving on :%s", port)

	// Block until interrupted, then drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Print("[BOT-MAIN]: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[BOT-MAIN]: Server shutdown: %v", err)
	}

	// Ask the in-flight session (if any) to wind down
	adapter.Stop()
}
