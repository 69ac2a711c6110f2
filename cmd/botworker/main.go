package main

import (
	"os"

	"github.com/kernel-parrot-org/scrum-master-backend/internal/botapi"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"
)

// Entrypoint for the meeting bot worker. Runs alongside cmd/api, usually on
// its own host with a browser available.
func main() {
	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}
	cfg := utils.NewConfigFromEnv(envFile)

	botapi.Start(cfg)
}
