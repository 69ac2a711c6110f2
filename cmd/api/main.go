package main

import (
	"os"

	"github.com/kernel-parrot-org/scrum-master-backend/internal/api"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"
)

func main() {
	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}

	// All wiring lives in the api package; main only resolves config
	api.Start(utils.NewConfigFromEnv(envFile))
}
