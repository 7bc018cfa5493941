package main

import (
	"log"

	"github.com/trailpost/trailpost/config"
	"github.com/trailpost/trailpost/internal/api"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	api.StartServer(cfg)
}
