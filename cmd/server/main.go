package main

import (
	"log"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/server"
)

func main() {
	cfg := config.Load()
	logEntry := logger.New("taskboard", cfg.LogLevel, cfg.LogFormat)

	s, err := server.Init(cfg, logEntry, nil)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
