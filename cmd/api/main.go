package main

import (
	"log"
	"net/http"

	"gopower/adapters/api"
	"gopower/internal/config"
	"gopower/internal/container"

	"github.com/joho/godotenv"
)

// Runs the stateless JSON API on its own, without storage or the web UI
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	calc, err := container.NewCalculator(appConfig.Power)
	if err != nil {
		log.Fatalf("Failed to create calculator: %v", err)
	}

	addr := ":" + appConfig.Server.APIPort
	log.Printf("Starting API server on %s (z_alpha=%.4f)", addr, calc.ZAlpha())
	if err := http.ListenAndServe(addr, api.NewRouter(calc)); err != nil {
		log.Fatal("Server failed:", err)
	}
}
