package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if os.Getenv("SKIN_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: could not load .env: %v", err)
		}
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
