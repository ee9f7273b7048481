package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
