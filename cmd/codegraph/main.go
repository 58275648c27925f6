package main

import (
	"github.com/joho/godotenv"

	"github.com/ehcaw/codegraph/internal/cli"
)

func main() {
	// Best effort: GEMINI_API_KEY may come from a .env file or the
	// environment proper.
	_ = godotenv.Load()

	cli.Execute()
}
