package main

import (
	"os"

	"chatrelay/backend/internal/app"
)

// @title           ChatRelay API
// @version         1.0
// @description     Authenticated chat gateway that relays conversations to Gemini, DeepSeek, and local Ollama models.
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	os.Exit(app.Run())
}
