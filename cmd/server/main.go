package main

import (
	_ "github.com/eleven-am/mohami/docs"
	"github.com/eleven-am/mohami/internal/bootstrap"
)

// @title Mohami API
// @version 1.0.0
// @description Backend for the Mohami law-study voice tutor

// @BasePath /api/v1

// @securityDefinitions.apikey GeminiKey
// @in header
// @name X-Goog-Api-Key

func main() {
	bootstrap.Run()
}
