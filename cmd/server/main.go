package main

import (
	"log"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"shiply_server/internal/config"
	"shiply_server/internal/logger"
	"shiply_server/internal/middleware"
	"shiply_server/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database and run migrations
	config.InitDB()

	// Setup Gin router
	r := routes.SetupRouter()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Request logging middleware
	r.Use(ginlog.SetLogger())

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := config.GetEnv("APP_HOST", "0.0.0.0") + ":" + config.GetEnv("APP_PORT", "8080")
	log.Println("🚀 Server running at " + addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
