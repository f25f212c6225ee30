package server

import (
	"os"
	"time"

	"compass/internal/database"
	"compass/internal/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

type FiberServer struct {
	*fiber.App

	db        database.Service
	logins    ratelimit.Limiter
	jwtSecret []byte
}

func New() *FiberServer {
	return NewWithOptions(database.New(), ratelimit.NewFixedWindow(15*time.Minute, 5))
}

// NewWithOptions wires an explicit database and login limiter; tests use it
// to inject a container database and a tight window.
func NewWithOptions(db database.Service, logins ratelimit.Limiter) *FiberServer {
	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader: "compass",
			AppName:      "compass",
		}),
		db:        db,
		logins:    logins,
		jwtSecret: jwtSecret(),
	}
	server.App.Use(favicon.New())
	server.App.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization,X-Requested-With",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		MaxAge:       3600,
	}))
	server.App.Use(logger.New())
	return server
}

func corsOrigins() string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "http://localhost:5173"
}

func jwtSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("secret")
}
