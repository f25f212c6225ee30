package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"compass/internal/server"

	"github.com/joho/godotenv"
)

func gracefulShutdown(fiberServer *server.FiberServer, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("shutting down gracefully, press Ctrl+C again to force")

	if err := fiberServer.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("server forced to shutdown with error: %v", err)
	}
	done <- true
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment as-is")
	}

	app := server.New()
	app.RegisterFiberRoutes()

	done := make(chan bool, 1)
	go func() {
		port, _ := strconv.Atoi(os.Getenv("PORT"))
		if port == 0 {
			port = 8080
		}
		if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go gracefulShutdown(app, done)

	<-done
	log.Println("graceful shutdown complete")
}
