// Command checkd serves the fcmp and lcmp checkers over HTTP and RabbitMQ.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/cmd"
	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/handlers"
	"github.com/judgenot0/judge-checker/queue"
	"github.com/judgenot0/judge-checker/scheduler"
	"github.com/judgenot0/judge-checker/utils"
)

func main() {
	utils.SetupLogger(nil, "", zerolog.InfoLevel)
	config := config.GetConfig()
	utils.SetupLogger(nil, config.LogLevel, zerolog.InfoLevel)

	queueManager := queue.NewQueue()
	handlers.FailOnError(queueManager.InitQueue(config), "Failed to initialize queue")

	handler := handlers.NewHandler(config)

	scheduler := scheduler.NewScheduler(handler, queueManager)
	handlers.FailOnError(scheduler.With(config.WorkerCount), "Failed to initialize scheduler")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := cmd.NewServer(config, queueManager, scheduler)
	server.RegisterMetrics(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("queue", config.QueueName).Msg("[*] Waiting for check requests. To exit press CTRL+C")
		if err := queueManager.StartConsume(ctx, scheduler); err != nil {
			log.Error().Err(err).Msg("Queue consumer stopped")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", config.HttpPort).Msg("[*] Server running")
		if err := server.Listen(ctx, config.HttpPort); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	log.Info().Msg("[*] Shutting down gracefully...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	shutdownDone := make(chan struct{})
	go func() {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		log.Info().Msg("[*] Server shut down successfully")
	case <-shutdownCtx.Done():
		log.Warn().Msg("[*] Shutdown timeout exceeded, forcing exit")
	}

	if err := queueManager.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing queue")
	}

	wg.Wait()
	log.Info().Msg("[*] Shutdown complete")
}
