package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rankrocket/calendar-stacker/cmd/sync-service/handlers"
	"github.com/rankrocket/calendar-stacker/internal/config"
	"github.com/rankrocket/calendar-stacker/internal/google"
	"github.com/rankrocket/calendar-stacker/internal/queue"
	"github.com/rankrocket/calendar-stacker/internal/storage"
)

const ServiceVersion = "v1.0.0"

func init() {
	// Load environment variables FIRST from project root
	config.LoadEnv("../../.env")
}

func main() {
	fmt.Printf("Starting Sync Service %s...\n", ServiceVersion)

	cfg := config.LoadServiceConfig(os.Getenv("SERVICE_CONFIG_PATH"))

	// Initialize store (file-based or database)
	store, err := storage.NewStoreFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize store: %v", err))
	}
	defer store.Close()

	oauthClient := google.NewOAuthClient(cfg.GoogleTimeout())
	calendarService := google.NewCalendarService(store, oauthClient, cfg.GoogleTimeout())
	service := handlers.NewService(calendarService, cfg.GoogleTimeout())

	// Connect to RabbitMQ and start consuming
	conn, err := queue.Connect()
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}
	defer conn.Close()

	stackQueue := cfg.Queues.StackRequests
	if err := conn.DeclareQueue(stackQueue); err != nil {
		panic(fmt.Sprintf("Failed to declare queue: %v", err))
	}

	deliveries, err := conn.Consume(stackQueue)
	if err != nil {
		panic(fmt.Sprintf("Failed to start consumer: %v", err))
	}

	fmt.Printf("Sync Service consuming from %s...\n", stackQueue)
	for d := range deliveries {
		response := service.HandleRequest(d)

		// Reply when the caller asked for one (RPC style), otherwise the
		// response is only logged.
		if d.ReplyTo != "" {
			if err := conn.PublishReply(context.Background(), d.ReplyTo, d.CorrelationId, response); err != nil {
				fmt.Printf("Failed to publish reply: %v\n", err)
			}
		} else {
			fmt.Printf("Processed request: %s\n", string(response))
		}

		d.Ack(false)
	}
}
