package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/bot"
	"github.com/Pikkuherkko/HH-Lotto/config"
	"github.com/Pikkuherkko/HH-Lotto/database"
	"github.com/Pikkuherkko/HH-Lotto/events"
	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/Pikkuherkko/HH-Lotto/oracle"
	"github.com/Pikkuherkko/HH-Lotto/raffle"
	"github.com/Pikkuherkko/HH-Lotto/repository"
	"github.com/Pikkuherkko/HH-Lotto/server"
	"github.com/Pikkuherkko/HH-Lotto/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting raffle engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize the treasury
	var treasury *service.Treasury
	if cfg.PullPayouts {
		treasury = service.NewPullTreasury(uowFactory)
	} else {
		treasury = service.NewTreasury(uowFactory)
	}

	// Initialize the randomness source
	var source raffle.RandomnessSource
	var natsClient *oracle.Client
	var localSource *oracle.LocalSource
	if cfg.NATSURL != "" {
		log.Println("Connecting to NATS...")
		natsClient = oracle.NewClient(cfg.NATSURL)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := natsClient.EnsureOracleStream([]string{cfg.RequestSubject, cfg.FulfillmentSubject}); err != nil {
			return fmt.Errorf("failed to ensure oracle stream: %w", err)
		}
		source = oracle.NewNATSSource(natsClient, cfg.RequestSubject)
	} else {
		log.Println("No NATS URL configured, using local dev oracle")
		localSource = oracle.NewLocalSource(cfg.LocalOracleDelay)
		source = localSource
	}

	// Initialize the raffle engine
	roundConfig := models.RoundConfig{
		EntranceFee:   cfg.EntranceFee,
		Interval:      cfg.DrawInterval,
		KeyParams:     cfg.KeyParams,
		Confirmations: cfg.Confirmations,
		CallbackLimit: cfg.CallbackLimit,
		NumWords:      1,
	}
	engine, err := raffle.New(roundConfig, source, treasury, treasury, eventBus)
	if err != nil {
		return fmt.Errorf("failed to create raffle engine: %w", err)
	}

	// Reload any open round from the journal before accepting traffic
	if err := service.RestoreFromJournal(ctx, engine, uowFactory); err != nil {
		return fmt.Errorf("failed to restore raffle state: %w", err)
	}

	// Initialize services
	raffleService := service.NewRaffleService(engine, uowFactory)
	accountService := service.NewAccountService(uowFactory, cfg.StartingBalance)

	// Route fulfillments into the raffle
	if natsClient != nil {
		consumer := oracle.NewFulfillmentConsumer(natsClient, cfg.FulfillmentSubject, raffleService)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start fulfillment consumer: %w", err)
		}
	} else {
		localSource.Bind(raffleService)
	}

	// Initialize the Discord announcer
	var announcer *bot.Announcer
	if cfg.AnnouncerEnabled() {
		log.Println("Initializing Discord announcer...")
		announcer, err = bot.New(bot.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
		}, eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord announcer: %w", err)
		}
	}

	// Start the HTTP server
	httpServer := server.New(cfg.HTTPAddr, raffleService, accountService)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	log.Printf("Raffle engine is running in %s mode...", cfg.Environment)
	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if announcer != nil {
		if err := announcer.Close(); err != nil {
			log.Printf("Error closing Discord announcer: %v", err)
		}
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
