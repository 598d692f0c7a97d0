package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jlaster/fund-monitor/internal/alerting"
	"github.com/jlaster/fund-monitor/internal/api"
	"github.com/jlaster/fund-monitor/internal/config"
	"github.com/jlaster/fund-monitor/internal/database"
	"github.com/jlaster/fund-monitor/internal/extractor"
	"github.com/jlaster/fund-monitor/internal/kafka"
	"github.com/jlaster/fund-monitor/internal/marketdata"
	"github.com/jlaster/fund-monitor/internal/monitor"
	"github.com/jlaster/fund-monitor/internal/scheduler"
	"github.com/jlaster/fund-monitor/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})

	log.Info().Msg("Starting fund monitor")

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "db/migrations"
	}
	if err := db.Migrate(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	marketClient := marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, log)
	agentClient := extractor.NewAgentClient(cfg.Agent.BaseURL, cfg.Agent.APIKey, log)
	mailer := alerting.NewSMTPMailer(cfg.SMTP, log)

	var cooldown *alerting.Cooldown
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cooldown = alerting.NewCooldown(redisClient, time.Duration(cfg.Alerts.CooldownHours)*time.Hour, log)
	}

	symbols := cfg.MarketData.Symbols
	primary := symbols[0]
	benchmarks := symbols[1:]
	if len(benchmarks) > 2 {
		// Underperformance alerting watches the first two benchmarks only;
		// the rest still appear in the comparison endpoint.
		benchmarks = benchmarks[:2]
	}

	engine, err := alerting.NewEngine(cfg.Alerts, primary, benchmarks, mailer, cooldown, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure alerting")
	}

	var events monitor.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	}

	startDate, err := time.Parse("2006-01-02", cfg.MarketData.StartDate)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", cfg.MarketData.StartDate).Msg("Invalid comparison start date")
	}

	pipeline := monitor.New(db, agentClient, engine, marketClient, events, symbols, startDate, log)

	sched := scheduler.New(log)
	if err := sched.AddJob("0 0 * * *", scheduler.NewFundCheckJob(pipeline)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register fund check job")
	}
	if err := sched.AddJob("@hourly", scheduler.NewHeartbeatJob(log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register heartbeat job")
	}
	sched.Start()
	defer sched.Stop()

	handler := api.NewHandler(marketClient, db, pipeline, cfg.MarketData, log)
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
