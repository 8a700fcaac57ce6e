// Command worker runs the Worker Loop entry point: it wires config,
// logging, Redis, MongoDB, and RabbitMQ together and consumes task
// deliveries until shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlfredDev/bestcombo/broker"
	"github.com/AlfredDev/bestcombo/cache"
	"github.com/AlfredDev/bestcombo/config"
	"github.com/AlfredDev/bestcombo/logger"
	"github.com/AlfredDev/bestcombo/redisclient"
	"github.com/AlfredDev/bestcombo/repository"
	"github.com/AlfredDev/bestcombo/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("bestcombo worker starting")

	rc, err := redisclient.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init failed")
	}
	if err := rc.Ping(); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	log.Info().Msg("redis connected")
	store := cache.NewRedisStore(rc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer mongoClient.Disconnect(context.Background())
	log.Info().Msg("mongo connected")
	repo := repository.NewMongoRepository(mongoClient.Database("bestcombo"))

	brokerClient, err := broker.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq dial failed")
	}
	defer brokerClient.Close()
	if err := brokerClient.DeclareQueue(ctx, cfg.TaskQueueName); err != nil {
		log.Fatal().Err(err).Msg("queue declare failed")
	}
	log.Info().Str("queue", cfg.TaskQueueName).Msg("rabbitmq connected")

	deliveries, err := brokerClient.Consume(ctx, cfg.TaskQueueName, "bestcombo-worker")
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	w := worker.New(store, repo, cfg.WorkerConcurrency, cfg.UseYearlyPrice, log)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	runDone := make(chan struct{})
	go func() {
		w.Run(ctx, deliveries)
		close(runDone)
	}()

	<-done
	log.Info().Msg("shutdown signal received, draining in-flight tasks")
	cancel()

	select {
	case <-runDone:
		log.Info().Msg("worker stopped gracefully")
	case <-time.After(cfg.GracefulTimeout):
		log.Warn().Msg("graceful timeout elapsed with tasks still in flight")
	}
}
