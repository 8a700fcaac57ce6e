// Command dispatcher wires the Request Dispatcher's collaborators
// (cache, broker, repository) and exposes a *dispatcher.Dispatcher
// ready to serve queries.
//
// The public query surface — request parsing, routing, auth, CORS — is
// an external collaborator per spec.md §1 and is deliberately not built
// here; this entry point only proves out the core's wiring and keeps
// the process alive so an external front end (or a future in-repo one)
// can be attached without re-deriving the startup sequence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlfredDev/bestcombo/broker"
	"github.com/AlfredDev/bestcombo/cache"
	"github.com/AlfredDev/bestcombo/config"
	"github.com/AlfredDev/bestcombo/dispatcher"
	"github.com/AlfredDev/bestcombo/logger"
	"github.com/AlfredDev/bestcombo/redisclient"
	"github.com/AlfredDev/bestcombo/repository"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("bestcombo dispatcher starting")

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

	d := dispatcher.New(store, brokerClient, repo, cfg.TaskQueueName, log)
	_ = d // attached to an external request surface; see package doc.

	log.Info().Msg("dispatcher ready")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info().Msg("shutdown signal received, dispatcher stopped")
}
