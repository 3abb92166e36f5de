package main

import (
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skilldocs/grader/internal/config"
	"github.com/skilldocs/grader/internal/httpapi"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/pipeline"
	"github.com/skilldocs/grader/internal/problems"
	"github.com/skilldocs/grader/internal/rabbitmq/channel"
	"github.com/skilldocs/grader/internal/rabbitmq/consumer"
	"github.com/skilldocs/grader/internal/rabbitmq/responder"
	"github.com/skilldocs/grader/internal/scheduler"
	"github.com/skilldocs/grader/internal/session"
	"github.com/skilldocs/grader/internal/stages/compiler"
	"github.com/skilldocs/grader/internal/stages/runner"
	"github.com/skilldocs/grader/internal/stages/verifier"
	"github.com/skilldocs/grader/internal/storage"
)

func main() {
	logger := logger.NewNamedLogger("main")

	logger.Info("Starting grader")

	cfg := config.NewConfig()

	store, err := problems.NewStoreFromDir(cfg.ProblemsDir)
	if err != nil {
		logger.Fatalf("Failed to load problem definitions: %s", err.Error())
	}

	comp := compiler.NewCompiler(cfg.RunTimeoutMs)
	run := runner.NewRunner(cfg.RunTimeoutMs)
	ver := verifier.NewVerifier(cfg.EqualityMode)

	sched := scheduler.NewScheduler(cfg.MaxWorkers, func(id int) pipeline.Worker {
		return pipeline.NewWorker(id, comp, run, ver, cfg.RunTimeoutMs)
	})

	cache := storage.NewResultCache(
		cfg.CacheMaxEntries,
		time.Duration(cfg.CacheTTLMinutes)*time.Minute,
	)
	sessions := session.NewManager()

	if cfg.RabbitMQEnabled {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %s", err.Error())
		}
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Errorf("Failed to close RabbitMQ connection: %s", err.Error())
			}
		}()

		amqpChannel, err := conn.Channel()
		if err != nil {
			logger.Fatalf("Failed to open RabbitMQ channel: %s", err.Error())
		}

		ch := channel.NewAmqpChannel(amqpChannel)
		resp := responder.NewResponder(ch)
		cons := consumer.NewConsumer(ch, cfg.ConsumeQueueName, store, sched, resp)

		logger.Infof("Starting queue consumer on %s", cfg.ConsumeQueueName)
		go cons.Listen()
	}

	handler := httpapi.NewHandler(store, sessions, sched, cache, cfg.EqualityMode)

	logger.Infof("Listening on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Routes()); err != nil {
		logger.Fatalf("HTTP server failed: %s", err.Error())
	}
}
