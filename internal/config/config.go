package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/pkg/constants"
)

type Config struct {
	HTTPPort         string
	ProblemsDir      string
	MaxWorkers       int
	RunTimeoutMs     int
	EqualityMode     string
	CacheMaxEntries  int
	CacheTTLMinutes  int
	RabbitMQEnabled  bool
	RabbitMQURL      string
	ConsumeQueueName string
}

func NewConfig() *Config {
	logger := logger.NewNamedLogger("config")

	_, err := os.Stat(".env")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("failed to stat .env file with error: %v", err)
		}
	} else {
		if err := godotenv.Load(".env"); err != nil {
			logger.Fatalf("failed to load .env file with error: %v", err)
		}
	}

	httpPort, problemsDir := serverConfig()
	maxWorkers, runTimeoutMs := workerConfig()
	equalityMode := verifierConfig()
	cacheMaxEntries, cacheTTLMinutes := cacheConfig()
	rabbitmqEnabled, rabbitmqURL, queueName := rabbitmqConfig()

	return &Config{
		HTTPPort:         httpPort,
		ProblemsDir:      problemsDir,
		MaxWorkers:       maxWorkers,
		RunTimeoutMs:     runTimeoutMs,
		EqualityMode:     equalityMode,
		CacheMaxEntries:  cacheMaxEntries,
		CacheTTLMinutes:  cacheTTLMinutes,
		RabbitMQEnabled:  rabbitmqEnabled,
		RabbitMQURL:      rabbitmqURL,
		ConsumeQueueName: queueName,
	}
}

func serverConfig() (string, string) {
	logger := logger.NewNamedLogger("config")

	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = constants.DefaultHTTPPort
		logger.Warnf("HTTP_PORT is not set, using default value %s", constants.DefaultHTTPPort)
	}

	problemsDir := os.Getenv("PROBLEMS_DIR")
	if problemsDir == "" {
		problemsDir = constants.DefaultProblemsDir
		logger.Warnf("PROBLEMS_DIR is not set, using default value %s", constants.DefaultProblemsDir)
	}

	return httpPort, problemsDir
}

func workerConfig() (int, int) {
	logger := logger.NewNamedLogger("config")

	maxWorkers := constants.DefaultMaxWorkers
	maxWorkersStr := os.Getenv("MAX_WORKERS")
	if maxWorkersStr == "" {
		logger.Warnf("MAX_WORKERS is not set, using default value %d", constants.DefaultMaxWorkers)
	} else {
		parsed, err := strconv.Atoi(maxWorkersStr)
		if err != nil {
			logger.Fatalf("failed to parse MAX_WORKERS with error: %v", err)
		}
		if parsed <= 0 {
			logger.Fatalf("MAX_WORKERS must be positive, got %d", parsed)
		}
		maxWorkers = parsed
	}

	runTimeoutMs := constants.DefaultRunTimeoutMs
	runTimeoutStr := os.Getenv("RUN_TIMEOUT_MS")
	if runTimeoutStr == "" {
		logger.Warnf("RUN_TIMEOUT_MS is not set, using default value %d", constants.DefaultRunTimeoutMs)
	} else {
		parsed, err := strconv.Atoi(runTimeoutStr)
		if err != nil {
			logger.Fatalf("failed to parse RUN_TIMEOUT_MS with error: %v", err)
		}
		if parsed <= 0 {
			logger.Fatalf("RUN_TIMEOUT_MS must be positive, got %d", parsed)
		}
		runTimeoutMs = parsed
	}

	return maxWorkers, runTimeoutMs
}

func verifierConfig() string {
	logger := logger.NewNamedLogger("config")

	equalityMode := os.Getenv("EQUALITY_MODE")
	if equalityMode == "" {
		equalityMode = constants.DefaultEqualityMode
		logger.Warnf("EQUALITY_MODE is not set, using default value %s", constants.DefaultEqualityMode)
	}
	if equalityMode != constants.EqualityModeJSON && equalityMode != constants.EqualityModeStrict {
		logger.Fatalf("EQUALITY_MODE must be %q or %q, got %q",
			constants.EqualityModeJSON, constants.EqualityModeStrict, equalityMode)
	}

	return equalityMode
}

func cacheConfig() (int, int) {
	logger := logger.NewNamedLogger("config")

	maxEntries := constants.DefaultCacheMaxEntries
	maxEntriesStr := os.Getenv("CACHE_MAX_ENTRIES")
	if maxEntriesStr == "" {
		logger.Warnf("CACHE_MAX_ENTRIES is not set, using default value %d", constants.DefaultCacheMaxEntries)
	} else {
		parsed, err := strconv.Atoi(maxEntriesStr)
		if err != nil {
			logger.Fatalf("failed to parse CACHE_MAX_ENTRIES with error: %v", err)
		}
		if parsed < 0 {
			logger.Fatalf("CACHE_MAX_ENTRIES must not be negative, got %d", parsed)
		}
		maxEntries = parsed
	}

	ttlMinutes := constants.DefaultCacheTTLMinutes
	ttlStr := os.Getenv("CACHE_TTL_MINUTES")
	if ttlStr == "" {
		logger.Warnf("CACHE_TTL_MINUTES is not set, using default value %d", constants.DefaultCacheTTLMinutes)
	} else {
		parsed, err := strconv.Atoi(ttlStr)
		if err != nil {
			logger.Fatalf("failed to parse CACHE_TTL_MINUTES with error: %v", err)
		}
		if parsed <= 0 {
			logger.Fatalf("CACHE_TTL_MINUTES must be positive, got %d", parsed)
		}
		ttlMinutes = parsed
	}

	return maxEntries, ttlMinutes
}

func rabbitmqConfig() (bool, string, string) {
	logger := logger.NewNamedLogger("config")

	if os.Getenv("RABBITMQ_ENABLED") != "true" {
		logger.Warnf("RABBITMQ_ENABLED is not \"true\", queue consumer will not start")
		return false, "", constants.DefaultWorkerQueueName
	}

	rabbitmqHost := os.Getenv("RABBITMQ_HOST")
	if rabbitmqHost == "" {
		rabbitmqHost = constants.DefaultRabbitmqHost
		logger.Warnf("RABBITMQ_HOST is not set, using default value %s", constants.DefaultRabbitmqHost)
	}
	rabbitmqPortStr := os.Getenv("RABBITMQ_PORT")
	if rabbitmqPortStr == "" {
		rabbitmqPortStr = constants.DefaultRabbitmqPort
		logger.Warnf("RABBITMQ_PORT is not set, using default value %s", constants.DefaultRabbitmqPort)
	}
	rabbitmqPort, err := strconv.ParseUint(rabbitmqPortStr, 10, 16)
	if err != nil {
		logger.Fatalf("failed to parse RABBITMQ_PORT with error: %v", err)
	}
	rabbitmqUser := os.Getenv("RABBITMQ_USER")
	if rabbitmqUser == "" {
		rabbitmqUser = constants.DefaultRabbitmqUser
		logger.Warnf("RABBITMQ_USER is not set, using default value %s", constants.DefaultRabbitmqUser)
	}
	rabbitmqPassword := os.Getenv("RABBITMQ_PASSWORD")
	if rabbitmqPassword == "" {
		rabbitmqPassword = constants.DefaultRabbitmqPassword
		logger.Warnf("RABBITMQ_PASSWORD is not set, using default value %s", constants.DefaultRabbitmqPassword)
	}

	queueName := os.Getenv("WORKER_QUEUE_NAME")
	if queueName == "" {
		queueName = constants.DefaultWorkerQueueName
		logger.Warnf("WORKER_QUEUE_NAME is not set, using default value %s", constants.DefaultWorkerQueueName)
	}

	rabbitmqURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", rabbitmqUser, rabbitmqPassword, rabbitmqHost, rabbitmqPort)

	return true, rabbitmqURL, queueName
}
