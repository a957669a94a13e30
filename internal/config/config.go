package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset location. DatasetURL wins over DatasetPath when set.
	DatasetPath      string
	DatasetURL       string
	DatasetTimeout   time.Duration
	DatasetAttempts  int
	DatasetCacheSize int

	PlaybackBaseInterval time.Duration
	PlaybackDefaultYear  string

	// Playback event sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	datasetTimeout, err := parsePositiveDuration("DATASET_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	baseInterval, err := parsePositiveDuration("PLAYBACK_BASE_INTERVAL", "400ms")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("DATASET_CACHE_SIZE", 32)
	if err != nil {
		return nil, err
	}

	attempts, err := parsePositiveInt("DATASET_FETCH_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetPath:      sharedcfg.EnvOrDefault("DATASET_PATH", "hurricane.csv"),
		DatasetURL:       os.Getenv("DATASET_URL"),
		DatasetTimeout:   datasetTimeout,
		DatasetAttempts:  attempts,
		DatasetCacheSize: cacheSize,

		PlaybackBaseInterval: baseInterval,
		PlaybackDefaultYear:  sharedcfg.EnvOrDefault("PLAYBACK_DEFAULT_YEAR", "all"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "storm-playback-events"),
	}

	if cfg.DatasetPath == "" && cfg.DatasetURL == "" {
		return nil, errors.New("DATASET_PATH or DATASET_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
