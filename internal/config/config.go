package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ingestion.
	DatasetsDir       string
	StateDir          string
	ConverterCommand  string
	DecoderCommand    string
	DecoderArgs       []string
	IngestInterval    time.Duration
	ResolverCacheSize int

	// Observation publishing.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Query API.
	APIRateLimit int

	// Station catalog.
	OSCARURL         string
	OSCARTimeout     time.Duration
	StationCountries []string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory, if present, seeds variables that are not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	ingestInterval, err := parseDuration("INGEST_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}

	oscarTimeout, err := parseDuration("OSCAR_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	rateLimit, err := parsePositiveInt("API_RATE_LIMIT", 100)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("RESOLVER_CACHE_SIZE", 5000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetsDir:       sharedcfg.EnvOrDefault("DATASETS_DIR", "/data/datasets"),
		StateDir:          sharedcfg.EnvOrDefault("STATE_DIR", "/data/state"),
		ConverterCommand:  sharedcfg.EnvOrDefault("CONVERTER_COMMAND", "bufr_set"),
		DecoderCommand:    sharedcfg.EnvOrDefault("DECODER_COMMAND", "bufr2geojson"),
		DecoderArgs:       strings.Fields(os.Getenv("DECODER_ARGS")),
		IngestInterval:    ingestInterval,
		ResolverCacheSize: cacheSize,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "synop-observations"),

		APIRateLimit: rateLimit,

		OSCARURL:         sharedcfg.EnvOrDefault("OSCAR_URL", "https://oscar.wmo.int/surface/rest/api/search/station"),
		OSCARTimeout:     oscarTimeout,
		StationCountries: splitList(os.Getenv("STATION_COUNTRIES")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
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
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
