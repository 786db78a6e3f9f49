package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// Subscriber directory implementations selectable via SUBSCRIBER_SOURCE.
const (
	SubscriberSourceHTTP   = "http"
	SubscriberSourceStatic = "static"
	SubscriberSourceNone   = "none"
)

const defaultSourceURL = "https://anrweb.vt.gov/FPR/SwimWater/CityOfBurlingtonPublicReport.aspx"

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceURL    string
	FetchTimeout time.Duration

	BeachesFile  string
	Coordinates  domain.CoordinateTable
	TrackedBeach domain.TrackedBeach

	SnapshotPath   string
	HistoryPath    string
	DailySnapshots bool

	RunInterval  time.Duration
	RetryInitial time.Duration

	NtfyBaseURL string
	NtfyTopic   string
	NtfyTitle   string
	NtfyTimeout time.Duration

	SubscriberSource   string
	SubscribersURL     string
	SubscribersToken   string
	StaticSubscribers  []string
	SubscribersTimeout time.Duration

	// Change feed, enabled when KAFKA_BROKERS is set.
	KafkaBrokers []string
	KafkaTopic   string

	DynamoHistoryTable string

	// Mapbox geocoding fallback for beaches missing from the coordinate table.
	MapboxToken     string
	MapboxRegion    string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
	LogMaxAgeDays   int
	ShutdownTimeout time.Duration
}

// KafkaEnabled reports whether the change feed should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	runInterval, err := parsePositiveDuration("RUN_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}
	retryInitial, err := parsePositiveDuration("RETRY_INITIAL", "30s")
	if err != nil {
		return nil, err
	}
	ntfyTimeout, err := parsePositiveDuration("NTFY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	subsTimeout, err := parsePositiveDuration("SUBSCRIBERS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	dailySnapshots, err := parseBool("DAILY_SNAPSHOT", true)
	if err != nil {
		return nil, err
	}

	beachesFile := sharedcfg.EnvOrDefault("BEACHES_FILE", "beaches.yaml")
	beaches, err := LoadBeaches(beachesFile)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	subscribersURL := os.Getenv("SUBSCRIBERS_URL")
	defaultSource := SubscriberSourceNone
	if subscribersURL != "" {
		defaultSource = SubscriberSourceHTTP
	}

	cfg := &Config{
		SourceURL:    sharedcfg.EnvOrDefault("SOURCE_URL", defaultSourceURL),
		FetchTimeout: fetchTimeout,

		BeachesFile: beachesFile,
		Coordinates: domain.NewCoordinateTable(beaches),
		TrackedBeach: domain.TrackedBeach{
			Name:        sharedcfg.EnvOrDefault("TRACKED_BEACH", "Leddy Beach South"),
			DisplayName: sharedcfg.EnvOrDefault("TRACKED_DISPLAY_NAME", "Lakewood Beach"),
		},

		SnapshotPath:   sharedcfg.EnvOrDefault("SNAPSHOT_PATH", "status.json"),
		HistoryPath:    sharedcfg.EnvOrDefault("HISTORY_PATH", "historical_status.csv"),
		DailySnapshots: dailySnapshots,

		RunInterval:  runInterval,
		RetryInitial: retryInitial,

		NtfyBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("NTFY_BASE_URL", "https://ntfy.sh"), "/"),
		NtfyTopic:   sharedcfg.EnvOrDefault("NTFY_TOPIC", "lakewood-beach-water-quality-report"),
		NtfyTitle:   sharedcfg.EnvOrDefault("NTFY_TITLE", "Beach Status Change!"),
		NtfyTimeout: ntfyTimeout,

		SubscriberSource:   strings.ToLower(sharedcfg.EnvOrDefault("SUBSCRIBER_SOURCE", defaultSource)),
		SubscribersURL:     subscribersURL,
		SubscribersToken:   os.Getenv("SUBSCRIBERS_API_TOKEN"),
		StaticSubscribers:  splitList(os.Getenv("SUBSCRIBERS")),
		SubscribersTimeout: subsTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "beach-status-changes"),

		DynamoHistoryTable: os.Getenv("DYNAMODB_HISTORY_TABLE"),

		MapboxToken:     mapboxToken,
		MapboxRegion:    sharedcfg.EnvOrDefault("MAPBOX_REGION", "Burlington, Vermont"),
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		LogMaxSizeMB:    parsePositiveInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups:   parsePositiveInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:   parsePositiveInt("LOG_MAX_AGE_DAYS", 28),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SourceURL == "" {
		return errors.New("SOURCE_URL is required")
	}
	if c.TrackedBeach.Name == "" {
		return errors.New("TRACKED_BEACH is required")
	}
	if c.SnapshotPath == "" {
		return errors.New("SNAPSHOT_PATH is required")
	}
	if c.HistoryPath == "" {
		return errors.New("HISTORY_PATH is required")
	}
	if c.NtfyTopic == "" {
		return errors.New("NTFY_TOPIC is required")
	}
	switch c.SubscriberSource {
	case SubscriberSourceHTTP:
		if c.SubscribersURL == "" {
			return errors.New("SUBSCRIBER_SOURCE is http but SUBSCRIBERS_URL is not set")
		}
	case SubscriberSourceStatic, SubscriberSourceNone:
	default:
		return fmt.Errorf("invalid SUBSCRIBER_SOURCE %q", c.SubscriberSource)
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
