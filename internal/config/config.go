package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Static world configuration
	ZoneMapPath     string  `envconfig:"ZONE_MAP_PATH" required:"true"`
	CalibrationPath string  `envconfig:"CALIBRATION_PATH" default:""`
	HolePadding     float64 `envconfig:"HOLE_PADDING"`
	EdgePadding     float64 `envconfig:"EDGE_PADDING"`

	// Ingestion
	StoreID       string `envconfig:"STORE_ID" default:"store-main"`
	MaxFeedEvents int    `envconfig:"MAX_FEED_EVENTS" default:"500"`

	// Simulation
	AgentCount     int           `envconfig:"AGENT_COUNT" default:"4"`
	TickPeriod     time.Duration `envconfig:"TICK_PERIOD" default:"80ms"`
	LivenessWindow time.Duration `envconfig:"LIVENESS_WINDOW" default:"2m"`

	// Event archive (optional; disabled when unset)
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// Kafka feed (optional; disabled when no brokers configured)
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"floorwatch.detections"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:"floorwatch"`

	// Incident alerting (optional; disabled when no webhook URL configured)
	WebhookURL       string        `envconfig:"WEBHOOK_URL" default:""`
	WebhookSecret    string        `envconfig:"WEBHOOK_SECRET" default:""`
	AlertMinSeverity int           `envconfig:"ALERT_MIN_SEVERITY" default:"3"`
	AlertCooldown    time.Duration `envconfig:"ALERT_COOLDOWN" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ArchiveEnabled reports whether the Postgres event archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseURL != ""
}

// KafkaEnabled reports whether the Kafka detection feed is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}

// AlertingEnabled reports whether outbound incident alerting is configured.
func (c *Config) AlertingEnabled() bool {
	return c.WebhookURL != ""
}
