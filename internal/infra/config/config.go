package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds the configuration of both engine binaries.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	AMQPURL   string `envconfig:"AMQP_URL"`

	Distributor struct {
		PassInterval  time.Duration `envconfig:"PASS_INTERVAL" default:"5m"`
		BatchLimit    int           `envconfig:"PASS_BATCH_LIMIT" default:"200"`
		LockTTL       time.Duration `envconfig:"PASS_LOCK_TTL" default:"4m"`
		ActionLogSize int           `envconfig:"ACTION_LOG_SIZE" default:"1024"`
	} `envconfig:""`

	Queues struct {
		Assignments string `envconfig:"ASSIGNMENT_QUEUE_KEY" default:"outreach_assignments"`
		Outcomes    string `envconfig:"OUTCOME_QUEUE_NAME" default:"outreach_outcomes"`
	} `envconfig:""`
}

// Load reads the config from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
