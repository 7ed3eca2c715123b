package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// Mail transport
	// ----------------------------
	MailTransport string `envconfig:"MAIL_TRANSPORT" default:"smtp"`
	SMTPHost      string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort      int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser      string `envconfig:"SMTP_USER" default:""`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom      string `envconfig:"SMTP_FROM" default:"noreply@sendlater.local"`
	ResendAPIKey  string `envconfig:"RESEND_API_KEY" default:""`

	// ----------------------------
	// Scheduler
	// ----------------------------
	WorkerCount  int           `envconfig:"WORKER_COUNT" default:"5"`
	QueueSize    int           `envconfig:"QUEUE_SIZE" default:"100"`
	TimerBackend string        `envconfig:"TIMER_BACKEND" default:"afterfunc"`
	ScheduleSkew time.Duration `envconfig:"SCHEDULE_SKEW" default:"1m"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort      string `envconfig:"API_PORT" default:"3000"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	FrontendURL  string `envconfig:"FRONTEND_URL" default:"http://localhost:3001"`
	SanitizeHTML bool   `envconfig:"SANITIZE_HTML" default:"true"`
	BatchMaxRows int    `envconfig:"BATCH_MAX_ROWS" default:"1000"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Outcome events (optional)
	// ----------------------------
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	EventsChannel string `envconfig:"EVENTS_CHANNEL" default:"sendlater:history"`

	// ----------------------------
	// Logging
	// ----------------------------
	LogDev bool `envconfig:"LOG_DEV" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.MailTransport {
	case "smtp", "log":
	case "resend":
		if c.ResendAPIKey == "" {
			return fmt.Errorf("config: RESEND_API_KEY is required for MAIL_TRANSPORT=resend")
		}
	default:
		return fmt.Errorf("config: unknown MAIL_TRANSPORT %q", c.MailTransport)
	}

	switch c.TimerBackend {
	case "afterfunc", "cron":
	default:
		return fmt.Errorf("config: unknown TIMER_BACKEND %q", c.TimerBackend)
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("config: WORKER_COUNT must be positive")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 bytes")
	}
	return nil
}
