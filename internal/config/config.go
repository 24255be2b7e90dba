package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"sigs.k8s.io/yaml"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Scheduler *SchedulerConfig
	Policy    *PolicyConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"missions"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass" json:"-"`
}

type svcConfig struct {
	Address         string   `envconfig:"MISSIONS_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"MISSIONS_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"MISSIONS_LOG_LEVEL" default:"info"`
	AllowedOrigins  []string `envconfig:"MISSIONS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MigrationFolder string   `envconfig:"MISSIONS_MIGRATIONS_FOLDER" default:""`
	GatewayPrefix   string   `envconfig:"MISSIONS_GATEWAY_PREFIX" default:""`
	Auth            Auth
	Notification    NotificationConfig
}

type NotificationConfig struct {
	// Writer is one of stdout or kafka.
	Writer string `envconfig:"MISSIONS_NOTIFICATION_WRITER" default:"stdout"`
	// Source is the cloud event source attribute.
	Source string `envconfig:"MISSIONS_NOTIFICATION_SOURCE" default:"mission-api"`
	// RateLimit caps notifications written per second; 0 disables it.
	RateLimit float64 `envconfig:"MISSIONS_NOTIFICATION_RATE" default:"0"`
	RateBurst int     `envconfig:"MISSIONS_NOTIFICATION_BURST" default:"10"`
	Kafka     KafkaConfig
}

type KafkaConfig struct {
	Brokers  []string `envconfig:"MISSIONS_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"MISSIONS_KAFKA_TOPIC" default:"missions.notifications"`
	ClientID string   `envconfig:"MISSIONS_KAFKA_CLIENT_ID" default:"mission-api"`
	Version  string   `envconfig:"MISSIONS_KAFKA_VERSION" default:""`
}

type Auth struct {
	AuthenticationType string `envconfig:"MISSIONS_AUTH" default:""`
	JwkCertURL         string `envconfig:"MISSIONS_JWK_URL" default:""`
	LocalSecret        string `envconfig:"MISSIONS_AUTH_SECRET" default:"" json:"-"`
}

type SchedulerConfig struct {
	// Backend is one of local, river or none.
	Backend                string        `envconfig:"MISSIONS_SCHEDULER" default:"local"`
	ContactReleaseInterval time.Duration `envconfig:"MISSIONS_CONTACT_RELEASE_INTERVAL" default:"5m"`
	SolicitationTime       string        `envconfig:"MISSIONS_SOLICITATION_TIME" default:"09:00"`
	PublicationTime        string        `envconfig:"MISSIONS_PUBLICATION_TIME" default:"02:00"`
	Jitter                 time.Duration `envconfig:"MISSIONS_SCHEDULER_JITTER" default:"10s"`
}

type PolicyConfig struct {
	SolicitationDelay     time.Duration `envconfig:"MISSIONS_SOLICITATION_DELAY" default:"24h"`
	SolicitationLookback  time.Duration `envconfig:"MISSIONS_SOLICITATION_LOOKBACK" default:"720h"`
	ReminderMaxAttempts   int           `envconfig:"MISSIONS_REMINDER_MAX_ATTEMPTS" default:"3"`
	ReminderRetryInterval time.Duration `envconfig:"MISSIONS_REMINDER_RETRY_INTERVAL" default:"48h"`
	VisibilityGrace       time.Duration `envconfig:"MISSIONS_VISIBILITY_GRACE" default:"168h"`
	CommentMaxLength      int           `envconfig:"MISSIONS_COMMENT_MAX_LENGTH" default:"1000"`
	BatchSize             int           `envconfig:"MISSIONS_SWEEP_BATCH_SIZE" default:"500"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		cfg, err := NewDefault()
		if err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// NewDefault reads a fresh configuration from the environment without
// touching the process wide instance.
func NewDefault() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Scheduler.Backend {
	case "local", "river", "none":
	default:
		return fmt.Errorf("unknown scheduler backend %q", c.Scheduler.Backend)
	}
	if c.Scheduler.Backend == "river" && c.Database.Type != "pgsql" {
		return fmt.Errorf("scheduler backend river requires a pgsql database")
	}
	return c.Policy.Validate()
}

// Validate checks that a reminder stays inside the solicitation window until
// it is due to expire: the last retry falls due delay + retry*maxAttempts
// after completion.
func (p PolicyConfig) Validate() error {
	if p.ReminderMaxAttempts < 1 {
		return fmt.Errorf("reminder max attempts must be at least 1")
	}
	if p.BatchSize < 1 {
		return fmt.Errorf("sweep batch size must be at least 1")
	}
	if p.SolicitationDelay < 0 || p.ReminderRetryInterval <= 0 {
		return fmt.Errorf("solicitation delay must not be negative and the reminder retry interval must be positive")
	}
	lifetime := p.SolicitationDelay + p.ReminderRetryInterval*time.Duration(p.ReminderMaxAttempts)
	if p.SolicitationLookback < lifetime {
		return fmt.Errorf("solicitation lookback %s is shorter than the reminder lifetime %s", p.SolicitationLookback, lifetime)
	}
	return nil
}

func (c *Config) String() string {
	val, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<invalid config: %v>", err)
	}
	return string(val)
}
