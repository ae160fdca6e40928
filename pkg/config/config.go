package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	LLM          LLMConfig
	Orders       OrdersConfig
	Auction      AuctionConfig
	Reputation   ReputationConfig
	Answers      AnswersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"AISLICE_APP_ENV" required:"true"`
	Port         string   `envconfig:"AISLICE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"AISLICE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"AISLICE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"AISLICE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AISLICE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AISLICE_DB_DSN"`
	Driver string `envconfig:"AISLICE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AISLICE_DB_HOST"`
	LegacyPort     int    `envconfig:"AISLICE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AISLICE_DB_USER"`
	LegacyPassword string `envconfig:"AISLICE_DB_PASSWORD"`
	LegacyName     string `envconfig:"AISLICE_DB_NAME"`
	LegacySSLMode  string `envconfig:"AISLICE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AISLICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AISLICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AISLICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AISLICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AISLICE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AISLICE_REDIS_ADDR"`
	Password     string        `envconfig:"AISLICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"AISLICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AISLICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AISLICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AISLICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AISLICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AISLICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AISLICE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AISLICE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AISLICE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"AISLICE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AISLICE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"AISLICE_PUBSUB_ORDERS_TOPIC" default:"aislice-order-events"`
	OrdersSubscription       string `envconfig:"AISLICE_PUBSUB_ORDERS_SUBSCRIPTION"`
	AuctionTopic             string `envconfig:"AISLICE_PUBSUB_AUCTION_TOPIC" default:"aislice-auction-events"`
	AuctionSubscription      string `envconfig:"AISLICE_PUBSUB_AUCTION_SUBSCRIPTION"`
	ReputationTopic          string `envconfig:"AISLICE_PUBSUB_REPUTATION_TOPIC" default:"aislice-reputation-events"`
	ReputationSubscription   string `envconfig:"AISLICE_PUBSUB_REPUTATION_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"AISLICE_PUBSUB_NOTIFICATION_TOPIC" default:"aislice-notification-events"`
	NotificationSubscription string `envconfig:"AISLICE_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AISLICE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AISLICE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AISLICE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type LLMConfig struct {
	BaseURL     string        `envconfig:"AISLICE_LLM_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey      string        `envconfig:"AISLICE_LLM_API_KEY"`
	Model       string        `envconfig:"AISLICE_LLM_MODEL" default:"gpt-4o-mini"`
	Timeout     time.Duration `envconfig:"AISLICE_LLM_TIMEOUT" default:"20s"`
	MaxRetries  int           `envconfig:"AISLICE_LLM_MAX_RETRIES" default:"2"`
	MaxTokens   int           `envconfig:"AISLICE_LLM_MAX_TOKENS" default:"512"`
	Temperature float64       `envconfig:"AISLICE_LLM_TEMPERATURE" default:"0.2"`
}

type OrdersConfig struct {
	VIPDiscountPercent int `envconfig:"AISLICE_ORDERS_VIP_DISCOUNT_PERCENT" default:"5"`
}

type AuctionConfig struct {
	WindowMinutes int `envconfig:"AISLICE_AUCTION_WINDOW_MINUTES" default:"15"`
}

type ReputationConfig struct {
	VIPThreshold         int     `envconfig:"AISLICE_REPUTATION_VIP_THRESHOLD" default:"100"`
	BlacklistThreshold   int     `envconfig:"AISLICE_REPUTATION_BLACKLIST_THRESHOLD" default:"-50"`
	DemotionRating       float64 `envconfig:"AISLICE_REPUTATION_DEMOTION_RATING" default:"2.0"`
	BonusRating          float64 `envconfig:"AISLICE_REPUTATION_BONUS_RATING" default:"4.0"`
	ComplaintsToDemotion int     `envconfig:"AISLICE_REPUTATION_COMPLAINTS_TO_DEMOTION" default:"3"`
	ComplimentsToBonus   int     `envconfig:"AISLICE_REPUTATION_COMPLIMENTS_TO_BONUS" default:"3"`
	DemotionsToFire      int     `envconfig:"AISLICE_REPUTATION_DEMOTIONS_TO_FIRE" default:"2"`
	WarningsToDemoteVIP  int     `envconfig:"AISLICE_REPUTATION_WARNINGS_TO_DEMOTE_VIP" default:"2"`
	WarningsToDeregister int     `envconfig:"AISLICE_REPUTATION_WARNINGS_TO_DEREGISTER" default:"3"`
	VIPWeight            int     `envconfig:"AISLICE_REPUTATION_VIP_WEIGHT" default:"2"`
}

type AnswersConfig struct {
	KBMatchThreshold  float64       `envconfig:"AISLICE_ANSWERS_KB_MATCH_THRESHOLD" default:"0.3"`
	RecommendTopN     int           `envconfig:"AISLICE_ANSWERS_RECOMMEND_TOP_N" default:"10"`
	RecommendCacheTTL time.Duration `envconfig:"AISLICE_ANSWERS_RECOMMEND_CACHE_TTL" default:"5m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
