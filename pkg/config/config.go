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
	DB           DBConfig
	Redis        RedisConfig
	Sender       SenderConfig
	Bundling     BundlingConfig
	FeatureFlags FeatureFlagsConfig
	JWT          JWTConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
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
	Env          string `envconfig:"MARKETHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETHUB_DB_DSN"`
	Driver string `envconfig:"MARKETHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETHUB_DB_USER"`
	LegacyPassword string `envconfig:"MARKETHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETHUB_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SenderConfig is the fixed party every outgoing market document is sent
// from: the hub's metered data administrator identity.
type SenderConfig struct {
	ActorNumber string `envconfig:"MARKETHUB_SENDER_ACTOR_NUMBER" required:"true"`
}

// BundlingConfig tunes how long an open bundle accumulates documents
// before the sweep closes it for retrieval.
type BundlingConfig struct {
	WindowSeconds int           `envconfig:"MARKETHUB_BUNDLING_WINDOW_SECONDS" default:"60"`
	SweepInterval time.Duration `envconfig:"MARKETHUB_BUNDLING_SWEEP_INTERVAL" default:"15s"`
	LockTTL       time.Duration `envconfig:"MARKETHUB_BUNDLING_LOCK_TTL" default:"5m"`
}

// Window returns the configured bundling window as a duration.
func (b BundlingConfig) Window() time.Duration {
	return time.Duration(b.WindowSeconds) * time.Second
}

// JWTConfig validates the actor tokens minted by the perimeter gateway.
type JWTConfig struct {
	Secret string `envconfig:"MARKETHUB_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MARKETHUB_JWT_ISSUER" default:"markethub"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MARKETHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MARKETHUB_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARKETHUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MARKETHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARKETHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	CalculationCommandTopic       string `envconfig:"MARKETHUB_PUBSUB_CALCULATION_COMMAND_TOPIC" required:"true"`
	CalculationResultSubscription string `envconfig:"MARKETHUB_PUBSUB_CALCULATION_RESULT_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset            string `envconfig:"MARKETHUB_BIGQUERY_DATASET" default:"markethub"`
	DocumentAuditTable string `envconfig:"MARKETHUB_BIGQUERY_DOCUMENT_AUDIT_TABLE" default:"outgoing_documents"`
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
