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
	Uploads      UploadsConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCASE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCASE_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"SHOPCASE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCASE_LOG_WARN_STACK" default:"false"`

	// comma-separated list of additional allowed CORS origins
	ExtraCORSOrigins []string `envconfig:"SHOPCASE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPCASE_DB_DSN"`
	Driver string `envconfig:"SHOPCASE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPCASE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPCASE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPCASE_DB_USER"`
	LegacyPassword string `envconfig:"SHOPCASE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPCASE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPCASE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPCASE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCASE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCASE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCASE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SQLitePath string `envconfig:"SHOPCASE_SQLITE_PATH" default:"shopcase.db"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"SHOPCASE_UPLOADS_DIR" default:"public/uploads"`
	MaxUploadMB int    `envconfig:"SHOPCASE_MAX_UPLOAD_MB" default:"10"`
	PublicPath  string `envconfig:"SHOPCASE_UPLOADS_PUBLIC_PATH" default:"/uploads"`
}

// MaxUploadBytes returns the configured upload ceiling in bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(u.MaxUploadMB) << 20
}

// RedisConfig is optional; when neither URL nor Address is set the rate
// limiter is disabled and the API runs without Redis.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPCASE_REDIS_URL"`
	Address      string        `envconfig:"SHOPCASE_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPCASE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCASE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCASE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCASE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCASE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCASE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCASE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type RateLimitConfig struct {
	Window  time.Duration `envconfig:"SHOPCASE_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"SHOPCASE_RATE_LIMIT_IP_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPCASE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPCASE_AUTO_MIGRATE" default:"false"`
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
