package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "SHOPCASE_APP_ENV"
	EnvPort   = "SHOPCASE_APP_PORT"

	EnvDBDSN  = "SHOPCASE_DB_DSN"
	EnvDBHost = "SHOPCASE_DB_HOST"
	EnvDBUser = "SHOPCASE_DB_USER"
	EnvDBName = "SHOPCASE_DB_NAME"

	EnvRedisURL = "SHOPCASE_REDIS_URL"

	EnvUploadsDir  = "SHOPCASE_UPLOADS_DIR"
	EnvMaxUploadMB = "SHOPCASE_MAX_UPLOAD_MB"

	EnvUseSQLite = "SHOPCASE_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
