package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// prefixed envconfig tags so this stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "AISLICE_APP_ENV"
	EnvPort         = "AISLICE_APP_PORT"
	EnvDBDSN        = "AISLICE_DB_DSN"
	EnvDBHost       = "AISLICE_DB_HOST"
	EnvDBUser       = "AISLICE_DB_USER"
	EnvDBName       = "AISLICE_DB_NAME"
	EnvRedisURL     = "AISLICE_REDIS_URL"
	EnvGCPProjectID = "AISLICE_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
