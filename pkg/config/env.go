package config

const EnvPrefix = "STOCKROOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv = "STOCKROOM_APP_ENV"
	EnvPort   = "STOCKROOM_APP_PORT"

	EnvDBDSN    = "STOCKROOM_DB_DSN"
	EnvDBDriver = "STOCKROOM_DB_DRIVER"
	EnvDBHost   = "STOCKROOM_DB_HOST"
	EnvDBUser   = "STOCKROOM_DB_USER"
	EnvDBName   = "STOCKROOM_DB_NAME"

	EnvRedisURL = "STOCKROOM_REDIS_URL"

	EnvDefaultPerPage = "STOCKROOM_PAGINATION_DEFAULT_PER_PAGE"
	EnvMaxPerPage     = "STOCKROOM_PAGINATION_MAX_PER_PAGE"

	EnvIngestDelimiter = "STOCKROOM_INGEST_DELIMITER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
