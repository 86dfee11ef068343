package config

const (
	EnvPrefix = "EVW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "EVW_DB_DSN"
	EnvDBHost = "EVW_DB_HOST"
	EnvDBUser = "EVW_DB_USER"
	EnvDBName = "EVW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
