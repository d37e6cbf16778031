package config

// EnvPrefix is intentionally empty: every field names its variable
// explicitly with the MARKETLOOP_ prefix.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MARKETLOOP_DB_DSN"
	EnvDBHost = "MARKETLOOP_DB_HOST"
	EnvDBUser = "MARKETLOOP_DB_USER"
	EnvDBName = "MARKETLOOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
