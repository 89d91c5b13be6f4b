package config

const (
	// EnvPrefix scopes envconfig processing; explicit tags below carry the
	// full variable names.
	EnvPrefix = "markethub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARKETHUB_DB_DSN"
	EnvDBHost = "MARKETHUB_DB_HOST"
	EnvDBUser = "MARKETHUB_DB_USER"
	EnvDBName = "MARKETHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
