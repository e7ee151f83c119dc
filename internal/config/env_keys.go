package config

// Environment variable keys
const (
	// EnvAppEnv selects the environment (development, test, production)
	EnvAppEnv = "LIGABETS_ENV"

	// EnvAddr is the HTTP listen address
	EnvAddr = "LIGABETS_ADDR"

	// EnvJWTSecret signs session tokens
	EnvJWTSecret = "LIGABETS_JWT_SECRET"

	// EnvPasswordSalt is mixed into every password hash
	EnvPasswordSalt = "LIGABETS_PASSWORD_SALT"

	// EnvStartingBalance is the token balance of a new user
	EnvStartingBalance = "LIGABETS_STARTING_BALANCE"

	// EnvAdminUsername, EnvAdminEmail and EnvAdminPassword bootstrap the admin account
	EnvAdminUsername = "LIGABETS_ADMIN_USERNAME"
	EnvAdminEmail    = "LIGABETS_ADMIN_EMAIL"
	EnvAdminPassword = "LIGABETS_ADMIN_PASSWORD"

	// EnvLogLevel is a logrus level name
	EnvLogLevel = "LIGABETS_LOG_LEVEL"
)
