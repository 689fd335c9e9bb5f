// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvConfigFile points at an optional YAML file overlaying the environment
	EnvConfigFile = "RELOADER_CONFIG"
	// EnvAddr is the listen address of the server
	EnvAddr = "RELOADER_ADDR"
	// EnvServerURL is the server address used by the CLI
	EnvServerURL = "RELOADER_SERVER_URL"
	// EnvProjectDir is the project directory built by the editor
	EnvProjectDir = "RELOADER_PROJECT_DIR"
	// EnvBuildCommand is the command the editor runs to compile the project
	EnvBuildCommand = "RELOADER_BUILD_COMMAND"
	// EnvKeyPrefix namespaces the durable keys
	EnvKeyPrefix = "RELOADER_KEY_PREFIX"
	// EnvConfirmMode selects how disruptive actions are confirmed
	EnvConfirmMode = "RELOADER_CONFIRM_MODE"
	// EnvGraceWindow is how long a build action waits for a build to start
	EnvGraceWindow = "RELOADER_GRACE_WINDOW"
	// EnvDefaultTimeout applies to submissions without a timeout
	EnvDefaultTimeout = "RELOADER_DEFAULT_TIMEOUT"
	// EnvTickInterval is the period of the editor update loop
	EnvTickInterval = "RELOADER_TICK_INTERVAL"
	// EnvResetDelay delays requested resets
	EnvResetDelay = "RELOADER_RESET_DELAY"

	// EnvDBDriver selects the durable store backend: sqlite or postgres
	EnvDBDriver = "DB_DRIVER"
	// EnvDBPath is the SQLite file path
	EnvDBPath = "DB_PATH"
	// EnvDBHost is the PostgreSQL host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the PostgreSQL port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the PostgreSQL user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the PostgreSQL password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the PostgreSQL database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLMode enables TLS to PostgreSQL when set to "require"
	EnvDBSSLMode = "DB_SSL_MODE"

	// EnvLogLevel is the logrus level name
	EnvLogLevel = "LOG_LEVEL"
)
