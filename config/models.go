package config

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Static    StaticConfig    `mapstructure:"static"`
	Deploy    DeployConfig    `mapstructure:"deploy"`
	Superuser SuperuserConfig `mapstructure:"superuser"`
	Log       LogConfig       `mapstructure:"log"`
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// StaticConfig configures static asset collection. SourceDirs are searched
// in order; the first directory containing a given relative path wins.
type StaticConfig struct {
	SourceDirs []string `mapstructure:"source_dirs"`
	Root       string   `mapstructure:"root"`
	Clear      bool     `mapstructure:"clear"`
}

type DeployConfig struct {
	// InstallCommand is the dependency install invocation run as the first
	// deploy step, e.g. ["pip", "install", "-r", "requirements.txt"].
	// The step is skipped when empty.
	InstallCommand []string `mapstructure:"install_command"`
	// HealthCheckURL, when set, is polled after all other steps succeed.
	HealthCheckURL      string `mapstructure:"health_check_url"`
	HealthCheckRetryMax int    `mapstructure:"health_check_retry_max"`
	// StepTimeoutSeconds bounds each individual deploy step. 0 means no limit.
	StepTimeoutSeconds int `mapstructure:"step_timeout_seconds"`
}

type SuperuserConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	// Password is loaded from ENV not config file.
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
