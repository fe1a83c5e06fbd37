package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication settings for operator routes.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// QueueConfig contains the settings for the external certificate queue.
type QueueConfig struct {
	// URL is the queue submission endpoint.
	URL string `mapstructure:"url" validate:"required,url"`

	// Name is the queue the worker pool consumes, carried in every
	// task header.
	Name string `mapstructure:"name" validate:"required"`

	// CallbackBaseURL is the externally reachable base URL workers post
	// callbacks to (e.g. https://lms.example.com).
	CallbackBaseURL string `mapstructure:"callback_base_url" validate:"required,url"`

	// TimeoutSeconds bounds the single outbound submission call; the
	// queue endpoint is untrusted and may hang.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`

	// MaxRetries is the number of resubmission attempts the retry policy
	// wrapper makes on transport failure before giving up.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryDelaySeconds is the base delay for exponential backoff between
	// retry attempts.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}
