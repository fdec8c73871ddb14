package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	AWS          AWSConfig          `mapstructure:"aws"`
	Remote       RemoteConfig       `mapstructure:"remote"`
	Poll         PollConfig         `mapstructure:"poll"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Discovery    DiscoveryConfig    `mapstructure:"discovery"`
	Report       ReportConfig       `mapstructure:"report"`
	Database     DatabaseConfig     `mapstructure:"database"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// AWSConfig selects the region and credentials for Bedrock and CloudFormation.
// Empty keys fall back to the default credential chain.
type AWSConfig struct {
	Region    string `mapstructure:"region"`
	Profile   string `mapstructure:"profile"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
}

// RemoteConfig selects the job service the orchestrator talks to.
type RemoteConfig struct {
	Provider          string        `mapstructure:"provider"` // bedrock, http
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type PollConfig struct {
	Interval               time.Duration `mapstructure:"interval"`
	RetryBackoff           time.Duration `mapstructure:"retry_backoff"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures"`
	MaxElapsed             time.Duration `mapstructure:"max_elapsed"`
}

type OrchestratorConfig struct {
	LaunchConcurrency int `mapstructure:"launch_concurrency"`
}

type DiscoveryConfig struct {
	StackName      string `mapstructure:"stack_name"`
	DescriptorFile string `mapstructure:"descriptor_file"`
}

type ReportConfig struct {
	File         string       `mapstructure:"file"`
	AgentIDsFile string       `mapstructure:"agent_ids_file"`
	S3           S3Config     `mapstructure:"s3"`
	Database     SinkDBConfig `mapstructure:"database"`
}

// S3Config configures publishing reports to S3-compatible object storage.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // r2, s3, s3compatible
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
}

type SinkDBConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.profile", "AWS_PROFILE")
	v.BindEnv("aws.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("remote.base_url", "KBSYNC_REMOTE_BASE_URL")
	v.BindEnv("remote.api_key", "KBSYNC_REMOTE_API_KEY")
	v.BindEnv("discovery.stack_name", "KBSYNC_STACK_NAME")
	v.BindEnv("report.s3.access_key", "REPORT_S3_ACCESS_KEY")
	v.BindEnv("report.s3.secret_key", "REPORT_S3_SECRET_KEY")
	v.BindEnv("database.password", "DATABASE_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("remote.provider", "bedrock")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.requests_per_second", 0)
	v.SetDefault("remote.burst", 1)
	v.SetDefault("poll.interval", "5s")
	v.SetDefault("poll.retry_backoff", "2s")
	v.SetDefault("poll.max_consecutive_failures", 3)
	v.SetDefault("poll.max_elapsed", "30m")
	v.SetDefault("orchestrator.launch_concurrency", 0)
	v.SetDefault("report.file", "ingestion_report.json")
	v.SetDefault("report.agent_ids_file", "agent_ids.json")
	v.SetDefault("report.s3.enabled", false)
	v.SetDefault("report.s3.use_ssl", true)
	v.SetDefault("report.s3.prefix", "kbsync/reports")
	v.SetDefault("report.database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/kbsync.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Remote.Provider {
	case "bedrock":
	case "http":
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote: base_url is required for the http provider")
		}
	default:
		return fmt.Errorf("remote: unknown provider %q", c.Remote.Provider)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll: interval must be positive")
	}
	if c.Poll.MaxElapsed <= 0 {
		return fmt.Errorf("poll: max_elapsed must be positive")
	}
	if c.Poll.RetryBackoff < 0 || c.Poll.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("poll: retry_backoff and max_consecutive_failures must not be negative")
	}

	if c.Report.S3.Enabled && c.Report.S3.Bucket == "" {
		return fmt.Errorf("report.s3: bucket is required when enabled")
	}
	return nil
}
