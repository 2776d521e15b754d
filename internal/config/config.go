package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("address-relay version %s, commit %s, built at %s", version, commit, date)
}

// EnvPrefix is prepended to every environment variable, e.g. WEDDING_WEBHOOK_URL.
const EnvPrefix = "WEDDING"

const redacted = "[redacted]"

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Delivery DeliveryConfig `mapstructure:"delivery" yaml:"delivery"`
	Webhook  WebhookConfig  `mapstructure:"webhook" yaml:"webhook"`
	Sheets   SheetsConfig   `mapstructure:"sheets" yaml:"sheets"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// DeliveryMode names the sink a deployment forwards submissions to.
type DeliveryMode string

const (
	DeliveryModeAuto        DeliveryMode = "auto"
	DeliveryModeWebhook     DeliveryMode = "webhook"
	DeliveryModeSheets      DeliveryMode = "sheets"
	DeliveryModeDevFallback DeliveryMode = "dev-fallback"
)

type ServerConfig struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=0"`
	AllowOrigins      []string      `mapstructure:"allow_origins" yaml:"allow_origins"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Format            string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=json console"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console" yaml:"disable_console"`
}

type DeliveryConfig struct {
	Mode DeliveryMode `mapstructure:"mode" yaml:"mode" validate:"omitempty,oneof=auto webhook sheets dev-fallback"`
	// RequireSink rejects an inferred dev-fallback so a production deployment
	// cannot silently swallow submissions.
	RequireSink      bool          `mapstructure:"require_sink" yaml:"require_sink"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	DevFallbackDelay time.Duration `mapstructure:"dev_fallback_delay" yaml:"dev_fallback_delay" validate:"gte=0"`
}

type WebhookConfig struct {
	URL   string `mapstructure:"url" yaml:"url" validate:"omitempty,url"`
	Token string `mapstructure:"token" yaml:"token"`
}

type SheetsConfig struct {
	SpreadsheetID            string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
	SheetName                string `mapstructure:"sheet_name" yaml:"sheet_name"`
	ServiceAccountEmail      string `mapstructure:"service_account_email" yaml:"service_account_email" validate:"required_with=SpreadsheetID"`
	ServiceAccountPrivateKey string `mapstructure:"service_account_private_key" yaml:"service_account_private_key" validate:"required_with=SpreadsheetID"`
	TokenURL                 string `mapstructure:"token_url" yaml:"token_url" validate:"required,url"`
	Scope                    string `mapstructure:"scope" yaml:"scope" validate:"required"`
	APIBaseURL               string `mapstructure:"api_base_url" yaml:"api_base_url" validate:"required,url"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// PrivateKeyPEM returns the service-account key with escaped newlines restored,
// the form it takes when pasted into a single-line environment variable.
func (s SheetsConfig) PrivateKeyPEM() []byte {
	return []byte(strings.ReplaceAll(s.ServiceAccountPrivateKey, `\n`, "\n"))
}

// ResolveMode returns the delivery mode in effect. An explicit mode wins;
// auto picks the webhook when its URL is set, then the spreadsheet, then dev-fallback.
func (c *Config) ResolveMode() DeliveryMode {
	switch c.Delivery.Mode {
	case DeliveryModeWebhook, DeliveryModeSheets, DeliveryModeDevFallback:
		return c.Delivery.Mode
	}
	if strings.TrimSpace(c.Webhook.URL) != "" {
		return DeliveryModeWebhook
	}
	if strings.TrimSpace(c.Sheets.SpreadsheetID) != "" {
		return DeliveryModeSheets
	}
	return DeliveryModeDevFallback
}

// Redacted returns a copy safe to print: credentials are masked.
func (c Config) Redacted() Config {
	if c.Webhook.Token != "" {
		c.Webhook.Token = redacted
	}
	if c.Sheets.ServiceAccountPrivateKey != "" {
		c.Sheets.ServiceAccountPrivateKey = redacted
	}
	return c
}

// BindFlags registers the command line flags that override configuration keys.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config.yaml file")
	fs.String("host", "", "Listen host")
	fs.Int("port", 0, "Listen port")
	fs.String("mode", "", "Delivery mode (auto|webhook|sheets|dev-fallback)")
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_header_timeout", 5*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.max_body_bytes", 64<<10)
	viper.SetDefault("server.allow_origins", []string{})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.disable_stacktrace", false)
	viper.SetDefault("logging.output_path", "")
	viper.SetDefault("logging.append_to_file", false)
	viper.SetDefault("logging.disable_console", false)

	viper.SetDefault("delivery.mode", string(DeliveryModeAuto))
	viper.SetDefault("delivery.require_sink", false)
	viper.SetDefault("delivery.timeout", 10*time.Second)
	viper.SetDefault("delivery.dev_fallback_delay", 500*time.Millisecond)

	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.token", "")

	viper.SetDefault("sheets.spreadsheet_id", "")
	viper.SetDefault("sheets.sheet_name", "Responses")
	viper.SetDefault("sheets.service_account_email", "")
	viper.SetDefault("sheets.service_account_private_key", "")
	viper.SetDefault("sheets.token_url", "https://oauth2.googleapis.com/token")
	viper.SetDefault("sheets.scope", "https://www.googleapis.com/auth/spreadsheets")
	viper.SetDefault("sheets.api_base_url", "https://sheets.googleapis.com")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}

// Load builds the configuration from defaults, an optional config file, an
// optional .env file, environment variables and flags, in increasing priority.
func Load(fs *pflag.FlagSet) (*Config, error) {
	viper.Reset() // Ensure clean state

	// .env is a local convenience; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults()

	var configFile string
	if fs != nil {
		bindings := map[string]string{
			"server.host":   "host",
			"server.port":   "port",
			"delivery.mode": "mode",
		}
		for key, name := range bindings {
			if f := fs.Lookup(name); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
		configFile, _ = fs.GetString("config")
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/address-relay")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	// pflag zero values are bound too; keep defaults when the flag was not given
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Delivery.Mode == "" {
		cfg.Delivery.Mode = DeliveryModeAuto
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the requirements of the resolved mode.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.ResolveMode() {
	case DeliveryModeWebhook:
		if strings.TrimSpace(c.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required in webhook mode, set it in the config or pass %s_WEBHOOK_URL", EnvPrefix)
		}
	case DeliveryModeSheets:
		if strings.TrimSpace(c.Sheets.SpreadsheetID) == "" {
			return fmt.Errorf("sheets.spreadsheet_id is required in sheets mode, set it in the config or pass %s_SHEETS_SPREADSHEET_ID", EnvPrefix)
		}
		if strings.TrimSpace(c.Sheets.SheetName) == "" {
			return fmt.Errorf("sheets.sheet_name must not be empty")
		}
	case DeliveryModeDevFallback:
		if c.Delivery.RequireSink && c.Delivery.Mode != DeliveryModeDevFallback {
			return fmt.Errorf("no delivery sink configured and delivery.require_sink is set, configure %s_WEBHOOK_URL or %s_SHEETS_SPREADSHEET_ID", EnvPrefix, EnvPrefix)
		}
	}
	return nil
}
