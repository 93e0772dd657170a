package config

import (
	"fmt"
	"os"
	"strings"

	httpapi "github.com/jekabolt/grbpwr-reports/internal/api/http"
	"github.com/jekabolt/grbpwr-reports/internal/report"
	"github.com/jekabolt/grbpwr-reports/internal/store"
	"github.com/jekabolt/grbpwr-reports/log"
	"github.com/spf13/viper"
)

// Config represents the global configuration for the service.
type Config struct {
	DB     store.Config   `mapstructure:"mysql"`
	Logger log.Config     `mapstructure:"logger"`
	HTTP   httpapi.Config `mapstructure:"http"`
	Report report.Config  `mapstructure:"report"`
	// Demo serves a generated in-memory pipeline instead of MySQL.
	Demo bool `mapstructure:"demo"`
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values.
// Env vars use underscores and uppercase, e.g., MYSQL_DSN, REPORT_TIMEZONE
// Nested config keys use double underscore, e.g., MYSQL__DSN for mysql.dsn
func LoadConfig(cfgFile string) (*Config, error) {
	viper.SetConfigType("toml")

	// Enable environment variable support
	// Viper will automatically read env vars and override config file values
	viper.AutomaticEnv()
	// Replace dots and dashes with underscores in env var names
	// e.g., mysql.dsn -> MYSQL__DSN, report.timezone -> REPORT__TIMEZONE
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))

	// Bind common environment variables to config keys
	// This allows using simpler env var names that match app.yaml
	bindEnvVars()

	// Try to read config file (optional - can work with env vars only)
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			// If config file doesn't exist, continue with env vars only
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("$HOME/config/grbpwr-reports")
		viper.AddConfigPath("/etc/grbpwr-reports")
		// Try to read config, but don't fail if it doesn't exist
		_ = viper.ReadInConfig()
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %v", err)
	}

	// Handle MySQL DSN construction from individual env vars if DSN is not set
	// Supports both MYSQL_* env vars and DigitalOcean's db.* env vars
	if config.DB.DSN == "" {
		var mysqlHost, mysqlPort, mysqlUser, mysqlPassword, mysqlDatabase string

		// Check for DigitalOcean's db.* env vars first
		if dbHost := os.Getenv("db.HOSTNAME"); dbHost != "" {
			mysqlHost = dbHost
			mysqlPort = os.Getenv("db.PORT")
			mysqlUser = os.Getenv("db.USERNAME")
			mysqlPassword = os.Getenv("db.PASSWORD")
			mysqlDatabase = os.Getenv("db.DATABASE")
		} else {
			// Fall back to MYSQL_* env vars
			mysqlHost = os.Getenv("MYSQL_HOST")
			mysqlPort = os.Getenv("MYSQL_PORT")
			mysqlUser = os.Getenv("MYSQL_USER")
			mysqlPassword = os.Getenv("MYSQL_PASSWORD")
			mysqlDatabase = os.Getenv("MYSQL_DATABASE")
		}

		if mysqlHost != "" {
			if mysqlPort == "" {
				mysqlPort = "3306"
			}
			if mysqlUser != "" && mysqlPassword != "" && mysqlDatabase != "" {
				// Construct DSN for DO managed database (with TLS)
				config.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8&parseTime=true&tls=custom",
					mysqlUser, mysqlPassword, mysqlHost, mysqlPort, mysqlDatabase)
			}
		}
	}

	return &config, nil
}

// bindEnvVars binds environment variables to config keys
// This allows using both nested keys (MYSQL__DSN) and flat keys (MYSQL_DSN)
func bindEnvVars() {
	// MySQL
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.automigrate", "MYSQL_AUTOMIGRATE")
	viper.BindEnv("mysql.max_open_connections", "MYSQL_MAX_OPEN_CONNECTIONS")
	viper.BindEnv("mysql.max_idle_connections", "MYSQL_MAX_IDLE_CONNECTIONS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("mysql.conn_max_idle_time", "MYSQL_CONN_MAX_IDLE_TIME")
	viper.BindEnv("mysql.tls_ca_path", "MYSQL_TLS_CA_PATH")
	viper.BindEnv("mysql.query_timeout", "MYSQL_QUERY_TIMEOUT")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.add_source", "LOG_ADD_SOURCE")

	// HTTP
	viper.BindEnv("http.port", "HTTP_PORT")
	viper.BindEnv("http.address", "HTTP_ADDRESS")
	viper.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	viper.BindEnv("http.request_timeout", "HTTP_REQUEST_TIMEOUT")
	viper.BindEnv("http.rate_limit.window", "HTTP_RATE_LIMIT_WINDOW")
	viper.BindEnv("http.rate_limit.aggregate", "HTTP_RATE_LIMIT_AGGREGATE")
	viper.BindEnv("http.rate_limit.write", "HTTP_RATE_LIMIT_WRITE")

	// Report engine
	viper.BindEnv("report.default_limit", "REPORT_DEFAULT_LIMIT")
	viper.BindEnv("report.detail_limit", "REPORT_DETAIL_LIMIT")
	viper.BindEnv("report.undefined_label", "REPORT_UNDEFINED_LABEL")
	viper.BindEnv("report.include_undefined_in_totals", "REPORT_INCLUDE_UNDEFINED_IN_TOTALS")
	viper.BindEnv("report.timezone", "REPORT_TIMEZONE")
	viper.BindEnv("report.funnel_colors", "REPORT_FUNNEL_COLORS")
	viper.BindEnv("report.leads_color", "REPORT_LEADS_COLOR")
	viper.BindEnv("report.won_color", "REPORT_WON_COLOR")
	viper.BindEnv("report.lost_color", "REPORT_LOST_COLOR")

	viper.BindEnv("demo", "DEMO")
}
