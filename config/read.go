package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/rodrigoprogmaster-prog/clinica/pkg/constants"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. CLINICA_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only fail if it's not a "file not found" error
			if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

// setDefaults registers every key that has a sane default so AutomaticEnv
// can also override keys missing from the yaml file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool.max_conns", 10)
	v.SetDefault("database.pool.min_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_minutes", 30)
	v.SetDefault("database.pool.conn_max_idle_minutes", 5)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")

	v.SetDefault("clinic.name", "Clínica")
	v.SetDefault("clinic.timezone", "America/Sao_Paulo")
	v.SetDefault("clinic.workday.start", "08:00")
	v.SetDefault("clinic.workday.end", "18:00")
	v.SetDefault("clinic.workday.slot_minutes", 30)
	v.SetDefault("clinic.workday.full_factor", 1.5)

	v.SetDefault("authentication.reschedule_ttl_minutes", 15)
	v.SetDefault("authentication.login_rate.per_second", 1.0)
	v.SetDefault("authentication.login_rate.burst", 5)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.AppName)
	v.SetDefault("authentication.paseto.audience", constants.AppName)
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 7)

	v.SetDefault("reminders.worker.interval_minutes", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("observability.metrics.path", "/metrics")
}
