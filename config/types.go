package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Clinic         ClinicConfig         `mapstructure:"clinic"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Email          EmailConfig          `mapstructure:"email"`
	Reminders      RemindersConfig      `mapstructure:"reminders"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	S3             S3Config             `mapstructure:"s3"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
}

type DatabasePoolConfig struct {
	MaxConns           int32 `mapstructure:"max_conns"`
	MinConns           int32 `mapstructure:"min_conns"`
	ConnMaxLifetimeMin int   `mapstructure:"conn_max_lifetime_minutes"`
	ConnMaxIdleMin     int   `mapstructure:"conn_max_idle_minutes"`
}

type DatabaseMigrationConfig struct {
	// AutoMigrate applies pending goose migrations when the HTTP server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Databases      []string   `mapstructure:"databases"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type ClinicConfig struct {
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"`

	// MasterPassword is the fixed override credential. It may be an argon2id
	// PHC hash or plain text.
	MasterPassword string `mapstructure:"master_password"`

	// EncryptionKey is a 64-char hex AES-256 key for clinical note content.
	// Empty disables encryption at rest.
	EncryptionKey string `mapstructure:"encryption_key"`

	Workday    WorkdayConfig    `mapstructure:"workday"`
	Validation ValidationConfig `mapstructure:"validation"`
}

type WorkdayConfig struct {
	Start       string  `mapstructure:"start"` // HH:MM
	End         string  `mapstructure:"end"`   // HH:MM, exclusive
	SlotMinutes int     `mapstructure:"slot_minutes"`
	FullFactor  float64 `mapstructure:"full_factor"`
}

type ValidationConfig struct {
	RequireAppointmentFields bool `mapstructure:"require_appointment_fields"`
	RequirePatientFields     bool `mapstructure:"require_patient_fields"`
}

type AuthenticationConfig struct {
	Paseto               PasetoConfig    `mapstructure:"paseto"`
	RescheduleTTLMinutes int             `mapstructure:"reschedule_ttl_minutes"`
	LoginRate            LoginRateConfig `mapstructure:"login_rate"`
}

type LoginRateConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays   int    `mapstructure:"refresh_ttl_days"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type RemindersConfig struct {
	Worker ReminderWorkerConfig `mapstructure:"worker"`
}

// ReminderWorkerConfig controls the background job that emails tomorrow's
// unsent reminders to patients with an email address.
type ReminderWorkerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// S3Config points at an S3-compatible bucket used for backup archives.
// An empty bucket disables archiving.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PresignTTLSec   int    `mapstructure:"presign_ttl_sec"`
}

func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Clinic.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("clinic.timezone: %w", err))
	}
	if strings.TrimSpace(c.Clinic.MasterPassword) == "" {
		errs = append(errs, errors.New("clinic.master_password is required"))
	}
	if _, err := time.Parse("15:04", c.Clinic.Workday.Start); err != nil {
		errs = append(errs, fmt.Errorf("clinic.workday.start: %w", err))
	}
	if _, err := time.Parse("15:04", c.Clinic.Workday.End); err != nil {
		errs = append(errs, fmt.Errorf("clinic.workday.end: %w", err))
	}
	if c.Clinic.Workday.SlotMinutes <= 0 {
		errs = append(errs, errors.New("clinic.workday.slot_minutes must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the clinic's time zone, falling back to UTC.
func (c ClinicConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
