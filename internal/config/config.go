package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the application configuration. Values come from an optional
// JSON file with environment variables layered on top, so deployments can
// keep secrets out of the file.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Storage  StorageConfig  `json:"storage"`
	Reminder ReminderConfig `json:"reminder"`
	Logging  LoggingConfig  `json:"logging"`
	Portal   PortalConfig   `json:"portal"`
}

type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"db_name"`
	SSLMode      string        `json:"ssl_mode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
}

type AuthConfig struct {
	JWTSecret         string        `json:"jwt_secret"`
	TokenTTL          time.Duration `json:"token_ttl"`
	GoogleClientID    string        `json:"google_client_id"`
	AdminEmail        string        `json:"admin_email"`
	AdminPasswordHash string        `json:"admin_password_hash"`
}

type StorageConfig struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
}

// ReminderConfig drives the stale-document sweeper.
type ReminderConfig struct {
	Schedule string        `json:"schedule"`
	MaxAge   time.Duration `json:"max_age"`
}

type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// PortalConfig carries institution-specific knobs.
type PortalConfig struct {
	InstitutionName     string `json:"institution_name"`
	StudentEmailPattern string `json:"student_email_pattern"`
}

// Load reads the config file if present and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			User:         os.Getenv("USER"),
			DBName:       "paperless",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			MaxLifetime:  30 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Region: "ap-south-1",
			Bucket: "paperless-documents",
		},
		Reminder: ReminderConfig{
			Schedule: "0 9 * * *",
			MaxAge:   48 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Portal: PortalConfig{
			InstitutionName: "Vel Tech University",
		},
	}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required (JWT_SECRET)")
	}
	return config, nil
}

func overrideWithEnv(config *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		config.Database.Host = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Database.Port = p
		}
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		config.Database.User = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		config.Database.Password = v
	}
	if v := os.Getenv("DATABASE_DBNAME"); v != "" {
		config.Database.DBName = v
	}
	if v := os.Getenv("DATABASE_SSLMODE"); v != "" {
		config.Database.SSLMode = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		config.Auth.GoogleClientID = v
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		config.Auth.AdminEmail = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		config.Auth.AdminPasswordHash = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Storage.Region = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		config.Storage.Bucket = v
	}
	if v := os.Getenv("REMINDER_SCHEDULE"); v != "" {
		config.Reminder.Schedule = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("STUDENT_EMAIL_PATTERN"); v != "" {
		config.Portal.StudentEmailPattern = v
	}
}

// DatabaseURL returns the connection string.
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
