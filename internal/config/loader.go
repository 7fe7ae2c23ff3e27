package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/vendata/vendata/internal/db"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// PipelineConfig holds the processing defaults applied when a request does
// not override them.
type PipelineConfig struct {
	Mode             string
	QualityThreshold float64
	MigrationsPath   string
}

// Config is the full application configuration.
type Config struct {
	Database db.Config
	Server   ServerConfig
	Pipeline PipelineConfig
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Pipeline: PipelineConfig{
			Mode:             "adaptive",
			QualityThreshold: 0.7,
			MigrationsPath:   "./migrations",
		},
	}
}

// Load reads config.yaml from configPath, falling back to defaults plus
// environment overrides (VENDATA_DATABASE_HOST and friends).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("VENDATA")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.port")
	v.BindEnv("pipeline.mode")
	v.BindEnv("pipeline.quality_threshold")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover it.
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("pipeline.mode") {
		cfg.Pipeline.Mode = v.GetString("pipeline.mode")
	}
	if v.IsSet("pipeline.quality_threshold") {
		cfg.Pipeline.QualityThreshold = v.GetFloat64("pipeline.quality_threshold")
	}
	if v.IsSet("pipeline.migrations_path") {
		cfg.Pipeline.MigrationsPath = v.GetString("pipeline.migrations_path")
	}

	return cfg, nil
}
