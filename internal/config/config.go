package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Codes    CodesConfig    `yaml:"codes" mapstructure:"codes"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CodesConfig locates the reference classification code table.
type CodesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AnalysisConfig tunes the neighbor-voting engine.
type AnalysisConfig struct {
	BufferRadius   float64 `yaml:"buffer_radius" mapstructure:"buffer_radius"`
	HighConfidence float64 `yaml:"high_confidence" mapstructure:"high_confidence"`
	Workers        int     `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the upload/progress server.
type ServerConfig struct {
	Port       int    `yaml:"port" mapstructure:"port"`
	UploadDir  string `yaml:"upload_dir" mapstructure:"upload_dir"`
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("codes.path", "property_classification_codes.csv")
	v.SetDefault("analysis.buffer_radius", 100.0)
	v.SetDefault("analysis.high_confidence", 0.7)
	v.SetDefault("analysis.workers", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.results_dir", "results")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration required for the given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Analysis.BufferRadius <= 0 {
		problems = append(problems, "analysis.buffer_radius must be > 0")
	}
	if c.Analysis.HighConfidence <= 0 || c.Analysis.HighConfidence > 1 {
		problems = append(problems, "analysis.high_confidence must be between 0 and 1")
	}
	if c.Analysis.Workers < 1 || c.Analysis.Workers > 64 {
		problems = append(problems, "analysis.workers must be between 1 and 64")
	}

	switch mode {
	case "analyze", "convert":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.UploadDir == "" {
			problems = append(problems, "server.upload_dir is required")
		}
		if c.Server.ResultsDir == "" {
			problems = append(problems, "server.results_dir is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
