package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken  string        `yaml:"discord_token" validate:"required"`
	LogLevel      string        `yaml:"log_level"`
	DataDir       string        `yaml:"data_dir" validate:"required"`
	DenylistPath  string        `yaml:"denylist_path" validate:"required"`
	QueueSize     int           `yaml:"queue_size" validate:"min=1"`
	Storage       StorageConfig `yaml:"storage"`
	Health        HealthConfig  `yaml:"health"`
	Status        StatusConfig  `yaml:"status"`
	Notifications NotifyConfig  `yaml:"notifications"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=file memory sqlite postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

type StatusConfig struct {
	Enabled       bool `yaml:"enabled"`
	RotateMinutes int  `yaml:"rotate_minutes" validate:"min=1"`
}

type NotifyConfig struct {
	EmbedColors EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Ban     int `yaml:"ban"`
	Alert   int `yaml:"alert"`
	Error   int `yaml:"error"`
	Info    int `yaml:"info"`
	Summary int `yaml:"summary"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:     "info",
		DataDir:      "data",
		DenylistPath: "thelist.csv",
		QueueSize:    256,
		Storage:      StorageConfig{Driver: "file", SQLitePath: "data/despawner.db"},
		Health:       HealthConfig{Enabled: false, Addr: ":8080"},
		Status:       StatusConfig{Enabled: true, RotateMinutes: 5},
		Notifications: NotifyConfig{
			EmbedColors: EmbedColors{
				Ban:     0x3498DB,
				Alert:   0xF1C40F,
				Error:   0xE74C3C,
				Info:    0x2ECC71,
				Summary: 0xE74C3C,
			},
		},
	}
}

// Load reads .env, then the YAML file named by CONFIG_PATH, then environment
// overrides, and validates the result.
func Load() (Config, error) {
	envFile := envString("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := DefaultConfig()

	path := envString("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_BOT_TOKEN", cfg.DiscordToken)
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.DenylistPath = envString("DENYLIST_PATH", cfg.DenylistPath)
	cfg.QueueSize = envInt("QUEUE_SIZE", cfg.QueueSize)
	cfg.Storage.Driver = envString("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = envString("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.PostgresDSN = envString("POSTGRES_DSN", cfg.Storage.PostgresDSN)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Status.Enabled = envBool("STATUS_ENABLED", cfg.Status.Enabled)
	cfg.Status.RotateMinutes = envInt("STATUS_ROTATE_MINUTES", cfg.Status.RotateMinutes)
	cfg.Notifications.EmbedColors.Ban = envInt("EMBED_COLOR_BAN", cfg.Notifications.EmbedColors.Ban)
	cfg.Notifications.EmbedColors.Alert = envInt("EMBED_COLOR_ALERT", cfg.Notifications.EmbedColors.Alert)
	cfg.Notifications.EmbedColors.Error = envInt("EMBED_COLOR_ERROR", cfg.Notifications.EmbedColors.Error)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
