package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config - 뷰어와 시뮬레이터 공통 설정
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

type ViewerConfig struct {
	Addr             string          `yaml:"addr"`
	Source           string          `yaml:"source"` // sse | mqtt
	StreamURL        string          `yaml:"stream_url"`
	APIBaseURL       string          `yaml:"api_base_url"`
	CSSWidth         float64         `yaml:"css_width"`
	CSSHeight        float64         `yaml:"css_height"`
	DevicePixelRatio float64         `yaml:"device_pixel_ratio"`
	MetadataRefresh  time.Duration   `yaml:"metadata_refresh"`
	AllowOrigins     string          `yaml:"allow_origins"`
	Reconnect        ReconnectConfig `yaml:"reconnect"`
}

type ReconnectConfig struct {
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
	MaxRetries    int           `yaml:"max_retries"` // 0 = 무제한
}

type SimulatorConfig struct {
	Addr           string        `yaml:"addr"`
	Objects        int           `yaml:"objects"`
	UpdateInterval time.Duration `yaml:"update_interval"`
	Seed           int64         `yaml:"seed"` // 0 = 현재 시각
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite | mysql
	Path     string `yaml:"path"`   // sqlite 파일
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Viewer: ViewerConfig{
			Addr:             ":3000",
			Source:           "sse",
			StreamURL:        "http://localhost:8080/api/positions/stream",
			APIBaseURL:       "http://localhost:8080",
			CSSWidth:         800,
			CSSHeight:        800,
			DevicePixelRatio: 1,
			MetadataRefresh:  time.Minute,
			AllowOrigins:     "http://localhost:5173, http://localhost:3000",
			Reconnect: ReconnectConfig{
				RetryDelay:    500 * time.Millisecond,
				MaxRetryDelay: 30 * time.Second,
			},
		},
		Simulator: SimulatorConfig{
			Addr:           ":8080",
			Objects:        250,
			UpdateInterval: 100 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "assetmap.db",
			Port:   3306,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "assetmap",
			Topic:    "assetmap/positions",
		},
	}
}

// Load - .env → 기본값 → CONFIG_FILE(yaml) → 환경 변수 순서로 적용
func Load() (Config, error) {
	// .env 파일은 없어도 됨
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Viewer.Addr = getEnv("VIEWER_ADDR", c.Viewer.Addr)
	c.Viewer.Source = getEnv("VIEWER_SOURCE", c.Viewer.Source)
	c.Viewer.StreamURL = getEnv("STREAM_URL", c.Viewer.StreamURL)
	c.Viewer.APIBaseURL = getEnv("API_BASE_URL", c.Viewer.APIBaseURL)
	c.Viewer.CSSWidth = getEnvFloat("VIEWER_WIDTH", c.Viewer.CSSWidth)
	c.Viewer.CSSHeight = getEnvFloat("VIEWER_HEIGHT", c.Viewer.CSSHeight)
	c.Viewer.DevicePixelRatio = getEnvFloat("VIEWER_DPR", c.Viewer.DevicePixelRatio)
	c.Viewer.MetadataRefresh = getEnvDuration("METADATA_REFRESH", c.Viewer.MetadataRefresh)
	c.Viewer.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", c.Viewer.AllowOrigins)
	c.Viewer.Reconnect.RetryDelay = getEnvDuration("RECONNECT_DELAY", c.Viewer.Reconnect.RetryDelay)
	c.Viewer.Reconnect.MaxRetryDelay = getEnvDuration("RECONNECT_MAX_DELAY", c.Viewer.Reconnect.MaxRetryDelay)
	c.Viewer.Reconnect.MaxRetries = getEnvInt("RECONNECT_MAX_RETRIES", c.Viewer.Reconnect.MaxRetries)

	c.Simulator.Addr = getEnv("SIMULATOR_ADDR", c.Simulator.Addr)
	c.Simulator.Objects = getEnvInt("SIMULATOR_OBJECTS", c.Simulator.Objects)
	c.Simulator.UpdateInterval = getEnvDuration("SIMULATOR_INTERVAL", c.Simulator.UpdateInterval)
	c.Simulator.Seed = int64(getEnvInt("SIMULATOR_SEED", int(c.Simulator.Seed)))

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Path = getEnv("SQLITE_PATH", c.Database.Path)
	c.Database.Host = getEnv("MYSQL_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("MYSQL_PORT", c.Database.Port)
	c.Database.User = getEnv("MYSQL_USER", c.Database.User)
	c.Database.Password = getEnv("MYSQL_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("MYSQL_DATABASE", c.Database.Name)

	c.MQTT.Enabled = getEnvBool("MQTT_ENABLED", c.MQTT.Enabled)
	c.MQTT.Broker = getEnv("MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Topic = getEnv("MQTT_TOPIC", c.MQTT.Topic)
}

func (c *Config) validate() error {
	var errs []error

	if c.Viewer.CSSWidth <= 0 || c.Viewer.CSSHeight <= 0 {
		errs = append(errs, fmt.Errorf("viewer 크기가 올바르지 않습니다: %vx%v", c.Viewer.CSSWidth, c.Viewer.CSSHeight))
	}
	if c.Viewer.DevicePixelRatio <= 0 {
		errs = append(errs, fmt.Errorf("device_pixel_ratio는 0보다 커야 합니다: %v", c.Viewer.DevicePixelRatio))
	}
	switch c.Viewer.Source {
	case "sse", "mqtt":
	default:
		errs = append(errs, fmt.Errorf("알 수 없는 viewer.source: %q", c.Viewer.Source))
	}
	if c.Viewer.Reconnect.RetryDelay <= 0 || c.Viewer.Reconnect.MaxRetryDelay < c.Viewer.Reconnect.RetryDelay {
		errs = append(errs, errors.New("reconnect 지연 설정이 올바르지 않습니다"))
	}
	if c.Viewer.MetadataRefresh <= 0 {
		errs = append(errs, errors.New("viewer.metadata_refresh는 0보다 커야 합니다"))
	}
	if c.Simulator.Objects <= 0 {
		errs = append(errs, fmt.Errorf("simulator.objects는 0보다 커야 합니다: %d", c.Simulator.Objects))
	}
	if c.Simulator.UpdateInterval <= 0 {
		errs = append(errs, errors.New("simulator.update_interval은 0보다 커야 합니다"))
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("sqlite 경로가 비어 있습니다"))
		}
	case "mysql":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Password == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("MySQL 환경 변수가 모두 설정되지 않았습니다: MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE"))
		}
	default:
		errs = append(errs, fmt.Errorf("알 수 없는 DB 드라이버: %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger from the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
