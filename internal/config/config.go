package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string   `mapstructure:"mode"`
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	StaticPath  string   `mapstructure:"static_path"`
	Secret      string   `mapstructure:"secret"`
	LogLevel    string   `mapstructure:"log_level"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	WS        WSConfig        `mapstructure:"ws"`
	Rooms     RoomsConfig     `mapstructure:"rooms"`
	Signaling SignalingConfig `mapstructure:"signaling"`
	WebRTC    WebRTCConfig    `mapstructure:"webrtc"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Recording RecordingConfig `mapstructure:"recording"`
}

type WSConfig struct {
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
}

type RoomsConfig struct {
	DefaultRoom string `mapstructure:"default_room"`
	MaxUsers    int    `mapstructure:"max_users"`
	MaxCapacity int    `mapstructure:"max_capacity"`
}

type SignalingConfig struct {
	TrackLinks       bool          `mapstructure:"track_links"`
	Backpressure     string        `mapstructure:"backpressure"`
	JoinRateLimit    int           `mapstructure:"join_rate_limit"`
	JoinRateInterval time.Duration `mapstructure:"join_rate_interval"`
}

type WebRTCConfig struct {
	ICEServers []string `mapstructure:"ice_servers"`
}

type StorageConfig struct {
	BasePath          string              `mapstructure:"base_path"`
	MaxFileSize       int64               `mapstructure:"max_file_size"`
	AllowedExtensions map[string][]string `mapstructure:"allowed_extensions"`
}

type RecordingConfig struct {
	RetentionDays int           `mapstructure:"retention_days"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("host", "")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("ws.read_limit", 65536)
	v.SetDefault("ws.ping_period", "54s")
	v.SetDefault("ws.pong_wait", "60s")
	v.SetDefault("ws.write_wait", "10s")
	v.SetDefault("ws.send_buffer", 64)

	v.SetDefault("rooms.default_room", "default")
	v.SetDefault("rooms.max_users", 5)
	v.SetDefault("rooms.max_capacity", 16)

	v.SetDefault("signaling.track_links", true)
	v.SetDefault("signaling.backpressure", "drop")
	v.SetDefault("signaling.join_rate_limit", 10)
	v.SetDefault("signaling.join_rate_interval", "10s")

	v.SetDefault("webrtc.ice_servers", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	})

	v.SetDefault("storage.base_path", "sessions")
	v.SetDefault("storage.max_file_size", 100<<20)
	v.SetDefault("storage.allowed_extensions", map[string][]string{
		"audio": {".mp3", ".wav", ".ogg", ".m4a", ".webm"},
		"video": {".mp4", ".webm", ".avi", ".mov", ".mkv"},
	})

	v.SetDefault("recording.retention_days", 30)
	v.SetDefault("recording.purge_interval", "1h")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads one YAML file over the defaults; a missing file is not an error.
// VIDEOROOM_* environment variables override both.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("VIDEOROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Int("max_users", cfg.Rooms.MaxUsers).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Rooms.MaxUsers <= 0 {
		errs = append(errs, fmt.Errorf("rooms.max_users must be positive, got %d", c.Rooms.MaxUsers))
	}
	if c.Rooms.MaxCapacity < c.Rooms.MaxUsers {
		errs = append(errs, fmt.Errorf("rooms.max_capacity %d is below rooms.max_users %d", c.Rooms.MaxCapacity, c.Rooms.MaxUsers))
	}
	if strings.TrimSpace(c.Rooms.DefaultRoom) == "" {
		errs = append(errs, errors.New("rooms.default_room is empty"))
	}
	switch c.Signaling.Backpressure {
	case "drop", "kick":
	default:
		errs = append(errs, fmt.Errorf("unknown signaling.backpressure %q", c.Signaling.Backpressure))
	}
	if c.WS.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("ws.send_buffer must be positive, got %d", c.WS.SendBuffer))
	}
	if c.Storage.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("storage.max_file_size must be positive, got %d", c.Storage.MaxFileSize))
	}
	if c.Recording.RetentionDays > 0 && c.Recording.PurgeInterval <= 0 {
		errs = append(errs, errors.New("recording.purge_interval must be positive when retention is enabled"))
	}
	return errors.Join(errs...)
}
