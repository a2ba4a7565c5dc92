package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	PRPC     PRPCConfig     `json:"prpc"`
	Polling  PollingConfig  `json:"polling"`
	Redis    RedisConfig    `json:"redis"`
	GeoIP    GeoIPConfig    `json:"geoip"`
	Versions VersionsConfig `json:"versions"`
	MongoDB  MongoDBConfig  `json:"mongodb"`
	Discord  DiscordConfig  `json:"discord"`
	Alerts   AlertConfig    `json:"alerts"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type PRPCConfig struct {
	Entrypoints []string `json:"entrypoints"`
	Timeout     int      `json:"timeout_seconds"`
	MaxRetries  int      `json:"max_retries"`
}

type PollingConfig struct {
	Interval int `json:"interval_seconds"` // poll cycle cadence
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

// VersionsConfig holds the release-line thresholds node versions are
// classified against.
type VersionsConfig struct {
	CurrentStable string `json:"current_stable"`
	MinSupported  string `json:"min_supported"`
	Deprecated    string `json:"deprecated"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

type AlertConfig struct {
	OfflineRatio    float64 `json:"offline_ratio"`    // 0..1, alert threshold
	CooldownMinutes int     `json:"cooldown_minutes"` // minimum gap between alerts
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		PRPC: PRPCConfig{
			Entrypoints: []string{
				"https://entrypoint.devnet.xandeum.network:8899",
				"https://entrypoint.mainnet.xandeum.network:8899",
			},
			Timeout:    5,
			MaxRetries: 3,
		},
		Polling: PollingConfig{
			Interval: 30,
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
			Enabled:  true,
			UseTLS:   false,
		},
		GeoIP: GeoIPConfig{
			DBPath: "",
		},
		Versions: VersionsConfig{
			CurrentStable: "1.4.0",
			MinSupported:  "1.2.0",
			Deprecated:    "1.1.0",
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "pnodewatch",
			Enabled:  false,
		},
		Discord: DiscordConfig{},
		Alerts: AlertConfig{
			OfflineRatio:    0.25,
			CooldownMinutes: 15,
		},
	}

	// Load from config file if exists
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Environment variables override the config file
	loadEnv(cfg)

	// Command-line flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}

	if val := os.Getenv("PRPC_ENTRYPOINTS"); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.PRPC.Entrypoints = parts
	}
	if val := os.Getenv("PRPC_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.Timeout = p
		}
	}
	if val := os.Getenv("PRPC_MAX_RETRIES"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.MaxRetries = p
		}
	}

	if val := os.Getenv("POLL_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.Interval = p
		}
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_USE_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	if val := os.Getenv("VERSION_CURRENT_STABLE"); val != "" {
		cfg.Versions.CurrentStable = val
	}
	if val := os.Getenv("VERSION_MIN_SUPPORTED"); val != "" {
		cfg.Versions.MinSupported = val
	}
	if val := os.Getenv("VERSION_DEPRECATED"); val != "" {
		cfg.Versions.Deprecated = val
	}

	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Discord.BotToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}

	if val := os.Getenv("ALERT_OFFLINE_RATIO"); val != "" {
		if p, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Alerts.OfflineRatio = p
		}
	}
	if val := os.Getenv("ALERT_COOLDOWN_MINUTES"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Alerts.CooldownMinutes = p
		}
	}
}

// Helper methods for duration conversion
func (c *Config) PRPCTimeoutDuration() time.Duration {
	return time.Duration(c.PRPC.Timeout) * time.Second
}

func (c *Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.Polling.Interval) * time.Second
}

func (c *Config) AlertCooldownDuration() time.Duration {
	return time.Duration(c.Alerts.CooldownMinutes) * time.Minute
}
