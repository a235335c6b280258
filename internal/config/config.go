package config

import (
	"fmt"
	"log/slog"
	"time"
)

type Config struct {
	App   AppConfig   `koanf:"app"`
	Log   LogConfig   `koanf:"log"`
	DB    DBConfig    `koanf:"db"`
	Redis RedisConfig `koanf:"redis"`
	GRPC  GRPCConfig  `koanf:"grpc"`

	Metrics     MetricsConfig     `koanf:"metrics"`
	Matchmaking MatchmakingConfig `koanf:"matchmaking"`
	Discovery   DiscoveryConfig   `koanf:"discovery"`
	Proximity   ProximityConfig   `koanf:"proximity"`
	Nearby      NearbyConfig      `koanf:"nearby"`
	OpenAI      OpenAIConfig      `koanf:"openai"`
}

type AppConfig struct {
	ENV string `koanf:"env"`
}

type LogConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	Component string `koanf:"component"`
	Source    bool   `koanf:"source"`
}

type DBConfig struct {
	DSN        string `koanf:"dsn"`
	Host       string `koanf:"host"`
	Port       string `koanf:"port"`
	User       string `koanf:"user"`
	Password   string `koanf:"password"`
	Name       string `koanf:"name"`
	LogQueries bool   `koanf:"log_queries"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type GRPCConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// MatchmakingConfig holds the scored browse weights. The four weights are chosen so a
// perfect candidate lands exactly on 100.
type MatchmakingConfig struct {
	CandidateLimit int `koanf:"candidate_limit"`
	PageSize       int `koanf:"page_size"`
	MinScore       int `koanf:"min_score"`

	WeightCampus  int `koanf:"weight_campus"`
	WeightProgram int `koanf:"weight_program"`
	WeightYear    int `koanf:"weight_year"`
	WeightTag     int `koanf:"weight_tag"`
	TagCap        int `koanf:"tag_cap"`

	HighCompatibilityThreshold int           `koanf:"high_compatibility_threshold"`
	HighCompatibilityCooldown  time.Duration `koanf:"high_compatibility_cooldown"`
}

type DiscoveryConfig struct {
	PageSize int   `koanf:"page_size"`
	Seed     int64 `koanf:"seed"`
}

type ProximityConfig struct {
	CheckInRadiusM   float64       `koanf:"check_in_radius_m"`
	MatchFullRadiusM float64       `koanf:"match_full_radius_m"`
	PercentageMaxM   float64       `koanf:"percentage_max_m"`
	NearbyRadiusM    float64       `koanf:"nearby_radius_m"`
	RadarRadiusM     float64       `koanf:"radar_radius_m"`
	CampusCacheTTL   time.Duration `koanf:"campus_cache_ttl"`
}

type NearbyConfig struct {
	MinRadiusM int           `koanf:"min_radius_m"`
	MaxRadiusM int           `koanf:"max_radius_m"`
	Cooldown   time.Duration `koanf:"cooldown"`
}

type OpenAIConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	Model         string        `koanf:"model"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
}

// Default returns the built-in configuration, before any file or environment override.
func Default() *Config {
	return &Config{
		App: AppConfig{ENV: "production"},
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			Component: "grpc_server",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "3306",
			User:     "root",
			Password: "root",
			Name:     "campus_match",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		GRPC:  GRPCConfig{Host: "127.0.0.1", Port: "50051"},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9090",
		},
		Matchmaking: MatchmakingConfig{
			CandidateLimit:             300,
			PageSize:                   20,
			WeightCampus:               30,
			WeightProgram:              25,
			WeightYear:                 10,
			WeightTag:                  7,
			TagCap:                     35,
			HighCompatibilityThreshold: 70,
			HighCompatibilityCooldown:  24 * time.Hour,
		},
		Discovery: DiscoveryConfig{PageSize: 20},
		Proximity: ProximityConfig{
			CheckInRadiusM:   1,
			MatchFullRadiusM: 0.5,
			PercentageMaxM:   500,
			NearbyRadiusM:    10,
			RadarRadiusM:     500,
			CampusCacheTTL:   10 * time.Minute,
		},
		Nearby: NearbyConfig{
			MinRadiusM: 500,
			MaxRadiusM: 2000,
			Cooldown:   24 * time.Hour,
		},
		OpenAI: OpenAIConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			Timeout:       5 * time.Second,
			RatePerSecond: 2,
			Burst:         4,
		},
	}
}

// New loads configuration and falls back to defaults when loading fails.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Default().Warn("config load failed, using defaults", "err", err)
		cfg = Default()
		cfg.finalize()
	}
	return cfg
}

// finalize derives values that depend on other settings.
func (c *Config) finalize() {
	if c.DB.DSN == "" {
		c.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
		)
	}
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	m := c.Matchmaking
	if m.CandidateLimit <= 0 {
		return fmt.Errorf("matchmaking.candidate_limit must be positive")
	}
	if m.PageSize <= 0 || c.Discovery.PageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if m.WeightCampus < 0 || m.WeightProgram < 0 || m.WeightYear < 0 || m.WeightTag < 0 || m.TagCap < 0 {
		return fmt.Errorf("matchmaking weights must not be negative")
	}
	if c.Nearby.MinRadiusM <= 0 || c.Nearby.MaxRadiusM < c.Nearby.MinRadiusM {
		return fmt.Errorf("nearby radius bounds are invalid: %d..%d", c.Nearby.MinRadiusM, c.Nearby.MaxRadiusM)
	}
	if c.Proximity.PercentageMaxM <= c.Proximity.CheckInRadiusM {
		return fmt.Errorf("proximity.percentage_max_m must exceed check_in_radius_m")
	}
	return nil
}
