package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config aggregates all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	AI         AIConfig         `yaml:"ai"`
	Agent      AgentConfig      `yaml:"agent"`
	Currency   CurrencyConfig   `yaml:"currency"`
	GoogleMaps GoogleMapsConfig `yaml:"google_maps"`
	Amadeus    AmadeusConfig    `yaml:"amadeus"`
	Nager      NagerConfig      `yaml:"nager"`
	Tavily     TavilyConfig     `yaml:"tavily"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT" env-default:"8000"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type AIConfig struct {
	Plugin string       `yaml:"plugin" env:"AI_PLUGIN" env-default:"gemini"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`
	Zai    ZaiConfig    `yaml:"zai"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
}

type OllamaConfig struct {
	Model   string `yaml:"model" env:"OLLAMA_MODEL" env-default:"qwen3:4b"`
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
}

type ZaiConfig struct {
	APIKey  string `yaml:"api_key" env:"ZAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"ZAI_BASE_URL" env-default:"https://api.z.ai/api/paas/v4/"`
	Model   string `yaml:"model" env:"ZAI_MODEL" env-default:"glm-4.6"`
}

// AgentConfig bounds the conversation loop.
type AgentConfig struct {
	MaxTurns        int    `yaml:"max_turns" env:"AGENT_MAX_TURNS" env-default:"25"`
	ToolConcurrency int    `yaml:"tool_concurrency" env:"AGENT_TOOL_CONCURRENCY" env-default:"1"`
	Timezone        string `yaml:"timezone" env:"AGENT_TIMEZONE" env-default:"UTC"`
}

type CurrencyConfig struct {
	Default        string `yaml:"default" env:"DEFAULT_CURRENCY" env-default:"USD"`
	DefaultCountry string `yaml:"default_country" env:"DEFAULT_COUNTRY" env-default:"US"`
}

type GoogleMapsConfig struct {
	APIKey       string        `yaml:"api_key" env:"GOOGLE_MAPS_API_KEY"`
	RequestDelay time.Duration `yaml:"request_delay" env:"GOOGLE_MAPS_REQUEST_DELAY" env-default:"200ms"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"GOOGLE_MAPS_CACHE_TTL" env-default:"168h"`
}

type AmadeusConfig struct {
	ClientID     string        `yaml:"client_id" env:"AMADEUS_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"AMADEUS_CLIENT_SECRET"`
	Production   bool          `yaml:"production" env:"AMADEUS_PRODUCTION" env-default:"false"`
	HotelLimit   int           `yaml:"hotel_limit" env:"AMADEUS_HOTEL_LIMIT" env-default:"20"`
	Timeout      time.Duration `yaml:"timeout" env:"AMADEUS_TIMEOUT" env-default:"30s"`
}

type NagerConfig struct {
	BaseURL string `yaml:"base_url" env:"NAGER_BASE_URL" env-default:"https://date.nager.at/api/v3"`
}

type TavilyConfig struct {
	APIKey   string        `yaml:"api_key" env:"TAVILY_API_KEY"`
	BaseURL  string        `yaml:"base_url" env:"TAVILY_BASE_URL" env-default:"https://api.tavily.com"`
	Timeout  time.Duration `yaml:"timeout" env:"TAVILY_TIMEOUT" env-default:"20s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"TAVILY_CACHE_TTL" env-default:"1h"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_DSN" env-default:"tripchat.db"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Location parses Agent.Timezone.
func (a AgentConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid agent timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from config.yaml and environment variables
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit file path. A missing file is not an
// error; values then come from the environment and defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	if cfg.Agent.MaxTurns <= 0 {
		return nil, fmt.Errorf("agent max_turns must be positive, got %d", cfg.Agent.MaxTurns)
	}
	if cfg.Agent.ToolConcurrency <= 0 {
		cfg.Agent.ToolConcurrency = 1
	}

	return &cfg, nil
}
