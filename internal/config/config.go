package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	GeminiAI GeminiAIConfig `mapstructure:"gemini_ai"`
	Image    ImageConfig    `mapstructure:"image"`
	Store    StoreConfig    `mapstructure:"store"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	RelayTimeout    time.Duration `mapstructure:"relay_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// LLMConfig holds the sampling parameters shared by every chat provider.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	ChatModel  string `mapstructure:"chat_model"`
	ImageModel string `mapstructure:"image_model"`
	ImageSize  string `mapstructure:"image_size"`
}

type GeminiAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ImageConfig struct {
	Dir       string   `mapstructure:"dir"`
	URLPrefix string   `mapstructure:"url_prefix"`
	Modifiers []string `mapstructure:"modifiers"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	BoltPath    string `mapstructure:"bolt_path"`
	DatabaseURL string `mapstructure:"database_url"`
}

type JWTConfig struct {
	SecretKey   string `mapstructure:"secret_key"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StoreDriverBolt     = "bolt"
	StoreDriverPostgres = "postgres"
)

var defaults = map[string]any{
	"server.port":             "8080",
	"server.relay_timeout":    60 * time.Second,
	"server.shutdown_timeout": 10 * time.Second,

	"cors.allow_origins":     []string{"*"},
	"cors.allow_methods":     []string{"GET", "POST", "PATCH", "OPTIONS"},
	"cors.allow_headers":     []string{"Accept", "Authorization", "Content-Type"},
	"cors.expose_headers":    []string{"Content-Type"},
	"cors.allow_credentials": false,

	"llm.provider":    ProviderOpenAI,
	"llm.max_tokens":  200,
	"llm.temperature": 1.0,

	"openai.api_key":     "",
	"openai.base_url":    "",
	"openai.chat_model":  "gpt-3.5-turbo",
	"openai.image_model": "dall-e-2",
	"openai.image_size":  "512x512",

	"gemini_ai.api_key": "",
	"gemini_ai.model":   "gemini-2.0-flash",

	"image.dir":        "./public/images/generated",
	"image.url_prefix": "/images/generated",
	"image.modifiers":  []string{},

	"store.driver":       StoreDriverBolt,
	"store.bolt_path":    "./data/combatai.db",
	"store.database_url": "",

	"jwt.secret_key":   "",
	"jwt.expiry_hours": 720,
}

// LoadConfig reads an optional .env file, an optional YAML file and the
// process environment, in increasing order of precedence.
func LoadConfig(configPath string, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required (OPENAI_API_KEY)")
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required (JWT_SECRET_KEY)")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
	case ProviderGemini:
		if c.GeminiAI.APIKey == "" {
			return errors.New("gemini_ai.api_key is required when llm.provider is gemini")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}

	switch c.Store.Driver {
	case StoreDriverBolt:
		if c.Store.BoltPath == "" {
			return errors.New("store.bolt_path is required when store.driver is bolt")
		}
	case StoreDriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("store.database_url is required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	// go-openai omits a zero temperature, which would silently fall back to
	// the provider default.
	if c.LLM.Temperature <= 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be in (0, 2]")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm.max_tokens must be positive")
	}
	if c.Server.RelayTimeout <= 0 {
		return errors.New("server.relay_timeout must be positive")
	}

	return nil
}
