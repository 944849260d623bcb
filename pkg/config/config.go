package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Speech   SpeechConfig
	LLM      LLMConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Bot      BotConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Port            string   `envconfig:"PORT" default:"8080"`
	PublicHost      string   `envconfig:"PUBLIC_HOST" default:"localhost"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	WebhookSecret   string   `envconfig:"WEBHOOK_SECRET"`
}

// ProviderConfig holds meeting-bot provider configuration
type ProviderConfig struct {
	BaseURL string        `envconfig:"BASE_URL" default:"https://us-west-2.recall.ai"`
	Token   string        `envconfig:"TOKEN"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// SpeechConfig holds speech-to-text provider configuration
type SpeechConfig struct {
	URL     string        `envconfig:"URL" default:"https://stt.api.cloud.yandex.net/speech/v1/stt:recognize?topic=general"`
	APIKey  string        `envconfig:"API_KEY"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
	// Provider selects the transcriber backend: "http" or "assemblyai".
	Provider       string `envconfig:"PROVIDER" default:"http"`
	AssemblyAPIKey string `envconfig:"ASSEMBLYAI_API_KEY"`
}

// LLMConfig holds summarization model configuration
type LLMConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" default:"https://llm.api.cloud.yandex.net"`
	APIKey    string        `envconfig:"API_KEY"`
	ModelURI  string        `envconfig:"MODEL_URI"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"60s"`
	MaxTokens int           `envconfig:"MAX_TOKENS" default:"2000"`
	// DenyList holds stock refusal phrases; a completion containing any of
	// them (case-insensitive) is treated as declined by the provider.
	DenyList []string `envconfig:"DENY_LIST" default:"i'm sorry,i cannot help with that,let's change the subject,hard to pick out the key points"`
}

// StoreConfig holds the external summary store endpoints
type StoreConfig struct {
	BaseURL string        `envconfig:"BASE_URL"`
	Token   string        `envconfig:"TOKEN"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// DatabaseConfig holds database configuration for the summarization audit log
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	Name     string `envconfig:"NAME" default:"meeting_scribe"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"MIN_CONNS" default:"5"`
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
}

// StorageConfig holds object storage configuration for audio archival
type StorageConfig struct {
	Endpoint        string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"BUCKET" default:"meeting-scribe-audio"`
	UseSSL          bool   `envconfig:"USE_SSL" default:"false"`
	Enabled         bool   `envconfig:"ENABLED" default:"false"`
}

// BotConfig holds the live session engine tuning knobs
type BotConfig struct {
	Name string `envconfig:"NAME" default:"ArchipelagoSummer"`

	// The lag window is the trailing byte range the pipeline leaves
	// unconsumed on each extraction to absorb cross-stream arrival skew.
	// 19200 bytes is roughly 0.6s at 16kHz mono PCM16.
	SampleRate     int `envconfig:"SAMPLE_RATE" default:"16000"`
	LagWindowBytes int `envconfig:"LAG_WINDOW_BYTES" default:"19200"`

	ExtractionInterval time.Duration `envconfig:"EXTRACTION_INTERVAL" default:"5s"`
	ExtractionPressure time.Duration `envconfig:"EXTRACTION_PRESSURE" default:"25s"`
	SummaryInterval    time.Duration `envconfig:"SUMMARY_INTERVAL" default:"60s"`
	LivenessInterval   time.Duration `envconfig:"LIVENESS_INTERVAL" default:"30s"`

	MinPromptLen int    `envconfig:"MIN_PROMPT_LEN" default:"50"`
	NoiseToken   string `envconfig:"NOISE_TOKEN" default:"noise"`

	AudioWSPort   int `envconfig:"AUDIO_WS_PORT" default:"5723"`
	SpeakerWSPort int `envconfig:"SPEAKER_WS_PORT" default:"5724"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	sections := []struct {
		prefix string
		target interface{}
	}{
		{"SERVER", &cfg.Server},
		{"RECALL", &cfg.Provider},
		{"SPEECH", &cfg.Speech},
		{"LLM", &cfg.LLM},
		{"SUMMARY_STORE", &cfg.Store},
		{"DB", &cfg.Database},
		{"REDIS", &cfg.Redis},
		{"STORAGE", &cfg.Storage},
		{"BOT", &cfg.Bot},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return nil, fmt.Errorf("config section %s: %w", s.prefix, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bot.LagWindowBytes < 0 {
		return fmt.Errorf("BOT_LAG_WINDOW_BYTES must not be negative")
	}
	if c.Bot.ExtractionInterval <= 0 {
		return fmt.Errorf("BOT_EXTRACTION_INTERVAL must be positive")
	}
	if c.Bot.SummaryInterval <= 0 {
		return fmt.Errorf("BOT_SUMMARY_INTERVAL must be positive")
	}
	if c.Bot.MinPromptLen < 0 {
		return fmt.Errorf("BOT_MIN_PROMPT_LEN must not be negative")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// AudioWebhookURL returns the websocket URL the provider streams raw audio to
func (c *Config) AudioWebhookURL() string {
	return fmt.Sprintf("ws://%s:%d", c.Server.PublicHost, c.Bot.AudioWSPort)
}

// SpeakerWebhookURL returns the websocket URL for speaker-timeline events
func (c *Config) SpeakerWebhookURL() string {
	return fmt.Sprintf("ws://%s:%d", c.Server.PublicHost, c.Bot.SpeakerWSPort)
}

// TranscriptWebhookURL returns the HTTP URL for transcript-fragment delivery
func (c *Config) TranscriptWebhookURL() string {
	return fmt.Sprintf("http://%s:%s/v1/webhooks/transcription", c.Server.PublicHost, c.Server.Port)
}
