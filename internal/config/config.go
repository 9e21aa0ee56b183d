package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	HDS      HDSConfig      `envPrefix:"HDS_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Chat     ChatConfig     `envPrefix:"CHAT_"`
	LLM      LLMConfig      `envPrefix:"LLM_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:*,http://127.0.0.1:*"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-me"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	Pprof          bool          `env:"PPROF" envDefault:"false"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type HDSConfig struct {
	ServiceInfoURL string        `env:"SERVICE_INFO_URL" envDefault:"https://demo.datasafe.dev/reg/service/info"`
	AppID          string        `env:"APP_ID" envDefault:"hds-chat"`
	Origin         string        `env:"ORIGIN"`
	Language       string        `env:"LANGUAGE" envDefault:"en"`
	FeedMode       string        `env:"FEED_MODE" envDefault:"socket"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RetryCount     int           `env:"RETRY_COUNT" envDefault:"2"`
	// SeedEventsLimit bounds the initial events.get of a new connection.
	SeedEventsLimit int `env:"SEED_EVENTS_LIMIT" envDefault:"500"`
}

type StoreConfig struct {
	Driver string `env:"DRIVER" envDefault:"file"`
	Path   string `env:"PATH" envDefault:"./data/state.json"`
	// EncryptionKey is a base64 encoded 32 byte key. Values are stored in clear
	// when empty.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
}

type DatabaseConfig struct {
	Hosts    string `env:"HOSTS" envDefault:"localhost:27017"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Database string `env:"DATABASE" envDefault:"hds_chat"`
}

type KafkaConfig struct {
	Enabled       bool     `env:"ENABLED" envDefault:"false"`
	Brokers       []string `env:"BROKERS" envDefault:"localhost:9092"`
	ActivityTopic string   `env:"ACTIVITY_TOPIC" envDefault:"hds-chat.activities"`
	ClientID      string   `env:"CLIENT_ID" envDefault:"hds-chat"`
	Workers       int      `env:"WORKERS" envDefault:"2"`
}

type ChatConfig struct {
	// Source is "mock" for generated demo data or "remote" for HDS events.
	Source           string        `env:"SOURCE" envDefault:"mock"`
	DemoReplies      bool          `env:"DEMO_REPLIES" envDefault:"true"`
	ReplyProbability float64       `env:"REPLY_PROBABILITY" envDefault:"0.3"`
	FormProbability  float64       `env:"FORM_PROBABILITY" envDefault:"0.5"`
	ReplyMinDelay    time.Duration `env:"REPLY_MIN_DELAY" envDefault:"2s"`
	ReplyMaxDelay    time.Duration `env:"REPLY_MAX_DELAY" envDefault:"5s"`
	LoadDelay        time.Duration `env:"LOAD_DELAY" envDefault:"500ms"`
	SendDelay        time.Duration `env:"SEND_DELAY" envDefault:"300ms"`
}

type LLMConfig struct {
	GoogleAIAPIKey string `env:"GOOGLE_AI_API_KEY"`
	Model          string `env:"MODEL" envDefault:"googleai/gemini-2.5-flash"`
}

type LogConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file then parses the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
