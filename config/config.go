package config

import (
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds every setting read from the environment.
type Config struct {
	Port           string        `env:"PORT" env-default:"3000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"10s"`
	BodyLimit      string        `env:"BODY_LIMIT" env-default:"10M"` // screenshots arrive base64 encoded

	Storage struct {
		Driver string `env:"STORAGE_DRIVER" env-default:"mongo"` // mongo | memory
	}
	Mongo struct {
		URI      string `env:"MONGODB_URI" env-default:"mongodb://localhost:27017"`
		Database string `env:"MONGODB_DATABASE" env-default:"bazaar"`
	}
	JWT struct {
		Secret string        `env:"JWT_SECRET" env-default:"change-me"`
		TTL    time.Duration `env:"JWT_TTL" env-default:"24h"`
	}
	Log struct {
		Level  string `env:"LOG_LEVEL" env-default:"info"`
		Format string `env:"LOG_FORMAT" env-default:"text"`
	}
	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
		Topic   string   `env:"KAFKA_TOPIC" env-default:"order-events"`
	}
	Delivery struct {
		DhakaInside  float64 `env:"DEFAULT_INSIDE_DHAKA" env-default:"60"`
		DhakaOutside float64 `env:"DEFAULT_OUTSIDE_DHAKA" env-default:"120"`
	}
}

var (
	cfg     Config
	cfgErr  error
	cfgOnce sync.Once
)

// LoadEnv loads environment variables from a .env file
func LoadEnv() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug("no .env file loaded, using process environment")
	}
}

// Get reads the configuration once.
func Get() (*Config, error) {
	cfgOnce.Do(func() {
		LoadEnv()
		cfgErr = cleanenv.ReadEnv(&cfg)
	})
	return &cfg, cfgErr
}
