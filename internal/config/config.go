package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"booking-service/internal/scheduling"
)

const (
	StorageMemory = "memory"

	NotifyStore = "store"
	NotifyKafka = "kafka"
	NotifyNone  = "none"
)

type Config struct {
	Env           string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath   string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	FixturePath   string `yaml:"fixture_path" env:"FIXTURE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	HTTPServer    `yaml:"http_server"`
	Schedule      Schedule      `yaml:"schedule"`
	Booking       Booking       `yaml:"booking"`
	Notifications Notifications `yaml:"notifications"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

type Schedule struct {
	OpeningStart    string `yaml:"opening_start" env-default:"09:00"`
	OpeningEnd      string `yaml:"opening_end" env-default:"18:00"`
	Step            int    `yaml:"alternative_step" env-default:"30"`
	GridTick        int    `yaml:"grid_tick" env-default:"15"`
	LookaheadDays   int    `yaml:"lookahead_days" env-default:"7"`
	MaxAlternatives int    `yaml:"max_alternatives" env-default:"5"`
	DefaultDuration int    `yaml:"default_duration" env-default:"60"`
}

type Booking struct {
	LockTTL  time.Duration `yaml:"lock_ttl" env-default:"10s"`
	LockWait time.Duration `yaml:"lock_wait" env-default:"3s"`
}

type Notifications struct {
	Driver  string `yaml:"driver" env:"NOTIFY_DRIVER" env-default:"store"`
	Brokers string `yaml:"kafka_brokers" env:"KAFKA_BROKERS"`
	Topic   string `yaml:"kafka_topic" env:"KAFKA_TOPIC" env-default:"reservations"`
}

// SchedulingOptions converts the schedule section into engine options.
func (s Schedule) SchedulingOptions() (scheduling.Options, error) {
	start, err := scheduling.ToMinutes(s.OpeningStart)
	if err != nil {
		return scheduling.Options{}, err
	}
	end, err := scheduling.ToMinutes(s.OpeningEnd)
	if err != nil {
		return scheduling.Options{}, err
	}
	if end <= start {
		return scheduling.Options{}, errors.New("schedule: opening_end must be after opening_start")
	}

	return scheduling.Options{
		OpeningStart:    start,
		OpeningEnd:      end,
		Step:            s.Step,
		GridTick:        s.GridTick,
		LookaheadDays:   s.LookaheadDays,
		MaxAlternatives: s.MaxAlternatives,
		DefaultDuration: s.DefaultDuration,
	}, nil
}

func MustLoad() *Config {
	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
