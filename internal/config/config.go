package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type PriceConfig struct {
	Env        string `yaml:"env"`
	HTTPServer `yaml:"http_server"`
	PriceDB    `yaml:"price_db"`
	LogConfig  `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Recompute  RecomputeConfig `yaml:"recompute"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type PriceDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type KafkaService struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type RecomputeConfig struct {
	Lookback         time.Duration `yaml:"lookback" env-default:"168h"`
	BatchSize        int           `yaml:"batch_size" env-default:"1000"`
	WorkerConcurrency int          `yaml:"worker_concurrency" env-default:"5"`
	ScheduleInterval time.Duration `yaml:"schedule_interval" env-default:"5m"`
	// Периодический FULL-пересчет запускает только назначенный инстанс
	SchedulerEnabled bool          `yaml:"scheduler_enabled" env-default:"false"`
	InstanceID       string        `yaml:"instance_id"`
	MaxAttempts      int32         `yaml:"max_attempts" env-default:"3"`
	LeaseTTL         time.Duration `yaml:"lease_ttl" env-default:"2m"`
	WatchdogInterval time.Duration `yaml:"watchdog_interval" env-default:"30s"`
	OutboxInterval   time.Duration `yaml:"outbox_interval" env-default:"5s"`
	Topic            string        `yaml:"topic" env-default:"recompute-jobs"`
	GroupID          string        `yaml:"group_id" env-default:"price-recompute-workers"`
}

func MustLoad() *PriceConfig {

	// Processing env config variable and file
	configPath := os.Getenv("PRICE_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("PRICE_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg PriceConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
