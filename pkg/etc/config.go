package etc

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type Config struct {
	Bandit     Bandit
	API        API
	RedisPool  RedisPool
	RedisStore RedisStore
	JobQueue   JobQueue
	Metrics    Metrics
}

type Bandit struct {
	Executable string        `env:"SCANNER_BANDIT_EXECUTABLE" envDefault:"bandit"`
	ResultsDir string        `env:"SCANNER_BANDIT_RESULTS_DIR" envDefault:"analysis_results"`
	SourcesDir string        `env:"SCANNER_BANDIT_SOURCES_DIR" envDefault:"."`
	Timeout    time.Duration `env:"SCANNER_BANDIT_TIMEOUT" envDefault:"5m0s"`
}

type API struct {
	Addr           string        `env:"SCANNER_API_SERVER_ADDR" envDefault:":8080"`
	ReadTimeout    time.Duration `env:"SCANNER_API_SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SCANNER_API_SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout    time.Duration `env:"SCANNER_API_SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	MaxConnections int           `env:"SCANNER_API_SERVER_MAX_CONNECTIONS" envDefault:"0"`
}

type RedisPool struct {
	URL               string        `env:"SCANNER_REDIS_URL" envDefault:"redis://localhost:6379"`
	MaxActive         int           `env:"SCANNER_REDIS_POOL_MAX_ACTIVE" envDefault:"5"`
	MaxIdle           int           `env:"SCANNER_REDIS_POOL_MAX_IDLE" envDefault:"5"`
	IdleTimeout       time.Duration `env:"SCANNER_REDIS_POOL_IDLE_TIMEOUT" envDefault:"5m"`
	ConnectionTimeout time.Duration `env:"SCANNER_REDIS_POOL_CONNECTION_TIMEOUT" envDefault:"1s"`
	ReadTimeout       time.Duration `env:"SCANNER_REDIS_POOL_READ_TIMEOUT" envDefault:"1s"`
	WriteTimeout      time.Duration `env:"SCANNER_REDIS_POOL_WRITE_TIMEOUT" envDefault:"1s"`
}

type RedisStore struct {
	Namespace  string        `env:"SCANNER_STORE_REDIS_NAMESPACE" envDefault:"bandit.adapter:data-store"`
	ScanJobTTL time.Duration `env:"SCANNER_STORE_REDIS_SCAN_JOB_TTL" envDefault:"1h"`
}

type JobQueue struct {
	Namespace string `env:"SCANNER_JOB_QUEUE_REDIS_NAMESPACE" envDefault:"bandit.adapter:job-queue"`

	// ChannelSize is the number of published jobs buffered while a scan runs.
	ChannelSize int `env:"SCANNER_JOB_QUEUE_CHANNEL_SIZE" envDefault:"1000"`
}

type Metrics struct {
	Addr     string `env:"SCANNER_METRICS_ADDR"`
	Endpoint string `env:"SCANNER_METRICS_ENDPOINT" envDefault:"/metrics"`
}

func (m Metrics) IsEnabled() bool {
	return m.Addr != ""
}

func GetLogLevel() slog.Level {
	if value, ok := os.LookupEnv("SCANNER_LOG_LEVEL"); ok {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err == nil {
			return level
		}
	}
	return slog.LevelInfo
}

func GetConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func GetScannerMetadata(version string) Scanner {
	if version == "" {
		version = "Unknown"
	}
	return Scanner{
		Name:    "Bandit",
		Vendor:  "PyCQA",
		Version: version,
	}
}

// Scanner describes the wrapped security linter.
type Scanner struct {
	Name    string `json:"name"`
	Vendor  string `json:"vendor"`
	Version string `json:"version"`
}
