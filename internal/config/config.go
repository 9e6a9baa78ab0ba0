package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"FakeNewsDetector/internal/preprocess"
)

const (
	configPathEnv     = "FAKENEWS_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	monantHostEnv     = "MONANT_API_HOST"
	monantUserEnv     = "MONANT_USERNAME"
	monantPasswordEnv = "MONANT_PASSWORD"
	mlEndpointEnv     = "ML_ENDPOINT"
	mlAPIKeyEnv       = "ML_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig     `yaml:"logging"`
	Database   DatabaseConfig    `yaml:"database"`
	Monant     MonantConfig      `yaml:"monant"`
	Data       DataConfig        `yaml:"data"`
	ML         MLConfig          `yaml:"ml"`
	Training   TrainingConfig    `yaml:"training"`
	Models     ModelsConfig      `yaml:"models"`
	Language   LanguageConfig    `yaml:"language"`
	Preprocess preprocess.Config `yaml:"preprocess"`
}

// LoggingConfig sets the slog level: debug, info, warn or error.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes where preprocessing runs are recorded. An empty DSN disables recording.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// MonantConfig holds the article platform address and credentials.
type MonantConfig struct {
	APIHost  string        `yaml:"apiHost"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	PageSize int           `yaml:"pageSize"`
	Pause    time.Duration `yaml:"pause"`
}

// DataConfig locates the raw archive and the datasets derived from it.
type DataConfig struct {
	Folder       string `yaml:"folder"`
	Dataset      string `yaml:"dataset"`
	Preprocessed string `yaml:"preprocessed"`
	// Format forces a codec; empty picks one by file extension.
	Format string `yaml:"format"`
}

// MLConfig describes the model service.
type MLConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TrainingConfig are the default training knobs; CLI flags override them.
type TrainingConfig struct {
	MaxWords     int     `yaml:"maxWords"`
	MaxSeqLen    int     `yaml:"maxSeqLen"`
	TestSize     float64 `yaml:"testSize"`
	Samples      int     `yaml:"samples"`
	Seed         uint64  `yaml:"seed"`
	BatchSize    int     `yaml:"batchSize"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learningRate"`
	HiddenLayers int     `yaml:"hiddenLayers"`
	LogsFolder   string  `yaml:"logsFolder"`
}

// ModelsConfig locates trained models and the pre-trained word vectors.
type ModelsConfig struct {
	Dir        string `yaml:"dir"`
	Embeddings string `yaml:"embeddings"`
}

// LanguageConfig tunes the statistical language detector. Zero MinConfidence accepts every
// identified language.
type LanguageConfig struct {
	MinConfidence float64 `yaml:"minConfidence"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFile reads the YAML document at path and merges it over the defaults. Environment
// overrides are not applied.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	// preprocess parameters are decoded over their defaults, so a file may tune one stage only
	fileCfg := Config{Preprocess: preprocess.DefaultConfig()}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return mergeConfig(defaultConfig(), fileCfg), nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(monantHostEnv); v != "" {
		c.Monant.APIHost = v
	}
	if v := os.Getenv(monantUserEnv); v != "" {
		c.Monant.Username = v
	}
	if v := os.Getenv(monantPasswordEnv); v != "" {
		c.Monant.Password = v
	}

	if v := os.Getenv(mlEndpointEnv); v != "" {
		c.ML.Endpoint = v
	}
	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.ML.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Monant.APIHost != "" {
		base.Monant.APIHost = override.Monant.APIHost
	}
	if override.Monant.Username != "" {
		base.Monant.Username = override.Monant.Username
	}
	if override.Monant.Password != "" {
		base.Monant.Password = override.Monant.Password
	}
	if override.Monant.PageSize > 0 {
		base.Monant.PageSize = override.Monant.PageSize
	}
	if override.Monant.Pause != 0 {
		base.Monant.Pause = override.Monant.Pause
	}

	if override.Data.Folder != "" {
		base.Data.Folder = override.Data.Folder
	}
	if override.Data.Dataset != "" {
		base.Data.Dataset = override.Data.Dataset
	}
	if override.Data.Preprocessed != "" {
		base.Data.Preprocessed = override.Data.Preprocessed
	}
	if override.Data.Format != "" {
		base.Data.Format = override.Data.Format
	}

	if override.ML.Endpoint != "" {
		base.ML.Endpoint = override.ML.Endpoint
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}
	if override.ML.Timeout > 0 {
		base.ML.Timeout = override.ML.Timeout
	}

	base.Training = mergeTraining(base.Training, override.Training)

	if override.Models.Dir != "" {
		base.Models.Dir = override.Models.Dir
	}
	if override.Models.Embeddings != "" {
		base.Models.Embeddings = override.Models.Embeddings
	}

	if override.Language.MinConfidence > 0 {
		base.Language.MinConfidence = override.Language.MinConfidence
	}

	base.Preprocess = override.Preprocess
	return base
}

func mergeTraining(base, override TrainingConfig) TrainingConfig {
	if override.MaxWords > 0 {
		base.MaxWords = override.MaxWords
	}
	if override.MaxSeqLen > 0 {
		base.MaxSeqLen = override.MaxSeqLen
	}
	if override.TestSize > 0 {
		base.TestSize = override.TestSize
	}
	if override.Samples > 0 {
		base.Samples = override.Samples
	}
	if override.Seed > 0 {
		base.Seed = override.Seed
	}
	if override.BatchSize > 0 {
		base.BatchSize = override.BatchSize
	}
	if override.Epochs > 0 {
		base.Epochs = override.Epochs
	}
	if override.LearningRate > 0 {
		base.LearningRate = override.LearningRate
	}
	if override.HiddenLayers > 0 {
		base.HiddenLayers = override.HiddenLayers
	}
	if override.LogsFolder != "" {
		base.LogsFolder = override.LogsFolder
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data/runs.db"},
		Monant: MonantConfig{
			APIHost:  "https://api.monant.fiit.stuba.sk",
			PageSize: 200,
			Pause:    2500 * time.Millisecond,
		},
		Data: DataConfig{
			Folder:       "data/raw",
			Dataset:      "data/raw/dataset.json",
			Preprocessed: "data/preprocessed/dataset.csv",
		},
		ML: MLConfig{Endpoint: "http://localhost:8501", Timeout: 10 * time.Minute},
		Training: TrainingConfig{
			MaxSeqLen:    1000,
			TestSize:     0.15,
			Seed:         1,
			BatchSize:    64,
			Epochs:       10,
			LearningRate: 0.001,
			HiddenLayers: 1,
			LogsFolder:   "logs",
		},
		Models:     ModelsConfig{Dir: "models"},
		Preprocess: preprocess.DefaultConfig(),
	}
}
