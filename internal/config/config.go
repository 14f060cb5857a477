package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Index     IndexConfig     `mapstructure:"index"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // sqlite file for jobs and reports
}

type IndexConfig struct {
	Path         string `mapstructure:"path"`          // sqlite file for vector collections
	ChunkSize    int    `mapstructure:"chunk_size"`    // target characters per chunk
	ChunkOverlap int    `mapstructure:"chunk_overlap"` // overlap between consecutive chunks
}

type AnalysisConfig struct {
	WorkDir           string   `mapstructure:"work_dir"` // clone destination root
	CloneTimeoutSecs  int      `mapstructure:"clone_timeout_seconds"`
	MaxSamples        int      `mapstructure:"max_samples"`
	ProgressInterval  int      `mapstructure:"progress_interval"` // progress update every N files
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	SkipDirectories   []string `mapstructure:"skip_directories"`
}

type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // local or ollama
	OllamaURL string `mapstructure:"ollama_url"`
	Model     string `mapstructure:"model"`
	CacheSize int    `mapstructure:"cache_size"`
}

type LLMConfig struct {
	Model       string   `mapstructure:"model"`
	APIKeys     []string `mapstructure:"api_keys"`
	Temperature float32  `mapstructure:"temperature"`
	MaxTokens   int32    `mapstructure:"max_tokens"`
}

type CleanupConfig struct {
	RetentionMinutes     int `mapstructure:"retention_minutes"`
	CheckIntervalSeconds int `mapstructure:"check_interval_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Retention returns the configured retention window as a duration.
func (c CleanupConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMinutes) * time.Minute
}

// CheckInterval returns the configured scheduler interval as a duration.
func (c CleanupConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// Load reads configuration from an optional config file plus environment
// variables. Environment keys use the REPOHEALTH_ prefix with underscores,
// e.g. REPOHEALTH_SERVER_PORT.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REPOHEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Config file is optional; env and defaults are enough.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.LLM.APIKeys) == 0 {
		cfg.LLM.APIKeys = keysFromEnv()
	}

	return &cfg, nil
}

// keysFromEnv collects GOOGLE_API_KEY_1..N, falling back to the single
// GOOGLE_API_KEY. Numbered keys enable round-robin rotation.
func keysFromEnv() []string {
	var keys []string
	for i := 1; ; i++ {
		key := os.Getenv(fmt.Sprintf("GOOGLE_API_KEY_%d", i))
		if key == "" {
			break
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "repohealth.db")

	v.SetDefault("index.path", "index.db")
	v.SetDefault("index.chunk_size", 800)
	v.SetDefault("index.chunk_overlap", 120) // ~15% of chunk size

	v.SetDefault("analysis.work_dir", "temp_repos")
	v.SetDefault("analysis.clone_timeout_seconds", 120)
	v.SetDefault("analysis.max_samples", 25)
	v.SetDefault("analysis.progress_interval", 10)
	v.SetDefault("analysis.allowed_extensions", []string{
		".py", ".js", ".ts", ".jsx", ".tsx",
		".java", ".go", ".rs", ".cpp", ".c", ".h", ".hpp",
		".md", ".txt", ".json", ".yaml", ".yml", ".xml",
		".html", ".css", ".sql", ".sh", ".bash",
	})
	v.SetDefault("analysis.skip_directories", []string{
		".git", "node_modules", "venv", ".venv", "env", ".env",
		"build", "dist", "__pycache__", ".pytest_cache",
		"target", "bin", "obj", ".idea", ".vscode",
	})

	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.ollama_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.cache_size", 10000)

	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("cleanup.retention_minutes", 60)
	v.SetDefault("cleanup.check_interval_seconds", 300)

	v.SetDefault("log.level", "info")
}
