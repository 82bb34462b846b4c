package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Vector    VectorConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Chat      ChatConfig
	Knowledge KnowledgeConfig
	Analytics AnalyticsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// VectorConfig selects the vector store backend. Provider "memory" keeps the
// exact-scan in-process store; "milvus" targets a managed collection.
type VectorConfig struct {
	Provider       string
	Endpoint       string
	APIKey         string
	CollectionName string
	Dim            int
}

// DatabaseConfig selects the realtime-lookup adapter the chat tools query.
// An empty driver disables tool execution entirely.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	EmbedBatchSize int
}

// ChatConfig carries the hand-tuned pipeline constants. The defaults are the
// reference values; they are deliberately configuration, not code constants.
type ChatConfig struct {
	TopK              int
	HighConfidence    float64
	CacheTTLSeconds   int
	HistoryLimit      int
	ChunkSize         int
	ChunkOverlap      int
	EmbedCacheTTLMins int
}

type KnowledgeConfig struct {
	WatchDir string
	SeedFile string
}

type AnalyticsConfig struct {
	Path       string
	BufferSize int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/shop-agent")

	viper.SetEnvPrefix("SHOP_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("vector.provider", "memory")
	viper.SetDefault("vector.endpoint", "localhost:19530")
	viper.SetDefault("vector.collectionName", "faq_chunks")
	viper.SetDefault("vector.dim", 1536)

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./data/store.db")

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.embedBatchSize", 50)

	viper.SetDefault("chat.topK", 3)
	viper.SetDefault("chat.highConfidence", 0.8)
	viper.SetDefault("chat.cacheTTLSeconds", 300)
	viper.SetDefault("chat.historyLimit", 10)
	viper.SetDefault("chat.chunkSize", 500)
	viper.SetDefault("chat.chunkOverlap", 50)
	viper.SetDefault("chat.embedCacheTTLMins", 60)

	viper.SetDefault("knowledge.watchDir", "")
	viper.SetDefault("knowledge.seedFile", "")

	viper.SetDefault("analytics.path", "./data/analytics.db")
	viper.SetDefault("analytics.bufferSize", 256)

	viper.SetDefault("ratelimit.requestsPerMinute", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
