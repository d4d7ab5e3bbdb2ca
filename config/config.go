// Package config holds the full service configuration and its loader.
// Precedence: built-in defaults, then the YAML file, then environment
// variables with the RAGSHIELD_ prefix.
package config

import "time"

// Config is the complete configuration tree.
type Config struct {
	Server     ServerConfig     `yaml:"server" env:"SERVER"`
	Azure      AzureConfig      `yaml:"azure" env:"AZURE"`
	Index      IndexConfig      `yaml:"index" env:"INDEX"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" env:"RETRIEVAL"`
	Validation ValidationConfig `yaml:"validation" env:"VALIDATION"`
	Generation GenerationConfig `yaml:"generation" env:"GENERATION"`
	Cache      CacheConfig      `yaml:"cache" env:"CACHE"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// MaxBodyBytes caps request body size, including uploaded images.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// AzureConfig configures the Azure OpenAI backends. The chat, embedding
// and vision deployments share the endpoint and API key.
type AzureConfig struct {
	Endpoint            string        `yaml:"endpoint" env:"ENDPOINT"`
	APIKey              string        `yaml:"api_key" env:"API_KEY"`
	APIVersion          string        `yaml:"api_version" env:"API_VERSION"`
	ChatDeployment      string        `yaml:"chat_deployment" env:"CHAT_DEPLOYMENT"`
	EmbeddingDeployment string        `yaml:"embedding_deployment" env:"EMBEDDING_DEPLOYMENT"`
	VisionDeployment    string        `yaml:"vision_deployment" env:"VISION_DEPLOYMENT"`
	Timeout             time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

// IndexConfig configures the vector index and offline ingestion.
type IndexConfig struct {
	// Path is the directory holding the persisted snapshot.
	Path                string `yaml:"path" env:"PATH"`
	ChunkSize           int    `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap        int    `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	IngestConcurrency   int    `yaml:"ingest_concurrency" env:"INGEST_CONCURRENCY"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions" env:"EMBEDDING_DIMENSIONS"`
}

// RetrievalConfig configures query-time retrieval.
type RetrievalConfig struct {
	TopK               int `yaml:"top_k" env:"TOP_K"`
	ContextTokenBudget int `yaml:"context_token_budget" env:"CONTEXT_TOKEN_BUDGET"`
}

// ValidationConfig toggles the gate's validation stages.
type ValidationConfig struct {
	EnablePromptValidation    bool `yaml:"enable_prompt_validation" env:"ENABLE_PROMPT_VALIDATION"`
	EnableModelConfirmation   bool `yaml:"enable_model_confirmation" env:"ENABLE_MODEL_CONFIRMATION"`
	EnableRelevanceValidation bool `yaml:"enable_relevance_validation" env:"ENABLE_RELEVANCE_VALIDATION"`
}

// GenerationConfig configures answer generation.
type GenerationConfig struct {
	SystemPrompt string  `yaml:"system_prompt" env:"SYSTEM_PROMPT"`
	Temperature  float64 `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens    int     `yaml:"max_tokens" env:"MAX_TOKENS"`
}

// CacheConfig configures the Redis answer cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig configures the OpenTelemetry SDK. Disabled means noop
// providers and no exporter connections.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
		Azure: AzureConfig{
			APIVersion:        "2024-02-01",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 10,
		},
		Index: IndexConfig{
			Path:                "data/index",
			ChunkSize:           1000,
			ChunkOverlap:        100,
			IngestConcurrency:   4,
			EmbeddingDimensions: 1536,
		},
		Retrieval: RetrievalConfig{
			TopK:               3,
			ContextTokenBudget: 3000,
		},
		Validation: ValidationConfig{
			EnablePromptValidation:    true,
			EnableModelConfirmation:   false,
			EnableRelevanceValidation: true,
		},
		Generation: GenerationConfig{
			SystemPrompt: "You are a helpful assistant.",
			Temperature:  0.2,
			MaxTokens:    800,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     5 * time.Minute,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "ragshield",
			SampleRate:  1.0,
		},
	}
}
