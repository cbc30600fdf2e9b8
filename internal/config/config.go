package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veredito/juris/internal/domain/schema"
)

// Config holds the juris engine configuration.
type Config struct {
	HTTP      HTTPConfig        `yaml:"http"`
	Database  DatabaseConfig    `yaml:"database"`
	Index     IndexConfig       `yaml:"index"`
	Providers ProvidersConfig   `yaml:"providers"`
	Retrieval RetrievalConfig   `yaml:"retrieval"`
	Normalize NormalizeConfig   `yaml:"normalize"`
	Schema    []AttributeConfig `yaml:"schema"`
	Auth      AuthConfig        `yaml:"auth"`
	Logging   LoggingConfig     `yaml:"logging"`
	Trace     TraceConfig       `yaml:"trace"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds index store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds passage index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	VectorDim       int    `yaml:"vector_dim"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// ProvidersConfig holds the three model provider endpoints.
type ProvidersConfig struct {
	Embedding  ProviderConfig `yaml:"embedding"`
	Extraction ProviderConfig `yaml:"extraction"`
	Generation ProviderConfig `yaml:"generation"`
}

// ProviderConfig holds one OpenAI-compatible provider's settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// RetrievalConfig holds query planning and step execution settings.
type RetrievalConfig struct {
	TopK                 int `yaml:"top_k"`
	PlanningTimeoutSec   int `yaml:"planning_timeout_sec"`
	RetrievalTimeoutSec  int `yaml:"retrieval_timeout_sec"`
	GenerationTimeoutSec int `yaml:"generation_timeout_sec"`
}

// NormalizeConfig holds metadata normalization settings.
type NormalizeConfig struct {
	// CenturyPivot expands 2-digit years: 00..pivot -> 20YY, else 19YY.
	CenturyPivot int `yaml:"century_pivot"`
}

// AttributeConfig declares one filterable attribute.
type AttributeConfig struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"` // string, integer, enum
	Description string   `yaml:"description"`
	Values      []string `yaml:"values,omitempty"`
	YearOf      string   `yaml:"year_of,omitempty"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// TraceConfig holds trace delivery settings.
type TraceConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. An empty schema
// section falls back to the ruling-summary corpus schema.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "idx:passages"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "passage:"
	}
	if c.Index.VectorDim <= 0 {
		c.Index.VectorDim = 1536
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 10
	}
	if c.Retrieval.PlanningTimeoutSec <= 0 {
		c.Retrieval.PlanningTimeoutSec = 30
	}
	if c.Retrieval.RetrievalTimeoutSec <= 0 {
		c.Retrieval.RetrievalTimeoutSec = 10
	}
	if c.Retrieval.GenerationTimeoutSec <= 0 {
		c.Retrieval.GenerationTimeoutSec = 90
	}
	if c.Normalize.CenturyPivot <= 0 {
		c.Normalize.CenturyPivot = 68
	}
	if c.Trace.BufferSize <= 0 {
		c.Trace.BufferSize = 256
	}
	if len(c.Schema) == 0 {
		c.Schema = DefaultSchema()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Providers.Embedding.Model == "" {
		return fmt.Errorf("providers.embedding.model is required")
	}
	if c.Providers.Extraction.Model == "" {
		return fmt.Errorf("providers.extraction.model is required")
	}
	if c.Providers.Generation.Model == "" {
		return fmt.Errorf("providers.generation.model is required")
	}
	if c.Normalize.CenturyPivot > 99 {
		return fmt.Errorf("normalize.century_pivot must be at most 99, got %d", c.Normalize.CenturyPivot)
	}
	if _, err := c.BuildSchema(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// BuildSchema converts the declared attribute list into a domain schema.
func (c *Config) BuildSchema() (schema.Schema, error) {
	attrs := make([]schema.Attribute, 0, len(c.Schema))
	for _, ac := range c.Schema {
		attr, err := schema.NewAttribute(ac.Name, schema.Type(ac.Type), ac.Description, ac.Values, ac.YearOf)
		if err != nil {
			return schema.Schema{}, err
		}
		attrs = append(attrs, attr)
	}
	return schema.New(attrs)
}

// DefaultSchema declares the TCE ruling-summary corpus attributes.
func DefaultSchema() []AttributeConfig {
	return []AttributeConfig{
		{
			Name:        "num_sumula",
			Type:        "string",
			Description: "Ruling summary number, plain text without prefix (e.g. '70'). Filter by it when the user asks by number.",
		},
		{
			Name:        "status_atual",
			Type:        "enum",
			Description: "Current status of the ruling summary.",
			Values:      []string{"VIGENTE", "REVOGADA", "ALTERADA"},
		},
		{
			Name:        "data_status_ano",
			Type:        "integer",
			Description: "Publication year as a 4-digit integer (e.g. 2014). Comparison operators allowed: 'before YYYY' is lt, 'after YYYY' is gt.",
			YearOf:      "data_status",
		},
		{
			Name:        "pdf_name",
			Type:        "string",
			Description: "Source PDF file name (e.g. 'Sumula_70.pdf').",
		},
		{
			Name:        "chunk_type",
			Type:        "enum",
			Description: "Kind of passage within the document.",
			Values:      []string{"CONTEUDO_PRINCIPAL", "REFERENCIAS_NORMATIVAS", "PRECEDENTES"},
		},
		{
			Name:        "chunk_index",
			Type:        "integer",
			Description: "Position of the passage within its document.",
		},
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
