package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Match     MatchConfig
	Supabase  SupabaseConfig
	Email     EmailConfig
	Web       WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EmbeddingConfig struct {
	URL string // face embedding service, defaults to http://localhost:8000
	Dim int    // embedding dimension, defaults to defaults.yaml value (512 for ArcFace)
}

type MatchConfig struct {
	Threshold          float64 // minimum cosine similarity for "same person"
	ReResolveLimit     int     // snapshot re-runs after a lost depart race
	DuplicateThreshold float64 // similarity above which two enrollments are flagged as duplicates
	DuplicateNeighbors int     // nearest neighbors inspected per record in the duplicate report
}

type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string // storage bucket for captured face images
}

type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
}

type WebConfig struct {
	Host string
	Port int
}

// defaults mirrors the embedded defaults.yaml file.
type defaults struct {
	Match struct {
		Threshold          float64 `yaml:"threshold"`
		ReResolveLimit     int     `yaml:"re_resolve_limit"`
		DuplicateThreshold float64 `yaml:"duplicate_threshold"`
		DuplicateNeighbors int     `yaml:"duplicate_neighbors"`
	} `yaml:"match"`
	Embedding struct {
		Dim int `yaml:"dim"`
	} `yaml:"embedding"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", def.Embedding.Dim),
		},
		Match: MatchConfig{
			Threshold:          envFloat("MATCH_THRESHOLD", def.Match.Threshold),
			ReResolveLimit:     def.Match.ReResolveLimit,
			DuplicateThreshold: envFloat("DUPLICATE_THRESHOLD", def.Match.DuplicateThreshold),
			DuplicateNeighbors: def.Match.DuplicateNeighbors,
		},
		Supabase: SupabaseConfig{
			URL:    os.Getenv("SUPABASE_URL"),
			Key:    os.Getenv("SUPABASE_KEY"),
			Bucket: envString("SUPABASE_BUCKET", "visitor-faces"),
		},
		Email: EmailConfig{
			Host: os.Getenv("EMAIL_HOST"),
			Port: envInt("EMAIL_PORT", 465),
			User: os.Getenv("EMAIL_USER"),
			Pass: os.Getenv("EMAIL_PASS"),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
	}
}
