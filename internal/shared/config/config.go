package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Workflow WorkflowConfig
	Ollama   OllamaConfig
	Matching MatchingConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// WorkflowConfig holds configuration for the n8n workflow webhooks.
type WorkflowConfig struct {
	// BaseURL of the n8n instance; webhook paths are appended to it
	BaseURL string
	// TimeoutSeconds bounds every outbound webhook call
	TimeoutSeconds int
	// DefaultsPath is an optional JSON file with canned workflow responses
	DefaultsPath string
}

// OllamaConfig holds configuration for the local completion endpoint.
type OllamaConfig struct {
	BaseURL string
	// Model used for chat-query understanding
	Model string
	// JargonModel used for jargon translation
	JargonModel string
	// SystemMessage prepended to chat prompts
	SystemMessage  string
	Temperature    float64
	TimeoutSeconds int
	Enabled        bool
}

// DemoIdentity is a reserved patient given lenient matching and
// update-in-place registration behavior.
type DemoIdentity struct {
	ID       string
	Name     string
	Keywords []string
}

// MatchingConfig drives the face matcher thresholds and the reserved
// demo-identity set. The tier thresholds are calibration values carried
// over from the demo deployment; they are behaviorally load-bearing.
type MatchingConfig struct {
	// BaseThreshold is the standard acceptance distance
	BaseThreshold float64
	// RelativeImprovement widens the threshold when the best match is
	// this much closer than the runner-up
	RelativeImprovement float64
	// Tier thresholds for the demo-identity lenience cascade
	TierClosest float64
	TierTop3    float64
	TierLenient float64
	TierUltra   float64
	// DefaultPatientID is returned for descriptor-less identify calls
	DefaultPatientID string
	// DemoIdentities are exempt from the standard threshold
	DemoIdentities []DemoIdentity
}

// IsDemo reports whether the given patient id belongs to a reserved
// demo identity.
func (m MatchingConfig) IsDemo(patientID string) bool {
	for _, d := range m.DemoIdentities {
		if d.ID == patientID {
			return true
		}
	}
	return false
}

// MatchDemoName returns the demo identity whose name or keywords match
// the submitted registration name, if any.
func (m MatchingConfig) MatchDemoName(name string) *DemoIdentity {
	lower := strings.ToLower(name)
	for i := range m.DemoIdentities {
		d := &m.DemoIdentities[i]
		if strings.ToLower(d.Name) == lower {
			return d
		}
		for _, kw := range d.Keywords {
			if strings.Contains(lower, kw) {
				return d
			}
		}
	}
	return nil
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "medilink"),
			Password: getEnv("DB_PASSWORD", "medilink"),
			Database: getEnv("DB_NAME", "medilink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Workflow: WorkflowConfig{
			BaseURL:        getEnv("N8N_BASE_URL", "http://localhost:5678"),
			TimeoutSeconds: getEnvInt("N8N_TIMEOUT_SECONDS", 5),
			DefaultsPath:   getEnv("N8N_DEFAULTS_PATH", ""),
		},
		Ollama: OllamaConfig{
			BaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:          getEnv("OLLAMA_MODEL", "llama3.2:latest"),
			JargonModel:    getEnv("OLLAMA_JARGON_MODEL", "llama3.2:latest"),
			SystemMessage:  getEnv("OLLAMA_SYSTEM_MESSAGE", ""),
			Temperature:    getEnvFloat("OLLAMA_TEMPERATURE", 0.1),
			TimeoutSeconds: getEnvInt("OLLAMA_TIMEOUT_SECONDS", 30),
			Enabled:        getEnvBool("OLLAMA_ENABLED", true),
		},
		Matching: MatchingConfig{
			BaseThreshold:       getEnvFloat("MATCH_BASE_THRESHOLD", 2.5),
			RelativeImprovement: getEnvFloat("MATCH_RELATIVE_IMPROVEMENT", 0.3),
			TierClosest:         getEnvFloat("MATCH_TIER_CLOSEST", 15.0),
			TierTop3:            getEnvFloat("MATCH_TIER_TOP3", 12.0),
			TierLenient:         getEnvFloat("MATCH_TIER_LENIENT", 50.0),
			TierUltra:           getEnvFloat("MATCH_TIER_ULTRA", 100.0),
			DefaultPatientID:    getEnv("MATCH_DEFAULT_PATIENT_ID", "5"),
			DemoIdentities: []DemoIdentity{
				{ID: "5", Name: "Ahmad Hassan", Keywords: []string{"ahmad", "hassan"}},
			},
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
