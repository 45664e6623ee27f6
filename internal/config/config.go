package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Analyzer backend
	ProviderType     string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Supplementary classifier pipeline. Empty path means the server runs
	// with the pretrained emotion model alone.
	PipelinePath      string  `envconfig:"PIPELINE_PATH" default:""`
	OverrideThreshold float64 `envconfig:"OVERRIDE_THRESHOLD" default:"0.60"`

	// CORS origins for the browser frontend
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`

	// Dataset collection
	BingAPIKey   string `envconfig:"BING_API_KEY" default:""`
	BingEndpoint string `envconfig:"BING_ENDPOINT" default:"https://api.bing.microsoft.com/v7.0/images/search"`
	DataDir      string `envconfig:"DATA_DIR" default:"data"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
