package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/halcyonlabs/meetscribe/internal/config"
)

type envConfig struct {
	Env                       string `env:"ENV" envDefault:"production"`
	ListenAddr                string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL               string `env:"DATABASE_URL,required"`
	ProvisionerBaseURL        string `env:"PROVISIONER_BASE_URL,required"`
	ProvisionerAPIKey         string `env:"PROVISIONER_API_KEY"`
	PublicBaseURL             string `env:"PUBLIC_BASE_URL,required"`
	ProvisionTimeoutSec       int    `env:"PROVISION_TIMEOUT_SEC" envDefault:"15"`
	TranscriptFetchTimeoutSec int    `env:"TRANSCRIPT_FETCH_TIMEOUT_SEC" envDefault:"30"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                       raw.Env,
		ListenAddr:                raw.ListenAddr,
		DatabaseURL:               raw.DatabaseURL,
		ProvisionerBaseURL:        raw.ProvisionerBaseURL,
		ProvisionerAPIKey:         raw.ProvisionerAPIKey,
		PublicBaseURL:             raw.PublicBaseURL,
		ProvisionTimeoutSec:       raw.ProvisionTimeoutSec,
		TranscriptFetchTimeoutSec: raw.TranscriptFetchTimeoutSec,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
