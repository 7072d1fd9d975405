package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Env                       string
	ListenAddr                string
	DatabaseURL               string
	ProvisionerBaseURL        string
	ProvisionerAPIKey         string
	PublicBaseURL             string
	ProvisionTimeoutSec       int
	TranscriptFetchTimeoutSec int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.ProvisionTimeoutSec <= 0 {
		return fmt.Errorf("PROVISION_TIMEOUT_SEC must be positive, got %d", c.ProvisionTimeoutSec)
	}
	if c.TranscriptFetchTimeoutSec <= 0 {
		return fmt.Errorf("TRANSCRIPT_FETCH_TIMEOUT_SEC must be positive, got %d", c.TranscriptFetchTimeoutSec)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "PROVISIONER_BASE_URL", value: c.ProvisionerBaseURL},
		{name: "PUBLIC_BASE_URL", value: c.PublicBaseURL},
		{name: "LISTEN_ADDR", value: c.ListenAddr},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) ProvisionTimeout() time.Duration {
	return time.Duration(c.ProvisionTimeoutSec) * time.Second
}

func (c *Config) TranscriptFetchTimeout() time.Duration {
	return time.Duration(c.TranscriptFetchTimeoutSec) * time.Second
}

// TurnStreamURL is the callback address handed to the provisioner for the
// live turn stream.
func (c *Config) TurnStreamURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/v1/stream"
}

// LifecycleNotifyURL is the address the provisioner posts lifecycle events to.
func (c *Config) LifecycleNotifyURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/v1/meetings/notify"
}
