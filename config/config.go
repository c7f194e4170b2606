// Package config provides configuration management for the paybridge service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"strings"
	"sync"
	"time"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
	EnvironmentAcceptance  = "acceptance"
	EnvironmentLive        = "live"
)

// Config holds all configuration for the paybridge service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug     bool   `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"live"`
	Listen      struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5100"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
	} `yaml:"mongo"`
	Mollie struct {
		// ProviderId is the id of the provider settings record in the store.
		ProviderId  string        `yaml:"provider_id" env:"MOLLIE_PROVIDER_ID" env-default:"mollie"`
		BaseUrl     string        `yaml:"base_url" env:"MOLLIE_BASE_URL" env-default:"https://api.mollie.com/v2"`
		Timeout     time.Duration `yaml:"timeout" env:"MOLLIE_TIMEOUT" env-default:"30s"`
		Currency    string        `yaml:"currency" env:"MOLLIE_CURRENCY" env-default:"EUR"`
		ReturnUrl   string        `yaml:"return_url" env:"MOLLIE_RETURN_URL" env-default:""`
		WebhookUrl  string        `yaml:"webhook_url" env:"MOLLIE_WEBHOOK_URL" env-default:""`
		SuccessUrl  string        `yaml:"success_url" env:"MOLLIE_SUCCESS_URL" env-default:""`
		PendingUrl  string        `yaml:"pending_url" env:"MOLLIE_PENDING_URL" env-default:""`
		FailUrl     string        `yaml:"fail_url" env:"MOLLIE_FAIL_URL" env-default:""`
		ApiKeyLive  string        `yaml:"api_key_live" env:"MOLLIE_API_KEY_LIVE" env-default:""`
		ApiKeyTest  string        `yaml:"api_key_test" env:"MOLLIE_API_KEY_TEST" env-default:""`
		MethodTitle string        `yaml:"method_title" env:"MOLLIE_METHOD_TITLE" env-default:"Mollie"`
	} `yaml:"mollie"`
	Secrets struct {
		// Key and IV for AES-CBC decryption of stored API keys; empty key means keys are stored in plain text.
		Key string `yaml:"key" env:"SECRETS_KEY" env-default:""`
		IV  string `yaml:"iv" env:"SECRETS_IV" env-default:""`
	} `yaml:"secrets"`
	Basket struct {
		QuantityProperty string            `yaml:"quantity_property" env:"BASKET_QUANTITY_PROPERTY" env-default:"quantity"`
		PricesIncludeVat bool              `yaml:"prices_include_vat" env:"BASKET_PRICES_INCLUDE_VAT" env-default:"true"`
		DefaultVatRate   int               `yaml:"default_vat_rate" env:"BASKET_DEFAULT_VAT_RATE" env-default:"21"`
		VatFactors       map[string]string `yaml:"vat_factors"`
	} `yaml:"basket"`
}

// IsTestEnvironment reports whether test credentials must be used.
func (c *Config) IsTestEnvironment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case EnvironmentDevelopment, EnvironmentTest:
		return true
	}
	return false
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("load config: %w; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}

// FromEnv reads a configuration from environment variables only.
func FromEnv() (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return conf, nil
}
