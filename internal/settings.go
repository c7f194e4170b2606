package internal

import (
	"context"
	"errors"
	"fmt"
	"paybridge/config"
	"paybridge/entity"
	"paybridge/services"
	"strings"
)

// ErrSettingsNotFound is returned by the store when no provider record exists.
var ErrSettingsNotFound = errors.New("provider settings not found")

// SettingsLoader builds provider settings from configuration and the persisted provider record.
type SettingsLoader struct {
	conf      *config.Config
	database  services.Database
	encryptor *Encryptor
}

func NewSettingsLoader(conf *config.Config, database services.Database) *SettingsLoader {
	return &SettingsLoader{
		conf:      conf,
		database:  database,
		encryptor: NewEncryptor(conf.Secrets.Key, conf.Secrets.IV),
	}
}

// GetProviderSettings selects the test key in development and test environments and the live key elsewhere.
func (s *SettingsLoader) GetProviderSettings(ctx context.Context) (*entity.MollieSettings, error) {
	settings := &entity.MollieSettings{
		Id:         s.conf.Mollie.ProviderId,
		Title:      s.conf.Mollie.MethodTitle,
		Currency:   s.conf.Mollie.Currency,
		ReturnUrl:  s.conf.Mollie.ReturnUrl,
		WebhookUrl: s.conf.Mollie.WebhookUrl,
		RedirectUrls: entity.RedirectUrls{
			SuccessUrl: s.conf.Mollie.SuccessUrl,
			PendingUrl: s.conf.Mollie.PendingUrl,
			FailUrl:    s.conf.Mollie.FailUrl,
		},
	}

	liveKey, testKey := s.conf.Mollie.ApiKeyLive, s.conf.Mollie.ApiKeyTest
	if s.database != nil {
		record, err := s.database.GetProviderSettingsRecord(ctx, s.conf.Mollie.ProviderId)
		switch {
		case err == nil && record != nil:
			liveKey, testKey = record.ApiKeyLive, record.ApiKeyTest
			if record.Title != "" {
				settings.Title = record.Title
			}
		case err != nil && !errors.Is(err, ErrSettingsNotFound):
			return nil, fmt.Errorf("get provider settings: %w", err)
		}
	}

	key := liveKey
	if s.conf.IsTestEnvironment() {
		key = testKey
	}
	apiKey, err := s.encryptor.Decrypt(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("api key: %w", err)
	}
	settings.ApiKey = apiKey
	return settings, nil
}

// GetPaymentMethodSettings binds a payment method to the provider settings.
func (s *SettingsLoader) GetPaymentMethodSettings(ctx context.Context, externalName string) (*entity.PaymentMethodSettings, error) {
	provider, err := s.GetProviderSettings(ctx)
	if err != nil {
		return nil, err
	}
	externalName = strings.ToLower(strings.TrimSpace(externalName))
	return &entity.PaymentMethodSettings{
		Id:           fmt.Sprintf("%s:%s", provider.Id, externalName),
		Title:        provider.Title,
		ExternalName: externalName,
		Provider:     provider,
	}, nil
}
