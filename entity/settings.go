package entity

// PaymentProviderSettings is implemented by the provider specific settings payloads.
type PaymentProviderSettings interface {
	ProviderName() string
	Redirects() RedirectUrls
}

// RedirectUrls are the merchant pages a customer is sent to after a payment.
type RedirectUrls struct {
	SuccessUrl string
	PendingUrl string
	FailUrl    string
}

// MollieSettings holds the Mollie specific provider settings.
type MollieSettings struct {
	Id         string
	Title      string
	ApiKey     string
	Currency   string
	Locale     string
	ReturnUrl  string
	WebhookUrl string
	RedirectUrls
}

func (m *MollieSettings) ProviderName() string {
	return "mollie"
}

func (m *MollieSettings) Redirects() RedirectUrls {
	return m.RedirectUrls
}

// PaymentMethodSettings describes the payment method a customer selected.
type PaymentMethodSettings struct {
	Id           string
	Title        string
	ExternalName string
	Provider     PaymentProviderSettings
}

// ProviderSettingsRecord is the persisted provider record with encrypted keys.
type ProviderSettingsRecord struct {
	Id         string `json:"id" bson:"id"`
	Title      string `json:"title" bson:"title"`
	ApiKeyLive string `json:"mollie_api_key_live" bson:"mollie_api_key_live"`
	ApiKeyTest string `json:"mollie_api_key_test" bson:"mollie_api_key_test"`
}
