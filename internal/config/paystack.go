package config

import "time"

// PaystackConfig carries both key sets; TestMode picks which one is active.
type PaystackConfig struct {
	TestMode        bool          `koanf:"test_mode"`
	TestSecretKey   string        `koanf:"test_secret_key"`
	TestPublicKey   string        `koanf:"test_public_key"`
	LiveSecretKey   string        `koanf:"live_secret_key"`
	LivePublicKey   string        `koanf:"live_public_key"`
	SignatureSecret string        `koanf:"signature_secret"`
	BaseURL         string        `koanf:"base_url" validate:"required,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"required"`
	VerifyTimeout   time.Duration `koanf:"verify_timeout" validate:"required"`
	CallbackURL     string        `koanf:"callback_url" validate:"omitempty,url"`
}

// Keys returns the secret and public key for the active mode.
func (c PaystackConfig) Keys() (secret, public string) {
	if c.TestMode {
		return c.TestSecretKey, c.TestPublicKey
	}
	return c.LiveSecretKey, c.LivePublicKey
}

// WebhookSecret is the HMAC key for inbound webhook signatures. Paystack signs
// with the account secret key unless a dedicated secret is configured.
func (c PaystackConfig) WebhookSecret() string {
	if c.SignatureSecret != "" {
		return c.SignatureSecret
	}
	secret, _ := c.Keys()
	return secret
}

func (c PaystackConfig) PublicKey() string {
	_, public := c.Keys()
	return public
}
