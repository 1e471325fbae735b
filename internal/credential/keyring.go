package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "onebox"

	// WebhookKey is the keyring entry holding the webhook URL used by
	// mark-interested.
	WebhookKey = "webhook-url"
)

// Vault reads and writes credential values in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// Open returns a Vault backed by the system keyring, falling back to an
// encrypted file under ~/.config/onebox/credentials.
func Open() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/onebox/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("onebox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Vault{ring: ring}, nil
}

// NewVault wraps an existing keyring. Tests pass keyring.NewArrayKeyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Get retrieves a credential value by key. A missing key yields an
// empty string and no error.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key string, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an error.
func (v *Vault) Delete(key string) error {
	err := v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Webhook returns the stored webhook URL, or "" when none is set.
func (v *Vault) Webhook() (string, error) {
	return v.Get(WebhookKey)
}

// SaveWebhook stores url as the webhook. A blank url clears the entry.
func (v *Vault) SaveWebhook(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return v.Delete(WebhookKey)
	}
	return v.Set(WebhookKey, url)
}
