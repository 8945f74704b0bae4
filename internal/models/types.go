package models

import "fmt"

// Provider is the anime tracking site a user is registered on
type Provider string

const (
	ProviderAnilist Provider = "anilist"
	ProviderMAL     Provider = "mal"
)

// ParseProvider validates a provider name
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderAnilist, ProviderMAL:
		return Provider(s), nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

// Supported reports whether watch histories can be fetched for the provider
func (p Provider) Supported() bool {
	return p == ProviderAnilist
}
