package models

// Provider identifies one of the supported cloud provider domains.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderGCP   Provider = "gcp"
	ProviderAzure Provider = "azure"
)

// AllProviders lists every provider domain the scheduler sweeps on each tick.
var AllProviders = []Provider{ProviderAWS, ProviderGCP, ProviderAzure}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAWS, ProviderGCP, ProviderAzure:
		return true
	}
	return false
}

// DisplayName returns the provider name used in notification subjects and titles.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderAWS:
		return "AWS"
	case ProviderGCP:
		return "GCP"
	case ProviderAzure:
		return "Azure"
	}
	return string(p)
}
