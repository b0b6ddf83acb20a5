// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/AccelByte/extend-sponsor-unlock/internal/config"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/provider"
)

// ProviderConfig maps the environment onto the adapter settings. A partner
// without a URL stays unregistered.
func ProviderConfig(cfg *config.Config) provider.Config {
	partner := func(url, token, header string) provider.PartnerConfig {
		return provider.PartnerConfig{
			BaseURL:       url,
			Token:         token,
			TokenHeader:   header,
			Timeout:       cfg.ProviderTimeout,
			RateLimit:     cfg.ProviderRateLimit,
			Burst:         cfg.ProviderBurst,
			MaxRetries:    cfg.ProviderMaxRetries,
			RetryInterval: cfg.ProviderRetryInterval,
		}
	}

	return provider.Config{
		Internal:            provider.InternalConfig{Concurrency: cfg.MembershipConcurrency},
		ProviderA:           partner(cfg.ProviderAURL, cfg.ProviderAToken, cfg.ProviderATokenHeader),
		ProviderB:           partner(cfg.ProviderBURL, cfg.ProviderBToken, cfg.ProviderBTokenHeader),
		ProviderC:           partner(cfg.ProviderCURL, cfg.ProviderCToken, cfg.ProviderCTokenHeader),
		ProviderASelfDomain: cfg.ProviderASelfDomain,
	}
}

// InitProviders registers every configured sponsor adapter. members may be
// nil, in which case catalog sponsors are shown without live checks.
func InitProviders(cfg *config.Config, catalog provider.Catalog, members provider.MembershipChecker) (*provider.Registry, provider.Resetter, error) {
	registry, err := provider.BuildRegistry(ProviderConfig(cfg), provider.Dependencies{
		Catalog: catalog,
		Members: members,
	})
	if err != nil {
		return nil, nil, err
	}

	// providerC keeps partner-side state that is reset after its stage clears.
	resetter, _ := registry.Get(offer.SourceProviderC).(provider.Resetter)
	return registry, resetter, nil
}
