// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/sirupsen/logrus"
)

// Config carries the settings of every adapter. Partners without a base URL
// are not registered.
type Config struct {
	Internal  InternalConfig
	ProviderA PartnerConfig
	ProviderB PartnerConfig
	ProviderC PartnerConfig

	ProviderASelfDomain string
}

// Dependencies are the collaborators adapters need besides their config.
type Dependencies struct {
	Catalog Catalog
	Members MembershipChecker
}

// Factory creates the adapter for one source. It returns nil when the
// source is not configured.
type Factory func(cfg Config, deps Dependencies) Adapter

// Factories builds adapters by source.
var Factories = map[offer.Source]Factory{
	offer.SourceInternal: func(cfg Config, deps Dependencies) Adapter {
		if deps.Catalog == nil {
			return nil
		}
		return NewInternal(deps.Catalog, deps.Members, cfg.Internal)
	},
	offer.SourceProviderA: func(cfg Config, _ Dependencies) Adapter {
		if cfg.ProviderA.BaseURL == "" {
			return nil
		}
		return NewProviderA(NewPartnerClient(string(offer.SourceProviderA), cfg.ProviderA),
			ProviderAConfig{SelfDomain: cfg.ProviderASelfDomain})
	},
	offer.SourceProviderB: func(cfg Config, _ Dependencies) Adapter {
		if cfg.ProviderB.BaseURL == "" {
			return nil
		}
		return NewProviderB(NewPartnerClient(string(offer.SourceProviderB), cfg.ProviderB))
	},
	offer.SourceProviderC: func(cfg Config, _ Dependencies) Adapter {
		if cfg.ProviderC.BaseURL == "" {
			return nil
		}
		return NewProviderC(NewPartnerClient(string(offer.SourceProviderC), cfg.ProviderC))
	},
}

// BuildRegistry creates and registers every configured adapter.
func BuildRegistry(cfg Config, deps Dependencies) (*Registry, error) {
	registry := NewRegistry()

	for _, source := range offer.AllSources {
		adapter := Factories[source](cfg, deps)
		if adapter == nil {
			logrus.Infof("provider %s not configured, skipping", source)
			continue
		}
		if err := registry.Register(adapter); err != nil {
			return nil, fmt.Errorf("failed to register provider %s: %w", source, err)
		}
	}

	logrus.Infof("registered %d providers", registry.Count())
	return registry, nil
}
