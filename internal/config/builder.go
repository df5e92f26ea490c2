package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// configBuilder layers configuration sources. Sources are merged in
// order, earlier sources winning: env first, then defaults filling the
// gaps (mergo.Merge only sets zero-valued fields).
type configBuilder struct {
	configs []*Config
	err     error
}

func newBuilder() *configBuilder {
	return &configBuilder{configs: make([]*Config, 0, 2)}
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &Config{}
	if err := env.Parse(envCfg); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("parsing environment: %w", err))
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, defaults())
	return b
}

func (b *configBuilder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("building config: %w", b.err)
	}

	cfg := new(Config)
	for _, layer := range b.configs {
		if err := mergo.Merge(cfg, layer); err != nil {
			return nil, fmt.Errorf("merging config layers: %w", err)
		}
	}

	return cfg, cfg.validate()
}
