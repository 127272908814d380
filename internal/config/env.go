package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "memefactory"

// envOverrides are read from MEMEFACTORY_* variables.
type envOverrides struct {
	ConfigDir      string `envconfig:"CONFIG_DIR"`
	Environment    string `envconfig:"ENV"`
	FactoryAddress string `envconfig:"FACTORY_ADDRESS"`
	ChainID        string `envconfig:"CHAIN_ID"`
	ChainName      string `envconfig:"CHAIN_NAME"`
	RPCURL         string `envconfig:"RPC_URL"`
	ExplorerURL    string `envconfig:"EXPLORER_URL"`
	HTTPAddr       string `envconfig:"HTTP_ADDR"`
}

func loadEnv() (envOverrides, error) {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return env, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}
