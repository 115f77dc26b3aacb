package cli

import (
	"github.com/logsleuth/logsleuth/internal/config"
)

var globalConfig *config.Config

// loadGlobalConfig resolves the effective configuration once per invocation,
// from the custom path when given or the standard search paths otherwise.
func loadGlobalConfig(path string) error {
	loader := config.NewLoader()
	cfg, err := loader.LoadConfig(path)
	if err != nil {
		return err
	}
	globalConfig = cfg
	return nil
}

// GetGlobalConfig returns the loaded configuration. Commands invoked without
// the root command's setup (tests, mostly) get plain defaults.
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		globalConfig = config.DefaultConfig()
	}
	return globalConfig
}
