// Package commands implements the sscreds CLI commands.
package commands

import (
	"github.com/systmms/sscreds/internal/config"
	"github.com/systmms/sscreds/internal/logging"
	"github.com/systmms/sscreds/pkg/secretserver"
)

// Options carries the values parsed from global flags into each
// command.
type Options struct {
	Logger  *logging.Logger
	EnvFile string
	Debug   bool
}

// newClient loads configuration from the environment and builds a
// client. Configuration problems surface here, before any network
// traffic.
func (o *Options) newClient() (*secretserver.Client, error) {
	settings, err := config.Load(o.EnvFile)
	if err != nil {
		return nil, err
	}

	return secretserver.New(secretserver.Config{
		BaseURL:  settings.BaseURL,
		Username: settings.Username,
		Password: settings.Password,
		Debug:    o.Debug,
	})
}
