// Package config loads Secret Server connection settings from the
// process environment.
//
// Required variables:
//
//	SSAPP_USERNAME  application account user name
//	SSAPP_PASSWORD  application account password
//	SSAPP_BASEURL   Secret Server base URL, e.g. https://vault.example.com/SecretServer
//
// A .env file can supply these during development; see Load.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/systmms/sscreds/pkg/secure"
)

// Environment variable names, matching the application account
// convention used by operations tooling.
const (
	EnvUsername = "SSAPP_USERNAME"
	EnvPassword = "SSAPP_PASSWORD"
	EnvBaseURL  = "SSAPP_BASEURL"
)

// Error reports a missing or invalid configuration value. Construction
// fails fast on it; nothing is deferred to first use.
type Error struct {
	Variable string
	Message  string
}

func (e Error) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Variable, e.Message)
	}
	return "configuration error: " + e.Message
}

// Settings holds the validated connection settings. The password is
// sealed in protected memory as soon as it is read from the
// environment.
type Settings struct {
	BaseURL  string
	Username string
	Password *secure.String
}

// Load reads settings from the environment, optionally merging a .env
// file first (existing environment variables win, matching godotenv
// semantics). envFile may be empty to skip file loading; a missing
// default ".env" is not an error.
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, Error{Message: fmt.Sprintf("loading %s: %v", envFile, err)}
		}
	}
	return FromEnv()
}

// FromEnv reads and validates settings from the current environment.
func FromEnv() (*Settings, error) {
	username := os.Getenv(EnvUsername)
	if username == "" {
		return nil, Error{Variable: EnvUsername, Message: "required value is not set"}
	}

	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil, Error{Variable: EnvPassword, Message: "required value is not set"}
	}

	baseURL := strings.TrimRight(os.Getenv(EnvBaseURL), "/")
	if baseURL == "" {
		return nil, Error{Variable: EnvBaseURL, Message: "required value is not set"}
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, Error{Variable: EnvBaseURL, Message: fmt.Sprintf("%q is not an absolute URL", baseURL)}
	}

	return &Settings{
		BaseURL:  baseURL,
		Username: username,
		Password: secure.NewString(password),
	}, nil
}
