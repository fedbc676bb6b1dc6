// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: google-api-key, anthropic-api-key, redis-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names.
const (
	GoogleAPIKey    = "google-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	RedisPassword   = "redis-password"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are reported through warn, which may be nil.
func Load(dir string, warn func(name string, err error)) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				warn(name, err)
			}
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve returns the first non-empty value among explicit, the named
// environment variables in order, and secrets[key].
func Resolve(explicit string, envKeys []string, secrets map[string]string, key string) string {
	if explicit != "" {
		return explicit
	}
	for _, k := range envKeys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return secrets[key]
}

// KeyForProvider names the secret file holding the credential for a model
// provider. Providers that need no key return "".
func KeyForProvider(provider string) string {
	switch provider {
	case "", "gemini":
		return GoogleAPIKey
	case "claude":
		return AnthropicAPIKey
	default:
		return ""
	}
}

// EnvForProvider lists the conventional environment variables holding the
// credential for a model provider.
func EnvForProvider(provider string) []string {
	switch provider {
	case "", "gemini":
		return []string{"SOLARIS_MODEL_CREDENTIAL", "GOOGLE_API_KEY"}
	case "claude":
		return []string{"SOLARIS_MODEL_CREDENTIAL", "ANTHROPIC_API_KEY"}
	default:
		return nil
	}
}
